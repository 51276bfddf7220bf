/*
Package kinetics implements stochastic chemical kinetics and polymer
elongation, the canonical hard processes of a whole-cell model.

System is a continuous-time Markov chain over reaction stoichiometries,
advanced with the Gillespie direct method. Elongator advances polymerases
along sequence templates against monomer availability, carrying fractional
progress explicitly between invocations. Expression combines the two into
a schedulable gene-expression Process: stochastic promoter binding
interleaved with deterministic elongation inside each timestep.

All randomness flows through injected *rand.Rand instances, so a fixed
seed reproduces an identical event sequence.
*/
package kinetics
