/*
Package observability provides tools for monitoring running experiments.

It exposes Prometheus instruments fed by engine lifecycle hooks: cycle and
process durations, error counts, structural mutations and emitted samples.
*/
package observability
