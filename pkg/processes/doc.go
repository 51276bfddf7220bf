/*
Package processes provides the standard process library: forced-input
timelines, exponential growth, division triggering, and concentration
derivation. Each process is configured through an explicit config struct
validated at construction and touches state only through its declared
schema, so any of them can be rewired onto a different tree location
without code changes.
*/
package processes
