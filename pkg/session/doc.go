/*
Package session implements run management and persistence orchestration.

It provides high-level abstractions for handling concurrent access to
experiment checkpoints across multiple workers, integrating in-process
locking with distributed locking and long-term snapshot storage adapters.
*/
package session
