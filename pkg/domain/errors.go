package domain

import "errors"

// ErrInvalidPath is returned when a path segment is empty or contains the separator.
var ErrInvalidPath = errors.New("invalid path")

// ErrPathNotFound is returned when a path does not address a declared variable or subtree.
var ErrPathNotFound = errors.New("path not found")

// ErrPortNotBound is returned when a process reads or writes a port its topology does not map.
var ErrPortNotBound = errors.New("port not bound")

// ErrSchemaViolation is returned when an update or declaration does not fit the declared schema.
var ErrSchemaViolation = errors.New("schema violation")

// ErrSchemaConflict is returned when two processes declare the same variable with
// incompatible explicit metadata.
var ErrSchemaConflict = errors.New("schema conflict")

// ErrMergeConflict is returned when two processes write a set-style update to the
// same variable in the same cycle.
var ErrMergeConflict = errors.New("merge conflict")

// ErrStructuralConflict is returned when two structural directives target
// overlapping subtrees in the same cycle.
var ErrStructuralConflict = errors.New("structural conflict")

// ErrNegativeValue is returned when an update drives a non-negative variable
// below zero.
var ErrNegativeValue = errors.New("negative value")

// ErrNoDivide is returned when a subtree carrying an assert-no-divide variable
// is asked to divide.
var ErrNoDivide = errors.New("division not permitted")

// ErrUnknownUpdater is returned when an updater name cannot be resolved.
var ErrUnknownUpdater = errors.New("unknown updater")

// ErrUnknownDivider is returned when a divider name cannot be resolved.
var ErrUnknownDivider = errors.New("unknown divider")

// ErrDuplicateProcess is returned when two processes are registered under the same name.
var ErrDuplicateProcess = errors.New("duplicate process name")

// ErrSnapshotNotFound is returned when a snapshot ID cannot be found in a store.
var ErrSnapshotNotFound = errors.New("snapshot not found")
