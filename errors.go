package borg

import (
	"fmt"
	"strings"
)

// UnitNotFoundError means a declared dependency key is not registered.
type UnitNotFoundError struct {
	Unit       Key
	Dependency Key
}

func (e UnitNotFoundError) Error() string {
	return fmt.Sprintf("unit dependency not found: %s -> %s", e.Unit, e.Dependency)
}

// DuplicateUnitError means the same key appears more than once in the unit set.
type DuplicateUnitError struct {
	Key Key
}

func (e DuplicateUnitError) Error() string {
	return fmt.Sprintf("duplicate unit: %s", e.Key)
}

// CycleDetectedError means there is a dependency cycle among the units.
// Path is the ordered key list on the visiting stack from the cycle entry
// point, closed by repeating the entry key.
type CycleDetectedError struct {
	Path []Key
}

func (e CycleDetectedError) Error() string {
	if len(e.Path) == 0 {
		return "unit dependency cycle detected"
	}
	parts := make([]string, len(e.Path))
	for i := range e.Path {
		parts[i] = string(e.Path[i])
	}
	return "unit dependency cycle detected: " + strings.Join(parts, " -> ")
}

// InitFailedError means a unit's initialization routine returned an error.
// The original cause is preserved and available through Unwrap.
type InitFailedError struct {
	Key Key
	Err error
}

func (e InitFailedError) Error() string {
	return fmt.Sprintf("unit init failed: %s: %v", e.Key, e.Err)
}

func (e InitFailedError) Unwrap() error {
	return e.Err
}

// NotProducedError means Require was called on a key with no cached entry.
// This is a usage error, not a graph problem.
type NotProducedError struct {
	Key Key
}

func (e NotProducedError) Error() string {
	return fmt.Sprintf("unit result not produced: %s", e.Key)
}

// TypeMismatchError means RequireAs[T] failed to cast the cached result to T.
type TypeMismatchError struct {
	Key      Key
	Expected string
	Actual   string
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("unit result type mismatch for %s: expected=%s actual=%s",
		e.Key, e.Expected, e.Actual)
}
