package borg

import (
	"context"
	"fmt"
	"time"
)

// Key is the unique name of a unit within one orchestrator instance.
// The orchestrator is agnostic to what a key represents.
type Key string

func (k Key) String() string {
	return string(k)
}

// Results is the read handle into the result cache, usable both by units
// under initialization and by the host after Run returns.
type Results interface {
	// TryGet returns the cached result for key without blocking.
	// A produced nil value is reported as present, distinct from a key
	// that has not produced anything yet.
	TryGet(key Key) (any, bool)

	// Require returns the cached result for key, or NotProducedError
	// if no entry exists. Intended for keys the caller declared as
	// dependencies, which wave ordering guarantees to be present.
	Require(key Key) (any, error)
}

// Unit declares one initialization task.
//
// Key identifies the unit and must be unique per orchestrator.
// Dependencies lists the keys that must complete before Init runs.
// Init produces the unit's result; it receives the shared context of the
// run and a read handle for already-completed results. A nil result with
// a nil error is a valid outcome and is cached as "produced empty".
type Unit interface {
	Key() Key
	Dependencies() []Key
	Init(ctx context.Context, r Results) (any, error)
}

// Func adapts a plain function into a Unit.
func Func(key Key, deps []Key, fn func(ctx context.Context, r Results) (any, error)) Unit {
	return funcUnit{key: key, deps: deps, fn: fn}
}

type funcUnit struct {
	key  Key
	deps []Key
	fn   func(ctx context.Context, r Results) (any, error)
}

func (u funcUnit) Key() Key { return u.key }

func (u funcUnit) Dependencies() []Key { return u.deps }

func (u funcUnit) Init(ctx context.Context, r Results) (any, error) {
	return u.fn(ctx, r)
}

// State describes the orchestrator lifecycle. It advances monotonically
// and never reverts or skips a state.
type State int32

const (
	StateNotStarted State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not_started"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Event describes one finished unit initialization, successful or not.
// Events are purely observational and carry no control flow.
type Event struct {
	RunID    string
	Key      Key
	Wave     int
	Value    any
	Err      error
	Duration time.Duration
}
