package borg

import "log/slog"

// Option configures an Orchestrator at construction time.
type Option func(*Orchestrator)

// WithLogger sets the structured logger the engine reports through.
// The default logger discards all records.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithUnitObserver registers a hook invoked once per finished unit
// initialization, successful or failed. Purely observational; the hook
// runs on the initializing goroutine and should return quickly.
func WithUnitObserver(fn func(Event)) Option {
	return func(o *Orchestrator) {
		o.unitObserver = fn
	}
}

// WithStateObserver registers a hook invoked on every lifecycle
// state transition.
func WithStateObserver(fn func(State)) Option {
	return func(o *Orchestrator) {
		o.stateObserver = fn
	}
}

// WithLimit caps how many units of one wave initialize concurrently.
// Zero or negative means no cap.
func WithLimit(n int) Option {
	return func(o *Orchestrator) {
		o.limit = n
	}
}
