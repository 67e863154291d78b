package borg

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

var tracer = otel.Tracer("github.com/kibotu/Borg")

type unitNode struct {
	key  Key
	unit Unit
	deps []Key
}

// Orchestrator runs one-shot initialization of a fixed unit set.
// It provides:
// 1) construction-time dependency validation
// 2) deterministic wave grouping with cycle detection
// 3) exactly-once concurrent execution with write-once result caching
type Orchestrator struct {
	units map[Key]*unitNode

	logger        *slog.Logger
	unitObserver  func(Event)
	stateObserver func(State)
	limit         int

	// groupMu serializes grouping passes; grouping is not re-entrant
	// across concurrent Run calls.
	groupMu sync.Mutex

	mu      sync.RWMutex
	results map[Key]any

	sf singleflight.Group

	state atomic.Int32
}

// New constructs an orchestrator over a frozen unit set. It validates the
// declared dependency graph and fails before any initialization can run:
// a dependency on an unregistered key is UnitNotFoundError, a repeated key
// is DuplicateUnitError. Cycles are reported by Run, Waves, or Graph.
func New(units []Unit, opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		units:   make(map[Key]*unitNode, len(units)),
		results: make(map[Key]any, len(units)),
		logger:  slog.New(slog.DiscardHandler),
	}

	for _, unit := range units {
		if unit == nil {
			return nil, fmt.Errorf("new orchestrator: unit is nil")
		}
		key := unit.Key()
		if key == "" {
			return nil, fmt.Errorf("new orchestrator: unit key is empty")
		}
		if _, exists := o.units[key]; exists {
			return nil, DuplicateUnitError{Key: key}
		}
		o.units[key] = &unitNode{
			key:  key,
			unit: unit,
			deps: append([]Key(nil), unit.Dependencies()...),
		}
	}

	for _, unit := range units {
		key := unit.Key()
		for _, dep := range o.units[key].deps {
			if dep == "" {
				return nil, fmt.Errorf("new orchestrator: empty dependency key on unit %s", key)
			}
			if _, ok := o.units[dep]; !ok {
				return nil, UnitNotFoundError{Unit: key, Dependency: dep}
			}
		}
	}

	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run executes every unit exactly once, wave by wave, and blocks until all
// units completed or the first failure surfaced. It is safe to call more
// than once, concurrently or after a failure: completed units are cache
// hits and only unresolved units execute again.
func (o *Orchestrator) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := uuid.NewString()[:8]

	o.transition(StateNotStarted, StateInProgress)

	plan, err := o.plan()
	if err != nil {
		o.logger.ErrorContext(ctx, "initialization grouping failed", "run_id", runID, "error", err)
		return err
	}

	ctx, span := tracer.Start(ctx, "borg.Run", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.Int("run.units", len(o.units)),
		attribute.Int("run.waves", len(plan.waves)),
	))
	defer span.End()

	start := time.Now()
	o.logger.InfoContext(ctx, "initialization run started",
		"run_id", runID, "units", len(o.units), "waves", len(plan.waves))

	for i, wave := range plan.waves {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		if err := o.runWave(ctx, runID, i, wave); err != nil {
			o.logger.ErrorContext(ctx, "initialization run failed",
				"run_id", runID, "wave", i, "elapsed", time.Since(start), "error", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
	}

	o.transition(StateInProgress, StateComplete)
	o.logger.InfoContext(ctx, "initialization run complete",
		"run_id", runID, "elapsed", time.Since(start))
	return nil
}

// runWave launches all units of one wave concurrently and waits for the
// whole wave to settle. The group carries no context on purpose: a failing
// unit must not cancel siblings that are already running.
func (o *Orchestrator) runWave(ctx context.Context, runID string, wave int, keys []Key) error {
	var g errgroup.Group
	if o.limit > 0 {
		g.SetLimit(o.limit)
	}
	for _, key := range keys {
		g.Go(func() error {
			_, err := o.resolve(ctx, runID, wave, key)
			return err
		})
	}
	return g.Wait()
}

// resolve initializes one unit or returns its cached result. Safe under
// concurrent Run calls and under a unit being reachable from more than one
// dependent: the cache is checked before, inside, and after acquiring the
// per-key flight, and the commit is write-once.
func (o *Orchestrator) resolve(ctx context.Context, runID string, wave int, key Key) (any, error) {
	o.mu.RLock()
	cached, ok := o.results[key]
	o.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := o.sf.Do(string(key), func() (any, error) {
		o.mu.RLock()
		cachedAgain, ok := o.results[key]
		o.mu.RUnlock()
		if ok {
			return cachedAgain, nil
		}

		node := o.units[key]
		for _, dep := range node.deps {
			if _, err := o.resolve(ctx, runID, wave, dep); err != nil {
				return nil, fmt.Errorf("resolve dependency %s for %s: %w", dep, key, err)
			}
		}

		value, err := o.initUnit(ctx, runID, wave, node)
		if err != nil {
			return nil, err
		}

		o.mu.Lock()
		if existing, ok := o.results[key]; ok {
			o.mu.Unlock()
			return existing, nil
		}
		o.results[key] = value
		o.mu.Unlock()
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// initUnit invokes one unit's routine with the shared context and the read
// handle, wrapping failures as InitFailedError with the cause preserved.
func (o *Orchestrator) initUnit(ctx context.Context, runID string, wave int, node *unitNode) (any, error) {
	key := node.key
	ctx, span := tracer.Start(ctx, "borg.Unit", trace.WithAttributes(
		attribute.String("unit.key", string(key)),
		attribute.Int("unit.wave", wave),
	))
	defer span.End()

	start := time.Now()
	value, err := node.unit.Init(ctx, o)
	elapsed := time.Since(start)

	if o.unitObserver != nil {
		o.unitObserver(Event{
			RunID:    runID,
			Key:      key,
			Wave:     wave,
			Value:    value,
			Err:      err,
			Duration: elapsed,
		})
	}
	if err != nil {
		o.logger.ErrorContext(ctx, "unit init failed",
			"run_id", runID, "unit", key, "wave", wave, "elapsed", elapsed, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, InitFailedError{Key: key, Err: err}
	}

	o.logger.InfoContext(ctx, "unit initialized",
		"run_id", runID, "unit", key, "wave", wave, "elapsed", elapsed)
	return value, nil
}

// TryGet returns the cached result for key without blocking. A produced
// nil is reported as present, distinct from "not yet produced".
func (o *Orchestrator) TryGet(key Key) (any, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	v, ok := o.results[key]
	return v, ok
}

// Require returns the cached result for key or NotProducedError.
func (o *Orchestrator) Require(key Key) (any, error) {
	if v, ok := o.TryGet(key); ok {
		return v, nil
	}
	return nil, NotProducedError{Key: key}
}

// RequireAs is a typed wrapper around Require.
func RequireAs[T any](r Results, key Key) (T, error) {
	var zero T
	v, err := r.Require(key)
	if err != nil {
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		return zero, TypeMismatchError{
			Key:      key,
			Expected: reflect.TypeOf((*T)(nil)).Elem().String(),
			Actual:   fmt.Sprintf("%T", v),
		}
	}
	return typed, nil
}

// State reports the current lifecycle state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Waves returns the deterministic wave grouping without executing anything.
func (o *Orchestrator) Waves() ([][]Key, error) {
	plan, err := o.plan()
	if err != nil {
		return nil, err
	}
	return plan.waves, nil
}

func (o *Orchestrator) transition(from, to State) {
	if o.state.CompareAndSwap(int32(from), int32(to)) {
		if o.stateObserver != nil {
			o.stateObserver(to)
		}
	}
}
