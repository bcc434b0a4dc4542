package events

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/crewforge/orchestrator/runtime/telemetry"
)

// HandlerFunc receives the event's dispatch-safe Projection alongside the
// original source value and the concrete event (for handlers that need to
// type-switch on domain-specific payload fields beyond the projection).
type HandlerFunc func(ctx context.Context, source any, event Event, proj Projection)

type handlerEntry struct {
	ID      HandlerId
	Handler HandlerFunc
	Deps    []Depends
}

// Bus dispatches typed events to dependency-ordered handlers on a background
// worker pool and attaches causal metadata so external consumers can
// reconstruct a tree. The handler map and execution-plan cache are guarded
// by a read-write lock optimized for the emit-heavy path; scope state lives
// outside the bus entirely (see Scope) because it is logically
// thread-local, never bus-global.
type Bus struct {
	mu        sync.RWMutex
	handlers  map[string][]handlerEntry
	planCache map[string]ExecutionPlan

	workerSem    chan struct{}
	wg           sync.WaitGroup
	handlerFails atomic.Int64

	shuttingDown atomic.Bool
	logger       telemetry.Logger

	defaultScope *Scope
}

// Option configures a Bus at construction time.
type Option func(*Bus)

// WithWorkerPoolSize sets the number of handlers that may run concurrently
// under simple (no-dependency) dispatch. Defaults to 2.
func WithWorkerPoolSize(n int) Option {
	return func(b *Bus) {
		if n > 0 {
			b.workerSem = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger used for warnings and handler-panic reports.
func WithLogger(l telemetry.Logger) Option {
	return func(b *Bus) { b.logger = l }
}

// WithDefaultScope sets the scope used for emissions whose context carries
// none of its own.
func WithDefaultScope(s *Scope) Option {
	return func(b *Bus) { b.defaultScope = s }
}

// New constructs a Bus ready to register handlers and accept emissions.
func New(opts ...Option) *Bus {
	b := &Bus{
		handlers:     map[string][]handlerEntry{},
		planCache:    map[string]ExecutionPlan{},
		workerSem:    make(chan struct{}, 2),
		logger:       telemetry.NewNoopLogger(),
		defaultScope: NewScope(ScopeConfig{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// On registers handler for eventType under name, optionally declaring
// dependencies on other handlers of the same event type. Invalidates any
// cached execution plan for eventType.
func (b *Bus) On(eventType, name string, handler HandlerFunc, deps ...Depends) HandlerId {
	id := NewHandlerId(name)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handlerEntry{ID: id, Handler: handler, Deps: deps})
	delete(b.planCache, eventType)
	return id
}

// Off unregisters the handler identified by id for eventType. Invalidates
// the cached execution plan; removes the event type's entry entirely if no
// handlers remain.
func (b *Bus) Off(eventType string, id HandlerId) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entries := b.handlers[eventType]
	out := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		delete(b.handlers, eventType)
	} else {
		b.handlers[eventType] = out
	}
	delete(b.planCache, eventType)
}

// Emit attaches chain and sequence fields to event (see the scope-tracking
// algorithm in Scope), then dispatches it to every handler registered for
// its type. Returns an error only for a fatal scope condition (stack depth
// exceeded, or a Raise-configured mismatch/empty-pop) or a handler-graph
// cycle; ordinary dispatch failures are caught and logged, never returned.
func (b *Bus) Emit(ctx context.Context, source any, event Event) error {
	scope := FromContext(ctx, b.defaultScope)
	h := event.Header()

	if h.PreviousEventID == nil {
		h.PreviousEventID = scope.LastEventID()
	}
	if h.TriggeredByEventID == nil {
		h.TriggeredByEventID = scope.TriggeringEventID()
	}
	seq := scope.NextEmissionSequence()
	h.EmissionSequence = &seq

	if h.ParentEventID == nil {
		switch {
		case SCOPE_ENDING_EVENTS[h.Type]:
			h.ParentEventID = scope.EnclosingParentID()
			poppedID, poppedType, ok := scope.PopEventScope()
			_ = poppedID
			if !ok {
				if err := scope.handleEmptyPop(ctx, h.Type); err != nil {
					return err
				}
			} else if expected, has := VALID_EVENT_PAIRS[h.Type]; has && expected != poppedType {
				if err := scope.handleMismatch(ctx, h.Type, poppedType, expected); err != nil {
					return err
				}
			}
		case SCOPE_STARTING_EVENTS[h.Type]:
			h.ParentEventID = scope.CurrentParentID()
			if err := scope.PushEventScope(h.EventID, h.Type); err != nil {
				return err
			}
		default:
			h.ParentEventID = scope.CurrentParentID()
		}
	}

	scope.SetLastEventID(h.EventID)

	if b.shuttingDown.Load() {
		b.logger.Warn(ctx, "event bus is shutting down; dropping emission", "type", h.Type)
		return nil
	}

	b.mu.RLock()
	entries := append([]handlerEntry(nil), b.handlers[h.Type]...)
	b.mu.RUnlock()
	if len(entries) == 0 {
		return nil
	}

	proj := Serialize(event)

	hasDeps := false
	for _, e := range entries {
		if len(e.Deps) > 0 {
			hasDeps = true
			break
		}
	}

	if !hasDeps {
		b.emitSimple(ctx, source, event, proj, entries)
		return nil
	}
	return b.emitWithDependencies(ctx, source, event, proj, h.Type, entries)
}

func (b *Bus) runHandler(ctx context.Context, source any, event Event, proj Projection, entry handlerEntry) {
	defer func() {
		if r := recover(); r != nil {
			b.handlerFails.Add(1)
			b.logger.Error(ctx, "event handler panicked", "handler", entry.ID.Name, "panic", r)
		}
	}()
	entry.Handler(ctx, source, event, proj)
}

func (b *Bus) emitSimple(ctx context.Context, source any, event Event, proj Projection, entries []handlerEntry) {
	for _, entry := range entries {
		b.wg.Add(1)
		b.workerSem <- struct{}{}
		go func(entry handlerEntry) {
			defer b.wg.Done()
			defer func() { <-b.workerSem }()
			b.runHandler(ctx, source, event, proj, entry)
		}(entry)
	}
}

func (b *Bus) emitWithDependencies(ctx context.Context, source any, event Event, proj Projection, eventType string, entries []handlerEntry) error {
	b.mu.Lock()
	plan, cached := b.planCache[eventType]
	if !cached {
		byID := make(map[HandlerId][]Depends, len(entries))
		handlerByID := make(map[HandlerId]handlerEntry, len(entries))
		for _, e := range entries {
			byID[e.ID] = e.Deps
			handlerByID[e.ID] = e
		}
		var err error
		plan, err = BuildExecutionPlan(byID)
		if err != nil {
			b.mu.Unlock()
			return err
		}
		b.planCache[eventType] = plan
	}
	b.mu.Unlock()

	b.mu.RLock()
	handlerByID := make(map[HandlerId]handlerEntry, len(entries))
	for _, e := range entries {
		handlerByID[e.ID] = e
	}
	b.mu.RUnlock()

	for _, level := range plan {
		g, gctx := errgroup.WithContext(ctx)
		for _, id := range level {
			entry, ok := handlerByID[id]
			if !ok {
				continue
			}
			g.Go(func() error {
				b.wg.Add(1)
				defer b.wg.Done()
				b.runHandler(gctx, source, event, proj, entry)
				return nil
			})
		}
		_ = g.Wait()
	}
	return nil
}

// Flush blocks until every in-flight handler goroutine finishes and reports
// whether every handler that ran since the previous Flush completed without
// panicking.
func (b *Bus) Flush() bool {
	b.wg.Wait()
	return b.handlerFails.Swap(0) == 0
}

// Shutdown marks the bus as shutting down (subsequent Emit calls become
// warn-and-return no-ops) and, when wait is true, flushes first.
func (b *Bus) Shutdown(wait bool) {
	if wait {
		b.Flush()
	}
	b.shuttingDown.Store(true)
	b.mu.Lock()
	b.handlers = map[string][]handlerEntry{}
	b.planCache = map[string]ExecutionPlan{}
	b.mu.Unlock()
}

// ValidateDependencies eagerly builds an execution plan for every registered
// event type, surfacing any handler-graph cycle before the first real emit.
func (b *Bus) ValidateDependencies() error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for eventType, entries := range b.handlers {
		byID := make(map[HandlerId][]Depends, len(entries))
		for _, e := range entries {
			byID[e.ID] = e.Deps
		}
		if _, err := BuildExecutionPlan(byID); err != nil {
			return err
		}
		_ = eventType
	}
	return nil
}
