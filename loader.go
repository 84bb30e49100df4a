package lazy

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// FailurePolicy controls what a Loader does when construction fails.
type FailurePolicy string

const (
	// PolicyRetry leaves the loader uninitialized after a failed
	// construction; the next Value call runs the constructor again.
	PolicyRetry FailurePolicy = "retry"

	// PolicyPoison publishes the first construction error terminally; every
	// later Value call returns it without rerunning the constructor.
	PolicyPoison FailurePolicy = "poison"
)

// State reports where a Loader is in its lifecycle. Published is terminal.
type State string

const (
	StateUninitialized State = "uninitialized"
	StateConstructing  State = "constructing"
	StatePublished     State = "published"
)

// published is the record installed when construction completes. It is
// written exactly once through an atomic pointer and never mutated after,
// so a caller that observes it observes a fully initialized value.
type published[T any] struct {
	value T
	err   error
	id    uuid.UUID
}

// Loader wraps a value whose construction can fail. Like Holder it defers
// construction to the first access and shares one instance across all
// callers, but the constructor returns an error and the loader's
// FailurePolicy decides whether a failure is retried or cached.
type Loader[T any] struct {
	mu    sync.Mutex
	out   atomic.Pointer[published[T]]
	build func(context.Context) (T, error)

	name     string
	policy   FailurePolicy
	observer Observer

	attempts     atomic.Uint64
	constructing atomic.Bool
}

// NewLoader creates a loader around build. Nothing is constructed until the
// first call to Value.
// @group Loader
//
// Example: fallible shared value
//
//	shared := lazy.NewLoader(func(ctx context.Context) (*http.Client, error) {
//		return &http.Client{Timeout: 10 * time.Second}, nil
//	})
//	client, err := shared.Value(context.Background())
//	fmt.Println(err == nil, client != nil) // true true
func NewLoader[T any](build func(context.Context) (T, error), opts ...Option) *Loader[T] {
	cfg := newSettings(opts...)
	return &Loader[T]{
		build:    build,
		name:     cfg.name,
		policy:   cfg.policy,
		observer: cfg.observer,
	}
}

// Value returns the wrapped instance, constructing it on the first call.
//
// Once published, Value is a single atomic load. Before that, callers
// serialize on a mutex: one caller runs the constructor while the rest block
// and then observe the published record. ctx is passed to the constructor;
// it does not cancel waiting on the construction lock.
// @group Loader
func (l *Loader[T]) Value(ctx context.Context) (T, error) {
	if p := l.out.Load(); p != nil {
		return p.value, p.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if p := l.out.Load(); p != nil {
		return p.value, p.err
	}

	l.constructing.Store(true)
	defer l.constructing.Store(false)

	start := time.Now()
	attempt := l.attempts.Add(1)
	value, err := l.build(ctx)
	l.observe(ctx, attempt, err, time.Since(start))
	if err != nil {
		if l.policy == PolicyPoison {
			l.out.Store(&published[T]{err: err})
			l.build = nil
		}
		var zero T
		return zero, err
	}
	l.out.Store(&published[T]{value: value, id: uuid.New()})
	l.build = nil
	return value, nil
}

// Published reports whether a construction outcome has been published.
// Under PolicyPoison a cached failure counts as published.
// @group Loader
func (l *Loader[T]) Published() bool {
	return l.out.Load() != nil
}

// State returns the loader's lifecycle state.
// @group Loader
func (l *Loader[T]) State() State {
	if l.out.Load() != nil {
		return StatePublished
	}
	if l.constructing.Load() {
		return StateConstructing
	}
	return StateUninitialized
}

// InstanceID returns the identity token minted at publication, or uuid.Nil
// while the loader is unpublished. A poisoned loader keeps a Nil token since
// no value was ever published.
// @group Loader
func (l *Loader[T]) InstanceID() uuid.UUID {
	if p := l.out.Load(); p != nil {
		return p.id
	}
	return uuid.Nil
}

// Attempts reports how many times the constructor has run.
// @group Loader
func (l *Loader[T]) Attempts() uint64 {
	return l.attempts.Load()
}

func (l *Loader[T]) observe(ctx context.Context, attempt uint64, err error, dur time.Duration) {
	if l.observer == nil {
		return
	}
	l.observer.OnInit(ctx, l.name, attempt, err, dur)
}
