package lazyfake

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/goforj/lazy"
	"github.com/google/uuid"
)

// Instance is the value a Fake constructs. Serial counts construction
// attempts so tests can distinguish instances when failures are injected.
type Instance struct {
	Serial int
	Token  uuid.UUID
}

// Fake exposes a deterministic lazy holder plus assertion helpers for tests
// of code that consumes holders. No external services are involved.
type Fake struct {
	loader *lazy.Loader[*Instance]

	mu       sync.Mutex
	failures int
	serial   int
}

// New creates a Fake. Options are forwarded to the underlying loader, so
// failure policies and observers can be exercised against it.
func New(opts ...lazy.Option) *Fake {
	f := &Fake{}
	f.loader = lazy.NewLoader(f.construct, append([]lazy.Option{lazy.WithName("fake")}, opts...)...)
	return f
}

func (f *Fake) construct(context.Context) (*Instance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serial++
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("injected construction failure on attempt %d", f.serial)
	}
	return &Instance{Serial: f.serial, Token: uuid.New()}, nil
}

// FailNext makes the next n construction attempts fail.
func (f *Fake) FailNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

// Value returns the shared instance, constructing it on first call.
func (f *Fake) Value(ctx context.Context) (*Instance, error) {
	return f.loader.Value(ctx)
}

// Builds reports how many times construction ran.
func (f *Fake) Builds() uint64 { return f.loader.Attempts() }

// Published reports whether an outcome has been published.
func (f *Fake) Published() bool { return f.loader.Published() }

// InstanceID returns the loader's identity token, uuid.Nil until published.
func (f *Fake) InstanceID() uuid.UUID { return f.loader.InstanceID() }

// AssertBuilt verifies construction ran exactly the expected number of times.
func (f *Fake) AssertBuilt(t *testing.T, times uint64) {
	t.Helper()
	if got := f.Builds(); got != times {
		t.Fatalf("expected %d constructions, got %d", times, got)
	}
}

// AssertSame verifies both accesses observed the identical instance.
func (f *Fake) AssertSame(t *testing.T, a, b *Instance) {
	t.Helper()
	if a != b {
		t.Fatalf("expected the same instance, got serial %d and %d", a.Serial, b.Serial)
	}
}
