package lazytest

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

// Fixture adapts a holder under test to the contract suite.
type Fixture struct {
	// Get returns the identity of the current instance, constructing it if
	// needed. Implementations usually call the holder accessor and then
	// return its InstanceID.
	Get func(ctx context.Context) (uuid.UUID, error)

	// Builds reports how many times the construction function has run.
	Builds func() uint64
}

// Options configures the contract suite.
type Options struct {
	// Sequential is the number of repeated sequential accesses. Defaults to 1000.
	Sequential int
	// Concurrent is the number of gated simultaneous accessors. Defaults to 50.
	Concurrent int
}

// RunSingletonContract asserts the lazy-singleton properties against fx:
// construction runs exactly once, all concurrent callers observe the same
// identity, and identity is stable across repeated sequential calls.
func RunSingletonContract(t *testing.T, fx Fixture, opts Options) {
	t.Helper()

	if fx.Get == nil {
		t.Fatalf("fixture requires a Get accessor")
	}
	sequential := opts.Sequential
	if sequential <= 0 {
		sequential = 1000
	}
	concurrent := opts.Concurrent
	if concurrent <= 0 {
		concurrent = 50
	}

	ctx := context.Background()

	// Concurrent callers gated to request the value before any construction
	// completes.
	gate := make(chan struct{})
	ids := make([]uuid.UUID, concurrent)
	errs := make([]error, concurrent)

	var wg sync.WaitGroup
	for i := 0; i < concurrent; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			ids[i], errs[i] = fx.Get(ctx)
		}(i)
	}
	close(gate)
	wg.Wait()

	for i := 0; i < concurrent; i++ {
		if errs[i] != nil {
			t.Fatalf("concurrent caller %d failed: %v", i, errs[i])
		}
		if ids[i] == uuid.Nil {
			t.Fatalf("concurrent caller %d observed a nil identity", i)
		}
		if ids[i] != ids[0] {
			t.Fatalf("concurrent caller %d observed identity %s, want %s", i, ids[i], ids[0])
		}
	}

	// Sequential stability.
	want := ids[0]
	for i := 0; i < sequential; i++ {
		id, err := fx.Get(ctx)
		if err != nil {
			t.Fatalf("sequential call %d failed: %v", i, err)
		}
		if id != want {
			t.Fatalf("sequential call %d observed identity %s, want %s", i, id, want)
		}
	}

	// At-most-once construction.
	if fx.Builds != nil {
		if got := fx.Builds(); got != 1 {
			t.Fatalf("expected exactly one construction, got %d", got)
		}
	}
}
