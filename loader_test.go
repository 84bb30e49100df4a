package lazy

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestLoaderPublishesOnceUnderConcurrency(t *testing.T) {
	l := NewLoader(func(context.Context) (*widget, error) {
		return &widget{name: "shared"}, nil
	})

	const callers = 50
	gate := make(chan struct{})
	results := make([]*widget, callers)
	failures := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-gate
			results[i], failures[i] = l.Value(context.Background())
		}(i)
	}
	close(gate)
	wg.Wait()

	if got := l.Attempts(); got != 1 {
		t.Fatalf("expected constructor to run once, ran %d times", got)
	}
	for i := range results {
		if failures[i] != nil {
			t.Fatalf("caller %d failed: %v", i, failures[i])
		}
		if results[i] != results[0] {
			t.Fatalf("caller %d observed a different instance", i)
		}
	}
	if l.InstanceID() == uuid.Nil {
		t.Fatalf("expected a minted instance id after publication")
	}
}

func TestLoaderRetryPolicyRerunsConstructor(t *testing.T) {
	boom := errors.New("backend unavailable")
	attempts := 0
	l := NewLoader(func(context.Context) (*widget, error) {
		attempts++
		if attempts < 3 {
			return nil, boom
		}
		return &widget{name: "finally"}, nil
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if _, err := l.Value(ctx); !errors.Is(err, boom) {
			t.Fatalf("expected construction failure, got %v", err)
		}
		if l.Published() {
			t.Fatalf("retry policy must not publish a failure")
		}
		if l.State() != StateUninitialized {
			t.Fatalf("expected uninitialized after failure, got %s", l.State())
		}
	}

	value, err := l.Value(ctx)
	if err != nil {
		t.Fatalf("expected third attempt to succeed: %v", err)
	}
	if value.name != "finally" {
		t.Fatalf("unexpected value: %+v", value)
	}
	if got := l.Attempts(); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}

	again, err := l.Value(ctx)
	if err != nil || again != value {
		t.Fatalf("expected cached instance after success, got %v err=%v", again, err)
	}
	if got := l.Attempts(); got != 3 {
		t.Fatalf("constructor reran after publication, attempts=%d", got)
	}
}

func TestLoaderPoisonPolicyCachesFailure(t *testing.T) {
	boom := errors.New("fatal misconfiguration")
	attempts := 0
	l := NewLoader(func(context.Context) (*widget, error) {
		attempts++
		return nil, boom
	}, WithFailurePolicy(PolicyPoison))

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := l.Value(ctx); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected poisoned error, got %v", i, err)
		}
	}
	if attempts != 1 {
		t.Fatalf("expected constructor to run once, ran %d times", attempts)
	}
	if !l.Published() {
		t.Fatalf("poison policy must publish the failure")
	}
	if l.State() != StatePublished {
		t.Fatalf("expected published state, got %s", l.State())
	}
	if l.InstanceID() != uuid.Nil {
		t.Fatalf("poisoned loader must not mint an instance id")
	}
}

func TestLoaderStateTransitions(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	l := NewLoader(func(context.Context) (int, error) {
		close(started)
		<-release
		return 7, nil
	})

	if l.State() != StateUninitialized {
		t.Fatalf("expected uninitialized before first access, got %s", l.State())
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := l.Value(context.Background()); err != nil {
			t.Errorf("value failed: %v", err)
		}
	}()

	<-started
	if l.State() != StateConstructing {
		t.Fatalf("expected constructing while constructor runs, got %s", l.State())
	}
	if l.Published() {
		t.Fatalf("must not report published mid-construction")
	}
	close(release)
	<-done

	if l.State() != StatePublished {
		t.Fatalf("expected published after construction, got %s", l.State())
	}
}

func TestLoaderLateCallersSkipConstructionLock(t *testing.T) {
	l := NewLoader(func(context.Context) (string, error) {
		return "v", nil
	})
	if _, err := l.Value(context.Background()); err != nil {
		t.Fatalf("value failed: %v", err)
	}

	// Hold the construction lock; published loaders must not need it.
	l.mu.Lock()
	defer l.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		if v, err := l.Value(context.Background()); err != nil || v != "v" {
			t.Errorf("unexpected result: %q err=%v", v, err)
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("published value access blocked on construction lock")
	}
}

func TestLoaderPassesContextToConstructor(t *testing.T) {
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "marker")

	l := NewLoader(func(ctx context.Context) (string, error) {
		v, _ := ctx.Value(key{}).(string)
		return v, nil
	})
	got, err := l.Value(ctx)
	if err != nil {
		t.Fatalf("value failed: %v", err)
	}
	if got != "marker" {
		t.Fatalf("constructor did not receive caller context, got %q", got)
	}
}
