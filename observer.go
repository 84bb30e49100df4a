package lazy

import (
	"context"
	"time"
)

// Observer receives an event each time a Loader runs its constructor.
// It is called from Value after the construction attempt completes, while
// the construction lock is still held.
type Observer interface {
	OnInit(ctx context.Context, name string, attempt uint64, err error, dur time.Duration)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, name string, attempt uint64, err error, dur time.Duration)

// OnInit implements Observer.
func (f ObserverFunc) OnInit(ctx context.Context, name string, attempt uint64, err error, dur time.Duration) {
	if f == nil {
		return
	}
	f(ctx, name, attempt, err, dur)
}
