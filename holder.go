package lazy

import (
	"sync"

	"github.com/google/uuid"
)

// Holder wraps a value of type T constructed on first access and cached for
// the lifetime of the holder. It is safe for concurrent use: the construction
// function runs at most once and every caller receives the identical
// instance, fully initialized.
//
// Holder is for constructions that cannot fail. Use Loader when construction
// returns an error.
type Holder[T any] struct {
	once  sync.Once
	build func() T
	value T
	id    uuid.UUID
}

// New creates a holder around build. Nothing is constructed until the first
// call to Value or InstanceID.
// @group Holder
//
// Example: shared value
//
//	shared := lazy.New(func() *bytes.Buffer { return &bytes.Buffer{} })
//	fmt.Println(shared.Value() == shared.Value()) // true
func New[T any](build func() T) *Holder[T] {
	return &Holder[T]{build: build}
}

// Value returns the wrapped instance, constructing it on the first call.
// Callers arriving during construction block until it completes; callers
// arriving after never synchronize beyond the Once fast path.
// @group Holder
func (h *Holder[T]) Value() T {
	h.once.Do(h.init)
	return h.value
}

// InstanceID returns the identity token minted when the value was published.
// It forces construction, so the token is never uuid.Nil. Two calls that
// observe the same token observed the same instance.
// @group Holder
func (h *Holder[T]) InstanceID() uuid.UUID {
	h.once.Do(h.init)
	return h.id
}

func (h *Holder[T]) init() {
	h.value = h.build()
	h.id = uuid.New()
	// Drop the closure so anything it captured can be collected.
	h.build = nil
}
