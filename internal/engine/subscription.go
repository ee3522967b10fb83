package engine

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Kind selects which clock boundary a subscriber listens to.
type Kind uint8

const (
	KindTick Kind = iota
	KindDay
	KindWeek

	numKinds
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindDay:
		return "day"
	case KindWeek:
		return "week"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Key identifies a subscription. Callbacks are not comparable, so each one
// is registered under a key chosen by its owner.
type Key string

// KeyFor builds a key for an entity's handler, e.g. "<uuid>/rent".
func KeyFor(id uuid.UUID, handler string) Key {
	return Key(id.String() + "/" + handler)
}

// Callback is invoked on every boundary of the subscribed kind.
type Callback func()

type subscriber struct {
	key Key
	fn  Callback
}

// Registry is an insertion-ordered set of callbacks keyed by Key.
// The zero value is not usable; call NewRegistry.
type Registry struct {
	subs  []subscriber
	index map[Key]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{index: make(map[Key]int)}
}

// Add appends fn under key. It reports false when key is already present.
func (r *Registry) Add(key Key, fn Callback) bool {
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.subs)
	r.subs = append(r.subs, subscriber{key: key, fn: fn})
	return true
}

// Remove drops key. It reports false when key was not present.
func (r *Registry) Remove(key Key) bool {
	i, ok := r.index[key]
	if !ok {
		return false
	}
	delete(r.index, key)
	r.subs = slices.Delete(r.subs, i, i+1)
	for j := i; j < len(r.subs); j++ {
		r.index[r.subs[j].key] = j
	}
	return true
}

// Has reports whether key is present.
func (r *Registry) Has(key Key) bool {
	_, ok := r.index[key]
	return ok
}

// Len returns the number of callbacks.
func (r *Registry) Len() int {
	return len(r.subs)
}

// Invoke calls every callback in insertion order. Adds and removes made
// by a callback take effect from the next Invoke.
func (r *Registry) Invoke() {
	for _, s := range r.snapshot() {
		s.fn()
	}
}

func (r *Registry) snapshot() []subscriber {
	out := make([]subscriber, len(r.subs))
	copy(out, r.subs)
	return out
}
