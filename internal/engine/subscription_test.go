package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryAddRemove(t *testing.T) {
	r := NewRegistry()
	var order []string
	add := func(k string) bool {
		return r.Add(Key(k), func() { order = append(order, k) })
	}

	assert.True(t, add("a"))
	assert.True(t, add("b"))
	assert.True(t, add("c"))
	assert.False(t, add("b"), "duplicate key")
	assert.Equal(t, 3, r.Len())

	assert.True(t, r.Remove("a"))
	assert.False(t, r.Remove("a"))
	assert.False(t, r.Has("a"))
	assert.True(t, r.Has("c"))

	r.Invoke()
	assert.Equal(t, []string{"b", "c"}, order)

	// Indexes stay consistent after removal from the front.
	assert.True(t, r.Remove("c"))
	order = nil
	r.Invoke()
	assert.Equal(t, []string{"b"}, order)
}

func TestRegistryChangesDuringInvoke(t *testing.T) {
	r := NewRegistry()
	calls := 0
	r.Add("adder", func() {
		calls++
		r.Add("late", func() { calls += 10 })
	})

	r.Invoke()
	assert.Equal(t, 1, calls, "late subscriber waits for the next round")
	r.Invoke()
	assert.Equal(t, 12, calls)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "tick", KindTick.String())
	assert.Equal(t, "week", KindWeek.String())
	assert.Equal(t, "kind(9)", Kind(9).String())
}
