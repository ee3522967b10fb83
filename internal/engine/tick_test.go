package engine

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(opts ...Option) *Engine {
	return NewEngine(DefaultConfig(), opts...)
}

func stepN(e *Engine, n int) {
	for i := 0; i < n; i++ {
		e.Step()
	}
}

func TestSubscribeTwiceFiresOnce(t *testing.T) {
	e := newTestEngine()
	calls := 0
	f := func() { calls++ }

	e.Subscribe(KindTick, "f", f)
	e.Subscribe(KindTick, "f", f)
	assert.Equal(t, 1, e.Count(KindTick))

	e.Step()
	assert.Equal(t, 1, calls)
}

func TestUnsubscribeTwiceIsNoop(t *testing.T) {
	e := newTestEngine()
	calls := 0
	e.Subscribe(KindTick, "f", func() { calls++ })

	e.Unsubscribe(KindTick, "f")
	e.Unsubscribe(KindTick, "f")
	e.Unsubscribe(KindWeek, "never-added")

	assert.False(t, e.Subscribed(KindTick, "f"))
	e.Step()
	assert.Zero(t, calls)
}

func TestDayAndWeekBoundaries(t *testing.T) {
	e := newTestEngine()
	var ticks, days, weeks int
	e.Subscribe(KindTick, "t", func() { ticks++ })
	e.Subscribe(KindDay, "d", func() { days++ })
	e.Subscribe(KindWeek, "w", func() { weeks++ })

	stepN(e, 23)
	assert.Zero(t, days)
	e.Step()
	assert.Equal(t, 1, days)
	assert.Zero(t, weeks)

	stepN(e, 24*7-24-1)
	assert.Equal(t, 6, days)
	assert.Zero(t, weeks)
	e.Step()

	assert.Equal(t, 168, ticks)
	assert.Equal(t, 7, days)
	assert.Equal(t, 1, weeks)
	assert.Equal(t, uint64(168), e.Ticks())
	assert.Equal(t, uint64(7), e.Days())
	assert.Equal(t, uint64(1), e.Weeks())
	assert.Zero(t, e.TimeOfDay())
}

func TestBoundaryOrdering(t *testing.T) {
	e := newTestEngine()
	var order []string
	e.Subscribe(KindWeek, "w", func() { order = append(order, "week") })
	e.Subscribe(KindDay, "d", func() { order = append(order, "day") })
	e.Subscribe(KindTick, "t", func() { order = append(order, "tick") })

	stepN(e, 167)
	order = order[:0]
	e.Step()
	assert.Equal(t, []string{"tick", "day", "week"}, order)
}

func TestSubscribersRunInInsertionOrder(t *testing.T) {
	e := newTestEngine()
	var order []string
	for _, k := range []Key{"rent", "review", "tax"} {
		k := k
		e.Subscribe(KindTick, k, func() { order = append(order, string(k)) })
	}
	e.Unsubscribe(KindTick, "review")
	e.Subscribe(KindTick, "review", func() { order = append(order, "review") })

	e.Step()
	assert.Equal(t, []string{"rent", "tax", "review"}, order)
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	e := newTestEngine()
	var calls []string
	e.Subscribe(KindTick, "a", func() {
		calls = append(calls, "a")
		e.Unsubscribe(KindTick, "a")
		e.Unsubscribe(KindTick, "b")
	})
	e.Subscribe(KindTick, "b", func() { calls = append(calls, "b") })

	// Changes take effect from the next boundary.
	e.Step()
	assert.Equal(t, []string{"a", "b"}, calls)
	e.Step()
	assert.Equal(t, []string{"a", "b"}, calls)
}

func TestRecoverIsolatesPanics(t *testing.T) {
	e := newTestEngine(WithRecover())
	after := 0
	e.Subscribe(KindTick, "bad", func() { panic("boom") })
	e.Subscribe(KindTick, "good", func() { after++ })

	require.NotPanics(t, e.Step)
	assert.Equal(t, 1, after)

	plain := newTestEngine()
	plain.Subscribe(KindTick, "bad", func() { panic("boom") })
	assert.Panics(t, plain.Step)
}

func TestRateBounds(t *testing.T) {
	e := newTestEngine()
	require.Equal(t, time.Second, e.TickRate())
	assert.False(t, e.RateDown(), "already at level 1")

	assert.True(t, e.RateUp())
	assert.Equal(t, 500*time.Millisecond, e.TickRate())
	assert.InDelta(t, 2.0, e.TickSpeed(), 1e-9)

	assert.True(t, e.RateUp())
	assert.True(t, e.RateUp())
	assert.Equal(t, 4, e.Level())
	assert.Equal(t, 125*time.Millisecond, e.TickRate())
	assert.False(t, e.RateUp(), "max level")

	stepN(e, 30)
	assert.True(t, e.RateDown())
	assert.Equal(t, 250*time.Millisecond, e.TickRate())
	assert.Equal(t, uint64(30), e.Ticks(), "rate changes keep counters")
}

func TestRateFloor(t *testing.T) {
	cfg := DefaultConfig()
	cfg.IncreaseRate = 4
	e := NewEngine(cfg)

	e.RateUp()
	e.RateUp()
	assert.Equal(t, cfg.MinRate, e.TickRate())
	e.RateDown()
	e.RateDown()
	assert.Equal(t, cfg.DefaultRate, e.TickRate())
}

func TestPauseBlocksRateChanges(t *testing.T) {
	e := newTestEngine()
	e.Pause()
	assert.True(t, e.Paused())
	assert.False(t, e.RateUp())

	assert.False(t, e.TogglePause())
	assert.True(t, e.RateUp())
}

func TestRunFiresTicks(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultRate = time.Millisecond
	cfg.MinRate = time.Millisecond
	e := NewEngine(cfg)

	var n atomic.Int64
	e.Subscribe(KindTick, "count", func() { n.Add(1) })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	require.Eventually(t, func() bool { return n.Load() >= 5 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunPausedAccruesNothing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultRate = time.Millisecond
	cfg.MinRate = time.Millisecond
	e := NewEngine(cfg)
	e.Pause()

	var n atomic.Int64
	e.Subscribe(KindTick, "count", func() { n.Add(1) })

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	time.Sleep(30 * time.Millisecond)
	assert.Zero(t, n.Load())

	e.Resume()
	require.Eventually(t, func() bool { return n.Load() > 0 }, 2*time.Second, time.Millisecond)

	e.Stop()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestStopBeforeRunIsHeld(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultRate = time.Millisecond
	cfg.MinRate = time.Millisecond
	e := NewEngine(cfg)

	var n atomic.Int64
	e.Subscribe(KindTick, "count", func() { n.Add(1) })

	e.Stop()
	assert.ErrorIs(t, e.Run(context.Background()), context.Canceled)
	assert.Zero(t, n.Load(), "no ticks after an early stop")

	// The held stop is spent; the next Run ticks until cancelled.
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	require.Eventually(t, func() bool { return n.Load() > 0 }, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestKeyFor(t *testing.T) {
	id := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	assert.Equal(t, Key("6ba7b810-9dad-11d1-80b4-00c04fd430c8/rent"), KeyFor(id, "rent"))
}

func TestSimTime(t *testing.T) {
	assert.Equal(t, "Monday 00:00, week 1", SimTime(0, 24))
	assert.Equal(t, "Monday 07:00, week 1", SimTime(7, 24))
	assert.Equal(t, "Tuesday 00:00, week 1", SimTime(24, 24))
	assert.Equal(t, "Monday 13:00, week 2", SimTime(168+13, 24))
	// Twelve ticks per day: each tick is two hours.
	assert.Equal(t, "Monday 06:00, week 1", SimTime(3, 12))
}
