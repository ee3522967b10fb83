// Package engine provides the tick/day/week scheduler that drives the city.
// A timer fires every tick; each fire runs TICK subscribers, then DAY
// subscribers on day boundaries, then WEEK subscribers on week boundaries,
// all synchronously on the goroutine running the engine.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	strftime "github.com/ncruces/go-strftime"
)

// DaysPerWeek is the number of day boundaries between week boundaries.
const DaysPerWeek = 7

// Config holds the clock parameters.
type Config struct {
	DefaultRate  time.Duration `yaml:"default_rate"`  // Interval between ticks at level 1
	IncreaseRate float64       `yaml:"increase_rate"` // Factor applied per speed level
	MaxLevel     int           `yaml:"max_level"`     // Highest speed level
	MinRate      time.Duration `yaml:"min_rate"`      // Shortest interval allowed
	TicksPerDay  int           `yaml:"ticks_per_day"`
}

// DefaultConfig returns the standard clock: one tick per second, 24 ticks
// per day, four speed levels.
func DefaultConfig() Config {
	return Config{
		DefaultRate:  time.Second,
		IncreaseRate: 2,
		MaxLevel:     4,
		MinRate:      100 * time.Millisecond,
		TicksPerDay:  24,
	}
}

// Option customises an Engine.
type Option func(*Engine)

// WithRecover isolates subscribers: a panicking callback is logged and the
// remaining subscribers still run.
func WithRecover() Option {
	return func(e *Engine) {
		e.recover = true
	}
}

// WithLock makes Run hold l for the duration of each step. Readers of
// simulation state share the same lock.
func WithLock(l sync.Locker) Option {
	return func(e *Engine) {
		e.stepLock = l
	}
}

// Engine is the simulation clock and event dispatcher.
//
// Subscriptions and Step must only be used from the goroutine that runs
// the engine (or before Run starts). Rate and pause controls are safe to
// call from any goroutine.
type Engine struct {
	cfg Config

	ticks uint64
	days  uint64
	weeks uint64

	subs [numKinds]*Registry

	recover  bool
	stepLock sync.Locker

	ctl    sync.Mutex // guards the fields below
	rate   time.Duration
	level  int
	paused bool
	wake    chan struct{}
	cancel  context.CancelFunc
	stopped bool // Stop arrived before Run
}

// NewEngine creates a stopped engine at speed level 1.
func NewEngine(cfg Config, opts ...Option) *Engine {
	if cfg.TicksPerDay <= 0 {
		cfg.TicksPerDay = DefaultConfig().TicksPerDay
	}
	if cfg.MaxLevel < 1 {
		cfg.MaxLevel = 1
	}
	e := &Engine{
		cfg:   cfg,
		rate:  cfg.DefaultRate,
		level: 1,
		wake:  make(chan struct{}, 1),
	}
	for k := range e.subs {
		e.subs[k] = NewRegistry()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe registers fn under key for boundaries of kind. Registering a
// key that is already present is a no-op.
func (e *Engine) Subscribe(kind Kind, key Key, fn Callback) {
	if kind >= numKinds || fn == nil {
		return
	}
	e.subs[kind].Add(key, fn)
}

// Unsubscribe removes key from kind. Removing an absent key is a no-op.
func (e *Engine) Unsubscribe(kind Kind, key Key) {
	if kind >= numKinds {
		return
	}
	e.subs[kind].Remove(key)
}

// Subscribed reports whether key is registered for kind.
func (e *Engine) Subscribed(kind Kind, key Key) bool {
	if kind >= numKinds {
		return false
	}
	return e.subs[kind].Has(key)
}

// Count returns the number of subscribers for kind.
func (e *Engine) Count(kind Kind) int {
	if kind >= numKinds {
		return 0
	}
	return e.subs[kind].Len()
}

// Step advances the clock by one tick and fires the due boundaries in
// order: TICK, then DAY, then WEEK.
func (e *Engine) Step() {
	e.ticks++
	e.fire(KindTick)

	if e.ticks%uint64(e.cfg.TicksPerDay) != 0 {
		return
	}
	e.days++
	e.fire(KindDay)

	if e.days%DaysPerWeek != 0 {
		return
	}
	e.weeks++
	e.fire(KindWeek)
}

func (e *Engine) fire(kind Kind) {
	for _, s := range e.subs[kind].snapshot() {
		if e.recover {
			e.safeCall(kind, s)
			continue
		}
		s.fn()
	}
}

func (e *Engine) safeCall(kind Kind, s subscriber) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("subscriber panicked",
				"kind", kind,
				"key", string(s.key),
				"tick", e.ticks,
				"panic", fmt.Sprint(r),
			)
		}
	}()
	s.fn()
}

// Run fires Step on a timer until ctx is cancelled or Stop is called.
// Rate changes restart the timer; counters carry over. No ticks accrue
// while paused. A Stop issued before Run makes it return at once.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	e.ctl.Lock()
	if e.stopped {
		e.stopped = false
		e.ctl.Unlock()
		return context.Canceled
	}
	e.cancel = cancel
	e.ctl.Unlock()
	defer func() {
		e.ctl.Lock()
		e.cancel = nil
		e.ctl.Unlock()
	}()

	slog.Info("simulation engine started", "tick", e.ticks, "rate", e.TickRate())

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		e.ctl.Lock()
		paused, rate := e.paused, e.rate
		e.ctl.Unlock()

		var fired <-chan time.Time
		if !paused {
			timer.Reset(rate)
			fired = timer.C
		}

		select {
		case <-ctx.Done():
			slog.Info("simulation engine stopped", "tick", e.ticks, "time", SimTime(e.ticks, e.cfg.TicksPerDay))
			return ctx.Err()
		case <-e.wake:
			timer.Stop()
		case <-fired:
			e.lockedStep()
		}
	}
}

func (e *Engine) lockedStep() {
	if e.stepLock != nil {
		e.stepLock.Lock()
		defer e.stepLock.Unlock()
	}
	e.Step()
}

// Stop halts a running engine. Called before Run, it is held until the
// next Run, which then returns immediately.
func (e *Engine) Stop() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	if e.cancel != nil {
		e.cancel()
		return
	}
	e.stopped = true
}

func (e *Engine) notify() {
	select {
	case e.wake <- struct{}{}:
	default:
	}
}

// RateUp shortens the tick interval by one level. It reports false at the
// top level or while paused.
func (e *Engine) RateUp() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	if e.level >= e.cfg.MaxLevel || e.paused {
		return false
	}
	e.rate = time.Duration(float64(e.rate) / e.cfg.IncreaseRate)
	if e.rate < e.cfg.MinRate {
		e.rate = e.cfg.MinRate
	}
	e.level++
	e.notify()
	return true
}

// RateDown lengthens the tick interval by one level. It reports false at
// level 1 or while paused.
func (e *Engine) RateDown() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	if e.level <= 1 || e.paused {
		return false
	}
	e.rate = time.Duration(float64(e.rate) * e.cfg.IncreaseRate)
	if e.rate > e.cfg.DefaultRate {
		e.rate = e.cfg.DefaultRate
	}
	e.level--
	e.notify()
	return true
}

// Pause stops the timer.
func (e *Engine) Pause() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.paused = true
	e.notify()
}

// Resume restarts the timer at the current rate.
func (e *Engine) Resume() {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.paused = false
	e.notify()
}

// TogglePause flips between paused and running and returns the new state.
func (e *Engine) TogglePause() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	e.paused = !e.paused
	e.notify()
	return e.paused
}

// Paused reports whether the timer is stopped.
func (e *Engine) Paused() bool {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	return e.paused
}

// TickRate returns the current interval between ticks.
func (e *Engine) TickRate() time.Duration {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	return e.rate
}

// Level returns the current speed level, starting at 1.
func (e *Engine) Level() int {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	return e.level
}

// TickSpeed is the speed multiplier relative to the default rate.
func (e *Engine) TickSpeed() float64 {
	e.ctl.Lock()
	defer e.ctl.Unlock()
	if e.rate <= 0 {
		return 0
	}
	return float64(e.cfg.DefaultRate) / float64(e.rate)
}

// Ticks returns the number of ticks fired.
func (e *Engine) Ticks() uint64 { return e.ticks }

// Days returns the number of day boundaries fired.
func (e *Engine) Days() uint64 { return e.days }

// Weeks returns the number of week boundaries fired.
func (e *Engine) Weeks() uint64 { return e.weeks }

// TicksPerDay returns the configured day length.
func (e *Engine) TicksPerDay() int { return e.cfg.TicksPerDay }

// TimeOfDay returns the tick within the current day.
func (e *Engine) TimeOfDay() int {
	return int(e.ticks % uint64(e.cfg.TicksPerDay))
}

// Now returns the clock label for the current tick.
func (e *Engine) Now() string {
	return SimTime(e.ticks, e.cfg.TicksPerDay)
}

// epoch is a Monday; day zero of the simulation.
var epoch = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

// SimTime returns a label like "Monday 07:00, week 1" for a tick count.
func SimTime(ticks uint64, ticksPerDay int) string {
	if ticksPerDay <= 0 {
		ticksPerDay = DefaultConfig().TicksPerDay
	}
	day := ticks / uint64(ticksPerDay)
	minutes := (ticks % uint64(ticksPerDay)) * 24 * 60 / uint64(ticksPerDay)
	t := epoch.Add(time.Duration(day)*24*time.Hour + time.Duration(minutes)*time.Minute)
	return fmt.Sprintf("%s, week %d", strftime.Format("%A %H:%M", t), day/DaysPerWeek+1)
}
