// Package timer provides the Δt-driven timers shared by the actors: a one-shot
// countdown, a continuous-duration accumulator and a bounded drain/recover
// meter. None of them read the wall clock.
package timer

import "time"

// Countdown counts down from a duration set with Start.
type Countdown struct {
	remaining time.Duration
	active    bool
}

// Start (re)arms the countdown.
func (c *Countdown) Start(d time.Duration) {
	c.remaining = d
	c.active = d > 0
}

// Stop disarms the countdown without firing it.
func (c *Countdown) Stop() {
	c.remaining = 0
	c.active = false
}

// Tick advances the countdown and reports whether it expired during this call.
func (c *Countdown) Tick(dt time.Duration) bool {
	if !c.active {
		return false
	}
	c.remaining -= dt
	if c.remaining <= 0 {
		c.remaining = 0
		c.active = false
		return true
	}
	return false
}

func (c *Countdown) Active() bool { return c.active }

func (c *Countdown) Remaining() time.Duration { return c.remaining }

// Accumulator measures how long a condition has held continuously.
type Accumulator struct {
	elapsed time.Duration
}

func (a *Accumulator) Add(dt time.Duration) time.Duration {
	a.elapsed += dt
	return a.elapsed
}

func (a *Accumulator) Reset() { a.elapsed = 0 }

func (a *Accumulator) Elapsed() time.Duration { return a.elapsed }

// Reached reports whether at least limit has accumulated.
func (a *Accumulator) Reached(limit time.Duration) bool { return a.elapsed >= limit }

// snap absorbs float residue so that a full drain or recovery lands exactly on
// the bound.
const snap = 1e-9

// Meter is a resource in [0, Max] that empties over DrainTime and refills over
// RecoverTime.
type Meter struct {
	Max         float64
	DrainTime   time.Duration
	RecoverTime time.Duration

	value float64
}

// NewMeter returns a full meter.
func NewMeter(max float64, drain, recover time.Duration) *Meter {
	return &Meter{Max: max, DrainTime: drain, RecoverTime: recover, value: max}
}

func (m *Meter) Value() float64 { return m.value }

// Fraction returns the fill level in [0,1].
func (m *Meter) Fraction() float64 {
	if m.Max <= 0 {
		return 0
	}
	return m.value / m.Max
}

func (m *Meter) Empty() bool { return m.value <= 0 }

func (m *Meter) Full() bool { return m.value >= m.Max }

// Set places the meter at v, clamped.
func (m *Meter) Set(v float64) { m.value = m.clamp(v) }

// Drain empties the meter by dt's share of DrainTime.
func (m *Meter) Drain(dt time.Duration) {
	if m.DrainTime <= 0 {
		m.value = 0
		return
	}
	m.value = m.clamp(m.value - m.Max*dt.Seconds()/m.DrainTime.Seconds())
}

// Recover refills the meter by dt's share of RecoverTime.
func (m *Meter) Recover(dt time.Duration) {
	if m.RecoverTime <= 0 {
		m.value = m.Max
		return
	}
	m.value = m.clamp(m.value + m.Max*dt.Seconds()/m.RecoverTime.Seconds())
}

func (m *Meter) clamp(v float64) float64 {
	if v <= snap {
		return 0
	}
	if v >= m.Max-snap {
		return m.Max
	}
	return v
}
