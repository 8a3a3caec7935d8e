// Package ability implements the seeker's aura vision: a short reveal that
// goes on a long cooldown once used.
package ability

import (
	"errors"
	"time"

	"github.com/kasuganosora/neonmaze/game/events"
	"github.com/kasuganosora/neonmaze/game/timer"
)

var ErrOnCooldown = errors.New("ability: on cooldown")

type Config struct {
	Cooldown time.Duration
	Duration time.Duration
}

func DefaultConfig() Config {
	return Config{Cooldown: 40 * time.Second, Duration: 2 * time.Second}
}

// Aura tracks one actor's aura. The cooldown starts when the aura is used.
type Aura struct {
	owner    string
	cfg      Config
	sink     events.Sink
	active   timer.Countdown
	cooldown timer.Countdown
}

func NewAura(owner string, cfg Config, sink events.Sink) *Aura {
	return &Aura{owner: owner, cfg: cfg, sink: events.OrNop(sink)}
}

// Activate starts the aura. It fails while the cooldown runs.
func (a *Aura) Activate() error {
	if a.cooldown.Active() {
		return ErrOnCooldown
	}
	a.active.Start(a.cfg.Duration)
	a.cooldown.Start(a.cfg.Cooldown)
	a.emit()
	return nil
}

// Tick advances both timers.
func (a *Aura) Tick(dt time.Duration) {
	ended := a.active.Tick(dt)
	ready := a.cooldown.Tick(dt)
	if ended || ready {
		a.emit()
	}
}

func (a *Aura) Active() bool { return a.active.Active() }

func (a *Aura) Ready() bool { return !a.cooldown.Active() }

// CooldownFraction is 1 when ready and 0 right after use.
func (a *Aura) CooldownFraction() float64 {
	if !a.cooldown.Active() || a.cfg.Cooldown <= 0 {
		return 1
	}
	return 1 - float64(a.cooldown.Remaining())/float64(a.cfg.Cooldown)
}

// Reset makes the aura ready and inactive.
func (a *Aura) Reset() {
	a.active.Stop()
	a.cooldown.Stop()
}

func (a *Aura) emit() {
	a.sink.Emit(events.Event{
		Kind:   events.AbilityChanged,
		Actor:  a.owner,
		Value:  a.CooldownFraction(),
		Active: a.Active(),
	})
}
