// Package events is the observer boundary between the simulation and whatever
// presents it. Simulation code emits; HUDs, network relays and recorders
// subscribe by implementing Sink.
package events

import "sync"

type Kind string

const (
	SprintChanged      Kind = "sprint_changed"
	AbilityChanged     Kind = "ability_changed"
	SeekerStateChanged Kind = "seeker_state"
	SeekerSpawned      Kind = "seeker_spawned"
	Caught             Kind = "caught"
	RoundEnded         Kind = "round_ended"
)

// Event is a single state change. Which fields are set depends on Kind.
type Event struct {
	Kind   Kind    `json:"kind" msgpack:"kind"`
	Actor  string  `json:"actor,omitempty" msgpack:"actor,omitempty"`
	Target string  `json:"target,omitempty" msgpack:"target,omitempty"`
	Value  float64 `json:"value,omitempty" msgpack:"value,omitempty"`
	State  string  `json:"state,omitempty" msgpack:"state,omitempty"`
	Active bool    `json:"active,omitempty" msgpack:"active,omitempty"`
}

type Sink interface {
	Emit(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Emit(e Event) { f(e) }

// Nop discards everything.
var Nop Sink = SinkFunc(func(Event) {})

// OrNop returns s, or Nop when s is nil.
func OrNop(s Sink) Sink {
	if s == nil {
		return Nop
	}
	return s
}

type multi []Sink

func (m multi) Emit(e Event) {
	for _, s := range m {
		s.Emit(e)
	}
}

// Multi fans one event out to several sinks in order. nil sinks are skipped.
func Multi(sinks ...Sink) Sink {
	out := make(multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Recorder keeps every event it receives.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// All returns a copy of the recorded events.
func (r *Recorder) All() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Of returns the recorded events of one kind.
func (r *Recorder) Of(k Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.events = nil
	r.mu.Unlock()
}
