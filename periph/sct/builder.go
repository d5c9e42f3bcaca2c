package sct

import (
	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// A Builder builds TriggerGenerators.
type Builder struct {
	engine sim.Engine
	clock  sim.Freq
}

// MakeBuilder creates a Builder with the default timer clock.
func MakeBuilder() Builder {
	return Builder{
		clock: 30 * sim.MHz,
	}
}

// WithEngine sets the engine that drives the timer.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithClock sets the counter clock frequency.
func (b Builder) WithClock(clock sim.Freq) Builder {
	b.clock = clock
	return b
}

// Build creates a TriggerGenerator.
func (b Builder) Build(name string) *TriggerGenerator {
	t := &TriggerGenerator{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		clock:         b.clock,
		out:           signal.NewLine(name + ".Out"),
	}

	return t
}
