// Package sct models the timer peripheral that paces the capture pipeline.
//
// The timer is a free-running counter that asserts its pulse output once
// per period and de-asserts it after the configured pulse width. Software
// never observes the output; it exists solely to trigger the converter.
package sct

import (
	"fmt"

	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// A TriggerGenerator produces a periodic trigger pulse.
type TriggerGenerator struct {
	*sim.ComponentBase

	engine sim.Engine
	clock  sim.Freq
	out    *signal.Line

	periodTicks uint32
	pulseTicks  uint32
	configured  bool
	running     bool

	// run distinguishes events of the current run from stale events
	// scheduled before a Stop.
	run uint64
}

type pulseRiseEvent struct {
	*sim.EventBase
	run uint64
}

type pulseFallEvent struct {
	*sim.EventBase
	run uint64
}

// Output returns the pulse output line.
func (t *TriggerGenerator) Output() *signal.Line {
	return t.out
}

// Configure sets the pulse period and width in timer clock ticks. The
// counter must be stopped before it is reconfigured.
func (t *TriggerGenerator) Configure(periodTicks, pulseTicks uint32) error {
	if t.running {
		return fmt.Errorf("%s: cannot configure while running", t.Name())
	}

	if pulseTicks == 0 {
		return fmt.Errorf("%s: pulse width must be at least one tick",
			t.Name())
	}

	if periodTicks <= pulseTicks {
		return fmt.Errorf(
			"%s: period (%d ticks) must be longer than the pulse (%d ticks)",
			t.Name(), periodTicks, pulseTicks)
	}

	t.periodTicks = periodTicks
	t.pulseTicks = pulseTicks
	t.configured = true

	return nil
}

// Start lets the counter free-run. The first pulse asserts one full period
// after the start.
func (t *TriggerGenerator) Start() error {
	if !t.configured {
		return fmt.Errorf("%s: not configured", t.Name())
	}

	if t.running {
		return fmt.Errorf("%s: already running", t.Name())
	}

	t.running = true
	t.run++
	t.scheduleRise(t.engine.CurrentTime())

	return nil
}

// Stop halts the counter. Pulses already in flight are discarded.
func (t *TriggerGenerator) Stop() {
	t.running = false
	t.out.Drop(t.engine.CurrentTime())
}

// Running reports whether the counter is free-running.
func (t *TriggerGenerator) Running() bool {
	return t.running
}

func (t *TriggerGenerator) scheduleRise(now sim.VTimeInSec) {
	when := t.clock.NCyclesLater(int(t.periodTicks), now)
	t.engine.Schedule(&pulseRiseEvent{
		EventBase: sim.NewEventBase(when, t),
		run:       t.run,
	})
}

func (t *TriggerGenerator) scheduleFall(now sim.VTimeInSec) {
	when := t.clock.NCyclesLater(int(t.pulseTicks), now)
	t.engine.Schedule(&pulseFallEvent{
		EventBase: sim.NewEventBase(when, t),
		run:       t.run,
	})
}

// Handle processes the timer match events.
func (t *TriggerGenerator) Handle(e sim.Event) error {
	switch evt := e.(type) {
	case *pulseRiseEvent:
		if !t.running || evt.run != t.run {
			return nil
		}
		t.out.Raise(e.Time())
		t.scheduleFall(e.Time())
		t.scheduleRise(e.Time())
	case *pulseFallEvent:
		if !t.running || evt.run != t.run {
			return nil
		}
		t.out.Drop(e.Time())
	default:
		panic(fmt.Sprintf("%s: cannot handle event %T", t.Name(), e))
	}

	return nil
}
