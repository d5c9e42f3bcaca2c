// Package gpio models general-purpose output pins.
//
// The pipeline only uses a pin for oscilloscope-style observation of
// completion timing. A nil *Pin is valid everywhere and does nothing, so
// debug wiring never affects capture correctness.
package gpio

import (
	"github.com/sigsim/capture/sim"
)

// HookPosState triggers whenever the pin level changes. Item is the new
// level as a bool.
var HookPosState = &sim.HookPos{Name: "Pin State"}

// A Pin is a GPIO output pin.
type Pin struct {
	sim.HookableBase

	tt    sim.TimeTeller
	port  int
	index int
	state bool
}

// NewPin creates an output pin on the given port.
func NewPin(tt sim.TimeTeller, port, index int) *Pin {
	return &Pin{tt: tt, port: port, index: index}
}

// Index returns the pin index within its port.
func (p *Pin) Index() int {
	if p == nil {
		return -1
	}
	return p.index
}

// Set drives the pin to the given level.
func (p *Pin) Set(state bool) {
	if p == nil {
		return
	}

	p.state = state
	p.InvokeHook(sim.HookCtx{
		Domain: p,
		Pos:    HookPosState,
		Item:   state,
		Detail: p.tt.CurrentTime(),
	})
}

// State returns the current pin level.
func (p *Pin) State() bool {
	if p == nil {
		return false
	}
	return p.state
}

// Pulse drives the pin high and low n times, marking an event on an
// external trace.
func (p *Pin) Pulse(n int) {
	if p == nil {
		return
	}

	for i := 0; i < n; i++ {
		p.Set(true)
		p.Set(false)
	}
}
