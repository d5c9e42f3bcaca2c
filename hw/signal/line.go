// Package signal models single-bit digital signals that connect peripherals.
//
// Routing between peripherals (the trigger pulse into the converter, the
// sequence-complete pulse into the transfer engine's request input) is
// combinational: edge subscribers run in the context of the event that
// drives the line.
package signal

import (
	"github.com/sigsim/capture/sim"
)

// An EdgeFunc is invoked when the line transitions in the subscribed
// direction.
type EdgeFunc func(now sim.VTimeInSec)

// A Line is a single digital signal line.
type Line struct {
	name  string
	level bool

	risingSubs  []EdgeFunc
	fallingSubs []EdgeFunc
}

// NewLine creates a de-asserted line.
func NewLine(name string) *Line {
	return &Line{name: name}
}

// Name returns the name of the line.
func (l *Line) Name() string {
	return l.name
}

// Level returns the current level of the line.
func (l *Line) Level() bool {
	return l.level
}

// OnRising subscribes to low-to-high transitions.
func (l *Line) OnRising(f EdgeFunc) {
	l.risingSubs = append(l.risingSubs, f)
}

// OnFalling subscribes to high-to-low transitions.
func (l *Line) OnFalling(f EdgeFunc) {
	l.fallingSubs = append(l.fallingSubs, f)
}

// Raise asserts the line. Subscribers only see a transition if the line was
// low before, so a double assert produces no spurious edge.
func (l *Line) Raise(now sim.VTimeInSec) {
	if l.level {
		return
	}

	l.level = true
	for _, f := range l.risingSubs {
		f(now)
	}
}

// Drop de-asserts the line.
func (l *Line) Drop(now sim.VTimeInSec) {
	if !l.level {
		return
	}

	l.level = false
	for _, f := range l.fallingSubs {
		f(now)
	}
}

// Pulse asserts and immediately de-asserts the line, producing one rising
// and one falling edge.
func (l *Line) Pulse(now sim.VTimeInSec) {
	l.Raise(now)
	l.Drop(now)
}
