// Package pinmux models the switch-matrix collaborator that routes movable
// peripheral functions to physical pins.
//
// The capture core only consumes the narrow assign/clock-gate interface;
// nothing in the pipeline depends on how the routing is realized.
package pinmux

import (
	"fmt"
)

// A Function is a logical peripheral signal that can be routed to a pin,
// such as the UART transmit output or the trigger debug output.
type Function string

// Movable functions used by the capture pipeline.
const (
	UARTTxd        Function = "U0_TXD"
	UARTRxd        Function = "U0_RXD"
	TriggerDebug   Function = "SCT_OUT3"
	FixedAnalogIn3 Function = "ADC_3"
)

// Matrix is the switch matrix.
type Matrix struct {
	clockEnabled bool
	assignments  map[Function]int
	pinOwners    map[int]Function
	fixed        map[Function]bool
}

// NewMatrix creates a Matrix with no assignments.
func NewMatrix() *Matrix {
	return &Matrix{
		assignments: make(map[Function]int),
		pinOwners:   make(map[int]Function),
		fixed:       make(map[Function]bool),
	}
}

// SetPeripheralClock gates the clock of the switch matrix. Assignments are
// only possible while the clock is enabled.
func (m *Matrix) SetPeripheralClock(enabled bool) {
	m.clockEnabled = enabled
}

// Assign routes a movable function to a physical pin.
func (m *Matrix) Assign(fn Function, pin int) error {
	if !m.clockEnabled {
		return fmt.Errorf("switch matrix clock is not enabled")
	}

	if owner, taken := m.pinOwners[pin]; taken && owner != fn {
		return fmt.Errorf("pin %d already carries %s", pin, owner)
	}

	if old, ok := m.assignments[fn]; ok {
		delete(m.pinOwners, old)
	}

	m.assignments[fn] = pin
	m.pinOwners[pin] = fn

	return nil
}

// EnableFixedPin enables a fixed-pin function. Fixed functions cannot be
// moved to another pin.
func (m *Matrix) EnableFixedPin(fn Function) error {
	if !m.clockEnabled {
		return fmt.Errorf("switch matrix clock is not enabled")
	}

	m.fixed[fn] = true
	return nil
}

// PinFor reports the pin a movable function is routed to.
func (m *Matrix) PinFor(fn Function) (int, bool) {
	pin, ok := m.assignments[fn]
	return pin, ok
}

// FixedPinEnabled reports whether a fixed-pin function is enabled.
func (m *Matrix) FixedPinEnabled(fn Function) bool {
	return m.fixed[fn]
}
