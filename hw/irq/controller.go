// Package irq models the interrupt controller of the capture pipeline.
//
// A handler registered on a line runs in interrupt context: it is invoked
// synchronously from the peripheral event that pends the interrupt, before
// any later event is processed. The controller also provides the
// processor's power-yielding wait: WaitForInterrupt steps the simulation
// engine until some enabled interrupt handler has run.
package irq

import (
	"fmt"

	"github.com/sigsim/capture/sim"
)

// An ISR is an interrupt service routine.
type ISR func(now sim.VTimeInSec)

// HookPosDispatch triggers on the controller whenever an interrupt handler
// is dispatched. Item is the interrupt number.
var HookPosDispatch = &sim.HookPos{Name: "IRQ Dispatch"}

type line struct {
	enabled bool
	isr     ISR
}

// Controller dispatches interrupt requests to registered handlers.
type Controller struct {
	sim.HookableBase

	engine     sim.Engine
	lines      map[int]*line
	dispatches uint64
}

// NewController creates a Controller stepping the given engine during
// interrupt waits.
func NewController(engine sim.Engine) *Controller {
	return &Controller{
		engine: engine,
		lines:  make(map[int]*line),
	}
}

func (c *Controller) line(num int) *line {
	l, ok := c.lines[num]
	if !ok {
		l = &line{}
		c.lines[num] = l
	}
	return l
}

// SetHandler installs the service routine for an interrupt number.
func (c *Controller) SetHandler(num int, isr ISR) {
	c.line(num).isr = isr
}

// Enable unmasks an interrupt number.
func (c *Controller) Enable(num int) {
	c.line(num).enabled = true
}

// Disable masks an interrupt number. Requests pended while masked are lost,
// as on the real part when the interrupt is not enabled in the controller.
func (c *Controller) Disable(num int) {
	c.line(num).enabled = false
}

// Pend raises an interrupt request from peripheral context. If the line is
// enabled and a handler is installed, the handler runs immediately, which
// models the interrupt preempting the (suspended) main flow.
func (c *Controller) Pend(num int, now sim.VTimeInSec) {
	l := c.line(num)
	if !l.enabled || l.isr == nil {
		return
	}

	c.dispatches++
	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    HookPosDispatch,
		Item:   num,
	})

	l.isr(now)
}

// WaitForInterrupt suspends the calling flow until any enabled interrupt
// handler has run, advancing simulated time event by event. It returns
// false if the event queue drains first: nothing is left that could ever
// wake the processor.
func (c *Controller) WaitForInterrupt() (bool, error) {
	seen := c.dispatches

	for c.dispatches == seen {
		madeProgress, err := c.engine.Step()
		if err != nil {
			return false, fmt.Errorf("stepping engine: %w", err)
		}
		if !madeProgress {
			return false, nil
		}
	}

	return true, nil
}

// WaitForInterruptUntil behaves like WaitForInterrupt but gives up once
// simulated time reaches the deadline, returning false. It lets a caller
// bound a wait that would otherwise never end, such as a misconfigured
// pipeline whose timer keeps running without raising completions.
func (c *Controller) WaitForInterruptUntil(
	deadline sim.VTimeInSec,
) (bool, error) {
	seen := c.dispatches

	for c.dispatches == seen {
		if c.engine.CurrentTime() >= deadline {
			return false, nil
		}

		madeProgress, err := c.engine.Step()
		if err != nil {
			return false, fmt.Errorf("stepping engine: %w", err)
		}
		if !madeProgress {
			return false, nil
		}
	}

	return true, nil
}
