package dma

import (
	"github.com/sigsim/capture/hw/addrspace"
	"github.com/sigsim/capture/hw/irq"
	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// A Builder builds Channels.
type Builder struct {
	engine  sim.Engine
	space   *addrspace.Space
	irqCtrl *irq.Controller
	irqNum  int
}

// MakeBuilder creates a Builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithEngine sets the engine the channel lives on.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithAddressSpace sets the address space transfers run against.
func (b Builder) WithAddressSpace(space *addrspace.Space) Builder {
	b.space = space
	return b
}

// WithInterrupt routes the channel's completion interrupt to a controller
// line.
func (b Builder) WithInterrupt(ctrl *irq.Controller, num int) Builder {
	b.irqCtrl = ctrl
	b.irqNum = num
	return b
}

// Build creates a Channel.
func (b Builder) Build(name string) *Channel {
	ch := &Channel{
		ComponentBase: sim.NewComponentBase(name),
		engine:        b.engine,
		space:         b.space,
		irqCtrl:       b.irqCtrl,
		irqNum:        b.irqNum,
		subscribed:    make(map[*signal.Line]bool),
	}

	return ch
}
