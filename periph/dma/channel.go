// Package dma models the autonomous memory-transfer engine of the capture
// pipeline.
//
// A channel owns one active descriptor at a time. Each transfer request
// routed from the converter's end-of-sequence signal moves exactly one
// word from the source to the destination; when a descriptor's word count
// is exhausted the channel raises its completion interrupt and, if the
// descriptor reloads, continues with the successor with no gap.
package dma

import (
	"fmt"
	"log"

	"github.com/sigsim/capture/hw/addrspace"
	"github.com/sigsim/capture/hw/irq"
	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// HookPosBlockComplete triggers on the channel when a descriptor finishes
// its block. Item is the zero-based index of the block within the chain;
// Detail is the completed *Descriptor.
var HookPosBlockComplete = &sim.HookPos{Name: "DMA Block Complete"}

// TriggerType selects how the hardware trigger input is interpreted.
type TriggerType uint8

// Trigger types.
const (
	TriggerEdge TriggerType = iota
	TriggerLevel
)

// Polarity selects the active sense of the trigger input.
type Polarity uint8

// Trigger polarities.
const (
	ActiveHigh Polarity = iota
	ActiveLow
)

// ChannelConfig is the per-channel configuration.
type ChannelConfig struct {
	// HardwareTrigger gates transfers on the external request input. The
	// capture pipeline always uses it; software-triggered bursts are not
	// modeled.
	HardwareTrigger bool

	TriggerType TriggerType
	Polarity    Polarity

	// Priority orders channels when several compete. With a single
	// channel it only needs to be in range.
	Priority int
}

// Validate range-checks the channel configuration.
func (c ChannelConfig) Validate() error {
	if !c.HardwareTrigger {
		return fmt.Errorf("dma: only hardware-triggered operation is supported")
	}

	if c.TriggerType != TriggerEdge {
		return fmt.Errorf("dma: only edge triggering is supported")
	}

	if c.Priority < 0 || c.Priority > 7 {
		return fmt.Errorf("dma: priority %d out of range [0, 7]", c.Priority)
	}

	return nil
}

// A Channel is one channel of the transfer engine.
type Channel struct {
	*sim.ComponentBase

	engine  sim.Engine
	space   *addrspace.Space
	irqCtrl *irq.Controller
	irqNum  int

	cfg          ChannelConfig
	configured   bool
	enabled      bool
	intEnabled   bool
	requestLine  *signal.Line
	subscribed   map[*signal.Line]bool

	active     *Descriptor
	remaining  uint32
	blockIndex int
	intFlag    bool

	wordsMoved uint64
}

// Enable enables the channel.
func (ch *Channel) Enable() {
	ch.enabled = true
}

// Disable disables the channel. The active descriptor, if any, stays
// loaded but requests are ignored.
func (ch *Channel) Disable() {
	ch.enabled = false
}

// EnableInterrupt unmasks the channel's completion interrupt at the
// channel level.
func (ch *Channel) EnableInterrupt() {
	ch.intEnabled = true
}

// Configure sets the channel configuration.
func (ch *Channel) Configure(cfg ChannelConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ch.cfg = cfg
	ch.configured = true

	return nil
}

// SetRequestSource routes a signal line into the channel's transfer
// request input. This is the explicit converter-completion to
// transfer-request wiring: the channel is paced by conversions finishing,
// not by the trigger pulse itself.
func (ch *Channel) SetRequestSource(line *signal.Line) {
	ch.requestLine = line

	if !ch.subscribed[line] {
		ch.subscribed[line] = true
		line.OnRising(func(now sim.VTimeInSec) {
			ch.onRequest(line, now)
		})
	}
}

// Start arms the channel with the head of a validated descriptor chain
// and declares it valid. Data motion begins with the first transfer
// request.
func (ch *Channel) Start(head *Descriptor) error {
	if !ch.configured {
		return fmt.Errorf("%s: channel not configured", ch.Name())
	}

	if !ch.enabled {
		return fmt.Errorf("%s: channel not enabled", ch.Name())
	}

	if ch.active != nil {
		return fmt.Errorf("%s: chain already active", ch.Name())
	}

	if err := ValidateChain(head); err != nil {
		return err
	}

	ch.active = head
	ch.remaining = head.Transfer.Count
	ch.blockIndex = 0

	return nil
}

// Active reports whether a descriptor chain is in progress.
func (ch *Channel) Active() bool {
	return ch.active != nil
}

// InterruptPending reports the channel's completion interrupt flag.
func (ch *Channel) InterruptPending() bool {
	return ch.intFlag
}

// ClearInterruptFlag acknowledges the completion interrupt. Service
// routines call it before counting the completion.
func (ch *Channel) ClearInterruptFlag() {
	ch.intFlag = false
}

// WordsMoved returns the total number of words the channel has moved
// since creation.
func (ch *Channel) WordsMoved() uint64 {
	return ch.wordsMoved
}

func (ch *Channel) onRequest(from *signal.Line, now sim.VTimeInSec) {
	if !ch.enabled || from != ch.requestLine {
		return
	}

	d := ch.active
	if d == nil {
		return
	}

	width := d.Transfer.Width.Bytes()
	index := d.Transfer.Count - ch.remaining

	src := effectiveAddr(
		d.Source, d.Transfer.IncrementSrc, d.Transfer.Count, index, width)
	dst := effectiveAddr(
		d.Destination, d.Transfer.IncrementDst, d.Transfer.Count, index, width)

	buf := make([]byte, width)
	if err := ch.space.Read(src, buf); err != nil {
		log.Panicf("%s: %v", ch.Name(), err)
	}
	if err := ch.space.Write(dst, buf); err != nil {
		log.Panicf("%s: %v", ch.Name(), err)
	}

	ch.wordsMoved++
	ch.remaining--

	if ch.remaining == 0 {
		ch.completeBlock(d, now)
	}
}

// effectiveAddr resolves the end-address convention. The incrementing side
// of word i of a count-word transfer lives at end-(count-1-i)*width; a
// non-incrementing side stays at the programmed address for every word.
func effectiveAddr(
	end uint32,
	increment bool,
	count, index, width uint32,
) uint32 {
	if !increment {
		return end
	}

	return end - (count-1-index)*width
}

func (ch *Channel) completeBlock(d *Descriptor, now sim.VTimeInSec) {
	if d.Transfer.InterruptOnDone {
		ch.intFlag = true
	}

	ch.InvokeHook(sim.HookCtx{
		Domain: ch,
		Pos:    HookPosBlockComplete,
		Item:   ch.blockIndex,
		Detail: d,
	})

	if d.Transfer.InterruptOnDone && ch.intEnabled {
		ch.irqCtrl.Pend(ch.irqNum, now)
	}

	if d.Transfer.Reload && d.Next != nil {
		ch.active = d.Next
		ch.remaining = d.Next.Transfer.Count
		ch.blockIndex++
		return
	}

	ch.active = nil
}

// Handle implements sim.Handler. The channel schedules no events of its
// own: all its work happens in the context of request edges.
func (ch *Channel) Handle(e sim.Event) error {
	panic(fmt.Sprintf("%s: cannot handle event %T", ch.Name(), e))
}
