// Package adc models the analog-to-digital converter of the capture
// pipeline.
//
// The converter performs exactly one conversion per rising edge of its
// trigger input and signals end-of-sequence after each conversion. The
// result register holds the 12-bit conversion value in bits 15:4, so a
// 16-bit read of the register yields value<<4.
package adc

import (
	"encoding/binary"
	"fmt"

	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// NumChannels is the number of input channels of the converter.
const NumChannels = 12

// ResultShift is the position of the conversion value within the 16-bit
// result word. The low bits below it carry no data.
const ResultShift = 4

// Mode selects when the converter signals completion.
type Mode uint8

// Completion modes. Only end-of-sequence is meaningful for the
// single-channel pipeline: the completion fires once per finished
// conversion sequence, never per in-progress state.
const (
	ModeEndOfSequence Mode = iota
	ModeEndOfConversion
)

// SequencerConfig arms the conversion sequencer.
type SequencerConfig struct {
	// Channel is the single input channel conversions run on.
	Channel int

	// Trigger is the line whose rising edge starts one conversion.
	Trigger *signal.Line

	// Mode selects the completion signaling mode.
	Mode Mode
}

// Validate range-checks the configuration.
func (c SequencerConfig) Validate() error {
	if c.Channel < 0 || c.Channel >= NumChannels {
		return fmt.Errorf("adc: channel %d out of range [0, %d)",
			c.Channel, NumChannels)
	}

	if c.Trigger == nil {
		return fmt.Errorf("adc: trigger source is required")
	}

	if c.Mode != ModeEndOfSequence {
		return fmt.Errorf("adc: only end-of-sequence mode is supported")
	}

	return nil
}

// A Converter is the sampling unit.
type Converter struct {
	*sim.ComponentBase

	engine           sim.Engine
	clock            sim.Freq
	conversionCycles int
	calibCycles      int
	input            Waveform

	cfg        SequencerConfig
	configured bool
	enabled    bool

	calibrating bool
	calibrated  bool

	busy     bool
	run      uint64
	dr       uint16
	overruns uint64

	seqDone    *signal.Line
	subscribed map[*signal.Line]bool
}

type calibrationDoneEvent struct {
	*sim.EventBase
}

type conversionDoneEvent struct {
	*sim.EventBase
	run uint64
}

// SequenceDone returns the end-of-sequence output line. It pulses once per
// completed conversion and is what the transfer engine's request mux
// listens to.
func (c *Converter) SequenceDone() *signal.Line {
	return c.seqDone
}

// StartCalibration begins the one-time calibration routine. The caller is
// expected to wait for CalibrationDone before enabling the sequencer;
// enabling an uncalibrated converter is a precondition failure.
func (c *Converter) StartCalibration() error {
	if c.calibrating {
		return fmt.Errorf("%s: calibration already in progress", c.Name())
	}

	if c.enabled {
		return fmt.Errorf("%s: cannot calibrate while enabled", c.Name())
	}

	c.calibrating = true
	c.calibrated = false

	when := c.clock.NCyclesLater(c.calibCycles, c.engine.CurrentTime())
	c.engine.Schedule(&calibrationDoneEvent{
		EventBase: sim.NewEventBase(when, c),
	})

	return nil
}

// CalibrationDone reports whether calibration has completed.
func (c *Converter) CalibrationDone() bool {
	return c.calibrated
}

// ConfigureSequencer arms the sequencer configuration. The sequencer must
// be disabled while being configured.
func (c *Converter) ConfigureSequencer(cfg SequencerConfig) error {
	if c.enabled {
		return fmt.Errorf("%s: cannot configure while enabled", c.Name())
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	c.cfg = cfg
	c.configured = true

	if !c.subscribed[cfg.Trigger] {
		c.subscribed[cfg.Trigger] = true
		trigger := cfg.Trigger
		trigger.OnRising(func(now sim.VTimeInSec) {
			c.onTrigger(trigger, now)
		})
	}

	return nil
}

// EnableSequencer starts reacting to trigger edges. Calibration must have
// completed first.
func (c *Converter) EnableSequencer() error {
	if !c.configured {
		return fmt.Errorf("%s: sequencer not configured", c.Name())
	}

	if !c.calibrated {
		return fmt.Errorf("%s: calibration not complete", c.Name())
	}

	c.enabled = true
	c.run++

	return nil
}

// DisableSequencer stops reacting to trigger edges. A conversion in flight
// is abandoned.
func (c *Converter) DisableSequencer() {
	c.enabled = false
	c.busy = false
}

// Overruns returns the number of trigger edges that arrived while a
// conversion was still in flight. Those triggers are dropped; the pipeline
// is designed so the trigger period covers a full conversion.
func (c *Converter) Overruns() uint64 {
	return c.overruns
}

func (c *Converter) onTrigger(from *signal.Line, now sim.VTimeInSec) {
	if !c.enabled || from != c.cfg.Trigger {
		return
	}

	if c.busy {
		c.overruns++
		return
	}

	c.busy = true

	when := c.clock.NCyclesLater(c.conversionCycles, now)
	c.engine.Schedule(&conversionDoneEvent{
		EventBase: sim.NewEventBase(when, c),
		run:       c.run,
	})
}

// Handle processes calibration and conversion completions.
func (c *Converter) Handle(e sim.Event) error {
	switch evt := e.(type) {
	case *calibrationDoneEvent:
		c.calibrating = false
		c.calibrated = true
	case *conversionDoneEvent:
		if !c.enabled || evt.run != c.run {
			return nil
		}

		value := c.input.Sample(e.Time()) & 0x0fff
		c.dr = value << ResultShift
		c.busy = false
		c.seqDone.Pulse(e.Time())
	default:
		panic(fmt.Sprintf("%s: cannot handle event %T", c.Name(), e))
	}

	return nil
}

// ResultRegisterOffset returns the offset of a channel's result register
// within the converter's register block.
func ResultRegisterOffset(channel int) uint32 {
	return uint32(channel) * 4
}

// RegisterBlockSize is the size in bytes of the mapped register block.
const RegisterBlockSize = NumChannels * 4

// Load implements addrspace.Device. Only the result register of the
// configured channel reads back data; the other channels read as zero.
func (c *Converter) Load(offset uint32, p []byte) error {
	if offset+uint32(len(p)) > RegisterBlockSize {
		return fmt.Errorf("%s: register read at 0x%x out of range",
			c.Name(), offset)
	}

	var block [RegisterBlockSize]byte
	binary.LittleEndian.PutUint16(
		block[ResultRegisterOffset(c.cfg.Channel):], c.dr)

	copy(p, block[offset:])
	return nil
}

// Store implements addrspace.Device. The register block is read-only; the
// hardware ignores writes.
func (c *Converter) Store(offset uint32, p []byte) error {
	return nil
}
