package adc

import (
	"github.com/sigsim/capture/hw/signal"
	"github.com/sigsim/capture/sim"
)

// A Builder builds Converters.
type Builder struct {
	engine           sim.Engine
	clock            sim.Freq
	conversionCycles int
	calibCycles      int
	input            Waveform
}

// MakeBuilder creates a Builder with the reference conversion timing: a
// 30 MHz conversion clock and 25 clocks per full conversion.
func MakeBuilder() Builder {
	return Builder{
		clock:            30 * sim.MHz,
		conversionCycles: 25,
		calibCycles:      100,
		input:            ConstantWave(0),
	}
}

// WithEngine sets the engine that drives the converter.
func (b Builder) WithEngine(engine sim.Engine) Builder {
	b.engine = engine
	return b
}

// WithClock sets the conversion clock frequency.
func (b Builder) WithClock(clock sim.Freq) Builder {
	b.clock = clock
	return b
}

// WithConversionCycles sets the clocks needed for one full conversion.
func (b Builder) WithConversionCycles(n int) Builder {
	b.conversionCycles = n
	return b
}

// WithCalibrationCycles sets the clocks the calibration routine takes.
func (b Builder) WithCalibrationCycles(n int) Builder {
	b.calibCycles = n
	return b
}

// WithInput connects the analog input waveform.
func (b Builder) WithInput(w Waveform) Builder {
	b.input = w
	return b
}

// Build creates a Converter.
func (b Builder) Build(name string) *Converter {
	c := &Converter{
		ComponentBase:    sim.NewComponentBase(name),
		engine:           b.engine,
		clock:            b.clock,
		conversionCycles: b.conversionCycles,
		calibCycles:      b.calibCycles,
		input:            b.input,
		seqDone:          signal.NewLine(name + ".SeqDone"),
		subscribed:       make(map[*signal.Line]bool),
	}

	return c
}
