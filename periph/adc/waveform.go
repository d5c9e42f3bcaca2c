package adc

import (
	"math"

	"github.com/sigsim/capture/sim"
)

// A Waveform is the analog input of the converter, expressed as the 12-bit
// value the converter would measure at a given time.
type Waveform interface {
	Sample(now sim.VTimeInSec) uint16
}

// ConstantWave is a flat input, useful for known-pattern captures.
type ConstantWave uint16

// Sample returns the constant value.
func (w ConstantWave) Sample(now sim.VTimeInSec) uint16 {
	return uint16(w) & 0x0fff
}

// SineWave is a sinusoid centered in the conversion range.
type SineWave struct {
	Freq      sim.Freq
	Amplitude float64 // 0.0 to 1.0 of half range
}

// Sample returns the sinusoid sampled at now.
func (w SineWave) Sample(now sim.VTimeInSec) uint16 {
	amp := w.Amplitude
	if amp < 0 {
		amp = 0
	}
	if amp > 1 {
		amp = 1
	}

	phase := 2 * math.Pi * float64(w.Freq) * float64(now)
	v := 2047.5 + 2047.5*amp*math.Sin(phase)

	return uint16(math.Round(v)) & 0x0fff
}

// RampWave sweeps the full range once per period.
type RampWave struct {
	Period sim.VTimeInSec
}

// Sample returns the ramp sampled at now.
func (w RampWave) Sample(now sim.VTimeInSec) uint16 {
	if w.Period <= 0 {
		return 0
	}

	frac := math.Mod(float64(now/w.Period), 1.0)
	return uint16(frac*4096) & 0x0fff
}
