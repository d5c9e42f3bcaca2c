package capture

import (
	"fmt"

	"github.com/sigsim/capture/periph/adc"
	"github.com/sigsim/capture/periph/dma"
	"github.com/sigsim/capture/sim"
)

// Config describes one capture: which channel to sample, how fast, and how
// many words to collect.
type Config struct {
	// SampleRate is the trigger rate in conversions per second.
	SampleRate uint32

	// Channel is the converter input channel.
	Channel int

	// Segments is the number of descriptor-sized blocks in the capture.
	Segments int

	// WordsPerSegment is the number of 16-bit words each block moves, at
	// most the per-descriptor transfer limit.
	WordsPerSegment int
}

// Validate range-checks the configuration against the system clock. A
// session refuses to build on a configuration that fails here.
func (c Config) Validate(clock sim.Freq) error {
	if c.SampleRate == 0 {
		return fmt.Errorf("capture: sample rate must be positive")
	}

	if c.Channel < 0 || c.Channel >= adc.NumChannels {
		return fmt.Errorf("capture: channel %d out of range [0, %d)",
			c.Channel, adc.NumChannels)
	}

	if c.Segments < 1 {
		return fmt.Errorf("capture: at least one segment is required")
	}

	if c.WordsPerSegment < 1 ||
		c.WordsPerSegment > dma.MaxTransferCount {
		return fmt.Errorf(
			"capture: words per segment %d out of range [1, %d]",
			c.WordsPerSegment, dma.MaxTransferCount)
	}

	if c.triggerTicks(clock) < 2 {
		return fmt.Errorf(
			"capture: sample rate %d Hz is too fast for a %.0f Hz timer clock",
			c.SampleRate, float64(clock))
	}

	return nil
}

// TotalWords returns the number of words the whole capture collects.
func (c Config) TotalWords() int {
	return c.Segments * c.WordsPerSegment
}

// triggerTicks converts the sample rate to a trigger period in timer
// clock ticks.
func (c Config) triggerTicks(clock sim.Freq) uint32 {
	if c.SampleRate == 0 {
		return 0
	}

	return uint32(uint64(clock) / uint64(c.SampleRate))
}
