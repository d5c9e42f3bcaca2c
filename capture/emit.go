package capture

import (
	"fmt"
)

// A ByteSink is the minimal record output device: it accepts one byte at
// a time. The serial transmitter is the canonical implementation.
type ByteSink interface {
	WriteByte(b byte) error
}

// An Emitter writes capture records as text through a ByteSink.
type Emitter struct {
	sink ByteSink
}

// NewEmitter creates an Emitter on a sink.
func NewEmitter(sink ByteSink) *Emitter {
	return &Emitter{sink: sink}
}

// WriteDecimal writes the decimal representation of n, one byte at a
// time, with a leading minus for negative values.
func (e *Emitter) WriteDecimal(n int) error {
	if n == 0 {
		return e.sink.WriteByte('0')
	}

	if n < 0 {
		if err := e.sink.WriteByte('-'); err != nil {
			return err
		}
		n = -n
	}

	var digits [20]byte
	i := 0
	for n > 0 {
		digits[i] = byte('0' + n%10)
		n /= 10
		i++
	}

	for i > 0 {
		i--
		if err := e.sink.WriteByte(digits[i]); err != nil {
			return err
		}
	}

	return nil
}

// EmitRecord writes one "<index> <value>" line.
func (e *Emitter) EmitRecord(index int, value uint16) error {
	if err := e.WriteDecimal(index); err != nil {
		return err
	}
	if err := e.sink.WriteByte(' '); err != nil {
		return err
	}
	if err := e.WriteDecimal(int(value)); err != nil {
		return err
	}
	return e.sink.WriteByte('\n')
}

// EmitRecords writes one line per sample, indexed from zero.
func (e *Emitter) EmitRecords(samples []uint16) error {
	for i, v := range samples {
		if err := e.EmitRecord(i, v); err != nil {
			return fmt.Errorf("emitting record %d: %w", i, err)
		}
	}
	return nil
}
