// Package uart models the serial output sink of the capture pipeline.
//
// The emitter uses it exclusively through the blocking WriteByte
// primitive. Transmitted bytes land in an io.Writer, which stands in for
// the wire.
package uart

import (
	"fmt"
	"io"
)

// Parity selects the parity mode of the frame.
type Parity uint8

// Parity modes.
const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// Config describes the serial frame and rate.
type Config struct {
	BaudRate uint32
	DataBits uint8
	StopBits uint8
	Parity   Parity
}

// DefaultConfig is the 115200 8N1 setting of the reference firmware.
var DefaultConfig = Config{
	BaudRate: 115200,
	DataBits: 8,
	StopBits: 1,
	Parity:   ParityNone,
}

// Validate checks the frame parameters.
func (c Config) Validate() error {
	if c.BaudRate == 0 {
		return fmt.Errorf("uart: baud rate must be non-zero")
	}
	if c.DataBits < 7 || c.DataBits > 9 {
		return fmt.Errorf("uart: %d data bits not supported", c.DataBits)
	}
	if c.StopBits != 1 && c.StopBits != 2 {
		return fmt.Errorf("uart: %d stop bits not supported", c.StopBits)
	}
	if c.Parity > ParityOdd {
		return fmt.Errorf("uart: invalid parity mode %d", c.Parity)
	}
	return nil
}

// A Tx is the transmit side of a UART.
type Tx struct {
	w         io.Writer
	cfg       Config
	txEnabled bool
	enabled   bool
	sent      uint64
}

// NewTx creates the transmit side writing into w.
func NewTx(w io.Writer) *Tx {
	return &Tx{w: w}
}

// Configure sets the frame format and baud rate. The UART must not be
// enabled while being reconfigured.
func (t *Tx) Configure(cfg Config) error {
	if t.enabled {
		return fmt.Errorf("uart: cannot reconfigure while enabled")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	t.cfg = cfg
	return nil
}

// EnableTx enables the transmitter.
func (t *Tx) EnableTx() {
	t.txEnabled = true
}

// Enable enables the peripheral.
func (t *Tx) Enable() {
	t.enabled = true
}

// TxReady reports whether the transmitter accepts another byte. The model
// has no transmit FIFO depth, so an enabled transmitter is always ready.
func (t *Tx) TxReady() bool {
	return t.enabled && t.txEnabled
}

// WriteByte sends one byte, blocking until the transmitter accepts it.
func (t *Tx) WriteByte(b byte) error {
	if !t.TxReady() {
		return fmt.Errorf("uart: transmitter not enabled")
	}

	if _, err := t.w.Write([]byte{b}); err != nil {
		return fmt.Errorf("uart: transmit: %w", err)
	}

	t.sent++
	return nil
}

// BytesSent returns the number of bytes transmitted since enable.
func (t *Tx) BytesSent() uint64 {
	return t.sent
}
