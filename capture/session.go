// Package capture drives one analog capture end to end: it arms the
// trigger, converter and transfer chain, waits for the chain to complete,
// and turns the raw buffer into samples.
//
// The flow mirrors the hardware it models. The session's completion
// counter is written only by the transfer engine's interrupt handler; the
// waiting flow reads it between power-yielding waits and never touches the
// buffer before the counter says the capture is done.
package capture

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sigsim/capture/periph/adc"
	"github.com/sigsim/capture/periph/dma"
	"github.com/sigsim/capture/sim"
)

// Capture failure modes of the bounded wait.
var (
	// ErrCaptureTimeout reports that the bounded wait reached its
	// deadline before the chain completed.
	ErrCaptureTimeout = errors.New("capture: timed out")

	// ErrCaptureStalled reports that the simulation ran out of events
	// with the capture incomplete. A correctly armed pipeline cannot
	// stall; this is the observable form of broken peripheral wiring.
	ErrCaptureStalled = errors.New("capture: stalled with no pending event")
)

// State is the completion state of a session.
type State int

// Session states.
const (
	StateIdle State = iota
	StateArmed
	StateDone
	StateFailed
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateArmed:
		return "armed"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// A Session runs one capture on a platform. It owns the sample buffer
// region, the descriptor chain, and the completion counter. A finished
// session can be set up again; re-arming resets the counter and reuses
// the buffer.
type Session struct {
	id       string
	platform *Platform
	cfg      Config

	bufferBase uint32
	chain      []*dma.Descriptor

	// blockCount is written only by the interrupt handler and read by
	// the waiting flow.
	blockCount atomic.Int64

	state State
}

// NewSession creates a Session for the given capture configuration. The
// configuration is validated here, before any peripheral is touched.
func NewSession(p *Platform, cfg Config) (*Session, error) {
	if err := cfg.Validate(p.SystemClock); err != nil {
		return nil, err
	}

	bufBytes := uint32(cfg.TotalWords()) * dma.Width16.Bytes()
	if bufBytes > p.SRAM.Size() {
		return nil, fmt.Errorf(
			"capture: %d words do not fit the 0x%x-byte sample memory",
			cfg.TotalWords(), p.SRAM.Size())
	}

	s := &Session{
		id:         sim.GetIDGenerator().Generate(),
		platform:   p,
		cfg:        cfg,
		bufferBase: SRAMBase,
	}
	s.chain = s.buildChain()

	return s, nil
}

// ID returns the session's unique ID.
func (s *Session) ID() string {
	return s.id
}

// Config returns the capture configuration.
func (s *Session) Config() Config {
	return s.cfg
}

// Platform returns the platform the session runs on.
func (s *Session) Platform() *Platform {
	return s.platform
}

// State returns the completion state.
func (s *Session) State() State {
	return s.state
}

// Chain returns the head of the descriptor chain.
func (s *Session) Chain() *dma.Descriptor {
	return s.chain[0]
}

// BlockCount returns the number of completed blocks.
func (s *Session) BlockCount() int64 {
	return s.blockCount.Load()
}

// Progress returns completed and total block counts.
func (s *Session) Progress() (done, total int64) {
	return s.blockCount.Load(), int64(s.cfg.Segments)
}

// buildChain lays the capture buffer out as consecutive segments and
// builds one descriptor per segment. Each descriptor's destination is the
// address of the last word of its segment; every descriptor but the last
// reloads into its successor, and all of them raise the completion
// interrupt.
func (s *Session) buildChain() []*dma.Descriptor {
	width := dma.Width16.Bytes()
	segBytes := uint32(s.cfg.WordsPerSegment) * width
	srcAddr := s.platform.ResultAddr(s.cfg.Channel)

	descs := make([]*dma.Descriptor, s.cfg.Segments)
	for i := range descs {
		segBase := s.bufferBase + uint32(i)*segBytes
		descs[i] = &dma.Descriptor{
			Transfer: dma.TransferConfig{
				Valid:           true,
				Reload:          i < len(descs)-1,
				InterruptOnDone: true,
				Width:           dma.Width16,
				IncrementSrc:    false,
				IncrementDst:    true,
				Count:           uint32(s.cfg.WordsPerSegment),
			},
			Source:      srcAddr,
			Destination: segBase + segBytes - width,
		}
	}

	for i := 0; i < len(descs)-1; i++ {
		descs[i].Next = descs[i+1]
	}

	return descs
}

// Setup arms the whole pipeline in dependency order: the converter is
// calibrated and enabled first, then the transfer chain is armed on the
// converter's completion signal, and the trigger starts last so no pulse
// can fire into a half-armed pipeline.
func (s *Session) Setup() error {
	if s.state == StateArmed {
		return fmt.Errorf("capture: session already armed")
	}

	p := s.platform

	if err := s.calibrate(); err != nil {
		return err
	}

	if err := p.Converter.ConfigureSequencer(adc.SequencerConfig{
		Channel: s.cfg.Channel,
		Trigger: p.Trigger.Output(),
		Mode:    adc.ModeEndOfSequence,
	}); err != nil {
		return err
	}
	if err := p.Converter.EnableSequencer(); err != nil {
		return err
	}

	if err := p.DMA.Configure(dma.ChannelConfig{
		HardwareTrigger: true,
		TriggerType:     dma.TriggerEdge,
		Polarity:        dma.ActiveHigh,
	}); err != nil {
		return err
	}
	p.DMA.Enable()
	p.DMA.EnableInterrupt()
	p.DMA.SetRequestSource(p.Converter.SequenceDone())
	if err := p.DMA.Start(s.chain[0]); err != nil {
		return err
	}

	p.IRQ.SetHandler(DMAInterrupt, s.serviceBlockDone)
	p.IRQ.Enable(DMAInterrupt)
	s.blockCount.Store(0)

	period := s.cfg.triggerTicks(p.SystemClock)
	if err := p.Trigger.Configure(period, period/2); err != nil {
		return err
	}
	if err := p.Trigger.Start(); err != nil {
		return err
	}

	s.state = StateArmed

	return nil
}

// calibrate runs the converter's one-time calibration to completion,
// advancing the simulation as needed.
func (s *Session) calibrate() error {
	conv := s.platform.Converter
	if conv.CalibrationDone() {
		return nil
	}

	if err := conv.StartCalibration(); err != nil {
		return err
	}

	for !conv.CalibrationDone() {
		madeProgress, err := s.platform.Engine.Step()
		if err != nil {
			return fmt.Errorf("capture: calibrating: %w", err)
		}
		if !madeProgress {
			return fmt.Errorf("capture: calibration never completes")
		}
	}

	return nil
}

// serviceBlockDone is the transfer-complete interrupt handler. It marks
// the completion on the debug pin, acknowledges the interrupt, and counts
// the block.
func (s *Session) serviceBlockDone(now sim.VTimeInSec) {
	s.platform.DebugPin.Pulse(8)
	s.platform.DMA.ClearInterruptFlag()
	s.blockCount.Add(1)
}

// Wait blocks until every segment of the chain has completed, yielding to
// the simulation between interrupts.
func (s *Session) Wait() error {
	if s.state != StateArmed {
		return fmt.Errorf("capture: session is %s, not armed", s.state)
	}

	total := int64(s.cfg.Segments)
	for s.blockCount.Load() < total {
		woken, err := s.platform.IRQ.WaitForInterrupt()
		if err != nil {
			s.fail()
			return err
		}
		if !woken {
			s.fail()
			return ErrCaptureStalled
		}
	}

	s.finish()

	return nil
}

// WaitFor is Wait with a deadline in simulated time, measured from the
// current simulation time. It fails the session with ErrCaptureTimeout if
// the chain has not completed by then.
func (s *Session) WaitFor(d sim.VTimeInSec) error {
	if s.state != StateArmed {
		return fmt.Errorf("capture: session is %s, not armed", s.state)
	}

	deadline := s.platform.Engine.CurrentTime() + d

	total := int64(s.cfg.Segments)
	for s.blockCount.Load() < total {
		woken, err := s.platform.IRQ.WaitForInterruptUntil(deadline)
		if err != nil {
			s.fail()
			return err
		}
		if !woken {
			s.fail()
			if s.platform.Engine.CurrentTime() >= deadline {
				return ErrCaptureTimeout
			}
			return ErrCaptureStalled
		}
	}

	s.finish()

	return nil
}

// finish tears the pipeline down in the reverse of the arming order.
func (s *Session) finish() {
	s.teardown()
	s.state = StateDone
}

func (s *Session) fail() {
	s.teardown()
	s.state = StateFailed
}

func (s *Session) teardown() {
	p := s.platform
	p.Trigger.Stop()
	p.Converter.DisableSequencer()
	p.IRQ.Disable(DMAInterrupt)
}

// RawWords reads the raw capture buffer. The buffer is only defined once
// the session is done.
func (s *Session) RawWords() ([]uint16, error) {
	if s.state != StateDone {
		return nil, fmt.Errorf(
			"capture: buffer not valid while session is %s", s.state)
	}

	words := make([]uint16, s.cfg.TotalWords())
	for i := range words {
		w, err := s.platform.Space.Read16(
			s.bufferBase + uint32(i)*dma.Width16.Bytes())
		if err != nil {
			return nil, err
		}
		words[i] = w
	}

	return words, nil
}

// Samples reads the capture buffer and normalizes every word.
func (s *Session) Samples() ([]uint16, error) {
	raw, err := s.RawWords()
	if err != nil {
		return nil, err
	}

	for i, w := range raw {
		raw[i] = Normalize(w)
	}

	return raw, nil
}

// Normalize extracts the conversion value from a raw result word. It is a
// pure function of the word; normalizing a buffer twice is a bug in the
// caller, not here.
func Normalize(raw uint16) uint16 {
	return raw >> adc.ResultShift
}
