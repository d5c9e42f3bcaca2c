package datarec

import (
	"fmt"

	"github.com/sigsim/capture/capture"
)

// Table names used by the Archiver.
const (
	RunTable    = "runs"
	SampleTable = "samples"
)

// A RunEntry is the per-run row: configuration plus outcome.
type RunEntry struct {
	RunID           string
	SampleRate      uint32
	Channel         int
	Segments        int
	WordsPerSegment int
	Overruns        uint64
	CompletedAt     float64
}

// A SampleEntry is one captured word, raw and normalized.
type SampleEntry struct {
	RunID string
	Idx   int
	Raw   uint16
	Value uint16
}

// An Archiver stores finished capture sessions through a Recorder.
type Archiver struct {
	rec Recorder
}

// NewArchiver creates an Archiver and its tables.
func NewArchiver(rec Recorder) *Archiver {
	rec.CreateTable(RunTable, RunEntry{})
	rec.CreateTable(SampleTable, SampleEntry{})

	return &Archiver{rec: rec}
}

// Archive records a completed session: one run row and one row per
// captured word.
func (a *Archiver) Archive(s *capture.Session) error {
	raw, err := s.RawWords()
	if err != nil {
		return fmt.Errorf("archiving session %s: %w", s.ID(), err)
	}

	p := s.Platform()
	cfg := s.Config()

	a.rec.InsertData(RunTable, RunEntry{
		RunID:           s.ID(),
		SampleRate:      cfg.SampleRate,
		Channel:         cfg.Channel,
		Segments:        cfg.Segments,
		WordsPerSegment: cfg.WordsPerSegment,
		Overruns:        p.Converter.Overruns(),
		CompletedAt:     float64(p.Engine.CurrentTime()),
	})

	for i, w := range raw {
		a.rec.InsertData(SampleTable, SampleEntry{
			RunID: s.ID(),
			Idx:   i,
			Raw:   w,
			Value: capture.Normalize(w),
		})
	}

	a.rec.Flush()

	return nil
}
