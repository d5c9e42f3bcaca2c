package dma

import (
	"fmt"
)

// MaxTransferCount is the hardware limit on the number of words a single
// descriptor can move. Longer captures chain descriptors back to back.
const MaxTransferCount = 1024

// Width is the transfer word width in bytes.
type Width uint8

// Legal transfer widths.
const (
	Width8  Width = 1
	Width16 Width = 2
	Width32 Width = 4
)

// Bytes returns the width in bytes.
func (w Width) Bytes() uint32 {
	return uint32(w)
}

func (w Width) valid() bool {
	return w == Width8 || w == Width16 || w == Width32
}

// TransferConfig is the per-descriptor transfer configuration.
type TransferConfig struct {
	// Valid marks the descriptor as considered valid by the engine.
	Valid bool

	// Reload makes the engine load the next descriptor when this one
	// completes. The terminal link of a chain clears it so the engine
	// halts.
	Reload bool

	// InterruptOnDone raises the channel interrupt when the descriptor
	// completes.
	InterruptOnDone bool

	// Width is the word width moved per transfer request.
	Width Width

	// IncrementSrc advances the source address by one width per word.
	// Reading a peripheral register leaves it false.
	IncrementSrc bool

	// IncrementDst advances the destination address by one width per
	// word.
	IncrementDst bool

	// Count is the number of words the descriptor moves, at most
	// MaxTransferCount.
	Count uint32
}

// Validate range-checks the transfer configuration.
func (c TransferConfig) Validate() error {
	if !c.Width.valid() {
		return fmt.Errorf("dma: invalid transfer width %d", c.Width)
	}

	if c.Count == 0 {
		return fmt.Errorf("dma: transfer count must be at least 1")
	}

	if c.Count > MaxTransferCount {
		return fmt.Errorf("dma: transfer count %d exceeds the limit of %d",
			c.Count, MaxTransferCount)
	}

	return nil
}

// A Descriptor is one link of a transfer chain.
//
// Source and Destination follow the end-address convention: the programmed
// address is the last (highest) address the transfer touches, and the
// engine derives the first word's address as end-(Count-1)*Width for the
// incrementing side. A non-incrementing side reads or writes the end
// address for every word.
type Descriptor struct {
	Transfer    TransferConfig
	Source      uint32
	Destination uint32
	Next        *Descriptor
}

// ValidateChain checks the structural invariants of a descriptor chain:
// the chain is non-empty, non-cyclic, every link is valid and within the
// transfer limit, every non-terminal link reloads into its successor, and
// the terminal link clears reload and has no successor.
func ValidateChain(head *Descriptor) error {
	if head == nil {
		return fmt.Errorf("dma: empty descriptor chain")
	}

	seen := make(map[*Descriptor]bool)
	for d, i := head, 0; d != nil; d, i = d.Next, i+1 {
		if seen[d] {
			return fmt.Errorf("dma: descriptor chain is cyclic at link %d", i)
		}
		seen[d] = true

		if !d.Transfer.Valid {
			return fmt.Errorf("dma: link %d is not marked valid", i)
		}

		if err := d.Transfer.Validate(); err != nil {
			return fmt.Errorf("link %d: %w", i, err)
		}

		if d.Next != nil && !d.Transfer.Reload {
			return fmt.Errorf(
				"dma: link %d has a successor but does not reload", i)
		}

		if d.Next == nil && d.Transfer.Reload {
			return fmt.Errorf(
				"dma: terminal link %d must not set reload", i)
		}
	}

	return nil
}

// ChainLen returns the number of links in the chain.
func ChainLen(head *Descriptor) int {
	n := 0
	for d := head; d != nil; d = d.Next {
		n++
	}
	return n
}
