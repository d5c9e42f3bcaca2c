package addrspace

import "fmt"

// SRAM is a byte-addressable on-chip memory device.
type SRAM struct {
	data []byte
}

// NewSRAM creates an SRAM of the given size in bytes.
func NewSRAM(size uint32) *SRAM {
	return &SRAM{data: make([]byte, size)}
}

// Size returns the size of the memory in bytes.
func (m *SRAM) Size() uint32 {
	return uint32(len(m.data))
}

// Load implements Device.
func (m *SRAM) Load(offset uint32, p []byte) error {
	if err := m.bounds(offset, uint32(len(p))); err != nil {
		return err
	}

	copy(p, m.data[offset:])
	return nil
}

// Store implements Device.
func (m *SRAM) Store(offset uint32, p []byte) error {
	if err := m.bounds(offset, uint32(len(p))); err != nil {
		return err
	}

	copy(m.data[offset:], p)
	return nil
}

func (m *SRAM) bounds(offset, n uint32) error {
	if offset+n > uint32(len(m.data)) {
		return fmt.Errorf(
			"sram access [0x%x, 0x%x) out of bounds (size 0x%x)",
			offset, offset+n, len(m.data))
	}
	return nil
}
