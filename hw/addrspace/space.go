// Package addrspace provides a flat physical address space that maps
// address ranges to devices.
//
// Both the sample buffer SRAM and the converter's result register are
// mapped here, so the transfer engine addresses its source and destination
// the way the hardware does, by physical address.
package addrspace

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// A Device occupies a region of the address space. Offsets are relative to
// the base address the device is mapped at.
type Device interface {
	// Load reads len(p) bytes starting at offset into p.
	Load(offset uint32, p []byte) error

	// Store writes len(p) bytes starting at offset.
	Store(offset uint32, p []byte) error
}

type region struct {
	base uint32
	size uint32
	dev  Device
}

// A Space is a flat physical address space.
type Space struct {
	regions []region
}

// NewSpace creates an empty address space.
func NewSpace() *Space {
	return &Space{}
}

// Map places a device at [base, base+size). Overlapping regions are a
// configuration error.
func (s *Space) Map(base, size uint32, dev Device) error {
	if size == 0 {
		return fmt.Errorf("cannot map zero-sized region at 0x%08x", base)
	}

	for _, r := range s.regions {
		if base < r.base+r.size && r.base < base+size {
			return fmt.Errorf(
				"region [0x%08x, 0x%08x) overlaps [0x%08x, 0x%08x)",
				base, base+size, r.base, r.base+r.size)
		}
	}

	s.regions = append(s.regions, region{base: base, size: size, dev: dev})
	sort.Slice(s.regions, func(i, j int) bool {
		return s.regions[i].base < s.regions[j].base
	})

	return nil
}

func (s *Space) find(addr uint32, n uint32) (*region, error) {
	for i := range s.regions {
		r := &s.regions[i]
		if addr >= r.base && addr+n <= r.base+r.size {
			return r, nil
		}
	}

	return nil, fmt.Errorf("access to unmapped address 0x%08x", addr)
}

// Read reads len(p) bytes at addr.
func (s *Space) Read(addr uint32, p []byte) error {
	r, err := s.find(addr, uint32(len(p)))
	if err != nil {
		return err
	}

	return r.dev.Load(addr-r.base, p)
}

// Write writes len(p) bytes at addr.
func (s *Space) Write(addr uint32, p []byte) error {
	r, err := s.find(addr, uint32(len(p)))
	if err != nil {
		return err
	}

	return r.dev.Store(addr-r.base, p)
}

// Read16 reads a little-endian 16-bit word at addr.
func (s *Space) Read16(addr uint32) (uint16, error) {
	var buf [2]byte
	if err := s.Read(addr, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(buf[:]), nil
}

// Write16 writes a little-endian 16-bit word at addr.
func (s *Space) Write16(addr uint32, v uint16) error {
	var buf [2]byte
	binary.LittleEndian.PutUint16(buf[:], v)
	return s.Write(addr, buf[:])
}
