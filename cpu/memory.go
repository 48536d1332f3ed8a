// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// MemorySize is the number of bytes addressable by the CPU.
const MemorySize = 64 * 1024

// The Memory interface presents an interface to the CPU through which all
// memory accesses occur. Addresses wrap at $FFFF; there is no out-of-range
// access.
type Memory interface {
	// LoadByte loads a single byte from the address and returns it.
	LoadByte(addr uint16) byte

	// LoadBytes loads len(b) bytes starting at the address into the buffer
	// 'b'.
	LoadBytes(addr uint16, b []byte)

	// StoreByte stores a byte to the requested address.
	StoreByte(addr uint16, v byte)

	// StoreBytes stores the bytes of 'b' starting at the requested address.
	StoreBytes(addr uint16, b []byte)
}

// FlatMemory represents an entire 16-bit address space as a singular
// 64K buffer.
type FlatMemory struct {
	b [MemorySize]byte
}

// NewFlatMemory creates a new 16-bit memory space.
func NewFlatMemory() *FlatMemory {
	return &FlatMemory{}
}

// LoadByte loads a single byte from the address and returns it.
func (m *FlatMemory) LoadByte(addr uint16) byte {
	return m.b[addr]
}

// LoadBytes loads multiple bytes from the address. Reads past $FFFF
// continue from $0000.
func (m *FlatMemory) LoadBytes(addr uint16, b []byte) {
	for n := 0; n < len(b); {
		n += copy(b[n:], m.b[addr:])
		addr = 0
	}
}

// StoreByte stores a byte at the requested address.
func (m *FlatMemory) StoreByte(addr uint16, v byte) {
	m.b[addr] = v
}

// StoreBytes stores multiple bytes to the requested address. Writes past
// $FFFF continue at $0000.
func (m *FlatMemory) StoreBytes(addr uint16, b []byte) {
	for n := 0; n < len(b); {
		n += copy(m.b[addr:], b[n:])
		addr = 0
	}
}

// Clear zeroes the entire address space.
func (m *FlatMemory) Clear() {
	m.b = [MemorySize]byte{}
}

// Return the offset address 'addr' + 'offset'. If the offset
// crossed a page boundary, return 'pageCrossed' as true.
func offsetAddress(addr uint16, offset byte) (newAddr uint16, pageCrossed bool) {
	newAddr = addr + uint16(offset)
	pageCrossed = ((newAddr & 0xff00) != (addr & 0xff00))
	return newAddr, pageCrossed
}

// Offset a zero-page address 'addr' by 'offset'. The result never leaves
// the zero page.
func offsetZeroPage(addr byte, offset byte) uint16 {
	return uint16(addr + offset)
}

// Load a little-endian 16-bit pointer stored in the zero page at 'zp'. The
// high byte wraps within the zero page, so a pointer at $FF takes its high
// byte from $00.
func loadZeroPageAddress(m Memory, zp byte) uint16 {
	lo := m.LoadByte(uint16(zp))
	hi := m.LoadByte(uint16(zp + 1))
	return uint16(lo) | uint16(hi)<<8
}
