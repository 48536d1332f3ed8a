// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/sim6502/sim6502/cpu"

// The demo program exercises every addressing mode of the load
// instructions. It starts at the reset vector and wraps through $FFFF into
// page zero.
var demoCode = []byte{
	0xa9, 0xff,       // LDA #$FF
	0xa5, 0x22,       // LDA $22
	0xad, 0x34, 0x12, // LDA $1234
	0xa2, 0x05,       // LDX #$05
	0xbd, 0x34, 0x12, // LDA $1234,X
	0xb5, 0xff,       // LDA $FF,X
	0xa1, 0x02,       // LDA ($02,X)
	0xa0, 0x03,       // LDY #$03
	0xb9, 0x56, 0x34, // LDA $3456,Y
	0xb1, 0x05,       // LDA ($05),Y
	0xa6, 0x00,       // LDX $00
	0xae, 0x34, 0x12, // LDX $1234
	0xb6, 0x05,       // LDX $05,Y
	0xbe, 0x31, 0x12, // LDX $1231,Y
	0xa4, 0x03,       // LDY $03
	0xac, 0x34, 0x12, // LDY $1234
	0xb4, 0x01,       // LDY $01,X
	0xbc, 0xcd, 0x46, // LDY $46CD,X
	0x95, 0xaa,       // STA $AA,X
	0x00,             // BRK
}

// Data read by the demo program.
var demoData = map[uint16]byte{
	0x0045: 0x42,
	0x00ad: 0xaa,
	0x00c0: 0x11,
	0x00c1: 0x47,
	0x1234: 0x44,
	0x1239: 0x93,
	0x3459: 0x99,
	0x4711: 0xda,
	0xb512: 0x77,
}

// Store the demo program and its data, returning the program's origin.
func (h *Host) loadDemo() uint16 {
	h.mem.StoreBytes(cpu.ResetPC, demoCode)
	for addr, v := range demoData {
		h.mem.StoreByte(addr, v)
	}
	return cpu.ResetPC
}
