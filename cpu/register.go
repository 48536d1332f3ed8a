// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// A Flag identifies a single bit of the processor status register.
type Flag byte

// Bits assigned to the processor status register.
const (
	Carry            Flag = 1 << 0 // C
	Zero             Flag = 1 << 1 // Z
	InterruptDisable Flag = 1 << 2 // I
	Decimal          Flag = 1 << 3 // D
	Break            Flag = 1 << 4 // B
	Unused           Flag = 1 << 5 // U
	Overflow         Flag = 1 << 6 // V
	Negative         Flag = 1 << 7 // N
)

// FlagOrder lists the status flags from the most significant bit to the
// least significant bit, the order in which they are usually displayed
// (NV-BDIZC).
var FlagOrder = [8]Flag{Negative, Overflow, Unused, Break, Decimal, InterruptDisable, Zero, Carry}

var flagNames = map[Flag]byte{
	Carry:            'C',
	Zero:             'Z',
	InterruptDisable: 'I',
	Decimal:          'D',
	Break:            'B',
	Unused:           'U',
	Overflow:         'V',
	Negative:         'N',
}

// String returns the single-letter name of the flag.
func (f Flag) String() string {
	if c, ok := flagNames[f]; ok {
		return string(c)
	}
	return "?"
}

// Values loaded into the registers by a hard reset.
const (
	ResetSP = 0xfd
	ResetPC = 0xfffc
	ResetSR = 0x24
)

// Registers contains the state of all 6502 registers along with the
// cumulative cycle counter. A Registers value with every field zero is
// treated as uninitialized and is reset before the first instruction
// executes. Any other value is used as is.
type Registers struct {
	A      byte   // accumulator
	X      byte   // X indexing register
	Y      byte   // Y indexing register
	SP     byte   // stack pointer ($100 + SP = stack memory location)
	PC     uint16 // program counter
	Cycles uint64 // total executed CPU cycles
	sr     byte   // processor status
}

// NewRegisters returns a register file in its reset state.
func NewRegisters() *Registers {
	r := &Registers{}
	r.Reset()
	return r
}

// Reset loads the canonical power-on values into all registers and clears
// the cycle counter.
func (r *Registers) Reset() {
	r.A = 0
	r.X = 0
	r.Y = 0
	r.SP = ResetSP
	r.PC = ResetPC
	r.sr = ResetSR
	r.Cycles = 0
}

// SR returns the packed processor status register.
func (r *Registers) SR() byte {
	return r.sr
}

// Flag reports whether the status flag f is set.
func (r *Registers) Flag(f Flag) bool {
	return r.sr&byte(f) != 0
}

// SetFlag sets or clears the status flag f, leaving all other status bits
// untouched. All status register updates go through this method.
func (r *Registers) SetFlag(f Flag, on bool) {
	if on {
		r.sr |= byte(f)
	} else {
		r.sr &^= byte(f)
	}
}

// AdvancePC loads the byte at the program counter and moves the program
// counter to the following address, wrapping at $FFFF.
func (r *Registers) AdvancePC(m Memory) byte {
	v := m.LoadByte(r.PC)
	r.PC++
	return v
}

// Update the Zero and Negative flags based on the value of 'v'.
func (r *Registers) updateNZ(v byte) {
	r.SetFlag(Zero, v == 0)
	r.SetFlag(Negative, v&0x80 != 0)
}

// Snapshot is a read-only copy of the register file.
type Snapshot struct {
	A      byte
	X      byte
	Y      byte
	SP     byte
	PC     uint16
	SR     byte
	Cycles uint64
}

// Snapshot returns a copy of the current register values.
func (r *Registers) Snapshot() Snapshot {
	return Snapshot{
		A:      r.A,
		X:      r.X,
		Y:      r.Y,
		SP:     r.SP,
		PC:     r.PC,
		SR:     r.sr,
		Cycles: r.Cycles,
	}
}

// Flag reports whether the status flag f was set when the snapshot was
// taken.
func (s Snapshot) Flag(f Flag) bool {
	return s.SR&byte(f) != 0
}
