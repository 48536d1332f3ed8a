// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

// Mode describes a memory addressing mode.
type Mode byte

// All supported memory addressing modes
const (
	IMM Mode = iota // Immediate
	IMP             // Implied (no operand)
	ZPG             // Zero Page
	ZPX             // Zero Page,X
	ZPY             // Zero Page,Y
	ABS             // Absolute
	ABX             // Absolute,X
	ABY             // Absolute,Y
	IDX             // (Indirect,X)
	IDY             // (Indirect),Y
)

var modeNames = [...]string{
	IMM: "Immediate",
	IMP: "Implied",
	ZPG: "Zero Page",
	ZPX: "Zero Page,X",
	ZPY: "Zero Page,Y",
	ABS: "Absolute",
	ABX: "Absolute,X",
	ABY: "Absolute,Y",
	IDX: "(Indirect,X)",
	IDY: "(Indirect),Y",
}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "Unknown"
}

// OperandLength returns the number of operand bytes that follow an opcode
// using the addressing mode.
func (m Mode) OperandLength() int {
	switch m {
	case IMP:
		return 0
	case ABS, ABX, ABY:
		return 2
	default:
		return 1
	}
}

// An Operand is the result of resolving an addressing mode. Immediate
// operands carry their value; all other modes carry an effective address.
type Operand struct {
	Mode        Mode
	Value       byte   // immediate value (IMM only)
	Addr        uint16 // effective address
	PageCrossed bool   // indexing moved the address to another page
}

// Resolve consumes the operand bytes of an instruction through the program
// counter and returns the resulting operand. On return the program counter
// addresses the byte following the last operand byte.
func Resolve(mode Mode, m Memory, r *Registers) Operand {
	op := Operand{Mode: mode}
	switch mode {
	case IMM:
		op.Value = r.AdvancePC(m)
	case IMP:
	case ZPG:
		op.Addr = uint16(r.AdvancePC(m))
	case ZPX:
		op.Addr = offsetZeroPage(r.AdvancePC(m), r.X)
	case ZPY:
		op.Addr = offsetZeroPage(r.AdvancePC(m), r.Y)
	case ABS:
		op.Addr = fetchAddress(m, r)
	case ABX:
		op.Addr, op.PageCrossed = offsetAddress(fetchAddress(m, r), r.X)
	case ABY:
		op.Addr, op.PageCrossed = offsetAddress(fetchAddress(m, r), r.Y)
	case IDX:
		zp := r.AdvancePC(m) + r.X
		op.Addr = loadZeroPageAddress(m, zp)
	case IDY:
		ptr := loadZeroPageAddress(m, r.AdvancePC(m))
		op.Addr, op.PageCrossed = offsetAddress(ptr, r.Y)
	default:
		panic("Invalid addressing mode")
	}
	return op
}

// Load returns the value the operand refers to.
func (op *Operand) Load(m Memory) byte {
	if op.Mode == IMM {
		return op.Value
	}
	return m.LoadByte(op.Addr)
}

// Fetch a little-endian absolute address through the program counter.
func fetchAddress(m Memory, r *Registers) uint16 {
	lo := r.AdvancePC(m)
	hi := r.AdvancePC(m)
	return uint16(lo) | uint16(hi)<<8
}
