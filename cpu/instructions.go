// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cpu

import (
	"sort"
	"strings"
)

// An opsym is an internal symbol used to associate an opcode's data
// with its instructions.
type opsym byte

const (
	symBRK opsym = iota
	symDEX
	symDEY
	symINX
	symINY
	symLDA
	symLDX
	symLDY
	symNOP
	symSTA
	symSTX
	symSTY
	symTAX
	symTAY
	symTXA
	symTYA
)

type instfunc func(x *execution, inst *Instruction)

// Emulator implementation for each instruction family
type opcodeImpl struct {
	sym  opsym
	name string
	fn   instfunc
}

var impl = []opcodeImpl{
	{symBRK, "BRK", (*execution).brk},
	{symDEX, "DEX", (*execution).dex},
	{symDEY, "DEY", (*execution).dey},
	{symINX, "INX", (*execution).inx},
	{symINY, "INY", (*execution).iny},
	{symLDA, "LDA", (*execution).lda},
	{symLDX, "LDX", (*execution).ldx},
	{symLDY, "LDY", (*execution).ldy},
	{symNOP, "NOP", (*execution).nop},
	{symSTA, "STA", (*execution).sta},
	{symSTX, "STX", (*execution).stx},
	{symSTY, "STY", (*execution).sty},
	{symTAX, "TAX", (*execution).tax},
	{symTAY, "TAY", (*execution).tay},
	{symTXA, "TXA", (*execution).txa},
	{symTYA, "TYA", (*execution).tya},
}

// Opcode data for an (opcode, mode) pair
type opcodeData struct {
	sym      opsym // internal opcode symbol
	mode     Mode  // addressing mode
	opcode   byte  // opcode hex value
	bpcycles byte  // additional CPU cycles if command crosses page boundary
}

// All valid (opcode, mode) pairs. Only the indexed loads pay for a page
// crossing; indexed stores always take their fixed cost.
var data = []opcodeData{
	{symLDA, IMM, 0xa9, 0},
	{symLDA, ZPG, 0xa5, 0},
	{symLDA, ZPX, 0xb5, 0},
	{symLDA, ABS, 0xad, 0},
	{symLDA, ABX, 0xbd, 1},
	{symLDA, ABY, 0xb9, 1},
	{symLDA, IDX, 0xa1, 0},
	{symLDA, IDY, 0xb1, 1},

	{symLDX, IMM, 0xa2, 0},
	{symLDX, ZPG, 0xa6, 0},
	{symLDX, ZPY, 0xb6, 0},
	{symLDX, ABS, 0xae, 0},
	{symLDX, ABY, 0xbe, 1},

	{symLDY, IMM, 0xa0, 0},
	{symLDY, ZPG, 0xa4, 0},
	{symLDY, ZPX, 0xb4, 0},
	{symLDY, ABS, 0xac, 0},
	{symLDY, ABX, 0xbc, 1},

	{symSTA, ZPG, 0x85, 0},
	{symSTA, ZPX, 0x95, 0},
	{symSTA, ABS, 0x8d, 0},
	{symSTA, ABX, 0x9d, 0},
	{symSTA, ABY, 0x99, 0},
	{symSTA, IDX, 0x81, 0},
	{symSTA, IDY, 0x91, 0},

	{symSTX, ZPG, 0x86, 0},
	{symSTX, ZPY, 0x96, 0},
	{symSTX, ABS, 0x8e, 0},

	{symSTY, ZPG, 0x84, 0},
	{symSTY, ZPX, 0x94, 0},
	{symSTY, ABS, 0x8c, 0},

	{symTAX, IMP, 0xaa, 0},
	{symTAY, IMP, 0xa8, 0},
	{symTXA, IMP, 0x8a, 0},
	{symTYA, IMP, 0x98, 0},

	{symINX, IMP, 0xe8, 0},
	{symINY, IMP, 0xc8, 0},
	{symDEX, IMP, 0xca, 0},
	{symDEY, IMP, 0x88, 0},

	{symNOP, IMP, 0xea, 0},

	{symBRK, IMP, 0x00, 0},
}

// Base cycle cost of every documented opcode, indexed by opcode value.
// The table is kept apart from the decode rows: an opcode may have a cost
// here without having a handler, and executing it still charges the cost.
// Opcodes missing from the table cost nothing.
var baseCycles = [256]byte{
	// BRK
	0x00: 7,

	// ADC
	0x69: 2, 0x65: 3, 0x75: 4, 0x6d: 4, 0x7d: 4, 0x79: 4, 0x61: 6, 0x71: 5,

	// AND
	0x29: 2, 0x25: 3, 0x35: 4, 0x2d: 4, 0x3d: 4, 0x39: 4, 0x21: 6, 0x31: 5,

	// ASL
	0x0a: 2, 0x06: 5, 0x16: 6, 0x0e: 6, 0x1e: 7,

	// BIT
	0x24: 3, 0x2c: 4,

	// branches
	0x10: 2, 0x30: 2, 0x50: 2, 0x70: 2, 0x90: 2, 0xb0: 2, 0xd0: 2, 0xf0: 2,

	// flag ops
	0x18: 2, 0x38: 2, 0x58: 2, 0x78: 2, 0xb8: 2, 0xd8: 2, 0xf8: 2,

	// CMP
	0xc9: 2, 0xc5: 3, 0xd5: 4, 0xcd: 4, 0xdd: 4, 0xd9: 4, 0xc1: 6, 0xd1: 5,

	// CPX
	0xe0: 2, 0xe4: 3, 0xec: 4,

	// CPY
	0xc0: 2, 0xc4: 3, 0xcc: 4,

	// DEC
	0xc6: 5, 0xd6: 6, 0xce: 6, 0xde: 7,

	// DEX, DEY
	0xca: 2, 0x88: 2,

	// EOR
	0x49: 2, 0x45: 3, 0x55: 4, 0x4d: 4, 0x5d: 4, 0x59: 4, 0x41: 6, 0x51: 5,

	// INC
	0xe6: 5, 0xf6: 6, 0xee: 6, 0xfe: 7,

	// INX, INY
	0xe8: 2, 0xc8: 2,

	// JMP, JSR
	0x4c: 3, 0x6c: 5, 0x20: 6,

	// LDA
	0xa9: 2, 0xa5: 3, 0xb5: 4, 0xad: 4, 0xbd: 4, 0xb9: 4, 0xa1: 6, 0xb1: 5,

	// LDX
	0xa2: 2, 0xa6: 3, 0xb6: 4, 0xae: 4, 0xbe: 4,

	// LDY
	0xa0: 2, 0xa4: 3, 0xb4: 4, 0xac: 4, 0xbc: 4,

	// LSR
	0x4a: 2, 0x46: 5, 0x56: 6, 0x4e: 6, 0x5e: 7,

	// NOP
	0xea: 2,

	// ORA
	0x09: 2, 0x05: 3, 0x15: 4, 0x0d: 4, 0x1d: 4, 0x19: 4, 0x01: 6, 0x11: 5,

	// stack
	0x48: 3, 0x08: 3, 0x68: 4, 0x28: 4,

	// ROL
	0x2a: 2, 0x26: 5, 0x36: 6, 0x2e: 6, 0x3e: 7,

	// ROR
	0x6a: 2, 0x66: 5, 0x76: 6, 0x6e: 6, 0x7e: 7,

	// RTI, RTS
	0x40: 6, 0x60: 6,

	// SBC
	0xe9: 2, 0xe5: 3, 0xf5: 4, 0xed: 4, 0xfd: 4, 0xf9: 4, 0xe1: 6, 0xf1: 5,

	// STA
	0x85: 3, 0x95: 4, 0x8d: 4, 0x9d: 5, 0x99: 5, 0x81: 6, 0x91: 6,

	// STX
	0x86: 3, 0x96: 4, 0x8e: 4,

	// STY
	0x84: 3, 0x94: 4, 0x8c: 4,

	// transfers
	0xaa: 2, 0xa8: 2, 0x8a: 2, 0x98: 2, 0xba: 2, 0x9a: 2,
}

// An Instruction describes a CPU instruction, including its name,
// its addressing mode, its opcode value, its operand size, and its CPU cycle
// cost.
type Instruction struct {
	Name     string // all-caps name of the instruction
	Mode     Mode   // addressing mode
	Opcode   byte   // hexadecimal opcode value
	Length   byte   // combined size of opcode and operand, in bytes
	Cycles   byte   // number of CPU cycles to execute the instruction
	BPCycles byte   // additional cycles required if boundary page crossed
	fn       instfunc
}

// An InstructionSet defines the set of all possible instructions that
// can run on the emulated CPU.
type InstructionSet struct {
	instructions [256]*Instruction
	cycles       [256]byte
	variants     map[string][]*Instruction
}

// Lookup retrieves a CPU instruction corresponding to the requested opcode.
// It returns nil if the opcode is not part of the instruction set.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return s.instructions[opcode]
}

// Cycles returns the base cycle cost of an opcode. Opcodes without a
// cycle entry cost nothing.
func (s *InstructionSet) Cycles(opcode byte) byte {
	return s.cycles[opcode]
}

// GetInstructions returns all CPU instructions whose name matches the
// provided string.
func (s *InstructionSet) GetInstructions(name string) []*Instruction {
	return s.variants[strings.ToUpper(name)]
}

// Names returns the sorted names of all instructions in the set.
func (s *InstructionSet) Names() []string {
	names := make([]string, 0, len(s.variants))
	for n := range s.variants {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create the instruction set from the opcode data and implementation
// tables.
func newInstructionSet() *InstructionSet {
	set := &InstructionSet{}

	// Create a map from symbol to implementation for fast lookups.
	symToImpl := make(map[opsym]*opcodeImpl, len(impl))
	for i := range impl {
		symToImpl[impl[i].sym] = &impl[i]
	}

	set.variants = make(map[string][]*Instruction)

	for _, d := range data {
		impl, ok := symToImpl[d.sym]
		if !ok {
			panic("missing instruction implementation")
		}
		if set.instructions[d.opcode] != nil {
			panic("duplicate opcode")
		}

		if baseCycles[d.opcode] == 0 {
			panic("missing cycle count")
		}

		inst := &Instruction{
			Name:     impl.name,
			Mode:     d.mode,
			Opcode:   d.opcode,
			Length:   byte(1 + d.mode.OperandLength()),
			Cycles:   baseCycles[d.opcode],
			BPCycles: d.bpcycles,
			fn:       impl.fn,
		}
		set.instructions[d.opcode] = inst
		set.variants[inst.Name] = append(set.variants[inst.Name], inst)
	}
	set.cycles = baseCycles
	return set
}

var instructionSet = newInstructionSet()

// GetInstructionSet returns the instruction set of the emulated CPU.
func GetInstructionSet() *InstructionSet {
	return instructionSet
}
