// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a 6502 instruction set
// disassembler.
package disasm

import (
	"fmt"

	"github.com/sim6502/sim6502/cpu"
)

// Disassembler formatting for addressing modes
var modeFormat = map[cpu.Mode]string{
	cpu.IMM: "#$%s",
	cpu.IMP: "%s",
	cpu.ZPG: "$%s",
	cpu.ZPX: "$%s,X",
	cpu.ZPY: "$%s,Y",
	cpu.ABS: "$%s",
	cpu.ABX: "$%s,X",
	cpu.ABY: "$%s,Y",
	cpu.IDX: "($%s,X)",
	cpu.IDY: "($%s),Y",
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the little-endian byte
// slice.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Unknown opcodes
// disassemble as a single "???" byte.
func Disassemble(m cpu.Memory, addr uint16) (line string, next uint16) {
	opcode := m.LoadByte(addr)
	inst := cpu.GetInstructionSet().Lookup(opcode)
	if inst == nil {
		return "???", addr + 1
	}

	operand := make([]byte, inst.Length-1)
	m.LoadBytes(addr+1, operand)

	switch inst.Mode {
	case cpu.IMP:
		line = inst.Name
	default:
		line = inst.Name + " " + fmt.Sprintf(modeFormat[inst.Mode], hexString(operand))
	}
	return line, addr + uint16(inst.Length)
}

// GetRegisterString returns a string describing the contents of the 6502
// registers.
func GetRegisterString(r *cpu.Registers) string {
	return fmt.Sprintf("A=%02X X=%02X Y=%02X PS=[%s] SP=%02X PC=%04X",
		r.A, r.X, r.Y, GetStatusString(r.SR()), r.SP, r.PC)
}

// GetStatusString returns the status bits in NV-BDIZC order, showing
// the letter of each set flag and a '-' for each clear one.
func GetStatusString(sr byte) string {
	b := make([]byte, 0, len(cpu.FlagOrder))
	for _, f := range cpu.FlagOrder {
		switch {
		case sr&byte(f) != 0:
			b = append(b, f.String()[0])
		default:
			b = append(b, '-')
		}
	}
	return string(b)
}
