// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu implements a cycle-counting 6502 CPU instruction set
// and emulator.
package cpu

// State is the execution state of the CPU.
type State byte

const (
	// Running means the CPU will execute the next instruction when
	// stepped.
	Running State = iota

	// Halted means a BRK instruction has set the break flag.
	Halted
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Halted:
		return "halted"
	default:
		return "unknown"
	}
}

// The Observer interface may be implemented to receive diagnostic events
// from the engine. Events are delivered synchronously from Step.
type Observer interface {
	// OnStep is called after each executed instruction when tracing is
	// enabled.
	OnStep(e *StepEvent)

	// OnUnknownOpcode is called whenever an opcode missing from the
	// instruction set is fetched.
	OnUnknownOpcode(e *UnknownOpcodeEvent)
}

// A StepEvent describes a single executed instruction.
type StepEvent struct {
	PC          uint16       // address of the opcode
	Opcode      byte         // fetched opcode
	Inst        *Instruction // decoded instruction
	Bytes       []byte       // opcode and operand bytes
	PageCrossed bool         // the addressing mode crossed a page
	Reg         Snapshot     // registers after execution
}

// An UnknownOpcodeEvent describes an opcode that could not be decoded.
type UnknownOpcodeEvent struct {
	PC     uint16   // address of the opcode
	Opcode byte     // fetched opcode
	Reg    Snapshot // registers after the fetch
}

// Options configure an Engine.
type Options struct {
	Observer Observer // receives diagnostic events; may be nil
	Trace    bool     // deliver a StepEvent for every instruction
}

// An Engine executes instructions against a memory and a register file. It
// holds no emulation state of its own, so a single engine may drive any
// number of independent sessions.
type Engine struct {
	set      *InstructionSet
	opts     Options
	debugger *Debugger
}

// NewEngine creates an execution engine.
func NewEngine(opts Options) *Engine {
	return &Engine{
		set:  GetInstructionSet(),
		opts: opts,
	}
}

// InstructionSet returns the instruction set used by the engine.
func (e *Engine) InstructionSet() *InstructionSet {
	return e.set
}

// AttachDebugger attaches a debugger to the engine. The debugger receives
// notifications whenever the engine executes an instruction or stores a
// byte to memory.
func (e *Engine) AttachDebugger(d *Debugger) {
	e.debugger = d
}

// DetachDebugger detaches the current debugger from the engine.
func (e *Engine) DetachDebugger() {
	e.debugger = nil
}

// StateOf returns the execution state implied by the registers.
func StateOf(r *Registers) State {
	if r.Flag(Break) {
		return Halted
	}
	return Running
}

// Step fetches, decodes and executes a single instruction and returns the
// resulting state. An unknown opcode is reported to the observer and
// otherwise skipped; only the program counter moves past it.
func (e *Engine) Step(m Memory, r *Registers) State {
	if *r == (Registers{}) {
		r.Reset()
	}

	// Grab the next opcode and charge its base cost.
	pc := r.PC
	opcode := r.AdvancePC(m)
	r.Cycles += uint64(e.set.Cycles(opcode))

	inst := e.set.Lookup(opcode)
	if inst == nil {
		if e.opts.Observer != nil {
			e.opts.Observer.OnUnknownOpcode(&UnknownOpcodeEvent{
				PC:     pc,
				Opcode: opcode,
				Reg:    r.Snapshot(),
			})
		}
		return StateOf(r)
	}

	var bytes []byte
	if e.opts.Trace && e.opts.Observer != nil {
		bytes = make([]byte, inst.Length)
		m.LoadBytes(pc, bytes)
	}

	x := execution{engine: e, mem: m, reg: r}
	inst.fn(&x, inst)

	// Indexed loads pay an extra cycle when they cross a page boundary.
	if x.pageCrossed {
		r.Cycles += uint64(inst.BPCycles)
	}

	if e.opts.Trace && e.opts.Observer != nil {
		e.opts.Observer.OnStep(&StepEvent{
			PC:          pc,
			Opcode:      opcode,
			Inst:        inst,
			Bytes:       bytes,
			PageCrossed: x.pageCrossed,
			Reg:         r.Snapshot(),
		})
	}

	if e.debugger != nil {
		e.debugger.onUpdatePC(r, r.PC)
	}
	return StateOf(r)
}

// CPU represents a single emulation session: a memory, a register file and
// the engine that drives them.
type CPU struct {
	Reg    Registers // CPU registers
	Mem    Memory    // assigned memory
	engine *Engine
}

// NewCPU creates an emulated 6502 CPU bound to the specified memory. The
// registers start in their reset state.
func NewCPU(m Memory, opts Options) *CPU {
	cpu := &CPU{
		Mem:    m,
		engine: NewEngine(opts),
	}
	cpu.Reg.Reset()
	return cpu
}

// Reset performs a hard reset of the registers. Memory is left untouched.
func (cpu *CPU) Reset() {
	cpu.Reg.Reset()
}

// SetPC updates the CPU program counter to 'addr'.
func (cpu *CPU) SetPC(addr uint16) {
	cpu.Reg.PC = addr
}

// State returns the current execution state.
func (cpu *CPU) State() State {
	return StateOf(&cpu.Reg)
}

// GetInstruction returns the instruction at the requested address, or nil
// if the opcode there is unknown.
func (cpu *CPU) GetInstruction(addr uint16) *Instruction {
	return cpu.engine.set.Lookup(cpu.Mem.LoadByte(addr))
}

// Step the cpu by one instruction.
func (cpu *CPU) Step() State {
	return cpu.engine.Step(cpu.Mem, &cpu.Reg)
}

// Run steps the CPU until it halts or 'max' instructions have executed. A
// max of zero means no limit. It returns the number of instructions
// stepped.
func (cpu *CPU) Run(max int) int {
	n := 0
	for cpu.State() == Running && (max == 0 || n < max) {
		cpu.Step()
		n++
	}
	return n
}

// AttachDebugger attaches a debugger to the CPU's engine.
func (cpu *CPU) AttachDebugger(d *Debugger) {
	cpu.engine.AttachDebugger(d)
}

// DetachDebugger detaches the current debugger from the CPU's engine.
func (cpu *CPU) DetachDebugger() {
	cpu.engine.DetachDebugger()
}

// An execution carries the working state of a single instruction.
type execution struct {
	engine      *Engine
	mem         Memory
	reg         *Registers
	pageCrossed bool
}

// Resolve the instruction's operand, remembering any page crossing.
func (x *execution) resolve(mode Mode) Operand {
	op := Resolve(mode, x.mem, x.reg)
	x.pageCrossed = op.PageCrossed
	return op
}

// Load a byte value using the requested addressing mode.
func (x *execution) load(mode Mode) byte {
	op := x.resolve(mode)
	return op.Load(x.mem)
}

// Store a byte value using the requested addressing mode.
func (x *execution) store(mode Mode, v byte) {
	op := x.resolve(mode)
	if x.engine.debugger != nil {
		x.engine.debugger.onDataStore(x.reg, op.Addr, v)
	}
	x.mem.StoreByte(op.Addr, v)
}

// Break
func (x *execution) brk(inst *Instruction) {
	x.reg.SetFlag(Break, true)
}

// Decrement X register
func (x *execution) dex(inst *Instruction) {
	x.reg.X--
	x.reg.updateNZ(x.reg.X)
}

// Decrement Y register
func (x *execution) dey(inst *Instruction) {
	x.reg.Y--
	x.reg.updateNZ(x.reg.Y)
}

// Increment X register
func (x *execution) inx(inst *Instruction) {
	x.reg.X++
	x.reg.updateNZ(x.reg.X)
}

// Increment Y register
func (x *execution) iny(inst *Instruction) {
	x.reg.Y++
	x.reg.updateNZ(x.reg.Y)
}

// Load Accumulator
func (x *execution) lda(inst *Instruction) {
	x.reg.A = x.load(inst.Mode)
	x.reg.updateNZ(x.reg.A)
}

// Load the X register
func (x *execution) ldx(inst *Instruction) {
	x.reg.X = x.load(inst.Mode)
	x.reg.updateNZ(x.reg.X)
}

// Load the Y register
func (x *execution) ldy(inst *Instruction) {
	x.reg.Y = x.load(inst.Mode)
	x.reg.updateNZ(x.reg.Y)
}

// No-operation
func (x *execution) nop(inst *Instruction) {
}

// Store Accumulator
func (x *execution) sta(inst *Instruction) {
	x.store(inst.Mode, x.reg.A)
}

// Store X register
func (x *execution) stx(inst *Instruction) {
	x.store(inst.Mode, x.reg.X)
}

// Store Y register
func (x *execution) sty(inst *Instruction) {
	x.store(inst.Mode, x.reg.Y)
}

// Transfer Accumulator to X register
func (x *execution) tax(inst *Instruction) {
	x.reg.X = x.reg.A
	x.reg.updateNZ(x.reg.X)
}

// Transfer Accumulator to Y register
func (x *execution) tay(inst *Instruction) {
	x.reg.Y = x.reg.A
	x.reg.updateNZ(x.reg.Y)
}

// Transfer X register to Accumulator
func (x *execution) txa(inst *Instruction) {
	x.reg.A = x.reg.X
	x.reg.updateNZ(x.reg.A)
}

// Transfer Y register to Accumulator
func (x *execution) tya(inst *Instruction) {
	x.reg.A = x.reg.Y
	x.reg.updateNZ(x.reg.A)
}
