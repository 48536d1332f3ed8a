// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host allows you to create a "host" that emulates a computer system
// with a 6502 CPU, 64K of memory, a built-in debugger, a Lua scripting
// engine and a remote trace server.
//
// Within the host it is possible to load machine code into memory, debug
// and step through machine code, measure the number of CPU cycles elapsed,
// set address and data breakpoints, dump the contents of memory, disassemble
// the contents of memory, and manipulate CPU registers and memory.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/sim6502/sim6502/cpu"
	"github.com/sim6502/sim6502/disasm"
	"github.com/sim6502/sim6502/trace"
	lua "github.com/yuin/gopher-lua"
)

type state byte

const (
	stateProcessingCommands state = iota
	stateRunning
	stateBreakpoint
)

type displayFlags uint8

const (
	displayRegisters displayFlags = 1 << iota
	displayCycles

	displayAll = displayRegisters | displayCycles
)

var errQuit = errors.New("exiting program")

// The Host structure represents a single 6502 emulation session and the
// command shell that drives it.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	logger      *log.Logger
	mem         *cpu.FlatMemory
	cpu         *cpu.CPU
	debugger    *cpu.Debugger
	lastCmd     *cmd.Selection
	state       state
	settings    *settings
	disasmNext  bool // settings.NextDisasmAddr holds a continuation
	tracer      *trace.Server
	lua         *lua.LState
}

// New creates a new 6502 host environment.
func New() *Host {
	h := &Host{
		output:   bufio.NewWriter(os.Stdout),
		logger:   log.New(os.Stderr, "", log.LstdFlags),
		state:    stateProcessingCommands,
		settings: newSettings(),
	}

	// Create the emulated CPU and memory. The host observes every step so
	// it can drive the console tracer and forward events to remote clients.
	h.mem = cpu.NewFlatMemory()
	h.cpu = cpu.NewCPU(h.mem, cpu.Options{
		Observer: newObserver(h),
		Trace:    true,
	})

	// Create a CPU debugger and attach it to the CPU.
	h.debugger = cpu.NewDebugger(newDebugHandler(h))
	h.cpu.AttachDebugger(h.debugger)

	return h
}

// SetLogger replaces the logger used for host diagnostics.
func (h *Host) SetLogger(l *log.Logger) {
	h.logger = l
}

// CPU returns the emulated CPU session.
func (h *Host) CPU() *cpu.CPU {
	return h.cpu
}

// Close releases the scripting engine and stops the trace server.
func (h *Host) Close() {
	h.stopTracer()
	if h.lua != nil {
		h.lua.Close()
		h.lua = nil
	}
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	h.displayPC()

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		err = h.processCommand(line)
		if err != nil {
			break
		}
	}
	h.flush()
}

// Process a single command line. An empty line repeats the last command.
func (h *Host) processCommand(line string) error {
	line = strings.TrimSpace(line)

	var c cmd.Selection
	if line != "" {
		var err error
		c, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			h.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			h.println("Command is ambiguous.")
			return nil
		case err != nil:
			h.printf("ERROR: %v.\n", err)
			return nil
		}
	} else if h.lastCmd != nil {
		c = *h.lastCmd
	}

	if c.Command == nil {
		return nil
	}
	h.lastCmd = &c

	return c.Command.Data.(*command).handler(h, c)
}

// Break interrupts a running CPU.
func (h *Host) Break() {
	h.println()

	if h.state == stateRunning {
		h.displayPC()
	}
	if h.state == stateProcessingCommands {
		h.prompt()
	}
	h.state = stateProcessingCommands
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return h.input.Text(), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) displayPC() {
	if h.interactive {
		d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
		h.println(d)
	}
}

func (h *Host) cmdBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled")
	h.println("----- -------")
	for _, b := range h.debugger.GetBreakpoints() {
		h.printf("$%04X %v\n", b.Address, !b.Disabled)
	}
	return nil
}

func (h *Host) cmdBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.debugger.AddBreakpoint(addr)
	h.printf("Breakpoint added at $%04X.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if h.debugger.GetBreakpoint(addr) == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveBreakpoint(addr)
	h.printf("Breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdBreakpointEnable(c cmd.Selection) error {
	return h.toggleBreakpoint(c, false)
}

func (h *Host) cmdBreakpointDisable(c cmd.Selection) error {
	return h.toggleBreakpoint(c, true)
}

func (h *Host) toggleBreakpoint(c cmd.Selection, disabled bool) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := h.debugger.GetBreakpoint(addr)
	if b == nil {
		h.printf("No breakpoint was set on $%04X.\n", addr)
		return nil
	}

	b.Disabled = disabled
	if disabled {
		h.printf("Breakpoint at $%04X disabled.\n", addr)
	} else {
		h.printf("Breakpoint at $%04X enabled.\n", addr)
	}
	return nil
}

func (h *Host) cmdDataBreakpointList(c cmd.Selection) error {
	h.println("Addr  Enabled  Value")
	h.println("----- -------  -----")
	for _, b := range h.debugger.GetDataBreakpoints() {
		if b.Conditional {
			h.printf("$%04X %-5v    $%02X\n", b.Address, !b.Disabled, b.Value)
		} else {
			h.printf("$%04X %-5v    <none>\n", b.Address, !b.Disabled)
		}
	}
	return nil
}

func (h *Host) cmdDataBreakpointAdd(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if len(c.Args) > 1 {
		value, err := h.parseByte(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.debugger.AddConditionalDataBreakpoint(addr, value)
		h.printf("Conditional data breakpoint added at $%04X for value $%02X.\n", addr, value)
	} else {
		h.debugger.AddDataBreakpoint(addr)
		h.printf("Data breakpoint added at $%04X.\n", addr)
	}

	return nil
}

func (h *Host) cmdDataBreakpointRemove(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	if h.debugger.GetDataBreakpoint(addr) == nil {
		h.printf("No data breakpoint was set on $%04X.\n", addr)
		return nil
	}

	h.debugger.RemoveDataBreakpoint(addr)
	h.printf("Data breakpoint at $%04X removed.\n", addr)
	return nil
}

func (h *Host) cmdDemo(c cmd.Selection) error {
	origin := h.loadDemo()
	h.cpu.Reset()

	h.printf("Demo program stored at $%04X. Registers reset.\n", origin)
	addr := origin
	for {
		line, next := h.disassemble(addr, 0)
		h.println(line)
		if inst := h.cpu.GetInstruction(addr); inst != nil && inst.Name == "BRK" {
			break
		}
		addr = next
	}

	h.setNextDisasm(origin)
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	if len(c.Args) == 0 {
		c.Args = []string{"$"}
	}

	var addr uint16
	switch c.Args[0] {
	case "$":
		addr = h.cpu.Reg.PC
		if h.disasmNext {
			addr = h.settings.NextDisasmAddr
		}

	default:
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := h.parseValue(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for i := 0; i < lines; i++ {
		d, next := h.disassemble(addr, 0)
		h.println(d)
		addr = next
	}

	h.setNextDisasm(addr)
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		for _, g := range helpGroups {
			h.displayCommands(g)
		}
		return nil
	}

	if g := findHelpGroup(c.Args[0]); g != nil && len(c.Args) == 1 {
		h.displayCommands(g)
		return nil
	}

	s, err := cmds.Lookup(strings.Join(c.Args, " "))
	if err != nil || s.Command == nil {
		h.println("Command not found.")
		return nil
	}

	d := s.Command.Data.(*command).desc
	if d.Usage != "" {
		h.printf("Syntax: %s\n\n", d.Usage)
	}
	switch {
	case d.Description != "":
		h.printf("Description:\n%s\n\n", indentWrap(3, d.Description))
	case d.Brief != "":
		h.printf("Description:\n%s.\n\n", indentWrap(3, d.Brief))
	}
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[1])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	h.load(c.Args[0], addr)
	return nil
}

func (h *Host) cmdLua(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.runLua(strings.Join(c.Args, " ")); err != nil {
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdMemoryClear(c cmd.Selection) error {
	h.mem.Clear()
	h.println("Memory cleared.")
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	var start uint16
	switch c.Args[0] {
	case "$":
		start = h.settings.NextMemDumpAddr

	default:
		a, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		start = a
	}

	var end uint16
	if len(c.Args) >= 2 && c.Args[0] != "$" {
		a, err := h.parseAddr(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		end = a
	} else {
		n := max(h.settings.MemDumpBytes, 1)
		end = start + uint16(n-1)
	}

	h.dumpMemory(start, end)

	h.settings.NextMemDumpAddr = end + 1
	h.lastCmd.Args = []string{"$"}
	return nil
}

func (h *Host) cmdMemorySet(c cmd.Selection) error {
	if len(c.Args) < 2 {
		h.displayUsage(c)
		return nil
	}

	addr, err := h.parseAddr(c.Args[0])
	if err != nil {
		h.printf("%v\n", err)
		return nil
	}

	b := make([]byte, 0, len(c.Args)-1)
	for _, s := range c.Args[1:] {
		v, err := h.parseByte(s)
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		b = append(b, v)
	}

	h.mem.StoreBytes(addr, b)
	h.printf("Stored %d byte(s) at $%04X.\n", len(b), addr)
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errQuit
}

func (h *Host) cmdRegisters(c cmd.Selection) error {
	h.displayStatus(h.cpu.Reg.Snapshot())
	return nil
}

func (h *Host) cmdReset(c cmd.Selection) error {
	h.cpu.Reset()
	h.println("CPU reset.")
	h.displayStatus(h.cpu.Reg.Snapshot())
	return nil
}

func (h *Host) cmdRun(c cmd.Selection) error {
	if len(c.Args) > 0 {
		pc, err := h.parseAddr(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		h.cpu.SetPC(pc)
	}

	if h.halted() {
		return nil
	}

	h.printf("Running from $%04X. Press ctrl-C to break.\n", h.cpu.Reg.PC)

	n := h.run(h.settings.MaxSteps)

	switch {
	case h.cpu.State() == cpu.Halted:
		h.printf("Break flag set after %d instruction(s). Program halted.\n", n)
		h.displayStatus(h.cpu.Reg.Snapshot())
	case h.settings.MaxSteps > 0 && n >= h.settings.MaxSteps:
		h.printf("Stopped after %d instruction(s).\n", n)
	}

	h.setNextDisasm(h.cpu.Reg.PC)
	return nil
}

func (h *Host) cmdScript(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}

	if err := h.runScript(c.Args[0]); err != nil {
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayUsage(c)

	default:
		key, value := strings.ToLower(c.Args[0]), strings.Join(c.Args[1:], " ")
		v, errV := h.parseValue(value)

		// Setting a register or flag?
		if errV == nil && h.setRegister(key, v) {
			return nil
		}

		// Setting a host setting?
		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("setting '%s' not found", key)
		case reflect.Bool:
			var b bool
			b, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, b)
			}
		default:
			err = errV
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			if h.settings.Name(key) == "NextDisasmAddr" {
				h.disasmNext = true
			}
			h.printf("Setting %s updated.\n", h.settings.Name(key))
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

// Assign a register or status flag. It returns false if 'key' names
// neither.
func (h *Host) setRegister(key string, v int64) bool {
	r := &h.cpu.Reg
	switch key {
	case "a":
		r.A = byte(v)
	case "x":
		r.X = byte(v)
	case "y":
		r.Y = byte(v)
	case "sp":
		r.SP = byte(v)
	case ".", "pc":
		r.PC = uint16(v)
		h.printf("Register PC set to $%04X.\n", r.PC)
		return true
	default:
		f, ok := flagNames[key]
		if !ok {
			return false
		}
		r.SetFlag(f, v != 0)
		h.printf("Flag %s set to %v.\n", f, v != 0)
		return true
	}
	h.printf("Register %s set to $%02X.\n", strings.ToUpper(key), byte(v))
	return true
}

var flagNames = map[string]cpu.Flag{
	"n": cpu.Negative,
	"v": cpu.Overflow,
	"b": cpu.Break,
	"d": cpu.Decimal,
	"i": cpu.InterruptDisable,
	"z": cpu.Zero,
	"c": cpu.Carry,
}

func (h *Host) cmdStep(c cmd.Selection) error {
	count := 1
	if len(c.Args) > 0 {
		n, err := h.parseValue(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		count = int(n)
	}

	if h.halted() {
		return nil
	}

	h.state = stateRunning
	for i := count - 1; i >= 0 && h.state == stateRunning; i-- {
		h.cpu.Step()
		switch {
		case i == h.settings.StepLines:
			h.println("...")
		case i < h.settings.StepLines:
			d, _ := h.disassemble(h.cpu.Reg.PC, displayAll)
			h.println(d)
		}
		if h.cpu.State() == cpu.Halted {
			h.println("Break flag set. Program halted.")
			break
		}
	}
	h.state = stateProcessingCommands

	h.setNextDisasm(h.cpu.Reg.PC)
	return nil
}

func (h *Host) cmdTiming(c cmd.Selection) error {
	hz := h.settings.ClockHz
	if hz <= 0 {
		h.println("ClockHz must be positive.")
		return nil
	}

	cycles := h.cpu.Reg.Cycles
	us := float64(cycles) * 1e6 / float64(hz)
	h.printf("%d cycles. On a %g MHz 6502, this code would take approximately %.0f µs to run (%.3f ms).\n",
		cycles, float64(hz)/1e6, us, us/1000)
	return nil
}

func (h *Host) cmdTraceServe(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayUsage(c)
		return nil
	}
	if err := h.StartTracer(c.Args[0]); err != nil {
		h.printf("%v\n", err)
	}
	return nil
}

func (h *Host) cmdTraceStop(c cmd.Selection) error {
	if h.tracer == nil {
		h.println("Trace server is not running.")
		return nil
	}
	h.stopTracer()
	h.println("Trace server stopped.")
	return nil
}

// Report whether the CPU is halted, telling the user how to continue.
func (h *Host) halted() bool {
	if h.cpu.State() == cpu.Halted {
		h.println("CPU is halted. Reset to continue.")
		return true
	}
	return false
}

// Run the CPU until it halts, a breakpoint is hit or 'max' instructions
// have executed. A max of zero means no limit.
func (h *Host) run(max int) int {
	n := 0
	h.state = stateRunning
	for h.state == stateRunning && h.cpu.State() == cpu.Running {
		if max > 0 && n >= max {
			break
		}
		h.cpu.Step()
		n++
	}
	h.state = stateProcessingCommands
	return n
}

func (h *Host) load(filename string, addr uint16) {
	b, err := os.ReadFile(filename)
	if err != nil {
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return
	}
	if len(b) == 0 {
		h.printf("File '%s' is empty\n", filepath.Base(filename))
		return
	}
	if len(b) > cpu.MemorySize {
		h.printf("File '%s' is larger than memory\n", filepath.Base(filename))
		return
	}

	h.mem.StoreBytes(addr, b)
	h.printf("Loaded '%s' to $%04X..$%04X\n", filepath.Base(filename), addr, addr+uint16(len(b)-1))

	h.cpu.SetPC(addr)
	h.setNextDisasm(addr)
}

// Record where the next plain "disassemble" continues from.
func (h *Host) setNextDisasm(addr uint16) {
	h.settings.NextDisasmAddr = addr
	h.disasmNext = true
}

func (h *Host) disassemble(addr uint16, flags displayFlags) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.mem, addr)

	l := next - addr
	b := make([]byte, l)
	h.mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)

	if (flags & displayRegisters) != 0 {
		str += " " + disasm.GetRegisterString(&h.cpu.Reg)
	}

	if (flags & displayCycles) != 0 {
		str += fmt.Sprintf(" C=%d", h.cpu.Reg.Cycles)
	}

	return strings.TrimRight(str, " "), next
}

// Dump memory from addr0 through addr1 inclusive, wrapping past $FFFF.
func (h *Host) dumpMemory(addr0, addr1 uint16) {
	perLine := max(h.settings.DumpLineBytes, 1)
	total := int(addr1-addr0) + 1

	h.printf("       Memory dump from %04X to %04X\n", addr0, addr1)

	var hex, chars strings.Builder
	a := addr0
	for i := 0; i < total; i++ {
		if i%perLine == 0 {
			if i > 0 {
				h.printf("%-*s %s\n", perLine*3+7, hex.String(), chars.String())
			}
			hex.Reset()
			chars.Reset()
			fmt.Fprintf(&hex, ".%04X  ", a)
		}
		m := h.mem.LoadByte(a)
		fmt.Fprintf(&hex, "%02X ", m)
		chars.WriteByte(toPrintableChar(m))
		a++
	}
	h.printf("%-*s %s\n", perLine*3+7, hex.String(), chars.String())
}

// Display the status report: registers, flag bits in NV-BDIZC order and the
// cycle count.
func (h *Host) displayStatus(s cpu.Snapshot) {
	var bits strings.Builder
	for _, f := range cpu.FlagOrder {
		bits.WriteByte(byte('0' + boolToInt(s.Flag(f))))
	}

	h.printf(" A: %02X  |   X: %02X  |   Y: %02X    |  NV-BDIZC  |  CYCLE COUNT\n", s.A, s.X, s.Y)
	h.printf("SP: %02X  |  SR: %02X  |  PC: %04X  |  %s  |  %11d\n", s.SP, s.SR, s.PC, bits.String(), s.Cycles)
}

func (h *Host) displayUsage(c cmd.Selection) {
	d := c.Command.Data.(*command).desc
	if d.Usage != "" {
		h.printf("Syntax: %s\n", d.Usage)
	} else {
		h.println("<no help text>")
	}
}

func (h *Host) displayCommands(g *helpGroup) {
	if g.brief != "" {
		h.printf("%s (%s):\n", g.brief, g.name)
	} else {
		h.printf("%s commands:\n", g.name)
	}
	for _, c := range g.commands {
		if c.desc.Brief != "" {
			h.printf("    %-15s  %s\n", c.desc.Name, c.desc.Brief)
		}
	}
}

func findHelpGroup(name string) *helpGroup {
	name = strings.ToLower(name)
	for _, g := range helpGroups {
		if g.brief != "" && g.name == name {
			return g
		}
	}
	return nil
}

func (h *Host) onBreakpoint(r *cpu.Registers, b *cpu.Breakpoint) {
	h.state = stateBreakpoint
	h.printf("Breakpoint hit at $%04X.\n", b.Address)
	h.displayPC()
}

func (h *Host) onDataBreakpoint(r *cpu.Registers, b *cpu.DataBreakpoint, v byte) {
	h.state = stateBreakpoint
	h.printf("Data breakpoint hit on address $%04X (value $%02X).\n", b.Address, v)
	h.displayPC()
}
