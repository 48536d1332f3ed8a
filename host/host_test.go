// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestHost(t *testing.T) *Host {
	t.Helper()
	h := New()
	h.SetLogger(log.New(io.Discard, "", 0))
	t.Cleanup(h.Close)
	return h
}

func runCommands(h *Host, lines ...string) string {
	var out bytes.Buffer
	h.RunCommands(strings.NewReader(strings.Join(lines, "\n")+"\n"), &out, false)
	return out.String()
}

func expectOutput(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("output missing %q\noutput:\n%s", w, out)
		}
	}
}

func TestDemoProgram(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "demo", "run", "timing")

	expectOutput(t, out,
		"Demo program stored at $FFFC.",
		"FFFC-   A9 FF       LDA #$FF",
		"0027-   95 AA       STA $AA,X",
		"0029-   00          BRK",
		"Break flag set after 20 instruction(s).",
		" A: 00  |   X: 44  |   Y: DA    |  NV-BDIZC  |  CYCLE COUNT",
		fmt.Sprintf("SP: FD  |  SR: B4  |  PC: 002A  |  10110100  |  %11d", 78),
		"78 cycles. On a 1 MHz 6502, this code would take approximately 78 µs to run (0.078 ms).",
	)

	if strings.Contains(out, "002A-") {
		t.Errorf("demo listing continued past BRK:\n%s", out)
	}
	if v := h.mem.LoadByte(0x00ee); v != 0x00 {
		t.Errorf("STA $AA,X stored incorrect value. exp: $00, got: $%02X", v)
	}
}

func TestRunWhileHalted(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "demo", "run", "run", "step")
	if n := strings.Count(out, "CPU is halted. Reset to continue."); n != 2 {
		t.Errorf("halted message count incorrect. exp: 2, got: %d", n)
	}

	out = runCommands(h, "reset", "registers")
	expectOutput(t, out, fmt.Sprintf("SP: FD  |  SR: 24  |  PC: FFFC  |  00100100  |  %11d", 0))
}

func TestQuit(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "quit", "registers")
	if strings.Contains(out, "CYCLE COUNT") {
		t.Errorf("commands processed after quit:\n%s", out)
	}
}

func TestMemoryCommands(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"memory set $10 $41 $42 $43",
		"memory dump $10 $12",
	)
	expectOutput(t, out,
		"Stored 3 byte(s) at $0010.",
		"Memory dump from 0010 to 0012",
		".0010  41 42 43",
		"ABC",
	)

	out = runCommands(h, "memory set $FFFF $01 $02", "memory dump $FFFE $0001")
	expectOutput(t, out,
		"Memory dump from FFFE to 0001",
		".FFFE  00 01 02 00",
	)
	if v := h.mem.LoadByte(0x0000); v != 0x02 {
		t.Errorf("memory set did not wrap. exp: $02, got: $%02X", v)
	}
}

func TestMemoryDumpLines(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "set dumplinebytes 4", "memory dump $0100 $0109")
	expectOutput(t, out, ".0100  ", ".0104  ", ".0108  ")
	if strings.Contains(out, ".010C") {
		t.Errorf("memory dump went past end address:\n%s", out)
	}
}

func TestSetRegisters(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "set a $42", "set x %101", "set c 1", "set pc $1234", "registers")
	expectOutput(t, out,
		"Register A set to $42.",
		"Register X set to $05.",
		"Flag C set to true.",
		"Register PC set to $1234.",
		" A: 42  |   X: 05  |   Y: 00",
		"SR: 25  |  PC: 1234  |  00100101",
	)
}

func TestSetSettings(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "set maxsteps 5", "set tracebytes on", "set bogus 1", "set memdumpbytes -1")
	expectOutput(t, out,
		"Setting MaxSteps updated.",
		"Setting TraceBytes updated.",
	)
	if h.settings.MaxSteps != 5 || !h.settings.TraceBytes {
		t.Errorf("settings not updated: %+v", h.settings)
	}
	if h.settings.MemDumpBytes != 40 {
		t.Errorf("negative setting accepted: %d", h.settings.MemDumpBytes)
	}
}

func TestMaxSteps(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "set maxsteps 3", "memory set $FFFC $EA $EA $EA $EA $EA", "run")
	expectOutput(t, out, "Stopped after 3 instruction(s).")
	if h.cpu.Reg.PC != 0xffff {
		t.Errorf("PC incorrect. exp: $FFFF, got: $%04X", h.cpu.Reg.PC)
	}
}

func TestBreakpoints(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"memory set $FFFC $A9 $01 $A2 $02 $A0 $03 $00",
		"breakpoint add $0000",
		"breakpoint list",
		"run",
	)
	expectOutput(t, out,
		"Breakpoint added at $0000.",
		"$0000 true",
		"Breakpoint hit at $0000.",
	)
	if h.cpu.Reg.PC != 0x0000 || h.cpu.Reg.X != 0x02 || h.cpu.Reg.Y != 0x00 {
		t.Errorf("CPU did not stop at breakpoint: PC=$%04X X=$%02X Y=$%02X",
			h.cpu.Reg.PC, h.cpu.Reg.X, h.cpu.Reg.Y)
	}

	out = runCommands(h, "breakpoint disable $0000", "breakpoint remove $0000", "breakpoint remove $0000")
	expectOutput(t, out,
		"Breakpoint at $0000 disabled.",
		"Breakpoint at $0000 removed.",
		"No breakpoint was set on $0000.",
	)
}

func TestDataBreakpoints(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"memory set $FFFC $A9 $55 $85 $10 $A9 $66 $85 $10 $00",
		"databreakpoint add $10 $66",
		"databreakpoint list",
		"run",
	)
	expectOutput(t, out,
		"Conditional data breakpoint added at $0010 for value $66.",
		"$0010 true     $66",
		"Data breakpoint hit on address $0010 (value $66).",
	)
	if strings.Contains(out, "(value $55)") {
		t.Errorf("conditional data breakpoint hit on the wrong value:\n%s", out)
	}
	if h.cpu.Reg.PC != 0x0004 {
		t.Errorf("PC incorrect. exp: $0004, got: $%04X", h.cpu.Reg.PC)
	}
}

func TestUnknownOpcode(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"set stoponunknown on",
		"memory set $FFFC $02 $02 $00",
		"run",
	)
	if n := strings.Count(out, "Unknown opcode 02."); n != 1 {
		t.Errorf("unknown opcode message count incorrect. exp: 1, got: %d\n%s", n, out)
	}
	if h.cpu.Reg.PC != 0xfffd || h.cpu.Reg.Cycles != 0 {
		t.Errorf("registers incorrect: PC=$%04X cycles=%d", h.cpu.Reg.PC, h.cpu.Reg.Cycles)
	}
}

func TestConsoleTracer(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"set tracebytes on",
		"set showstatus on",
		"memory set $FFFC $A9 $FF",
		"step",
	)
	expectOutput(t, out,
		".FFFC  A9 FF",
		fmt.Sprintf("SP: FD  |  SR: A4  |  PC: FFFE  |  10100100  |  %11d", 2),
	)
}

func TestDisassembleCommand(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "memory set $0200 $B9 $56 $34 $AA", "disassemble $0200 2")
	expectOutput(t, out,
		"0200-   B9 56 34    LDA $3456,Y",
		"0203-   AA          TAX",
	)
	if h.settings.NextDisasmAddr != 0x0204 {
		t.Errorf("next disassembly address incorrect: $%04X", h.settings.NextDisasmAddr)
	}
}

func TestDisassembleContinuesIntoPageZero(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"memory set $FFFC $A9 $01 $A9 $02",
		"set disasmlines 1",
		"disassemble",
		"disassemble",
		"set pc $1234",
		"disassemble",
	)
	expectOutput(t, out,
		"FFFC-   A9 01       LDA #$01",
		"FFFE-   A9 02       LDA #$02",
		"0000-   00          BRK",
	)
	if strings.Contains(out, "1234-") {
		t.Errorf("disassembly restarted at PC instead of $0000:\n%s", out)
	}
}

func TestLoadCommand(t *testing.T) {
	h := newTestHost(t)
	dir, err := os.MkdirTemp("", "sim6502")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	filename := filepath.Join(dir, "prog.bin")
	if err := os.WriteFile(filename, []byte{0xa2, 0x07, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}

	out := runCommands(h, "load "+filename+" $0300", "run")
	expectOutput(t, out, "Loaded 'prog.bin' to $0300..$0302")
	if h.cpu.Reg.X != 0x07 {
		t.Errorf("X incorrect. exp: $07, got: $%02X", h.cpu.Reg.X)
	}

	out = runCommands(h, "load "+filepath.Join(dir, "missing.bin")+" $0300")
	expectOutput(t, out, "Failed to read 'missing.bin'")

	empty := filepath.Join(dir, "empty.bin")
	if err := os.WriteFile(empty, nil, 0644); err != nil {
		t.Fatal(err)
	}
	out = runCommands(h, "load "+empty+" $0200")
	expectOutput(t, out, "File 'empty.bin' is empty")
	if strings.Contains(out, "Loaded") || h.cpu.Reg.PC == 0x0200 {
		t.Errorf("empty file was loaded:\n%s", out)
	}
}

func TestHelp(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "help", "help breakpoint", "help step")
	expectOutput(t, out,
		"sim6502 commands:",
		"Breakpoint commands (breakpoint):",
		"Syntax: step [<count>]",
	)
}

func TestTraceServer(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h, "trace serve 127.0.0.1:0", "trace serve 127.0.0.1:0", "trace stop", "trace stop")
	expectOutput(t, out,
		"Trace server listening on ws://127.0.0.1:",
		"trace server already running",
		"Trace server stopped.",
		"Trace server is not running.",
	)
}

func TestParseValue(t *testing.T) {
	h := newTestHost(t)
	h.cpu.Reg.X = 0x33

	tests := []struct {
		s   string
		exp int64
	}{
		{"$ff", 0xff},
		{"0x1234", 0x1234},
		{"%1010", 10},
		{"42", 42},
		{"-1", -1},
		{"x", 0x33},
		{".", 0xfffc},
	}
	for _, tt := range tests {
		v, err := h.parseValue(tt.s)
		if err != nil || v != tt.exp {
			t.Errorf("parseValue(%q) = %d, %v. exp: %d", tt.s, v, err, tt.exp)
		}
	}

	if _, err := h.parseValue("$zz"); err == nil {
		t.Errorf("expected syntax error")
	}
	if _, err := h.parseByte("$100"); err == nil {
		t.Errorf("expected byte range error")
	}
	if a, err := h.parseAddr("-1"); err != nil || a != 0xffff {
		t.Errorf("parseAddr(-1) = $%04X, %v", a, err)
	}
}
