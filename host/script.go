// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sim6502/sim6502/cpu"
	lua "github.com/yuin/gopher-lua"
)

// Functions exposed to Lua scripts.
var luaFuncs = map[string]func(h *Host, L *lua.LState) int{
	"peek":   (*Host).luaPeek,
	"poke":   (*Host).luaPoke,
	"step":   (*Host).luaStep,
	"run":    (*Host).luaRun,
	"reset":  (*Host).luaReset,
	"reg":    (*Host).luaReg,
	"setreg": (*Host).luaSetReg,
	"flag":   (*Host).luaFlag,
	"halted": (*Host).luaHalted,
	"exec":   (*Host).luaExec,
	"print":  (*Host).luaPrint,
}

// Return the host's Lua state, creating it on first use. Globals defined by
// one script remain visible to the next.
func (h *Host) luaState() *lua.LState {
	if h.lua == nil {
		L := lua.NewState()
		for name, fn := range luaFuncs {
			L.SetGlobal(name, L.NewFunction(func(L *lua.LState) int {
				return fn(h, L)
			}))
		}
		h.lua = L
	}
	return h.lua
}

// Run a Lua script file against the emulator.
func (h *Host) runScript(filename string) error {
	if err := h.luaState().DoFile(filename); err != nil {
		return fmt.Errorf("script '%s': %w", filepath.Base(filename), err)
	}
	return nil
}

// Run a chunk of Lua code against the emulator.
func (h *Host) runLua(code string) error {
	return h.luaState().DoString(code)
}

func (h *Host) luaPeek(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	L.Push(lua.LNumber(h.mem.LoadByte(addr)))
	return 1
}

func (h *Host) luaPoke(L *lua.LState) int {
	addr := uint16(L.CheckInt(1))
	v := byte(L.CheckInt(2))
	h.mem.StoreByte(addr, v)
	return 0
}

// step([count]) executes up to count instructions, stopping early if the
// CPU halts. It returns the resulting state name.
func (h *Host) luaStep(L *lua.LState) int {
	count := L.OptInt(1, 1)
	for i := 0; i < count && h.cpu.State() == cpu.Running; i++ {
		h.cpu.Step()
	}
	L.Push(lua.LString(h.cpu.State().String()))
	return 1
}

// run([max]) runs until halt, breakpoint or max instructions and returns
// the number of instructions executed.
func (h *Host) luaRun(L *lua.LState) int {
	n := h.run(L.OptInt(1, h.settings.MaxSteps))
	L.Push(lua.LNumber(n))
	return 1
}

func (h *Host) luaReset(L *lua.LState) int {
	h.cpu.Reset()
	return 0
}

func (h *Host) luaReg(L *lua.LState) int {
	s := h.cpu.Reg.Snapshot()
	t := L.NewTable()
	L.SetField(t, "a", lua.LNumber(s.A))
	L.SetField(t, "x", lua.LNumber(s.X))
	L.SetField(t, "y", lua.LNumber(s.Y))
	L.SetField(t, "sp", lua.LNumber(s.SP))
	L.SetField(t, "pc", lua.LNumber(s.PC))
	L.SetField(t, "sr", lua.LNumber(s.SR))
	L.SetField(t, "cycles", lua.LNumber(s.Cycles))
	L.Push(t)
	return 1
}

func (h *Host) luaSetReg(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	v := L.CheckInt(2)

	r := &h.cpu.Reg
	switch name {
	case "a":
		r.A = byte(v)
	case "x":
		r.X = byte(v)
	case "y":
		r.Y = byte(v)
	case "sp":
		r.SP = byte(v)
	case "pc":
		r.PC = uint16(v)
	default:
		f, ok := flagNames[name]
		if !ok {
			L.ArgError(1, "unknown register '"+name+"'")
			return 0
		}
		r.SetFlag(f, v != 0)
	}
	return 0
}

func (h *Host) luaFlag(L *lua.LState) int {
	name := strings.ToLower(L.CheckString(1))
	f, ok := flagNames[name]
	if !ok {
		L.ArgError(1, "unknown flag '"+name+"'")
		return 0
	}
	L.Push(lua.LBool(h.cpu.Reg.Flag(f)))
	return 1
}

func (h *Host) luaHalted(L *lua.LState) int {
	L.Push(lua.LBool(h.cpu.State() == cpu.Halted))
	return 1
}

// exec(command) runs a host command line. Quitting is not possible from
// a script.
func (h *Host) luaExec(L *lua.LState) int {
	line := L.CheckString(1)
	if err := h.processCommand(line); err != nil && err != errQuit {
		L.RaiseError("%v", err)
	}
	return 0
}

func (h *Host) luaPrint(L *lua.LState) int {
	n := L.GetTop()
	parts := make([]string, n)
	for i := 1; i <= n; i++ {
		parts[i-1] = L.Get(i).String()
	}
	h.println(strings.Join(parts, "\t"))
	return 0
}
