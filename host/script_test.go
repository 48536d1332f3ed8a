// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"os"
	"path/filepath"
	"testing"
)

const testScript = `
poke(0xfffc, 0xa9)
poke(0xfffd, 0x7f)
poke(0xfffe, 0xaa)
poke(0xffff, 0x00)

local st = step()
local r = reg()
print("A=" .. r.a .. " state=" .. st)

local n = run()
print("ran=" .. n .. " halted=" .. tostring(halted()))
print("X=" .. reg().x .. " B=" .. tostring(flag("b")))

reset()
setreg("y", 0x12)
setreg("c", 1)
exec("registers")
`

func TestScript(t *testing.T) {
	h := newTestHost(t)
	dir, err := os.MkdirTemp("", "sim6502")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })

	filename := filepath.Join(dir, "test.lua")
	if err := os.WriteFile(filename, []byte(testScript), 0644); err != nil {
		t.Fatal(err)
	}

	out := runCommands(h, "script "+filename)
	expectOutput(t, out,
		"A=127 state=running",
		"ran=2 halted=true",
		"X=127 B=true",
		" A: 00  |   X: 00  |   Y: 12",
		"SR: 25  |  PC: FFFC",
	)
}

func TestScriptErrors(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"lua setreg('q', 1)",
		"lua flag('q')",
		"script /nonexistent/missing.lua",
	)
	expectOutput(t, out,
		"unknown register 'q'",
		"unknown flag 'q'",
		"script 'missing.lua'",
	)
}

func TestLuaCommand(t *testing.T) {
	h := newTestHost(t)
	out := runCommands(h,
		"lua counter = 40",
		"lua counter = counter + 2",
		"lua poke(0x10, counter)",
		"lua print(peek(0x10))",
	)
	expectOutput(t, out, "42")
	if v := h.mem.LoadByte(0x10); v != 42 {
		t.Errorf("poke incorrect. exp: 42, got: %d", v)
	}
}
