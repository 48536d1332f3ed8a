// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import "github.com/beevik/cmd"

var cmds *cmd.Tree

// A command binds a command descriptor to its host handler.
type command struct {
	desc    cmd.CommandDescriptor
	handler func(*Host, cmd.Selection) error
}

// A helpGroup lists the commands of one level of the command tree for the
// help display.
type helpGroup struct {
	name     string
	brief    string
	commands []*command
}

var helpGroups []*helpGroup

func addCommand(t *cmd.Tree, g *helpGroup, d cmd.CommandDescriptor) {
	c := &command{desc: d, handler: d.Data.(func(*Host, cmd.Selection) error)}
	d.Data = c
	t.AddCommand(d)
	g.commands = append(g.commands, c)
}

func addSubtree(root *cmd.Tree, name, brief string) (*cmd.Tree, *helpGroup) {
	g := &helpGroup{name: name, brief: brief}
	helpGroups = append(helpGroups, g)
	return root.AddSubtree(cmd.TreeDescriptor{Name: name, Brief: brief}), g
}

func init() {
	root := cmd.NewTree(cmd.TreeDescriptor{Name: "sim6502"})
	top := &helpGroup{name: "sim6502"}
	helpGroups = append(helpGroups, top)

	addCommand(root, top, cmd.CommandDescriptor{
		Name:        "help",
		Description: "Display help for a command.",
		Usage:       "help [<command>]",
		Data:        (*Host).cmdHelp,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "demo",
		Brief: "Seed the demo program",
		Description: "Store the LDA/LDX/LDY/STA test program and its data" +
			" in memory, starting at the reset vector $FFFC, then reset the" +
			" CPU. Use run to execute it until BRK.",
		Usage: "demo",
		Data:  (*Host).cmdDemo,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "disassemble",
		Brief: "Disassemble code",
		Description: "Disassemble machine code starting at the requested" +
			" address. The number of instructions to disassemble may be" +
			" specified as an option. If no address is specified, the" +
			" disassembly continues from where the last disassembly left off.",
		Usage: "disassemble [<address>] [<count>]",
		Data:  (*Host).cmdDisassemble,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "load",
		Brief: "Load a binary file",
		Description: "Load the raw contents of a binary file into memory" +
			" at the specified address and move the program counter there.",
		Usage: "load <filename> <address>",
		Data:  (*Host).cmdLoad,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "lua",
		Brief: "Evaluate a Lua statement",
		Description: "Evaluate a line of Lua code with access to the" +
			" emulator. See the script command for available functions.",
		Usage: "lua <code>",
		Data:  (*Host).cmdLua,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:        "quit",
		Brief:       "Quit the program",
		Description: "Quit the program.",
		Usage:       "quit",
		Data:        (*Host).cmdQuit,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "registers",
		Brief: "Display CPU status",
		Description: "Display the contents of all CPU registers, the status" +
			" flags in NV-BDIZC order and the cycle count.",
		Usage: "registers",
		Data:  (*Host).cmdRegisters,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "reset",
		Brief: "Reset the CPU",
		Description: "Perform a hard reset of the CPU registers and the cycle" +
			" counter. Memory is not cleared.",
		Usage: "reset",
		Data:  (*Host).cmdReset,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "run",
		Brief: "Run the CPU",
		Description: "Run the CPU until the break flag is set, a breakpoint" +
			" is hit, MaxSteps instructions have executed or the user types" +
			" Ctrl-C. An optional address sets the program counter first.",
		Usage: "run [<address>]",
		Data:  (*Host).cmdRun,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "script",
		Brief: "Run a Lua script",
		Description: "Run a Lua script against the emulator. Scripts may call" +
			" peek(addr), poke(addr, value), step([count]), run([max])," +
			" reset(), reg(), setreg(name, value), flag(name), halted()" +
			" and exec(command).",
		Usage: "script <filename>",
		Data:  (*Host).cmdScript,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set a register or configuration variable",
		Description: "Set the value of a register (A, X, Y, SP, PC), a status" +
			" flag (N, V, B, D, I, Z, C) or a configuration variable. Type" +
			" the set command without arguments to display all configuration" +
			" variables.",
		Usage: "set [<var> <value>]",
		Data:  (*Host).cmdSet,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "step",
		Brief: "Step the CPU",
		Description: "Step the CPU by a single instruction. The number of" +
			" steps may be specified as an option.",
		Usage: "step [<count>]",
		Data:  (*Host).cmdStep,
	})
	addCommand(root, top, cmd.CommandDescriptor{
		Name:  "timing",
		Brief: "Estimate elapsed time",
		Description: "Display the time the executed cycles would take on a" +
			" real CPU running at ClockHz.",
		Usage: "timing",
		Data:  (*Host).cmdTiming,
	})

	// Breakpoint commands
	bp, bpg := addSubtree(root, "breakpoint", "Breakpoint commands")
	addCommand(bp, bpg, cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List breakpoints",
		Description: "List all current breakpoints.",
		Usage:       "breakpoint list",
		Data:        (*Host).cmdBreakpointList,
	})
	addCommand(bp, bpg, cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a breakpoint",
		Description: "Add a breakpoint at the specified address." +
			" The breakpoints starts enabled.",
		Usage: "breakpoint add <address>",
		Data:  (*Host).cmdBreakpointAdd,
	})
	addCommand(bp, bpg, cmd.CommandDescriptor{
		Name:        "remove",
		Brief:       "Remove a breakpoint",
		Description: "Remove a breakpoint at the specified address.",
		Usage:       "breakpoint remove <address>",
		Data:        (*Host).cmdBreakpointRemove,
	})
	addCommand(bp, bpg, cmd.CommandDescriptor{
		Name:        "enable",
		Brief:       "Enable a breakpoint",
		Description: "Enable a previously added breakpoint.",
		Usage:       "breakpoint enable <address>",
		Data:        (*Host).cmdBreakpointEnable,
	})
	addCommand(bp, bpg, cmd.CommandDescriptor{
		Name:  "disable",
		Brief: "Disable a breakpoint",
		Description: "Disable a previously added breakpoint. This" +
			" prevents the breakpoint from being hit when running the CPU.",
		Usage: "breakpoint disable <address>",
		Data:  (*Host).cmdBreakpointDisable,
	})

	// Data breakpoint commands
	db, dbg := addSubtree(root, "databreakpoint", "Data breakpoint commands")
	addCommand(db, dbg, cmd.CommandDescriptor{
		Name:        "list",
		Brief:       "List data breakpoints",
		Description: "List all current data breakpoints.",
		Usage:       "databreakpoint list",
		Data:        (*Host).cmdDataBreakpointList,
	})
	addCommand(db, dbg, cmd.CommandDescriptor{
		Name:  "add",
		Brief: "Add a data breakpoint",
		Description: "Add a new data breakpoint at the specified memory" +
			" address. When the CPU stores data at this address, the" +
			" breakpoint will stop the CPU. Optionally, a byte value may be" +
			" specified, and the CPU will stop only when this value is stored.",
		Usage: "databreakpoint add <address> [<value>]",
		Data:  (*Host).cmdDataBreakpointAdd,
	})
	addCommand(db, dbg, cmd.CommandDescriptor{
		Name:  "remove",
		Brief: "Remove a data breakpoint",
		Description: "Remove a previously added data breakpoint at the" +
			" specified memory address.",
		Usage: "databreakpoint remove <address>",
		Data:  (*Host).cmdDataBreakpointRemove,
	})

	// Memory commands
	me, meg := addSubtree(root, "memory", "Memory commands")
	addCommand(me, meg, cmd.CommandDescriptor{
		Name:  "dump",
		Brief: "Dump memory",
		Description: "Dump the contents of memory from the start address" +
			" through the end address. The range wraps past $FFFF. Without" +
			" an end address, MemDumpBytes bytes are dumped.",
		Usage: "memory dump <start> [<end>]",
		Data:  (*Host).cmdMemoryDump,
	})
	addCommand(me, meg, cmd.CommandDescriptor{
		Name:  "set",
		Brief: "Set memory contents",
		Description: "Store one or more bytes into memory starting at the" +
			" specified address.",
		Usage: "memory set <address> <byte> [<byte> ...]",
		Data:  (*Host).cmdMemorySet,
	})
	addCommand(me, meg, cmd.CommandDescriptor{
		Name:        "clear",
		Brief:       "Clear memory",
		Description: "Zero the entire 64K address space.",
		Usage:       "memory clear",
		Data:        (*Host).cmdMemoryClear,
	})

	// Remote trace commands
	tr, trg := addSubtree(root, "trace", "Remote trace commands")
	addCommand(tr, trg, cmd.CommandDescriptor{
		Name:  "serve",
		Brief: "Start the trace server",
		Description: "Start a WebSocket server on the given address. Every" +
			" executed instruction is streamed as a JSON event to connected" +
			" clients on the /trace path.",
		Usage: "trace serve <host:port>",
		Data:  (*Host).cmdTraceServe,
	})
	addCommand(tr, trg, cmd.CommandDescriptor{
		Name:        "stop",
		Brief:       "Stop the trace server",
		Description: "Stop the trace server and disconnect all clients.",
		Usage:       "trace stop",
		Data:        (*Host).cmdTraceStop,
	})

	// Add command shortcuts.
	root.AddShortcut("b", "breakpoint")
	root.AddShortcut("ba", "breakpoint add")
	root.AddShortcut("br", "breakpoint remove")
	root.AddShortcut("bl", "breakpoint list")
	root.AddShortcut("be", "breakpoint enable")
	root.AddShortcut("bd", "breakpoint disable")
	root.AddShortcut("d", "disassemble")
	root.AddShortcut("db", "databreakpoint")
	root.AddShortcut("dbl", "databreakpoint list")
	root.AddShortcut("dba", "databreakpoint add")
	root.AddShortcut("dbr", "databreakpoint remove")
	root.AddShortcut("m", "memory dump")
	root.AddShortcut("ms", "memory set")
	root.AddShortcut("r", "registers")
	root.AddShortcut("s", "step")
	root.AddShortcut("?", "help")

	cmds = root
}
