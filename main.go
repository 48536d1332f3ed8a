// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/beevik/term"
	"github.com/sim6502/sim6502/host"
)

var (
	traceAddr string
	demo      bool
)

func init() {
	flag.StringVar(&traceAddr, "trace", "", "serve remote trace events on `address`")
	flag.BoolVar(&demo, "demo", false, "seed the demo program before running")
	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: sim6502 [options] [script] ..\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	h := host.New()
	defer h.Close()

	if traceAddr != "" {
		if err := h.StartTracer(traceAddr); err != nil {
			exitOnError(err)
		}
	}

	if demo {
		h.RunCommands(strings.NewReader("demo\n"), os.Stdout, false)
	}

	// Run commands contained in command-line files. Lua files are run as
	// scripts; anything else is a list of host commands.
	for _, filename := range flag.Args() {
		if filepath.Ext(filename) == ".lua" {
			h.RunCommands(strings.NewReader("script "+filename+"\n"), os.Stdout, false)
			continue
		}

		file, err := os.Open(filename)
		if err != nil {
			exitOnError(err)
		}
		h.RunCommands(file, os.Stdout, false)
		file.Close()
	}

	// Break on Ctrl-C.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	go handleInterrupt(h, c)

	// Run commands interactively when attached to a terminal.
	h.RunCommands(os.Stdin, os.Stdout, term.IsTerminal(int(os.Stdin.Fd())))
}

func handleInterrupt(h *host.Host, c chan os.Signal) {
	for {
		<-c
		h.Break()
	}
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
