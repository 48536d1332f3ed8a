// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"errors"
	"fmt"
	"net"

	"github.com/sim6502/sim6502/cpu"
	"github.com/sim6502/sim6502/trace"
)

// The observer receives diagnostic events from the CPU engine. It drives
// the console tracer and forwards every event to the remote trace server
// when one is running.
type observer struct {
	host *Host
}

func newObserver(h *Host) *observer {
	return &observer{host: h}
}

func (o *observer) OnStep(e *cpu.StepEvent) {
	h := o.host
	if h.settings.TraceBytes {
		h.printf(".%04X  %s\n", e.PC, codeString(e.Bytes))
	}
	if h.settings.ShowStatus {
		h.displayStatus(e.Reg)
	}
	if h.tracer != nil {
		h.tracer.OnStep(e)
	}
}

func (o *observer) OnUnknownOpcode(e *cpu.UnknownOpcodeEvent) {
	h := o.host
	h.printf("Unknown opcode %02X.\n", e.Opcode)
	if h.settings.StopOnUnknown && h.state == stateRunning {
		h.state = stateBreakpoint
	}
	if h.tracer != nil {
		h.tracer.OnUnknownOpcode(e)
	}
}

// StartTracer starts a remote trace server listening on the TCP address.
// Clients connect with WebSocket on the trace.Path endpoint.
func (h *Host) StartTracer(addr string) error {
	if h.tracer != nil {
		return errors.New("trace server already running")
	}

	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("trace server: %w", err)
	}

	s := trace.NewServer(h.logger, h.settings.TraceQueue)
	h.tracer = s
	go func() {
		if err := s.Serve(l); err != nil && !errors.Is(err, trace.ErrServerClosed) {
			h.logger.Printf("Trace server failed -- %v", err)
		}
	}()

	h.printf("Trace server listening on ws://%s%s\n", l.Addr(), trace.Path)
	return nil
}

func (h *Host) stopTracer() {
	if h.tracer != nil {
		h.tracer.Close()
		h.tracer = nil
	}
}
