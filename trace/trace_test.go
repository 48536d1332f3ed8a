// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trace_test

import (
	"io"
	"log"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sim6502/sim6502/cpu"
	"github.com/sim6502/sim6502/trace"
)

func newTestServer(t *testing.T, queue int) (*trace.Server, *httptest.Server) {
	t.Helper()
	s := trace.NewServer(log.New(io.Discard, "", 0), queue)
	ts := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		ts.Close()
	})
	return s, ts
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(url, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitClients(t *testing.T, s *trace.Server, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients incorrect. exp: %d, got: %d", n, s.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readEvent(t *testing.T, conn *websocket.Conn) trace.Event {
	t.Helper()
	var ev trace.Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read event: %v", err)
	}
	return ev
}

func TestStreamSteps(t *testing.T) {
	s, ts := newTestServer(t, 16)
	conn := dial(t, ts.URL)
	waitClients(t, s, 1)

	mem := cpu.NewFlatMemory()
	mem.StoreBytes(0xfffc, []byte{0xa9, 0xff, 0x02})
	c := cpu.NewCPU(mem, cpu.Options{Observer: s, Trace: true})
	c.Step()
	c.Step()

	ev := readEvent(t, conn)
	if ev.Kind != trace.KindStep || ev.PC != 0xfffc || ev.Opcode != 0xa9 {
		t.Errorf("step event incorrect: %+v", ev)
	}
	if ev.Name != "LDA" || ev.Mode != "Immediate" || ev.Bytes != "A9 FF" {
		t.Errorf("step event decode incorrect: %+v", ev)
	}
	if ev.A != 0xff || ev.Cycles != 2 || ev.NextPC != 0xfffe || ev.Flags != "N-U--I--" {
		t.Errorf("step event registers incorrect: %+v", ev)
	}

	ev = readEvent(t, conn)
	if ev.Kind != trace.KindUnknown || ev.PC != 0xfffe || ev.Opcode != 0x02 {
		t.Errorf("unknown event incorrect: %+v", ev)
	}
}

func TestSlowClientDropsEvents(t *testing.T) {
	s, ts := newTestServer(t, 1)
	dial(t, ts.URL)
	waitClients(t, s, 1)

	for i := 0; i < 10000; i++ {
		s.Publish(trace.Event{Kind: trace.KindStep, PC: uint16(i)})
	}
	if s.Dropped() == 0 {
		t.Errorf("expected dropped events with a single-slot queue")
	}
}

func TestClientDisconnect(t *testing.T) {
	s, ts := newTestServer(t, 4)
	conn := dial(t, ts.URL)
	waitClients(t, s, 1)

	conn.Close()
	waitClients(t, s, 0)
}

func TestCloseDisconnectsClients(t *testing.T) {
	s, ts := newTestServer(t, 4)
	conn := dial(t, ts.URL)
	waitClients(t, s, 1)

	s.Close()
	waitClients(t, s, 0)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Errorf("expected connection to close")
	}
}

func TestServeAfterClose(t *testing.T) {
	s := trace.NewServer(log.New(io.Discard, "", 0), 4)
	s.Close()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Serve(l); err != trace.ErrServerClosed {
		t.Errorf("serve after close. exp: %v, got: %v", trace.ErrServerClosed, err)
	}
}

func TestListenAndServe(t *testing.T) {
	s := trace.NewServer(log.New(io.Discard, "", 0), 4)
	defer s.Close()

	// Reserve a free port, then hand its address to the server.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := l.Addr().String()
	l.Close()

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(addr) }()

	url := "ws://" + addr + trace.Path
	deadline := time.Now().Add(2 * time.Second)
	var conn *websocket.Conn
	for {
		conn, _, err = websocket.DefaultDialer.Dial(url, nil)
		if err == nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("dial: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	defer conn.Close()
	waitClients(t, s, 1)

	s.Close()
	select {
	case err := <-done:
		if err != trace.ErrServerClosed {
			t.Errorf("listen and serve. exp: %v, got: %v", trace.ErrServerClosed, err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("ListenAndServe did not return after Close")
	}
}

func TestListenAndServeBadAddress(t *testing.T) {
	s := trace.NewServer(log.New(io.Discard, "", 0), 4)
	defer s.Close()

	err := s.ListenAndServe("127.0.0.1:bogus")
	if err == nil || !strings.Contains(err.Error(), "trace listen") {
		t.Errorf("bad address error incorrect: %v", err)
	}
}
