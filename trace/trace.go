// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trace streams CPU diagnostic events to remote observers over
// WebSocket connections. Each event is sent as a JSON text message.
package trace

import (
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sim6502/sim6502/cpu"
	"github.com/sim6502/sim6502/disasm"
)

// Path is the HTTP path on which the server accepts WebSocket clients.
const Path = "/trace"

// Event kinds
const (
	KindStep    = "step"
	KindUnknown = "unknown"
)

// ErrServerClosed is returned by ListenAndServe after Close.
var ErrServerClosed = errors.New("trace server closed")

// An Event is the JSON message delivered to clients.
type Event struct {
	Kind        string `json:"kind"`
	PC          uint16 `json:"pc"`
	Opcode      byte   `json:"opcode"`
	Name        string `json:"name,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Bytes       string `json:"bytes,omitempty"`
	PageCrossed bool   `json:"pageCrossed,omitempty"`
	A           byte   `json:"a"`
	X           byte   `json:"x"`
	Y           byte   `json:"y"`
	SP          byte   `json:"sp"`
	NextPC      uint16 `json:"nextPC"`
	SR          byte   `json:"sr"`
	Flags       string `json:"flags"`
	Cycles      uint64 `json:"cycles"`
}

func newEvent(kind string, pc uint16, opcode byte, r cpu.Snapshot) Event {
	return Event{
		Kind:   kind,
		PC:     pc,
		Opcode: opcode,
		A:      r.A,
		X:      r.X,
		Y:      r.Y,
		SP:     r.SP,
		NextPC: r.PC,
		SR:     r.SR,
		Flags:  disasm.GetStatusString(r.SR),
		Cycles: r.Cycles,
	}
}

// StepEvent converts an engine step notification into a trace event.
func StepEvent(e *cpu.StepEvent) Event {
	ev := newEvent(KindStep, e.PC, e.Opcode, e.Reg)
	ev.Name = e.Inst.Name
	ev.Mode = e.Inst.Mode.String()
	ev.PageCrossed = e.PageCrossed
	if len(e.Bytes) > 0 {
		ev.Bytes = strings.TrimSpace(fmt.Sprintf("% X", e.Bytes))
	}
	return ev
}

// UnknownEvent converts an unknown opcode notification into a trace event.
func UnknownEvent(e *cpu.UnknownOpcodeEvent) Event {
	return newEvent(KindUnknown, e.PC, e.Opcode, e.Reg)
}

// A Server accepts WebSocket clients and broadcasts trace events to them.
// It implements cpu.Observer, so it may be installed directly on an engine.
// Publishing never blocks: events destined for a client whose queue is full
// are dropped.
type Server struct {
	logger    *log.Logger
	upgrader  websocket.Upgrader
	queueSize int

	mu      sync.Mutex
	clients map[*client]struct{}
	httpSrv *http.Server
	closed  bool
	dropped uint64
}

type client struct {
	conn   *websocket.Conn
	send   chan Event
	logger *log.Logger
}

// NewServer creates a trace server that logs connection activity to
// 'logger'. Each client buffers up to queueSize undelivered events.
func NewServer(logger *log.Logger, queueSize int) *Server {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Server{
		logger:    logger,
		queueSize: queueSize,
		clients:   make(map[*client]struct{}),
	}
}

// ServeHTTP upgrades the request to a WebSocket connection and streams
// events to it until either side closes the connection.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Print("websocket upgrade error:", err)
		return
	}

	c := &client{
		conn:   conn,
		send:   make(chan Event, s.queueSize),
		logger: log.New(s.logger.Writer(), fmt.Sprintf("[trace/%s] ", conn.RemoteAddr()), s.logger.Flags()),
	}
	if !s.register(c) {
		conn.Close()
		return
	}
	c.logger.Printf("New trace client")

	go c.writeLoop()

	// Clients never send anything meaningful; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	s.unregister(c)
	c.logger.Printf("Closed trace client")
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteJSON(ev); err != nil {
			c.logger.Printf("Write failed -- %v", err)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) register(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	return true
}

func (s *Server) unregister(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.clients[c]; ok {
		delete(s.clients, c)
		close(c.send)
	}
}

// Publish queues an event for every connected client.
func (s *Server) Publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
			s.dropped++
		}
	}
}

// OnStep publishes an executed instruction.
func (s *Server) OnStep(e *cpu.StepEvent) {
	s.Publish(StepEvent(e))
}

// OnUnknownOpcode publishes an undecodable opcode.
func (s *Server) OnUnknownOpcode(e *cpu.UnknownOpcodeEvent) {
	s.Publish(UnknownEvent(e))
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Dropped returns the number of events discarded because a client queue
// was full.
func (s *Server) Dropped() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Serve accepts trace clients on the listener until Close is called.
func (s *Server) Serve(l net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle(Path, s)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		l.Close()
		return ErrServerClosed
	}
	s.httpSrv = &http.Server{Handler: mux}
	srv := s.httpSrv
	s.mu.Unlock()

	s.logger.Printf("Started trace server at ws://%s%s", l.Addr(), Path)
	err := srv.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return ErrServerClosed
	}
	return err
}

// ListenAndServe listens on the TCP address and serves trace clients.
func (s *Server) ListenAndServe(addr string) error {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("trace listen: %w", err)
	}
	return s.Serve(l)
}

// Close stops accepting clients and disconnects all connected clients.
func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for c := range s.clients {
		delete(s.clients, c)
		close(c.send)
	}
	if s.httpSrv != nil {
		return s.httpSrv.Close()
	}
	return nil
}
