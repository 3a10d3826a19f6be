// Package fakenav is a simulated NAV350 listening on a local TCP port, for tests.
package fakenav

import (
	"context"
	"net"
	"strings"
	"sync"

	goutils "go.viam.com/utils"

	"go.viam.com/sicknav/logging"
	"go.viam.com/sicknav/protocol"
	"go.viam.com/sicknav/sector"
)

// Password is the password the fake accepts for SetAccessMode.
const Password = "F4724744"

// Identity strings reported by the fake.
const (
	Name            = "NAV350-3232"
	Version         = "V1.0.0"
	SerialNumber    = "12345678"
	FirmwareVersion = "1.20"
	DeviceInfo      = "NAV350-3232 Navigation"
)

// A Handler answers a request with zero or more reply payloads. Returning nothing makes the
// request time out.
type Handler func(req protocol.Telegram) []string

// Server is a fake NAV350. Requests are answered by handlers keyed by prefix and command, e.g.
// "sRN DeviceIdent"; requests without a handler get an error telegram.
type Server struct {
	logger  logging.Logger
	ln      net.Listener
	workers *goutils.StoppableWorkers

	closeOnce sync.Once
	closeErr  error

	mu       sync.Mutex
	handlers map[string]Handler
	requests []string
	conns    map[net.Conn]struct{}
	fragment bool

	stateMu sync.Mutex
	sectors [sector.MaxNumSectors][2]uint64
	global  [3]uint64
	layer   uint64
	mode    uint64
}

// New starts a fake listening on 127.0.0.1.
func New(logger logging.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, err
	}
	s := &Server{
		logger:   logger,
		ln:       ln,
		handlers: map[string]Handler{},
		conns:    map[net.Conn]struct{}{},
		global:   [3]uint64{1, sector.MaxMotorSpeed, 4},
		mode:     1,
	}
	s.installDefaults()
	s.workers = goutils.NewBackgroundStoppableWorkers(s.accept)
	return s, nil
}

// Port is the port the fake listens on.
func (s *Server) Port() int {
	return s.ln.Addr().(*net.TCPAddr).Port
}

// Handle replaces the handler for key, e.g. "sMN mNAVBreak".
func (s *Server) Handle(key string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[key] = h
}

// Silent never answers.
func Silent(protocol.Telegram) []string {
	return nil
}

// Reply answers with fixed payloads.
func Reply(payloads ...string) Handler {
	return func(protocol.Telegram) []string {
		return payloads
	}
}

// Requests returns the payloads of every request received so far.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.requests))
	copy(out, s.requests)
	return out
}

// Count returns how many requests received so far start with prefix.
func (s *Server) Count(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

// SetFragment makes the fake write every reply frame in small pieces.
func (s *Server) SetFragment(fragment bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fragment = fragment
}

// Mode is the operating mode last set.
func (s *Server) Mode() int {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return int(s.mode)
}

// Sector returns the function and stop ticks stored in slot i.
func (s *Server) Sector(i int) (function, stopTicks int) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return int(s.sectors[i][0]), int(s.sectors[i][1])
}

// DropConnections closes every open connection, as if the link went down.
func (s *Server) DropConnections() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for conn := range s.conns {
		//nolint:errcheck,gosec
		conn.Close()
		delete(s.conns, conn)
	}
}

// Close stops the fake. Closing it again is a no-op.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.ln.Close()
		s.DropConnections()
		s.workers.Stop()
	})
	return s.closeErr
}

func (s *Server) accept(_ context.Context) {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			return
		}
		s.mu.Lock()
		s.conns[conn] = struct{}{}
		s.mu.Unlock()
		s.workers.Add(func(ctx context.Context) {
			s.serve(ctx, conn)
		})
	}
}

func (s *Server) serve(ctx context.Context, conn net.Conn) {
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		//nolint:errcheck,gosec
		conn.Close()
	}()
	var buf []byte
	chunk := make([]byte, 4096)
	for ctx.Err() == nil {
		n, err := conn.Read(chunk)
		if err != nil {
			return
		}
		buf = append(buf, chunk[:n]...)
		for len(buf) > 0 {
			payload, n, err := protocol.Extract(buf)
			buf = buf[n:]
			if err != nil {
				s.logger.Debugw("dropping request frame", "error", err)
				continue
			}
			if payload == nil {
				break
			}
			if err := s.answer(conn, protocol.Classify(payload)); err != nil {
				return
			}
		}
	}
}

func (s *Server) answer(conn net.Conn, req protocol.Telegram) error {
	s.mu.Lock()
	s.requests = append(s.requests, req.String())
	h, ok := s.handlers[req.Prefix+" "+req.Command]
	fragment := s.fragment
	s.mu.Unlock()
	if !ok {
		h = Reply("sFA 5")
	}
	for _, reply := range h(req) {
		frame, err := protocol.Encode([]byte(reply))
		if err != nil {
			return err
		}
		if err := write(conn, frame, fragment); err != nil {
			return err
		}
	}
	return nil
}

func write(conn net.Conn, frame []byte, fragment bool) error {
	if !fragment {
		_, err := conn.Write(frame)
		return err
	}
	const piece = 3
	for len(frame) > 0 {
		n := piece
		if n > len(frame) {
			n = len(frame)
		}
		if _, err := conn.Write(frame[:n]); err != nil {
			return err
		}
		frame = frame[n:]
	}
	return nil
}
