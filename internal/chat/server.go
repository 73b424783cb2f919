// Package chat implements the server core of the chat service: the session
// registry with atomic nickname arbitration, the per-connection protocol
// state machine, and ordered broadcast across concurrently running
// connection handlers.
package chat

import (
	"fmt"
	"log/slog"
	"net"
)

// Server owns the listening socket and dispatches every accepted
// connection to its own Handler goroutine.
type Server struct {
	addr     string
	logger   *slog.Logger
	reg      *Registry
	bc       *Broadcaster
	listener net.Listener
}

func NewServer(addr string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	reg := NewRegistry(logger)
	return &Server{
		addr:   addr,
		logger: logger,
		reg:    reg,
		bc:     NewBroadcaster(reg, logger),
	}
}

// Start binds the listening socket and launches the accept loop. A bind
// failure (port in use) is returned to the caller and is fatal at startup.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln

	go s.acceptLoop(ln)

	s.logger.Info("server started", "addr", ln.Addr().String())
	return nil
}

// Addr returns the bound listener address; useful when the server was
// started on an ephemeral port.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Stop closes the listening socket so no further connections are accepted.
// Established sessions are unaffected and run until their own connections
// close.
func (s *Server) Stop() {
	s.logger.Info("shutting down")

	if s.listener != nil {
		_ = s.listener.Close()
	}

	s.logger.Info("shutdown complete")
}

func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			// listener closed, normal shutdown
			return
		}

		h := NewHandler(conn, s.reg, s.bc, s.logger)
		s.logger.Info("client connected",
			"addr", conn.RemoteAddr().String(), "conn_id", h.ID())
		go h.Run()
	}
}
