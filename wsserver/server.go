// Package wsserver wires the listener accept loop, the handshake
// parser, the service directory, and the Manager into one runnable
// process.
package wsserver

import (
	"context"
	"fmt"
	"net"

	"github.com/rs/zerolog"

	"github.com/coregx/wsbus/connio"
	"github.com/coregx/wsbus/directory"
	"github.com/coregx/wsbus/handshake"
	"github.com/coregx/wsbus/manager"
)

// Server accepts raw TCP connections, performs the handshake parse on
// each one, and on success attaches a Connection to the Manager.
type Server struct {
	host string
	port int
	dir  *directory.Directory
	mgr  *manager.Manager
	log  zerolog.Logger

	listener net.Listener
}

// New returns a Server bound to host:port once Serve is called, routing
// admitted connections through dir and mgr.
func New(host string, port int, dir *directory.Directory, mgr *manager.Manager, log zerolog.Logger) *Server {
	return &Server{host: host, port: port, dir: dir, mgr: mgr, log: log}
}

// Addr returns the bound address, valid only after Serve has started
// listening. Used by tests that bind an ephemeral port (port 0).
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Serve binds the listener and runs the accept loop and the Manager's
// loops until ctx is cancelled; ctx is the single shared shutdown
// signal for the whole process. On cancellation it closes the
// listener, stops the Manager, closes every remaining socket, and
// joins every directory worker before returning.
func (s *Server) Serve(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, err)
	}
	s.listener = ln

	s.log.Info().Str("addr", ln.Addr().String()).Msg("listening")

	go s.mgr.Run()

	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-done:
		}
	}()
	defer close(done)

	s.acceptLoop(ln)

	s.mgr.Shutdown()
	s.mgr.CloseAll()
	s.dir.JoinAll()
	s.log.Info().Msg("shutdown complete")
	return nil
}

// acceptLoop accepts connections until the listener is closed (which
// Serve does on context cancellation; Accept then returns an error and
// the loop exits).
func (s *Server) acceptLoop(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			s.log.Debug().Err(err).Msg("accept loop exiting")
			return
		}
		go s.admit(conn)
	}
}

// admit reads the handshake request off a freshly accepted socket,
// writes the response, and on success attaches a Connection bound to
// the resolved service.
func (s *Server) admit(conn net.Conn) {
	buf := make([]byte, handshake.MaxRequestSize)
	n, err := conn.Read(buf)
	if err != nil {
		s.log.Debug().Err(err).Msg("handshake read failed")
		_ = conn.Close()
		return
	}

	result := handshake.Handle(buf[:n], s.dir)
	if _, err := conn.Write(result.Response); err != nil {
		s.log.Debug().Err(err).Msg("handshake response write failed")
		_ = conn.Close()
		return
	}
	if result.Close {
		_ = conn.Close()
		return
	}

	c := connio.New(conn, conn.RemoteAddr().String(), result.Service)
	s.mgr.Attach(c)
	s.log.Info().Uint64("conn", c.ID()).Str("path", result.Service.Path).Msg("connection admitted")
}
