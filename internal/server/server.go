// Package server accepts TCP connections and hands each one to a session.
package server

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"chat-relay/internal/registry"
	"chat-relay/internal/session"
	"chat-relay/internal/store"
)

type Server struct {
	addr  string
	ln    net.Listener
	reg   *registry.Registry
	users *store.Users
	rooms *store.Rooms
}

func New(addr string, reg *registry.Registry, users *store.Users, rooms *store.Rooms) *Server {
	return &Server{addr: addr, reg: reg, users: users, rooms: rooms}
}

// Listen binds the listening socket. Kept separate from Serve so the caller
// can fail fast on a busy port before wiring up shutdown.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.ln = ln
	return nil
}

// Serve accepts connections until the listener is closed, spawning one
// session goroutine per connection. A failed accept on a live listener is
// logged and the loop continues.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			logrus.WithError(err).Error("accept failed")
			continue
		}
		go session.New(conn, s.reg, s.users, s.rooms).Run()
	}
}

// Close stops the listener; in-flight sessions keep running until their
// peers disconnect.
func (s *Server) Close() error {
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}

// Addr returns the bound address, useful when listening on port 0.
func (s *Server) Addr() net.Addr {
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}
