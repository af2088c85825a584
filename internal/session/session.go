// Package session owns the per-connection state machine: the read loop over
// the newline-delimited wire protocol, the authenticated/in-room state, and
// the write pump that serializes all outbound lines for one connection.
package session

import (
	"bufio"
	"net"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"chat-relay/internal/protocol"
	"chat-relay/internal/registry"
	"chat-relay/internal/store"
)

// sendBuffer is the per-connection outbound queue. A peer that falls this
// far behind starts losing broadcasts, which is the best-effort contract.
const sendBuffer = 256

// Session is the server-side state for one connected client. username and
// currentRoom are only touched from the session's own goroutine; all state
// shared with other connections lives in the registry.
type Session struct {
	id   string
	conn net.Conn
	send chan string
	done chan struct{}

	reg   *registry.Registry
	users *store.Users
	rooms *store.Rooms

	username    string
	currentRoom string

	closeOnce sync.Once
	log       *logrus.Entry
}

func New(conn net.Conn, reg *registry.Registry, users *store.Users, rooms *store.Rooms) *Session {
	id := uuid.New().String()
	return &Session{
		id:    id,
		conn:  conn,
		send:  make(chan string, sendBuffer),
		done:  make(chan struct{}),
		reg:   reg,
		users: users,
		rooms: rooms,
		log:   logrus.WithField("conn", id).WithField("remote", remoteAddr(conn)),
	}
}

// Run services the connection until the peer disconnects or the read fails,
// then cleans up every registry structure the session appears in. It blocks
// for the connection's full lifetime.
func (s *Session) Run() {
	s.log.Info("client connected")
	go s.writePump()

	scanner := bufio.NewScanner(s.conn)
	for scanner.Scan() {
		s.dispatch(protocol.Decode(strings.TrimSpace(scanner.Text())))
	}
	if err := scanner.Err(); err != nil {
		s.log.WithError(err).Debug("read loop ended")
	}

	s.close()
	s.log.WithField("user", s.username).Info("client disconnected")
}

// Send queues one rendered line for delivery. It never blocks: a full buffer
// or a closed session drops the line and reports false.
func (s *Session) Send(line string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- line:
		return true
	default:
		return false
	}
}

// writePump is the only writer to the connection. On a write failure it
// closes the conn and lets the read loop run the actual teardown; session
// state is never touched from this goroutine.
func (s *Session) writePump() {
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case line := <-s.send:
			if _, err := w.WriteString(line + "\n"); err != nil {
				_ = s.conn.Close()
				return
			}
			if err := w.Flush(); err != nil {
				_ = s.conn.Close()
				return
			}
		case <-s.done:
			return
		}
	}
}

// close tears the session down exactly once: registry cleanup first so no
// further broadcast can target it, then the connection itself.
func (s *Session) close() {
	s.closeOnce.Do(func() {
		s.detach()
		close(s.done)
		_ = s.conn.Close()
	})
}

// detach removes the session from the active index and its current room.
// Idempotent; shared by logout and disconnect cleanup.
func (s *Session) detach() {
	s.reg.RemoveActive(s.id)
	if s.currentRoom != "" {
		s.reg.LeaveRoom(s.currentRoom, s.id)
	}
}

func remoteAddr(conn net.Conn) string {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr.String()
	}
	return "unknown"
}
