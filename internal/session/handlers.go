package session

import (
	"errors"

	"chat-relay/internal/protocol"
	"chat-relay/internal/store"
)

func (s *Session) dispatch(cmd protocol.Command) {
	switch cmd.Type {
	case protocol.TypeRegister:
		s.handleRegister(cmd)
	case protocol.TypeLogin:
		s.handleLogin(cmd)
	case protocol.TypeLogout:
		s.handleLogout()
	case protocol.TypeCreateRoom:
		s.handleCreateRoom(cmd)
	case protocol.TypeListRooms:
		s.Send(protocol.RoomList(s.reg.RoomNames()))
	case protocol.TypeJoin:
		s.handleJoin(cmd)
	case protocol.TypeLeave:
		s.handleLeave()
	case protocol.TypeRoomUsers:
		s.handleRoomUsers(cmd)
	case protocol.TypeUserList:
		s.Send(protocol.UserList(s.reg.ActiveUsernames()))
	case protocol.TypeDirectMessage:
		s.handleDirectMessage(cmd)
	case protocol.TypeDMHistory:
		s.handleDMHistory(cmd)
	case protocol.TypeTyping:
		s.handleTyping(cmd)
	case protocol.TypeReaction:
		s.handleReaction(cmd)
	case protocol.TypeMessage:
		s.handleMessage(cmd)
	default:
		s.Send(protocol.Error("Unknown command"))
	}
}

// requireLogin guards every command that reads the session's identity. A
// session that never logged in gets a state error instead of acting on an
// empty username.
func (s *Session) requireLogin() bool {
	if s.username == "" {
		s.Send(protocol.Error("Login first"))
		return false
	}
	return true
}

// handleRegister mutates the credential store only; it never authenticates
// the session. Storage failures are logged and reported to the client the
// same way as a taken username, per the store's failure policy.
func (s *Session) handleRegister(cmd protocol.Command) {
	if err := s.users.Register(cmd.Username, cmd.Password); err != nil {
		if !errors.Is(err, store.ErrUserExists) {
			s.log.WithError(err).Error("credential store write failed")
		}
		s.Send(protocol.Error("User already exists"))
		return
	}
	s.Send(protocol.Success("Registration successful"))
}

func (s *Session) handleLogin(cmd protocol.Command) {
	if !s.users.Validate(cmd.Username, cmd.Password) {
		s.Send(protocol.Error("Invalid username/password"))
		return
	}
	s.username = cmd.Username
	s.reg.SetActive(s.id, s.username, s)
	s.log.WithField("user", s.username).Info("login")
	s.Send(protocol.Success("Login successful"))
}

// handleLogout detaches the session from the registry but deliberately does
// not reset username or currentRoom; that quirk is part of the contract this
// relay preserves.
func (s *Session) handleLogout() {
	s.Send(protocol.Success("Logged out"))
	s.detach()
}

func (s *Session) handleCreateRoom(cmd protocol.Command) {
	if err := s.rooms.Create(cmd.Room); err != nil {
		if !errors.Is(err, store.ErrRoomExists) {
			s.log.WithError(err).Error("room directory write failed")
		}
		s.Send(protocol.Error("Room already exists"))
		return
	}
	s.Send(protocol.Success("Room created"))
}

// handleJoin moves the session into a room, materializing registry state for
// names not present in the directory. The history replay precedes the join
// confirmation and is skipped entirely for an empty history.
func (s *Session) handleJoin(cmd protocol.Command) {
	if !s.requireLogin() {
		return
	}
	if s.currentRoom != "" {
		s.reg.LeaveRoom(s.currentRoom, s.id)
	}

	s.currentRoom = cmd.Room
	s.reg.JoinRoom(cmd.Room, s.id, s, s.username)

	if history := s.reg.RoomHistory(cmd.Room); len(history) > 0 {
		s.Send(protocol.History(cmd.Room, history))
	}
	s.Send(protocol.Success("Joined room " + cmd.Room))
}

func (s *Session) handleLeave() {
	if s.currentRoom == "" {
		s.Send(protocol.Error("Not in a room"))
		return
	}
	s.reg.LeaveRoom(s.currentRoom, s.id)
	s.Send(protocol.Success("Left room " + s.currentRoom))
	s.currentRoom = ""
}

func (s *Session) handleRoomUsers(cmd protocol.Command) {
	users, _ := s.reg.RoomUsernames(cmd.Room)
	s.Send(protocol.RoomUsers(cmd.Room, users))
}

// handleDirectMessage delivers to the first active session logged in as the
// recipient. An absent recipient is an error and leaves no trace in history.
func (s *Session) handleDirectMessage(cmd protocol.Command) {
	if !s.requireLogin() {
		return
	}
	peer, ok := s.reg.FindActive(cmd.To)
	if !ok {
		s.Send(protocol.Error("User not found"))
		return
	}

	rendered := protocol.DirectMessage(s.username, cmd.Text)
	peer.Send(rendered)
	s.reg.AppendDMHistory(s.username, cmd.To, rendered)
	s.Send(protocol.Success("DM sent to " + cmd.To))
}

func (s *Session) handleDMHistory(cmd protocol.Command) {
	if !s.requireLogin() {
		return
	}
	s.Send(protocol.DMHistory(cmd.With, s.reg.DMHistory(s.username, cmd.With)))
}

func (s *Session) handleTyping(cmd protocol.Command) {
	if !s.requireLogin() {
		return
	}
	s.reg.Broadcast(cmd.Room, protocol.Typing(cmd.Room, s.username))
}

func (s *Session) handleReaction(cmd protocol.Command) {
	if !s.requireLogin() {
		return
	}
	s.reg.Broadcast(cmd.Room, protocol.Reaction(cmd.Room, cmd.Msg, s.username, cmd.Emoji))
}

// handleMessage appends to history and broadcasts as one uninterrupted step
// from the sender's goroutine, which is what preserves per-sender ordering.
// The broadcast includes the sender.
func (s *Session) handleMessage(cmd protocol.Command) {
	if s.username == "" || s.currentRoom == "" {
		s.Send(protocol.Error("Join a room first"))
		return
	}
	rendered := protocol.Message(s.currentRoom, s.username, cmd.Text)
	s.reg.AppendRoomHistory(s.currentRoom, rendered)
	s.reg.Broadcast(s.currentRoom, rendered)
}
