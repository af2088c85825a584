// Package registry holds the shared in-memory state of the relay: which
// connections are logged in as whom, who is in which room, and the bounded
// message histories. Every method is safe for concurrent use from any number
// of session goroutines; callers never take locks themselves.
package registry

import (
	"sort"
	"sync"

	"github.com/bradenaw/juniper/container/deque"
	"github.com/sirupsen/logrus"
)

// HistoryLimit caps room and DM histories. Appending to a full history
// evicts the oldest entry.
const HistoryLimit = 20

// Peer is the send side of a connected session. Send must not block: it
// returns false when the line could not be queued for delivery.
type Peer interface {
	Send(line string) bool
}

type member struct {
	username string
	peer     Peer
}

// Registry is internally synchronized; the zero value is not usable, use New.
type Registry struct {
	mu sync.RWMutex
	// connID -> logged-in identity. Two connections may hold the same
	// username; DM delivery resolves to the first match.
	active map[string]member
	// room -> connID -> member. Room entries persist once provisioned,
	// even with zero members.
	rooms       map[string]map[string]member
	roomHistory map[string]*deque.Deque[string]
	dmHistory   map[string]*deque.Deque[string]
}

func New() *Registry {
	return &Registry{
		active:      make(map[string]member),
		rooms:       make(map[string]map[string]member),
		roomHistory: make(map[string]*deque.Deque[string]),
		dmHistory:   make(map[string]*deque.Deque[string]),
	}
}

// SetActive marks a connection as logged in under username.
func (r *Registry) SetActive(connID, username string, peer Peer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.active[connID] = member{username: username, peer: peer}
}

// RemoveActive is idempotent; unknown connIDs are ignored.
func (r *Registry) RemoveActive(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, connID)
}

// FindActive returns the peer for the first active connection logged in as
// username.
func (r *Registry) FindActive(username string) (Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, m := range r.active {
		if m.username == username {
			return m.peer, true
		}
	}
	return nil, false
}

// ActiveUsernames lists the usernames of all logged-in connections, in map
// iteration order.
func (r *Registry) ActiveUsernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.active))
	for _, m := range r.active {
		names = append(names, m.username)
	}
	return names
}

// EnsureRoom provisions empty membership and history for a room without
// persisting it anywhere. Idempotent.
func (r *Registry) EnsureRoom(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRoomLocked(name)
}

func (r *Registry) ensureRoomLocked(name string) {
	if _, ok := r.rooms[name]; !ok {
		r.rooms[name] = make(map[string]member)
	}
	if _, ok := r.roomHistory[name]; !ok {
		r.roomHistory[name] = &deque.Deque[string]{}
	}
}

// RoomKnown reports whether the room has been provisioned.
func (r *Registry) RoomKnown(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[name]
	return ok
}

// RoomNames lists every provisioned room. Order is not stable.
func (r *Registry) RoomNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.rooms))
	for name := range r.rooms {
		names = append(names, name)
	}
	return names
}

// JoinRoom adds the connection to the room's member set, provisioning the
// room on demand. The registry does not enforce one-room-per-connection;
// that invariant belongs to the session.
func (r *Registry) JoinRoom(room, connID string, peer Peer, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRoomLocked(room)
	r.rooms[room][connID] = member{username: username, peer: peer}
}

// LeaveRoom is a no-op when the connection is not a member.
func (r *Registry) LeaveRoom(room, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if members, ok := r.rooms[room]; ok {
		delete(members, connID)
	}
}

// RoomUsernames returns the usernames of the room's current members and
// whether the room is known at all.
func (r *Registry) RoomUsernames(room string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members, ok := r.rooms[room]
	if !ok {
		return nil, false
	}
	names := make([]string, 0, len(members))
	for _, m := range members {
		if m.username != "" {
			names = append(names, m.username)
		}
	}
	return names, true
}

// AppendRoomHistory appends a rendered message line to the room's bounded
// history, evicting the oldest entry when full.
func (r *Registry) AppendRoomHistory(room, line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureRoomLocked(room)
	appendBounded(r.roomHistory[room], line)
}

// RoomHistory returns a copy of the room's history, oldest first.
func (r *Registry) RoomHistory(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshotDeque(r.roomHistory[room])
}

// AppendDMHistory appends to the thread between two users. The thread key is
// order-independent: (a, b) and (b, a) share one history.
func (r *Registry) AppendDMHistory(userA, userB, line string) {
	key := dmKey(userA, userB)
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.dmHistory[key]
	if !ok {
		d = &deque.Deque[string]{}
		r.dmHistory[key] = d
	}
	appendBounded(d, line)
}

// DMHistory returns a copy of the thread between two users, oldest first.
func (r *Registry) DMHistory(userA, userB string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return snapshotDeque(r.dmHistory[dmKey(userA, userB)])
}

// Broadcast sends a rendered line to every current member of the room,
// best-effort: delivery failures are logged and skipped, never propagated.
// Membership is snapshotted once; joins and leaves during the send are not
// observed.
func (r *Registry) Broadcast(room, line string) {
	r.mu.RLock()
	members, ok := r.rooms[room]
	peers := make([]Peer, 0, len(members))
	if ok {
		for _, m := range members {
			peers = append(peers, m.peer)
		}
	}
	r.mu.RUnlock()

	for _, p := range peers {
		if !p.Send(line) {
			logrus.WithField("room", room).Debug("dropped broadcast to slow or closed peer")
		}
	}
}

func dmKey(userA, userB string) string {
	pair := []string{userA, userB}
	sort.Strings(pair)
	return pair[0] + ":" + pair[1]
}

func appendBounded(d *deque.Deque[string], line string) {
	for d.Len() >= HistoryLimit {
		d.PopFront()
	}
	d.PushBack(line)
}

func snapshotDeque(d *deque.Deque[string]) []string {
	if d == nil || d.Len() == 0 {
		return nil
	}
	out := make([]string, d.Len())
	for i := range out {
		out[i] = d.Item(i)
	}
	return out
}
