package store

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"chat-relay/internal/registry"
)

// DefaultRoom seeds a fresh room directory so a new deployment always has
// somewhere to talk.
const DefaultRoom = "general"

// Rooms is the durable set of explicitly-created room names. Joining an
// unlisted room is legal and provisions registry state without touching the
// directory; only Create writes to disk. That asymmetry is part of the
// client-visible contract.
type Rooms struct {
	mu   sync.Mutex
	path string
	reg  *registry.Registry
}

func NewRooms(path string, reg *registry.Registry) *Rooms {
	return &Rooms{path: path, reg: reg}
}

// Load reads the directory and provisions every listed room in the registry.
// A missing file is created with the default room. Load must complete before
// the listener starts accepting.
func (r *Rooms) Load() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		if err := os.WriteFile(r.path, []byte(DefaultRoom+"\n"), 0644); err != nil {
			return fmt.Errorf("seed room directory: %w", err)
		}
	}

	f, err := os.Open(r.path)
	if err != nil {
		return fmt.Errorf("open room directory: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			continue
		}
		r.reg.EnsureRoom(name)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read room directory: %w", err)
	}
	return nil
}

// Create durably adds a room name unless one already exists that matches
// case-insensitively, then provisions the room in the registry.
func (r *Rooms) Create(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	exists, err := r.nameTaken(name)
	if err != nil {
		return fmt.Errorf("scan room directory: %w", err)
	}
	if exists {
		return ErrRoomExists
	}

	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open room directory: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, name); err != nil {
		return fmt.Errorf("append room: %w", err)
	}

	r.reg.EnsureRoom(name)
	return nil
}

func (r *Rooms) nameTaken(name string) (bool, error) {
	f, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), name) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
