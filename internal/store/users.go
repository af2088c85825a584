// Package store implements the two durable line-oriented stores behind the
// relay: the credential file (one "username:secret" per line) and the room
// directory (one room name per line). Secrets are stored in plaintext; this
// matches the documented contract and is a known weakness, not an oversight.
package store

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	ErrUserExists = errors.New("user already exists")
	ErrRoomExists = errors.New("room already exists")
)

// Users is the durable username -> secret mapping. Registrations are
// first-wins; records are never updated or deleted.
type Users struct {
	mu   sync.Mutex
	path string
}

func NewUsers(path string) *Users {
	return &Users{path: path}
}

// Register durably appends the pair unless a record for username already
// exists. The whole check-then-append runs under one lock so two concurrent
// registrations for the same name cannot both succeed. I/O failures are
// returned wrapped; the caller treats them as a failed registration.
func (u *Users) Register(username, secret string) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	taken, err := u.usernameTaken(username)
	if err != nil {
		return fmt.Errorf("scan credential store: %w", err)
	}
	if taken {
		return ErrUserExists
	}

	f, err := os.OpenFile(u.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open credential store: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%s:%s\n", username, secret); err != nil {
		return fmt.Errorf("append credential: %w", err)
	}
	return nil
}

// Validate reports whether an exact (username, secret) record exists. Read
// failures are logged and count as no match.
func (u *Users) Validate(username, secret string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	f, err := os.Open(u.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logrus.WithError(err).Error("failed to open credential store")
		}
		return false
	}
	defer f.Close()

	want := username + ":" + secret
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if scanner.Text() == want {
			return true
		}
	}
	if err := scanner.Err(); err != nil {
		logrus.WithError(err).Error("failed to read credential store")
	}
	return false
}

func (u *Users) usernameTaken(username string) (bool, error) {
	f, err := os.Open(u.path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	defer f.Close()

	prefix := username + ":"
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if strings.HasPrefix(scanner.Text(), prefix) {
			return true, nil
		}
	}
	return false, scanner.Err()
}
