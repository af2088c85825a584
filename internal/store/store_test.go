package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chat-relay/internal/registry"
)

func tempPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}

func TestRegisterAndValidate(t *testing.T) {
	users := NewUsers(tempPath(t, "users.txt"))

	require.NoError(t, users.Register("alice", "p1"))
	require.NoError(t, users.Register("bob", "p2"))

	assert.True(t, users.Validate("alice", "p1"))
	assert.True(t, users.Validate("bob", "p2"))
	assert.False(t, users.Validate("alice", "wrong"))
	assert.False(t, users.Validate("carol", "p1"))
}

func TestRegisterDuplicateLeavesOneRecord(t *testing.T) {
	path := tempPath(t, "users.txt")
	users := NewUsers(path)

	require.NoError(t, users.Register("alice", "p1"))
	err := users.Register("alice", "p2")
	assert.ErrorIs(t, err, ErrUserExists)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	count := 0
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "alice:") {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.True(t, users.Validate("alice", "p1"), "first registration wins")
	assert.False(t, users.Validate("alice", "p2"))
}

func TestValidateMissingStore(t *testing.T) {
	users := NewUsers(tempPath(t, "users.txt"))
	assert.False(t, users.Validate("alice", "p1"))
}

func TestCredentialFileFormat(t *testing.T) {
	path := tempPath(t, "users.txt")
	users := NewUsers(path)
	require.NoError(t, users.Register("alice", "p1"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "alice:p1\n", string(data))
}

func TestRoomsLoadSeedsDefault(t *testing.T) {
	path := tempPath(t, "rooms.txt")
	reg := registry.New()
	rooms := NewRooms(path, reg)

	require.NoError(t, rooms.Load())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom+"\n", string(data))
	assert.True(t, reg.RoomKnown(DefaultRoom))
}

func TestRoomsLoadProvisionsExisting(t *testing.T) {
	path := tempPath(t, "rooms.txt")
	require.NoError(t, os.WriteFile(path, []byte("general\ndev\n"), 0644))

	reg := registry.New()
	require.NoError(t, NewRooms(path, reg).Load())

	assert.True(t, reg.RoomKnown("general"))
	assert.True(t, reg.RoomKnown("dev"))
}

func TestRoomCreate(t *testing.T) {
	path := tempPath(t, "rooms.txt")
	reg := registry.New()
	rooms := NewRooms(path, reg)
	require.NoError(t, rooms.Load())

	require.NoError(t, rooms.Create("dev"))
	assert.True(t, reg.RoomKnown("dev"))

	assert.ErrorIs(t, rooms.Create("dev"), ErrRoomExists)
	assert.ErrorIs(t, rooms.Create("DEV"), ErrRoomExists, "uniqueness is case-insensitive")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoom+"\ndev\n", string(data))
}
