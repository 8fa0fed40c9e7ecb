package ws

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/Relay/internal/domain"
)

type mockConn struct {
	mu       sync.Mutex
	received [][]byte
	sendErr  error
	closed   bool
}

func (m *mockConn) TrySend(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.received = append(m.received, data)
	return nil
}

func (m *mockConn) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}

func (m *mockConn) events(t *testing.T) []envelope {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]envelope, 0, len(m.received))
	for _, raw := range m.received {
		var env envelope
		require.NoError(t, json.Unmarshal(raw, &env))
		out = append(out, env)
	}
	return out
}

func TestHub_NotifyUnicast(t *testing.T) {
	h := NewHub()
	a, b := &mockConn{}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)

	h.Notify("a", "joinedRoom", "room1")

	got := a.events(t)
	require.Len(t, got, 1)
	assert.Equal(t, "joinedRoom", got[0].Event)
	assert.Equal(t, "room1", got[0].Data)
	assert.Empty(t, b.events(t))
}

func TestHub_NotifyUnknownConn(t *testing.T) {
	h := NewHub()
	// Must not panic or deliver anywhere.
	h.Notify("ghost", "error", "Room not found")
}

func TestHub_BroadcastToGroup(t *testing.T) {
	h := NewHub()
	a, b, c := &mockConn{}, &mockConn{}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.Register("c", c)
	h.JoinGroup("a", "room1")
	h.JoinGroup("b", "room1")
	h.JoinGroup("c", "room2")

	h.BroadcastToGroup("room1", "newMessage", map[string]string{"userId": "alice", "message": "hi"})

	require.Len(t, a.events(t), 1)
	require.Len(t, b.events(t), 1)
	assert.Empty(t, c.events(t), "no cross-room broadcast")
}

func TestHub_BroadcastToGroupExclude(t *testing.T) {
	h := NewHub()
	a, b := &mockConn{}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.JoinGroup("a", "room1")
	h.JoinGroup("b", "room1")

	h.BroadcastToGroup("room1", "userJoined", "bob has joined the room", domain.ClientID("b"))

	require.Len(t, a.events(t), 1)
	assert.Empty(t, b.events(t))
}

func TestHub_BroadcastToAll(t *testing.T) {
	h := NewHub()
	a, b := &mockConn{}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.JoinGroup("a", "room1")

	h.BroadcastToAll("rooms", []string{"room1"})

	require.Len(t, a.events(t), 1)
	require.Len(t, b.events(t), 1, "room membership is irrelevant for broadcastToAll")
}

func TestHub_UnregisterLeavesAllGroups(t *testing.T) {
	h := NewHub()
	a, b := &mockConn{}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.JoinGroup("a", "room1")
	h.JoinGroup("a", "room2")
	h.JoinGroup("b", "room1")

	h.Unregister("a")

	h.BroadcastToGroup("room1", "totalUsers", nil)
	h.BroadcastToGroup("room2", "totalUsers", nil)
	h.BroadcastToAll("rooms", nil)

	assert.Empty(t, a.events(t))
	require.Len(t, b.events(t), 2)
}

func TestHub_DropGroup(t *testing.T) {
	h := NewHub()
	a := &mockConn{}
	h.Register("a", a)
	h.JoinGroup("a", "room1")

	h.DropGroup("room1")
	h.BroadcastToGroup("room1", "totalUsers", nil)

	assert.Empty(t, a.events(t))
}

func TestHub_BackpressureDropsFrame(t *testing.T) {
	h := NewHub()
	a, b := &mockConn{sendErr: ErrBackpressure}, &mockConn{}
	h.Register("a", a)
	h.Register("b", b)
	h.JoinGroup("a", "room1")
	h.JoinGroup("b", "room1")

	// A slow consumer never blocks delivery to the rest of the group.
	h.BroadcastToGroup("room1", "newMessage", "hi")

	require.Len(t, b.events(t), 1)
}

func TestEnvelope_WireShape(t *testing.T) {
	h := NewHub()
	a := &mockConn{}
	h.Register("a", a)

	h.Notify("a", "newMessage", map[string]string{"userId": "alice", "message": "hello"})

	a.mu.Lock()
	raw := a.received[0]
	a.mu.Unlock()
	assert.JSONEq(t, `{"event":"newMessage","data":{"userId":"alice","message":"hello"}}`, string(raw))
}
