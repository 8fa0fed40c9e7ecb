package ws

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSocket scripts a WSConn: reads come from a channel, writes are
// recorded.
type fakeSocket struct {
	reads chan []byte

	mu      sync.Mutex
	written [][]byte
	pings   int
	closed  bool
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{reads: make(chan []byte, 16)}
}

func (f *fakeSocket) ReadMessage() (int, []byte, error) {
	data, ok := <-f.reads
	if !ok {
		return 0, nil, errors.New("connection reset")
	}
	return 1, data, nil
}

func (f *fakeSocket) WriteMessage(mt int, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mt == 9 { // websocket.PingMessage
		f.pings++
		return nil
	}
	f.written = append(f.written, data)
	return nil
}

func (f *fakeSocket) SetReadLimit(int64)               {}
func (f *fakeSocket) SetReadDeadline(time.Time) error  { return nil }
func (f *fakeSocket) SetWriteDeadline(time.Time) error { return nil }
func (f *fakeSocket) SetPongHandler(func(string) error) {}

func (f *fakeSocket) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSocket) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.written)
}

func TestChatConn_TrySendBackpressure(t *testing.T) {
	c := newChatConn(newFakeSocket())

	// Nothing drains the queue, so it eventually refuses.
	for i := 0; i < cap(c.send); i++ {
		require.NoError(t, c.TrySend([]byte("x")))
	}
	assert.ErrorIs(t, c.TrySend([]byte("x")), ErrBackpressure)
}

func TestChatConn_CloseIdempotent(t *testing.T) {
	sock := newFakeSocket()
	c := newChatConn(sock)

	c.Close()
	c.Close()

	assert.True(t, sock.closed)
	assert.ErrorIs(t, c.TrySend([]byte("x")), ErrConnClosed)
}
