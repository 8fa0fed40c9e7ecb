package ws

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// WSConn is an indirection over *websocket.Conn to ease testing.
type WSConn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(mt int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(string) error)
	Close() error
}

// ChatConn is the transport endpoint the hub stores and fans out to.
type ChatConn interface {
	TrySend(data []byte) error
	Close()
}

// wsChatConn wraps a WebSocket connection with a buffered outbound
// queue. Sends never block; a full queue drops the frame.
type wsChatConn struct {
	conn WSConn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func newChatConn(conn WSConn) *wsChatConn {
	return &wsChatConn{
		conn: conn,
		send: make(chan []byte, 32),
	}
}

func (c *wsChatConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsChatConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}
