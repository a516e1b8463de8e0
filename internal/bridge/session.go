package bridge

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// writeWait bounds a single frame write on the wire.
const writeWait = 10 * time.Second

// session is one attached UI connection. Writes are serialized through the
// send queue and its writer goroutine; gorilla connections permit a single
// concurrent writer.
type session struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	done chan struct{}

	closeOnce sync.Once
}

func newSession(id string, conn *websocket.Conn) *session {
	return &session{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendQueueLen),
		done: make(chan struct{}),
	}
}

// writeLoop drains the send queue onto the wire until the session closes or
// a write fails.
func (s *session) writeLoop() {
	for {
		select {
		case data := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-s.done:
			return
		}
	}
}

// enqueue queues a frame, giving up when the session closes first.
func (s *session) enqueue(data []byte) {
	select {
	case s.send <- data:
	case <-s.done:
	}
}

// tryEnqueue queues a frame without blocking.
func (s *session) tryEnqueue(data []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.send <- data:
		return true
	default:
		return false
	}
}

// close tears the connection down. Safe to call more than once.
func (s *session) close() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.conn.Close()
	})
}
