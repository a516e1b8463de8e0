package host

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"
)

// InstanceGuard enforces the single-instance policy. The first process to
// acquire it becomes the primary; later processes forward their launch URLs
// to it and exit instead of starting a second host.
type InstanceGuard interface {
	// Acquire reports whether this process is the primary instance.
	Acquire(ctx context.Context) (primary bool, err error)
	// Forward hands launch URLs to the primary. Only meaningful on
	// secondaries.
	Forward(ctx context.Context, urls []string) error
	// Notifications delivers URL batches forwarded by secondary launches.
	// Only the primary receives.
	Notifications() <-chan []string
	Close() error
}

const guardDialTimeout = 250 * time.Millisecond

// launchFrame is the JSON line a secondary writes to the primary.
type launchFrame struct {
	URLs []string `json:"urls"`
}

// guardListener is the shared accept loop over whichever transport the
// platform guard established.
type guardListener struct {
	ln     net.Listener
	ch     chan []string
	closed chan struct{}
	once   sync.Once
}

func newGuardListener(ln net.Listener) *guardListener {
	g := &guardListener{
		ln:     ln,
		ch:     make(chan []string, 8),
		closed: make(chan struct{}),
	}
	go g.acceptLoop()
	return g
}

func (g *guardListener) acceptLoop() {
	for {
		conn, err := g.ln.Accept()
		if err != nil {
			return
		}
		go g.serveConn(conn)
	}
}

func (g *guardListener) serveConn(conn net.Conn) {
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var frame launchFrame
	if err := json.NewDecoder(conn).Decode(&frame); err != nil {
		return
	}
	select {
	case g.ch <- frame.URLs:
	case <-g.closed:
	default:
		// A burst of relaunches beyond the buffer is indistinguishable from
		// one; drop the batch.
	}
}

func (g *guardListener) close() {
	g.once.Do(func() {
		close(g.closed)
		g.ln.Close()
	})
}

// forwardTo writes one launch frame to an established guard connection.
func forwardTo(conn net.Conn, urls []string) error {
	defer conn.Close()
	conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	return json.NewEncoder(conn).Encode(launchFrame{URLs: urls})
}
