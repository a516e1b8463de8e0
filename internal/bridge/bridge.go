// Package bridge implements the WebSocket IPC channel between the host and
// the application UI. The UI invokes plugin commands over it and receives
// host events pushed back.
//
// Frames are JSON. A request carries an id, a qualified command, and raw
// arguments; the reply mirrors the id with either data or an error string.
// Event frames have no id and fan out to every attached session.
package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hullshell/hull/internal/ctxlog"
)

const (
	// maxFrameBytes bounds a single inbound frame.
	maxFrameBytes = 1 << 20
	// sendQueueLen bounds the per-session outbound queue. Sessions that fall
	// this far behind are dropped rather than allowed to stall the host.
	sendQueueLen = 64
)

// Dispatcher executes a qualified "plugin.command" invocation.
type Dispatcher interface {
	Dispatch(ctx context.Context, id string, args json.RawMessage) (any, error)
}

// request is one invoke frame from the UI.
type request struct {
	ID   int64           `json:"id"`
	Cmd  string          `json:"cmd"`
	Args json.RawMessage `json:"args,omitempty"`
}

// response answers one request.
type response struct {
	ID    int64  `json:"id"`
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// eventFrame is a host-to-UI push. It carries no id.
type eventFrame struct {
	Event   string `json:"event"`
	Payload any    `json:"payload,omitempty"`
}

// Server accepts UI sessions and shuttles frames between them and the
// dispatcher. It implements http.Handler for mounting on the UI mux.
type Server struct {
	ctx      context.Context
	token    string
	dispatch Dispatcher
	upgrader websocket.Upgrader

	mu       sync.Mutex
	sessions map[string]*session
	closed   bool
}

// New creates a bridge server. The context bounds dispatch calls and is the
// source of the logger; token gates the handshake.
func New(ctx context.Context, token string, d Dispatcher) *Server {
	s := &Server{
		ctx:      ctx,
		token:    token,
		dispatch: d,
		sessions: make(map[string]*session),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		// The UI is served from this host; anything else gets refused. An
		// absent Origin (non-browser client) is accepted, the token still
		// gates it.
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || origin == "http://"+r.Host
		},
	}
	return s
}

// ServeHTTP upgrades one UI session and serves it until either side closes.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(s.ctx)
	if r.URL.Query().Get("token") != s.token {
		logger.Warn("Bridge handshake rejected: bad token.", "remote", r.RemoteAddr)
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Bridge upgrade failed.", "error", err)
		return
	}

	sess := newSession(uuid.NewString(), conn)
	if !s.add(sess) {
		conn.Close()
		return
	}
	logger.Debug("Bridge session attached.", "session", sess.id, "remote", r.RemoteAddr)

	go sess.writeLoop()
	s.readLoop(sess)

	s.remove(sess.id)
	sess.close()
	logger.Debug("Bridge session detached.", "session", sess.id)
}

// readLoop consumes request frames until the connection dies.
func (s *Server) readLoop(sess *session) {
	sess.conn.SetReadLimit(maxFrameBytes)
	for {
		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			return
		}
		var req request
		if err := json.Unmarshal(data, &req); err != nil {
			sess.enqueue(mustMarshal(response{ID: req.ID, OK: false, Error: "malformed request frame"}))
			continue
		}
		// Dispatch off the read loop so a slow command cannot block
		// subsequent requests on the same session.
		go s.invoke(sess, req)
	}
}

func (s *Server) invoke(sess *session, req request) {
	data, err := s.dispatch.Dispatch(s.ctx, req.Cmd, req.Args)
	resp := response{ID: req.ID, OK: err == nil, Data: data}
	if err != nil {
		resp.Data = nil
		resp.Error = err.Error()
	}
	payload, merr := json.Marshal(resp)
	if merr != nil {
		ctxlog.FromContext(s.ctx).Error("Bridge response not marshalable.", "cmd", req.Cmd, "error", merr)
		payload = mustMarshal(response{ID: req.ID, OK: false, Error: "unencodable response"})
	}
	sess.enqueue(payload)
}

// Broadcast pushes a named event to every attached session. Sessions whose
// queues are full are closed and dropped.
func (s *Server) Broadcast(name string, payload any) error {
	data, err := json.Marshal(eventFrame{Event: name, Payload: payload})
	if err != nil {
		return err
	}

	s.mu.Lock()
	stale := make([]*session, 0)
	for _, sess := range s.sessions {
		if !sess.tryEnqueue(data) {
			stale = append(stale, sess)
		}
	}
	for _, sess := range stale {
		delete(s.sessions, sess.id)
	}
	s.mu.Unlock()

	for _, sess := range stale {
		ctxlog.FromContext(s.ctx).Warn("Dropping stalled bridge session.", "session", sess.id)
		sess.close()
	}
	return nil
}

// SessionCount reports the number of attached sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close detaches every session and refuses new ones.
func (s *Server) Close() error {
	s.mu.Lock()
	s.closed = true
	sessions := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		sessions = append(sessions, sess)
	}
	s.sessions = make(map[string]*session)
	s.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
	return nil
}

func (s *Server) add(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.sessions[sess.id] = sess
	return true
}

func (s *Server) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

func mustMarshal(v any) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}
