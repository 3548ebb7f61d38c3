package bridge

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/qiki-dtmp/core/internal/qlog"
)

// wireMessage is the envelope every websocket client receives: which
// subject the payload came from, plus the raw re-published bytes.
type wireMessage struct {
	Subject string          `json:"subject"`
	Payload json.RawMessage `json:"payload"`
}

// WSSink is a Sink that fans every published payload out to every
// connected websocket client (spec.md §4.5's UI-facing fan-out side of
// the bridge). One goroutine reads (and discards) client frames only to
// detect disconnects; clients are expected to be receive-only.
type WSSink struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

// NewWSSink constructs an empty WSSink.
func NewWSSink() *WSSink {
	return &WSSink{clients: make(map[*websocket.Conn]struct{})}
}

// HandleWS upgrades the request to a websocket connection and registers
// it as a fan-out target until the client disconnects.
func (s *WSSink) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		qlog.Get().Warn().Err(err).Msg("bridge: websocket accept failed")
		return
	}

	s.mu.Lock()
	s.clients[conn] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
		conn.CloseNow()
	}()

	ctx := r.Context()
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Publish implements Sink by writing a wireMessage to every connected
// client. A client whose write fails is dropped on its own read loop,
// not here. Writes go to one client after another with no write
// deadline, so a slow client delays delivery to the clients after it.
func (s *WSSink) Publish(subject string, payload []byte) {
	msg, err := json.Marshal(wireMessage{Subject: subject, Payload: payload})
	if err != nil {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for conn := range s.clients {
		_ = conn.Write(context.Background(), websocket.MessageText, msg)
	}
}

// ClientCount reports the number of currently connected websocket
// clients, for operability endpoints.
func (s *WSSink) ClientCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}
