package server

import (
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport carries the game byte stream inside binary WebSocket
// messages. Message boundaries carry no meaning: frames may span messages
// and a message may hold several frames.
type WebSocketTransport struct {
	conn   *websocket.Conn
	reader io.Reader
	wmu    sync.Mutex
}

// NewWebSocketTransport wraps an upgraded connection.
func NewWebSocketTransport(conn *websocket.Conn) *WebSocketTransport {
	return &WebSocketTransport{conn: conn}
}

// Read reads from the current binary message, advancing to the next one
// when it is exhausted. Text messages are skipped.
func (t *WebSocketTransport) Read(p []byte) (int, error) {
	for {
		if t.reader == nil {
			kind, r, err := t.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			if kind != websocket.BinaryMessage {
				continue
			}
			t.reader = r
		}
		n, err := t.reader.Read(p)
		if err == io.EOF {
			t.reader = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// Write sends p as one binary message.
func (t *WebSocketTransport) Write(p []byte) (int, error) {
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if err := t.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Close closes the underlying connection.
func (t *WebSocketTransport) Close() error {
	return t.conn.Close()
}

// SetReadDeadline sets the read deadline on the underlying connection.
func (t *WebSocketTransport) SetReadDeadline(d time.Time) error {
	return t.conn.SetReadDeadline(d)
}

// SetWriteDeadline sets the write deadline on the underlying connection.
func (t *WebSocketTransport) SetWriteDeadline(d time.Time) error {
	return t.conn.SetWriteDeadline(d)
}

// RemoteAddr returns the peer address.
func (t *WebSocketTransport) RemoteAddr() net.Addr {
	return t.conn.RemoteAddr()
}

// WebSocketHandler returns an http.Handler serving the game protocol over
// WebSocket. The handler blocks for the lifetime of the session.
func (s *Server) WebSocketHandler() http.Handler {
	return http.HandlerFunc(s.HandleWebSocket)
}

// HandleWebSocket upgrades the request and serves a session over it.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !s.track() {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.conns.Done()

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	s.serveConn(r.Context(), NewWebSocketTransport(conn))
}
