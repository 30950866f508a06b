package server

import (
	"io"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// wsStream adapts a WebSocket connection to the byte-stream interface
// the protocol runs over. Writes become binary messages; reads
// concatenate incoming binary messages back into one stream.
type wsStream struct {
	conn *websocket.Conn
	r    io.Reader
}

func (w *wsStream) Read(p []byte) (int, error) {
	for {
		if w.r == nil {
			_, r, err := w.conn.NextReader()
			if err != nil {
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return 0, io.EOF
				}
				return 0, err
			}
			w.r = r
		}
		n, err := w.r.Read(p)
		if err == io.EOF {
			w.r = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (w *wsStream) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsStream) Close() error {
	return w.conn.Close()
}

func (w *wsStream) SetWriteDeadline(t time.Time) error {
	return w.conn.SetWriteDeadline(t)
}

// WebSocketHandler returns an http.Handler that upgrades requests and
// runs the identical streaming protocol over the socket, so browser
// viewers receive the same byte stream as TCP clients.
func (s *Server) WebSocketHandler() http.Handler {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.log.Warn("websocket upgrade failed", "err", err)
			return
		}
		s.HandleConn(&wsStream{conn: conn})
	})
}
