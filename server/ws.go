package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"wastewatch/logger"
)

const (
	wsReadLimit   = 20 * 1024 * 1024
	wsIdleTimeout = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type wsSession struct {
	id         string
	conn       *websocket.Conn
	lastActive time.Time
	mu         sync.Mutex
	closeOnce  sync.Once
	done       chan struct{}
}

func (ws *wsSession) touch() {
	ws.mu.Lock()
	ws.lastActive = time.Now()
	ws.mu.Unlock()
}

func (ws *wsSession) idle() time.Duration {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return time.Since(ws.lastActive)
}

func (ws *wsSession) close(code int, reason string) {
	ws.closeOnce.Do(func() {
		_ = ws.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(code, reason))
		_ = ws.conn.Close()
		close(ws.done)
	})
}

// handleWS streams frames over one websocket connection: each text
// message is a base64-encoded frame, each reply the JSON analysis.
// Idle sessions are closed so an abandoned client cannot pin a worker.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	sess := &wsSession{
		id:         uuid.NewString(),
		conn:       conn,
		lastActive: time.Now(),
		done:       make(chan struct{}),
	}
	conn.SetReadLimit(wsReadLimit)
	logger.S().Infow("ws session opened", "session", sess.id)

	go func() {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-sess.done:
				return
			case <-ticker.C:
				if sess.idle() > wsIdleTimeout {
					logger.S().Infow("ws session idle, closing", "session", sess.id)
					sess.close(websocket.CloseNormalClosure, "idle timeout")
					return
				}
			}
		}
	}()

	for {
		mt, msg, err := conn.ReadMessage()
		if err != nil {
			logger.S().Infow("ws session closed", "session", sess.id, "error", err)
			sess.close(websocket.CloseNormalClosure, "bye")
			return
		}
		sess.touch()
		if mt != websocket.TextMessage {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unsupported message type"}`))
			continue
		}
		image, err := decodeBase64Image(string(msg))
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": "invalid image: " + err.Error()})
			continue
		}
		out, err := s.analyze(c.Request.Context(), image, s.bin)
		if err != nil {
			_ = conn.WriteJSON(gin.H{"error": err.Error()})
			continue
		}
		_ = conn.WriteJSON(out)
	}
}
