// Package ws bridges sandbox webviews to their editing sessions over a
// websocket. Client frames are applied in receipt order; render frames
// flow the other way whenever the source document changes.
package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/canvasmail/backend/internal/domain/session"
	"github.com/canvasmail/backend/internal/editor/protocol"
	"github.com/canvasmail/backend/internal/infrastructure/logging"
	"github.com/canvasmail/backend/internal/infrastructure/monitoring"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Dashboard webviews connect from app-local origins
		return true
	},
}

// Handler manages sandbox websocket connections
type Handler struct {
	sessions *session.Manager
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewHandler creates a websocket handler
func NewHandler(sessions *session.Manager, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{sessions: sessions, logger: logger}
}

// WithMetrics attaches Prometheus metrics
func (h *Handler) WithMetrics(metrics *monitoring.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleConnection upgrades and services one sandbox connection
func (h *Handler) HandleConnection(c *gin.Context) {
	sessionID := c.Param("id")
	entry, ok := h.sessions.Get(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.WSConnections.Inc()
		defer h.metrics.WSConnections.Dec()
	}
	h.logger.Info("sandbox connected", zap.String("session_id", sessionID))

	// Writes come from two goroutines: render pushes and read-loop acks
	var writeMu sync.Mutex
	send := func(msg protocol.Message) error {
		raw, err := protocol.Encode(msg)
		if err != nil {
			return err
		}
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteMessage(websocket.TextMessage, raw)
	}

	// Replay the current document so a reconnecting sandbox catches up
	if doc := entry.Document(); doc != "" {
		if err := send(protocol.Render(doc)); err != nil {
			h.logger.Warn("initial render push failed", zap.String("session_id", sessionID), zap.Error(err))
			return
		}
	}

	stop := make(chan struct{})
	defer close(stop)

	go func() {
		for {
			select {
			case msg := <-entry.Renders():
				if err := send(msg); err != nil {
					return
				}
			case <-stop:
				return
			}
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			h.logger.Info("sandbox disconnected", zap.String("session_id", sessionID))
			return
		}
		// Malformed frames are counted and dropped inside the entry;
		// nothing here may crash the connection
		entry.Apply(raw)
	}
}
