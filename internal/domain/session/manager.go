// Package session owns the live editing sessions: one synchronizer and
// capture engine pair per open editor, keyed by a prefixed ULID.
package session

import (
	stdsync "sync"

	"go.uber.org/zap"

	"github.com/canvasmail/backend/internal/editor/protocol"
	"github.com/canvasmail/backend/internal/editor/render"
	editorsync "github.com/canvasmail/backend/internal/editor/sync"
	"github.com/canvasmail/backend/internal/infrastructure/config"
	"github.com/canvasmail/backend/internal/infrastructure/logging"
	"github.com/canvasmail/backend/internal/infrastructure/monitoring"
	"github.com/canvasmail/backend/internal/shared/id"
)

// Manager tracks open editing sessions
type Manager struct {
	sessions stdsync.Map
	cfg      config.EditorConfig
	logger   *logging.Logger
	metrics  *monitoring.Metrics
}

// NewManager creates a session manager
func NewManager(cfg config.EditorConfig, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{cfg: cfg, logger: logger}
}

// WithMetrics attaches Prometheus metrics
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Create opens a new editing session
func (m *Manager) Create() *Entry {
	sessionID := id.NewEditSessionID()

	entry := &Entry{
		ID: sessionID,
		syncr: editorsync.New(render.New(render.Options{
			HintDuration:       m.cfg.HintDuration,
			LongPressThreshold: m.cfg.LongPressThreshold,
			DebounceWindow:     m.cfg.DebounceWindow,
		})),
		history:  NewHistory(m.cfg.HistoryDepth),
		renders:  make(chan protocol.Message, 4),
		debounce: m.cfg.DebounceWindow,
		logger:   m.logger.With(zap.String("session_id", sessionID.String())),
		metrics:  m.metrics,
	}

	m.sessions.Store(sessionID.String(), entry)
	m.metrics.SessionOpened()
	m.logger.Info("editor session created", zap.String("session_id", sessionID.String()))
	return entry
}

// Get looks up an open session
func (m *Manager) Get(sessionID string) (*Entry, bool) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, false
	}
	return value.(*Entry), true
}

// Close tears a session down, stopping its capture engine
func (m *Manager) Close(sessionID string) bool {
	value, ok := m.sessions.LoadAndDelete(sessionID)
	if !ok {
		return false
	}

	value.(*Entry).Close()
	m.metrics.SessionClosed()
	m.logger.Info("editor session closed", zap.String("session_id", sessionID))
	return true
}

// Count reports the number of open sessions
func (m *Manager) Count() int {
	count := 0
	m.sessions.Range(func(_, _ interface{}) bool {
		count++
		return true
	})
	return count
}
