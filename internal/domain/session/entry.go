package session

import (
	stdsync "sync"
	"time"

	"go.uber.org/zap"

	"github.com/canvasmail/backend/internal/editor/capture"
	"github.com/canvasmail/backend/internal/editor/protocol"
	editorsync "github.com/canvasmail/backend/internal/editor/sync"
	"github.com/canvasmail/backend/internal/infrastructure/monitoring"
	"github.com/canvasmail/backend/internal/shared/id"
)

// Entry is one live editing session. The synchronizer holds the
// three-value document state; the capture engine backs the structured
// edit path (link overlay via REST) and mirrors the sandbox script.
type Entry struct {
	ID id.EditSessionID

	mu       stdsync.Mutex
	syncr    *editorsync.Synchronizer
	engine   *capture.Engine
	history  *History
	renders  chan protocol.Message
	debounce time.Duration
	logger   *zap.Logger
	metrics  *monitoring.Metrics
	closed   bool
}

// SetSource installs a new source fragment, renders a fresh sandbox
// document, restarts the capture engine over it, and notifies any
// attached sandbox via the render channel.
func (e *Entry) SetSource(sourceHTML string) (string, error) {
	doc, err := e.syncr.Stage(sourceHTML)
	if err != nil {
		return "", err
	}

	// Build the engine before committing, so a parse failure leaves
	// the previous source, document, and engine fully intact
	engine, err := capture.NewEngine(doc, capture.Options{Debounce: e.debounce})
	if err != nil {
		return "", err
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		engine.Close()
		return doc, nil
	}
	e.syncr.Install(sourceHTML, doc)
	old := e.engine
	e.engine = engine
	e.mu.Unlock()

	if old != nil {
		old.Close()
	}
	go e.pump(engine)

	e.metrics.RecordRender()
	e.notifyRender(protocol.Render(doc))
	return doc, nil
}

// Apply processes one raw frame from the sandbox transport
func (e *Entry) Apply(raw []byte) bool {
	msg, err := protocol.Decode(raw)
	if err != nil {
		e.syncr.Discard()
		e.metrics.RecordDiscard()
		e.logger.Debug("discarded malformed frame", zap.Error(err))
		return false
	}
	return e.applyMessage(msg)
}

func (e *Entry) applyMessage(msg protocol.Message) bool {
	applied := e.syncr.ApplyMessage(msg)
	if !applied {
		e.metrics.RecordDiscard()
		return false
	}

	e.metrics.RecordMessage(string(msg.Type))
	if msg.Type == protocol.TypeHTMLUpdate && msg.HTML != "" {
		if err := e.history.Push(msg.HTML); err != nil {
			e.logger.Warn("snapshot history push failed", zap.Error(err))
		}
	}
	return true
}

// pump forwards engine emissions into the synchronizer, exercising the
// same wire encoding the sandbox script uses.
func (e *Entry) pump(engine *capture.Engine) {
	for {
		select {
		case msg := <-engine.Out():
			raw, err := protocol.Encode(msg)
			if err != nil {
				continue
			}
			e.Apply(raw)
		case <-engine.Done():
			// Drain anything emitted before teardown
			for {
				select {
				case msg := <-engine.Out():
					e.applyMessage(msg)
				default:
					return
				}
			}
		}
	}
}

// EditLink applies the link overlay's save action server-side
func (e *Entry) EditLink(index int, text, href string) error {
	e.mu.Lock()
	engine := e.engine
	e.mu.Unlock()
	if engine == nil {
		return editorsync.ErrNoDocument
	}
	return engine.EditLink(index, text, href)
}

// Finalize mirrors focus loss for clients editing through REST
func (e *Entry) Finalize() {
	e.mu.Lock()
	engine := e.engine
	e.mu.Unlock()
	if engine != nil {
		engine.Blur()
	}
}

// Resolve returns the current authoritative HTML
func (e *Entry) Resolve() string {
	return e.syncr.ResolveBestHTML()
}

// State returns the synchronizer snapshot
func (e *Entry) State() editorsync.Snapshot {
	return e.syncr.State()
}

// Document returns the current sandbox document
func (e *Entry) Document() string {
	return e.syncr.Document()
}

// History returns the snapshot history
func (e *Entry) History() *History {
	return e.history
}

// Renders exposes host-to-sandbox render frames for the transport
func (e *Entry) Renders() <-chan protocol.Message {
	return e.renders
}

// Close stops the capture engine and any pending debounce timer
func (e *Entry) Close() {
	e.mu.Lock()
	e.closed = true
	engine := e.engine
	e.engine = nil
	e.mu.Unlock()

	if engine != nil {
		engine.Close()
	}
}

// notifyRender pushes a render frame, evicting the stale one if the
// transport is slow; only the latest document matters.
func (e *Entry) notifyRender(msg protocol.Message) {
	for {
		select {
		case e.renders <- msg:
			return
		default:
			select {
			case <-e.renders:
			default:
			}
		}
	}
}
