// Package capture models the sandbox-side editing pipeline: it owns the
// live editable document, coalesces edit bursts behind a debounce
// timer, and reports cleaned snapshots to the host over a FIFO channel.
//
// Inside a real webview the same contract is fulfilled by the injected
// capture script; this engine backs the structured-edit REST path (the
// link overlay) and keeps the protocol testable without a browser.
package capture

import (
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/canvasmail/backend/internal/editor/htmlutil"
	"github.com/canvasmail/backend/internal/editor/protocol"
)

// DefaultDebounce matches the capture script shipped in the sandbox
const DefaultDebounce = 300 * time.Millisecond

const defaultBuffer = 64

// Options configures an Engine
type Options struct {
	// Debounce is the quiet period before an edit burst is reported
	Debounce time.Duration
	// Buffer is the outbound channel capacity
	Buffer int
}

// Engine observes edits to a sandbox document and emits protocol
// messages. All exported methods are safe for concurrent use.
type Engine struct {
	mu       sync.Mutex
	doc      *goquery.Document
	timer    *time.Timer
	debounce time.Duration
	out      chan protocol.Message
	done     chan struct{}
	closed   bool
	dropped  uint64
}

// NewEngine parses the rendered sandbox document and starts observing
func NewEngine(document string, opts Options) (*Engine, error) {
	doc, err := htmlutil.Load(document)
	if err != nil {
		return nil, fmt.Errorf("parse sandbox document: %w", err)
	}

	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Buffer <= 0 {
		opts.Buffer = defaultBuffer
	}

	return &Engine{
		doc:      doc,
		debounce: opts.Debounce,
		out:      make(chan protocol.Message, opts.Buffer),
		done:     make(chan struct{}),
	}, nil
}

// Out returns the sandbox-to-host message channel. Messages are
// delivered in emission order.
func (e *Engine) Out() <-chan protocol.Message {
	return e.out
}

// Done is closed when the engine is torn down
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Input applies a user edit to the live document and restarts the
// debounce timer. The serialized update is emitted once the burst
// settles.
func (e *Engine) Input(mutate func(doc *goquery.Document)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	mutate(e.doc)

	if e.timer != nil {
		e.timer.Stop()
	}
	e.timer = time.AfterFunc(e.debounce, e.flush)
}

// Blur finalizes the current edit: any pending debounce is cancelled,
// the cleaned state is emitted immediately, then editingDone follows.
func (e *Engine) Blur() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}

	e.emitLocked(protocol.HTMLUpdate(e.serializeLocked()))
	e.emitLocked(protocol.EditingDone())
}

// EditLink rewrites the nth link-edit target. Text always applies;
// href only on anchors. The update is emitted immediately, matching
// the overlay's save action.
func (e *Engine) EditLink(index int, text, href string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("engine closed")
	}

	target := e.doc.Find("[" + attrLink + "]").Eq(index)
	if target.Length() == 0 {
		return fmt.Errorf("no link target at index %d", index)
	}

	target.SetText(text)
	if goquery.NodeName(target) == "a" {
		target.SetAttr("href", href)
	}

	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.emitLocked(protocol.HTMLUpdate(e.serializeLocked()))
	return nil
}

// Snapshot returns the current cleaned serialization without emitting
func (e *Engine) Snapshot() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.serializeLocked()
}

// Dropped reports frames discarded because the outbound buffer was
// full. Frames carry full document state, so a later update supersedes
// anything dropped.
func (e *Engine) Dropped() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dropped
}

// Close stops the debounce timer and tears the engine down. No
// messages are emitted after Close returns.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	close(e.done)
}

// flush runs on timer expiry
func (e *Engine) flush() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.timer = nil
	e.emitLocked(protocol.HTMLUpdate(e.serializeLocked()))
}

func (e *Engine) emitLocked(msg protocol.Message) {
	select {
	case e.out <- msg:
	default:
		e.dropped++
	}
}
