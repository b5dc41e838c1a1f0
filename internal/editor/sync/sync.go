// Package sync implements the host side of the editable preview
// protocol: the three-value document state, the editing phase machine,
// and the resolve rule that picks the authoritative HTML.
package sync

import (
	"errors"
	"sync"

	"github.com/canvasmail/backend/internal/editor/protocol"
	"github.com/canvasmail/backend/internal/editor/render"
)

// ErrNoDocument marks operations that need a rendered sandbox first
var ErrNoDocument = errors.New("no document rendered")

// Phase tracks where an editing session is in its lifecycle
type Phase int

const (
	// PhaseEmpty means no source document has been set
	PhaseEmpty Phase = iota
	// PhaseRendered means a sandbox document exists and is untouched
	PhaseRendered
	// PhaseEditing means at least one update arrived since the last render
	PhaseEditing
	// PhaseFinalized means the latest working value has been committed
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseRendered:
		return "rendered"
	case PhaseEditing:
		return "editing"
	case PhaseFinalized:
		return "finalized"
	default:
		return "unknown"
	}
}

// Snapshot is a read-only view of the synchronizer state
type Snapshot struct {
	Phase     Phase
	Source    string
	Working   string
	Committed string
}

// Synchronizer owns the document state for one editing session.
// Messages never trigger a re-render; only SetSource does. All methods
// are safe for concurrent use: the websocket reader is the single
// message writer, HTTP handlers are readers.
type Synchronizer struct {
	mu        sync.Mutex
	renderer  *render.Renderer
	phase     Phase
	source    string
	working   string
	committed string
	document  string
	renders   uint64
	discarded uint64
}

// New creates a synchronizer in the empty phase
func New(renderer *render.Renderer) *Synchronizer {
	return &Synchronizer{renderer: renderer}
}

// SetSource installs a freshly generated or loaded fragment. This is
// the only operation that produces a new sandbox document; working and
// committed values reset so stale edits never outlive their source.
func (s *Synchronizer) SetSource(sourceHTML string) (string, error) {
	doc, err := s.Stage(sourceHTML)
	if err != nil {
		return "", err
	}
	s.Install(sourceHTML, doc)
	return doc, nil
}

// Stage renders a candidate fragment without touching state, so a
// caller can build machinery over the document and only commit once
// everything downstream succeeded.
func (s *Synchronizer) Stage(sourceHTML string) (string, error) {
	return s.renderer.Render(sourceHTML)
}

// Install commits a staged source and its rendered document, resetting
// working and committed values.
func (s *Synchronizer) Install(sourceHTML, doc string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = sourceHTML
	s.working = ""
	s.committed = ""
	s.document = doc
	s.phase = PhaseRendered
	s.renders++
}

// Reset clears all state back to the empty phase
func (s *Synchronizer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.source = ""
	s.working = ""
	s.committed = ""
	s.document = ""
	s.phase = PhaseEmpty
}

// Apply processes one raw frame from the sandbox. Malformed frames and
// frames arriving before any render are discarded without touching
// state; the method never returns an error because no frame is fatal.
// The bool reports whether the frame changed state.
func (s *Synchronizer) Apply(raw []byte) bool {
	msg, err := protocol.Decode(raw)
	if err != nil {
		s.mu.Lock()
		s.discarded++
		s.mu.Unlock()
		return false
	}
	return s.ApplyMessage(msg)
}

// ApplyMessage processes an already-decoded frame
func (s *Synchronizer) ApplyMessage(msg protocol.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == PhaseEmpty {
		// No sandbox exists; anything arriving is a stale echo
		s.discarded++
		return false
	}

	switch msg.Type {
	case protocol.TypeHTMLUpdate:
		s.working = msg.HTML
		s.phase = PhaseEditing
		return true
	case protocol.TypeEditingDone:
		if s.working != "" {
			s.committed = s.working
		}
		s.phase = PhaseFinalized
		return true
	default:
		s.discarded++
		return false
	}
}

// Discard records an externally detected malformed frame
func (s *Synchronizer) Discard() {
	s.mu.Lock()
	s.discarded++
	s.mu.Unlock()
}

// ResolveBestHTML returns the current authoritative content: unsaved
// keystrokes beat the committed value, which beats the generated
// source.
func (s *Synchronizer) ResolveBestHTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.working != "" {
		return s.working
	}
	if s.committed != "" {
		return s.committed
	}
	return s.source
}

// Document returns the current sandbox document, empty before any
// render
func (s *Synchronizer) Document() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.document
}

// Phase returns the current lifecycle phase
func (s *Synchronizer) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// State returns a consistent snapshot of all three values
func (s *Synchronizer) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Phase:     s.phase,
		Source:    s.source,
		Working:   s.working,
		Committed: s.committed,
	}
}

// Renders reports how many sandbox documents have been produced
func (s *Synchronizer) Renders() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renders
}

// Discarded reports frames dropped as malformed or stale
func (s *Synchronizer) Discarded() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discarded
}

// IsEmptySource reports whether err is the renderer's empty-source
// error, which callers surface as an empty state rather than a failure
func IsEmptySource(err error) bool {
	return errors.Is(err, render.ErrEmptySource)
}
