package sync

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasmail/backend/internal/editor/protocol"
	"github.com/canvasmail/backend/internal/editor/render"
)

func newSync() *Synchronizer {
	return New(render.New(render.Options{}))
}

func frame(t *testing.T, msg protocol.Message) []byte {
	t.Helper()
	raw, err := protocol.Encode(msg)
	require.NoError(t, err)
	return raw
}

func TestResolvePriority(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("Z")
	require.NoError(t, err)

	assert.Equal(t, "Z", s.ResolveBestHTML(), "source wins when nothing else exists")

	require.True(t, s.Apply(frame(t, protocol.HTMLUpdate("Y"))))
	require.True(t, s.Apply(frame(t, protocol.EditingDone())))
	assert.Equal(t, "Y", s.ResolveBestHTML(), "working wins over committed and source")

	// Committed survives a cleared working value
	require.True(t, s.ApplyMessage(protocol.HTMLUpdate("")))
	assert.Equal(t, "Y", s.ResolveBestHTML(), "committed wins over source")
}

func TestMessagesNeverRerender(t *testing.T) {
	s := newSync()
	docA, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.True(t, s.Apply(frame(t, protocol.HTMLUpdate("<p>edited</p>"))))
	}
	s.Apply(frame(t, protocol.EditingDone()))

	assert.Equal(t, docA, s.Document(), "sandbox document unchanged by messages")
	assert.Equal(t, uint64(1), s.Renders())

	docB, err := s.SetSource("<p>B</p>")
	require.NoError(t, err)
	assert.NotEqual(t, docA, docB)
	assert.Equal(t, uint64(2), s.Renders())
}

func TestSetSourceResetsEdits(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)

	s.Apply(frame(t, protocol.HTMLUpdate("<p>edited</p>")))
	s.Apply(frame(t, protocol.EditingDone()))

	_, err = s.SetSource("<p>B</p>")
	require.NoError(t, err)

	state := s.State()
	assert.Empty(t, state.Working)
	assert.Empty(t, state.Committed)
	assert.Equal(t, "<p>B</p>", state.Source)
	assert.Equal(t, "<p>B</p>", s.ResolveBestHTML())
}

func TestPhaseTransitions(t *testing.T) {
	s := newSync()
	assert.Equal(t, PhaseEmpty, s.Phase())

	_, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)
	assert.Equal(t, PhaseRendered, s.Phase())

	s.Apply(frame(t, protocol.HTMLUpdate("<p>x</p>")))
	assert.Equal(t, PhaseEditing, s.Phase())

	s.Apply(frame(t, protocol.EditingDone()))
	assert.Equal(t, PhaseFinalized, s.Phase())

	// Resuming after finalization is permitted
	s.Apply(frame(t, protocol.HTMLUpdate("<p>y</p>")))
	assert.Equal(t, PhaseEditing, s.Phase())

	s.Apply(frame(t, protocol.EditingDone()))
	assert.Equal(t, PhaseFinalized, s.Phase())
	assert.Equal(t, "<p>y</p>", s.State().Committed, "a later finalize re-promotes the latest working value")
}

func TestMalformedFramesDiscarded(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)
	s.Apply(frame(t, protocol.HTMLUpdate("<p>kept</p>")))

	before := s.State()
	for _, raw := range []string{`{{{`, `{"type":"bogus"}`, `{"html":"<p>no type</p>"}`, ``} {
		assert.False(t, s.Apply([]byte(raw)))
	}

	assert.Equal(t, before, s.State(), "malformed frames leave state untouched")
	assert.Equal(t, uint64(4), s.Discarded())
}

func TestFramesBeforeRenderDiscarded(t *testing.T) {
	s := newSync()

	assert.False(t, s.Apply(frame(t, protocol.HTMLUpdate("<p>stale</p>"))))
	assert.Equal(t, PhaseEmpty, s.Phase())
	assert.Empty(t, s.ResolveBestHTML())
}

func TestEmptySourceRejected(t *testing.T) {
	s := newSync()

	_, err := s.SetSource("")
	require.Error(t, err)
	assert.True(t, IsEmptySource(err))
	assert.Equal(t, PhaseEmpty, s.Phase())
}

func TestStageLeavesStateUntouched(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)
	require.True(t, s.Apply(frame(t, protocol.HTMLUpdate("<p>edited</p>"))))
	before := s.State()

	_, err = s.Stage("<p>B</p>")
	require.NoError(t, err)

	assert.Equal(t, before, s.State(), "staging commits nothing")
	assert.Equal(t, "<p>edited</p>", s.ResolveBestHTML())
}

func TestFinalizeWithoutEditKeepsCommittedEmpty(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("<p>A</p>")
	require.NoError(t, err)

	s.Apply(frame(t, protocol.EditingDone()))
	assert.Empty(t, s.State().Committed)
	assert.Equal(t, "<p>A</p>", s.ResolveBestHTML())
}

func TestEndToEndEditFlow(t *testing.T) {
	s := newSync()
	_, err := s.SetSource("<p>Hello</p>")
	require.NoError(t, err)

	require.True(t, s.Apply(frame(t, protocol.HTMLUpdate("<p>Hello World</p>"))))
	require.True(t, s.Apply(frame(t, protocol.EditingDone())))

	state := s.State()
	assert.Equal(t, "<p>Hello World</p>", state.Working)
	assert.Equal(t, "<p>Hello World</p>", state.Committed)
	assert.Equal(t, "<p>Hello World</p>", s.ResolveBestHTML())
}
