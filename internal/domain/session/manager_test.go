package session

import (
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canvasmail/backend/internal/editor/protocol"
	editorsync "github.com/canvasmail/backend/internal/editor/sync"
	"github.com/canvasmail/backend/internal/infrastructure/config"
)

func newTestManager() *Manager {
	cfg := config.Default().Editor
	cfg.DebounceWindow = 30 * time.Millisecond
	return NewManager(cfg, nil)
}

func TestCreateGetClose(t *testing.T) {
	m := newTestManager()

	entry := m.Create()
	require.NotNil(t, entry)
	assert.Contains(t, entry.ID.String(), "edit_")

	got, ok := m.Get(entry.ID.String())
	require.True(t, ok)
	assert.Same(t, entry, got)
	assert.Equal(t, 1, m.Count())

	assert.True(t, m.Close(entry.ID.String()))
	_, ok = m.Get(entry.ID.String())
	assert.False(t, ok)
	assert.False(t, m.Close(entry.ID.String()), "double close reports missing")
}

func TestEntryApplyUpdatesState(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	_, err := entry.SetSource("<p>Hello</p>")
	require.NoError(t, err)

	raw, err := protocol.Encode(protocol.HTMLUpdate("<p>Hi there</p>"))
	require.NoError(t, err)
	require.True(t, entry.Apply(raw))

	assert.Equal(t, "<p>Hi there</p>", entry.Resolve())
	assert.Equal(t, editorsync.PhaseEditing, entry.State().Phase)
	assert.Equal(t, 1, entry.History().Len())
}

func TestEntryMalformedFrameIgnored(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	_, err := entry.SetSource("<p>Hello</p>")
	require.NoError(t, err)

	assert.False(t, entry.Apply([]byte(`{{{not json`)))
	assert.Equal(t, "<p>Hello</p>", entry.Resolve())
	assert.Equal(t, editorsync.PhaseRendered, entry.State().Phase)
}

func TestEntryRenderNotification(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	_, err := entry.SetSource("<p>Hello</p>")
	require.NoError(t, err)

	select {
	case msg := <-entry.Renders():
		assert.Equal(t, protocol.TypeRender, msg.Type)
		assert.Equal(t, entry.Document(), msg.HTML)
	case <-time.After(time.Second):
		t.Fatal("no render notification")
	}
}

func TestEntryServerSideEditFlow(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	_, err := entry.SetSource(`<p>Hello</p><a href="https://old.example">Old</a>`)
	require.NoError(t, err)

	require.NoError(t, entry.EditLink(0, "New", "https://new.example"))

	require.Eventually(t, func() bool {
		return entry.State().Phase == editorsync.PhaseEditing
	}, time.Second, 10*time.Millisecond)
	assert.Contains(t, entry.Resolve(), `href="https://new.example"`)
	assert.Contains(t, entry.Resolve(), `>New</a>`)
}

func TestEntryEditThenFinalize(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	_, err := entry.SetSource("<p>Hello</p>")
	require.NoError(t, err)

	// Simulate typing inside the sandbox through the engine
	entry.mu.Lock()
	engine := entry.engine
	entry.mu.Unlock()
	require.NotNil(t, engine)

	engine.Input(func(doc *goquery.Document) {
		doc.Find("p").SetText("Hello World")
	})
	entry.Finalize()

	require.Eventually(t, func() bool {
		return entry.State().Phase == editorsync.PhaseFinalized
	}, time.Second, 10*time.Millisecond)

	state := entry.State()
	assert.Equal(t, "<p>Hello World</p>", state.Working)
	assert.Equal(t, "<p>Hello World</p>", state.Committed)
	assert.Equal(t, "<p>Hello World</p>", entry.Resolve())
}

func TestSetSourceReplacesEngine(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	docA, err := entry.SetSource("<p>A</p>")
	require.NoError(t, err)
	docB, err := entry.SetSource("<p>B</p>")
	require.NoError(t, err)

	assert.NotEqual(t, docA, docB)
	assert.Equal(t, docB, entry.Document())
	assert.Equal(t, "<p>B</p>", entry.Resolve())
}

func TestFailedSetSourceLeavesSessionIntact(t *testing.T) {
	m := newTestManager()
	entry := m.Create()

	doc, err := entry.SetSource(`<a href="https://shop.example">Shop</a>`)
	require.NoError(t, err)

	_, err = entry.SetSource("   ")
	require.Error(t, err)

	assert.Equal(t, doc, entry.Document(), "document unchanged after failed replace")
	assert.Equal(t, `<a href="https://shop.example">Shop</a>`, entry.Resolve())
	assert.Equal(t, editorsync.PhaseRendered, entry.State().Phase)

	// The original engine is still installed and editable
	require.NoError(t, entry.EditLink(0, "Shop now", "https://shop.example/sale"))
	require.Eventually(t, func() bool {
		return entry.Resolve() == `<a href="https://shop.example/sale">Shop now</a>`
	}, time.Second, 10*time.Millisecond)
}

func TestEditLinkBeforeRender(t *testing.T) {
	m := newTestManager()
	entry := m.Create()
	t.Cleanup(entry.Close)

	assert.ErrorIs(t, entry.EditLink(0, "x", "y"), editorsync.ErrNoDocument)
}
