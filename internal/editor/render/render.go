// Package render turns a generated email fragment into a self-contained
// sandbox document with inline editing affordances.
//
// The transform is pure: for a given source fragment the scaffolding
// (styles, hint banner, link-edit overlay, capture script) is byte
// identical on every invocation, so the host may treat "document
// changed" as "source changed" and nothing else.
package render

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/canvasmail/backend/internal/editor/htmlutil"
)

// ErrEmptySource is returned when there is nothing to render
var ErrEmptySource = errors.New("empty source document")

// Marker attributes injected into editable elements. The capture script
// strips them before reporting content back to the host.
const (
	AttrEditable = "data-cm-editable"
	AttrLink     = "data-cm-link"
	HintID       = "cm-hint"
	OverlayID    = "cm-overlay"
	ScriptID     = "cm-capture"
)

// Elements matching this query become editable when they carry
// non-whitespace text. Leaf divs only, so container divs keep their
// children individually editable.
const editableXPath = `//h1|//h2|//h3|//h4|//h5|//h6|//p|//span|//a|//li|//td|//th|//button|//div[not(*)]`

// Options carries the interaction timing constants embedded in the
// sandbox document.
type Options struct {
	HintDuration       time.Duration
	LongPressThreshold time.Duration
	DebounceWindow     time.Duration
}

// DefaultOptions mirrors the dashboard's shipped timings
func DefaultOptions() Options {
	return Options{
		HintDuration:       3500 * time.Millisecond,
		LongPressThreshold: 500 * time.Millisecond,
		DebounceWindow:     300 * time.Millisecond,
	}
}

// Renderer produces sandbox documents
type Renderer struct {
	opts Options
}

// New creates a renderer, filling unset options with defaults
func New(opts Options) *Renderer {
	def := DefaultOptions()
	if opts.HintDuration <= 0 {
		opts.HintDuration = def.HintDuration
	}
	if opts.LongPressThreshold <= 0 {
		opts.LongPressThreshold = def.LongPressThreshold
	}
	if opts.DebounceWindow <= 0 {
		opts.DebounceWindow = def.DebounceWindow
	}
	return &Renderer{opts: opts}
}

// Options returns the renderer's effective timing constants
func (r *Renderer) Options() Options {
	return r.opts
}

// Render produces the complete sandbox document for a source fragment
func (r *Renderer) Render(sourceHTML string) (string, error) {
	if strings.TrimSpace(sourceHTML) == "" {
		return "", ErrEmptySource
	}

	doc, err := htmlutil.LoadNode(sourceHTML)
	if err != nil {
		return "", fmt.Errorf("parse source: %w", err)
	}

	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		return "", fmt.Errorf("parse source: no body")
	}

	markEditable(doc)

	fragment, err := htmlutil.RenderInner(body)
	if err != nil {
		return "", fmt.Errorf("serialize fragment: %w", err)
	}

	return r.scaffold(fragment), nil
}

// markEditable tags every allowlisted element carrying visible text
func markEditable(doc *html.Node) {
	for _, n := range htmlquery.Find(doc, editableXPath) {
		if htmlutil.Text(n) == "" {
			continue
		}
		setAttr(n, AttrEditable, "true")
		setAttr(n, "contenteditable", "true")
		if n.Data == "a" || n.Data == "button" {
			setAttr(n, AttrLink, "true")
		}
	}
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}
