// Package protocol defines the message contract between the sandboxed
// email preview and its host.
//
// The sandbox owns a single FIFO channel toward the host. It emits
// htmlUpdate frames while the user edits and an editingDone frame when
// an editable element loses focus. The host pushes render frames the
// other way whenever the source document changes.
package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
)

// Type discriminates message variants on the wire
type Type string

const (
	// TypeHTMLUpdate carries the full cleaned fragment after a debounced edit
	TypeHTMLUpdate Type = "htmlUpdate"
	// TypeEditingDone signals focus loss; html is always empty
	TypeEditingDone Type = "editingDone"
	// TypeRender carries a freshly rendered sandbox document (host to sandbox)
	TypeRender Type = "render"
)

// ErrMalformed marks frames the host must discard without state change
var ErrMalformed = errors.New("malformed editor message")

// Message is a single frame on the sandbox channel
type Message struct {
	Type Type   `json:"type"`
	HTML string `json:"html"`
}

// HTMLUpdate builds a content-change frame
func HTMLUpdate(html string) Message {
	return Message{Type: TypeHTMLUpdate, HTML: html}
}

// EditingDone builds a finalization frame
func EditingDone() Message {
	return Message{Type: TypeEditingDone, HTML: ""}
}

// Render builds a host-to-sandbox render frame
func Render(document string) Message {
	return Message{Type: TypeRender, HTML: document}
}

// Encode serializes a message to its wire form
func Encode(m Message) ([]byte, error) {
	return sonic.Marshal(m)
}

// Decode parses a raw frame. Any frame that is not valid JSON, lacks a
// type, or names an unknown type is reported as ErrMalformed.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := sonic.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch Type(strings.TrimSpace(string(m.Type))) {
	case TypeHTMLUpdate, TypeEditingDone, TypeRender:
		return m, nil
	case "":
		return Message{}, fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return Message{}, fmt.Errorf("%w: unknown type %q", ErrMalformed, m.Type)
	}
}
