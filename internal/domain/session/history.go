package session

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/gzip"
)

// History keeps a bounded ring of gzip-compressed working snapshots so
// a vendor can recover recent edits after a failed save or a dropped
// connection.
type History struct {
	mu      sync.Mutex
	depth   int
	entries [][]byte
}

// NewHistory creates a history retaining at most depth snapshots
func NewHistory(depth int) *History {
	if depth <= 0 {
		depth = 1
	}
	return &History{depth: depth}
}

// Push compresses and appends a snapshot, evicting the oldest when full
func (h *History) Push(html string) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(html)); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("compress snapshot: %w", err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, buf.Bytes())
	if len(h.entries) > h.depth {
		h.entries = h.entries[len(h.entries)-h.depth:]
	}
	return nil
}

// Recent returns up to n snapshots, newest first
func (h *History) Recent(n int) ([]string, error) {
	h.mu.Lock()
	entries := make([][]byte, len(h.entries))
	copy(entries, h.entries)
	h.mu.Unlock()

	if n > len(entries) {
		n = len(entries)
	}

	out := make([]string, 0, n)
	for i := len(entries) - 1; i >= len(entries)-n; i-- {
		zr, err := gzip.NewReader(bytes.NewReader(entries[i]))
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		data, err := io.ReadAll(zr)
		zr.Close()
		if err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
		out = append(out, string(data))
	}
	return out, nil
}

// Len reports the number of retained snapshots
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
