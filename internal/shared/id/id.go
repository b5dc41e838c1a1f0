// Package id provides prefixed ULID generation for the backend.
//
// IDs are lexicographically sortable and carry a type prefix so logs
// stay readable (edit_*, req_*, asset_*).
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// EditSessionID identifies an editing session
type EditSessionID string

// RequestID identifies an API request
type RequestID string

// AssetID identifies an uploaded inline asset
type AssetID string

const (
	EditSessionPrefix = "edit"
	RequestPrefix     = "req"
	AssetPrefix       = "asset"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the singleton generator instance
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a new ULID generator backed by crypto/rand
func NewGenerator() *Generator {
	return &Generator{entropy: rand.Reader}
}

// NewGeneratorWithEntropy creates a generator with custom entropy source.
// Useful for testing with deterministic entropy.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateString creates a new ULID as a string
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

// NewEditSessionID generates a new editing session ID
func NewEditSessionID() EditSessionID {
	return EditSessionID(Default().GenerateWithPrefix(EditSessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewAssetID generates a new asset ID
func NewAssetID() AssetID {
	return AssetID(Default().GenerateWithPrefix(AssetPrefix))
}

func (id EditSessionID) String() string { return string(id) }
func (id RequestID) String() string     { return string(id) }
func (id AssetID) String() string       { return string(id) }

// IsValid checks if an ID string is a valid ULID
func IsValid(id string) bool {
	_, err := ulid.Parse(id)
	return err == nil
}

// Parse parses a ULID string
func Parse(id string) (ulid.ULID, error) {
	return ulid.Parse(id)
}
