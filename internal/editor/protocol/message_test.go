package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeValidFrames(t *testing.T) {
	m, err := Decode([]byte(`{"type":"htmlUpdate","html":"<p>Hi</p>"}`))
	require.NoError(t, err)
	assert.Equal(t, TypeHTMLUpdate, m.Type)
	assert.Equal(t, "<p>Hi</p>", m.HTML)

	m, err = Decode([]byte(`{"type":"editingDone","html":""}`))
	require.NoError(t, err)
	assert.Equal(t, TypeEditingDone, m.Type)
	assert.Empty(t, m.HTML)
}

func TestDecodeMalformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{{{nope`},
		{"missing type", `{"html":"<p>x</p>"}`},
		{"unknown type", `{"type":"resize","html":""}`},
		{"empty frame", ``},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformed))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	raw, err := Encode(HTMLUpdate("<p>Hello</p>"))
	require.NoError(t, err)

	m, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, TypeHTMLUpdate, m.Type)
	assert.Equal(t, "<p>Hello</p>", m.HTML)
}

func TestEditingDoneCarriesNoPayload(t *testing.T) {
	raw, err := Encode(EditingDone())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"html":""`)
}
