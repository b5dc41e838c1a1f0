package session

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRoundTrip(t *testing.T) {
	h := NewHistory(10)

	require.NoError(t, h.Push("<p>first</p>"))
	require.NoError(t, h.Push("<p>second</p>"))

	recent, err := h.Recent(2)
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>second</p>", "<p>first</p>"}, recent)
}

func TestHistoryBounded(t *testing.T) {
	h := NewHistory(3)

	for i := 0; i < 10; i++ {
		require.NoError(t, h.Push(fmt.Sprintf("<p>%d</p>", i)))
	}

	assert.Equal(t, 3, h.Len())

	recent, err := h.Recent(3)
	require.NoError(t, err)
	assert.Equal(t, []string{"<p>9</p>", "<p>8</p>", "<p>7</p>"}, recent)
}

func TestHistoryRecentMoreThanStored(t *testing.T) {
	h := NewHistory(5)
	require.NoError(t, h.Push("<p>only</p>"))

	recent, err := h.Recent(10)
	require.NoError(t, err)
	assert.Len(t, recent, 1)
}
