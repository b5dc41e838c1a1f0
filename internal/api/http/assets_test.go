package http

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 13, 'I', 'H', 'D', 'R'}

func (f *fixture) upload(t *testing.T, sid string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/editor/sessions/"+sid+"/assets", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadAssetReturnsDataURI(t *testing.T) {
	f := newFixture(t)
	sid := f.createSession(t)

	rec := f.upload(t, sid, pngMagic)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "data:image/png;base64,")
	assert.Contains(t, rec.Body.String(), "asset_")
}

func TestUploadAssetRejectsNonImage(t *testing.T) {
	f := newFixture(t)
	sid := f.createSession(t)

	rec := f.upload(t, sid, []byte("<script>alert(1)</script>"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestUploadAssetRejectsOversize(t *testing.T) {
	f := newFixture(t)
	sid := f.createSession(t)

	big := make([]byte, 2<<20+1)
	copy(big, pngMagic)
	rec := f.upload(t, sid, big)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestUploadAssetRejectsEmptyBody(t *testing.T) {
	f := newFixture(t)
	sid := f.createSession(t)

	rec := f.upload(t, sid, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
