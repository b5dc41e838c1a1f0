package marketing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDraft(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/campaigns/drafts", r.URL.Path)

		var campaign Campaign
		require.NoError(t, json.NewDecoder(r.Body).Decode(&campaign))
		assert.Equal(t, "<p>Hello World</p>", campaign.HTML)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Draft{ID: "draft-42"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	draft, err := c.CreateDraft(context.Background(), Campaign{
		VendorID: "vendor-1",
		Subject:  "Hi",
		HTML:     "<p>Hello World</p>",
	})
	require.NoError(t, err)
	assert.Equal(t, "draft-42", draft.ID)
}

func TestUpdateDraftRoutesToDraftID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/campaigns/drafts/draft-42", r.URL.Path)
		assert.Equal(t, http.MethodPut, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	assert.NoError(t, c.UpdateDraft(context.Background(), "draft-42", Campaign{HTML: "<p>x</p>"}))
}

func TestSendTestEmailIncludesRecipient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "owner@vendor.example", payload["recipient"])
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	err := c.SendTestEmail(context.Background(), Campaign{HTML: "<p>x</p>"}, "owner@vendor.example")
	assert.NoError(t, err)
}

func TestSendCampaignSurfacesBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "campaign already sent"})
	}))
	defer srv.Close()

	c := New(srv.URL, 5*time.Second)
	err := c.SendCampaign(context.Background(), Campaign{HTML: "<p>x</p>"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "campaign already sent")
}
