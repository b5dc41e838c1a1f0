// Package http exposes the REST surface of the editor service.
package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/canvasmail/backend/internal/clients/generation"
	"github.com/canvasmail/backend/internal/clients/marketing"
	"github.com/canvasmail/backend/internal/domain/session"
	editorsync "github.com/canvasmail/backend/internal/editor/sync"
	"github.com/canvasmail/backend/internal/infrastructure/config"
	"github.com/canvasmail/backend/internal/infrastructure/logging"
	"github.com/canvasmail/backend/internal/infrastructure/monitoring"
)

// Generator produces email HTML from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt, vendorID string) (*generation.Response, error)
}

// Persister stores campaign content in the marketing backend
type Persister interface {
	CreateDraft(ctx context.Context, campaign marketing.Campaign) (*marketing.Draft, error)
	UpdateDraft(ctx context.Context, draftID string, campaign marketing.Campaign) error
	SendCampaign(ctx context.Context, campaign marketing.Campaign) error
	SendTestEmail(ctx context.Context, campaign marketing.Campaign, recipient string) error
}

// Handlers carries the HTTP handler dependencies
type Handlers struct {
	sessions  *session.Manager
	generator Generator
	persister Persister
	editorCfg config.EditorConfig
	logger    *logging.Logger
	metrics   *monitoring.Metrics
}

// NewHandlers creates the handler set
func NewHandlers(sessions *session.Manager, generator Generator, persister Persister, cfg config.EditorConfig, logger *logging.Logger) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		sessions:  sessions,
		generator: generator,
		persister: persister,
		editorCfg: cfg,
		logger:    logger,
	}
}

// WithMetrics attaches Prometheus metrics
func (h *Handlers) WithMetrics(metrics *monitoring.Metrics) *Handlers {
	h.metrics = metrics
	return h
}

// Register mounts all editor routes on the router group
func (h *Handlers) Register(r *gin.RouterGroup) {
	r.POST("/editor/sessions", h.CreateSession)
	r.DELETE("/editor/sessions/:id", h.CloseSession)
	r.POST("/editor/sessions/:id/generate", h.Generate)
	r.POST("/editor/sessions/:id/source", h.LoadSource)
	r.GET("/editor/sessions/:id/content", h.Content)
	r.GET("/editor/sessions/:id/document", h.Document)
	r.GET("/editor/sessions/:id/history", h.History)
	r.POST("/editor/sessions/:id/link", h.EditLink)
	r.POST("/editor/sessions/:id/finalize", h.Finalize)
	r.POST("/editor/sessions/:id/draft", h.SaveDraft)
	r.POST("/editor/sessions/:id/send", h.Send)
	r.POST("/editor/sessions/:id/test-send", h.TestSend)
	r.POST("/editor/sessions/:id/assets", h.UploadAsset)
}

// CreateSession opens a new editing session
func (h *Handlers) CreateSession(c *gin.Context) {
	entry := h.sessions.Create()
	c.JSON(http.StatusCreated, gin.H{"session_id": entry.ID.String()})
}

// CloseSession tears a session down
func (h *Handlers) CloseSession(c *gin.Context) {
	if !h.sessions.Close(c.Param("id")) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"closed": true})
}

func (h *Handlers) entry(c *gin.Context) (*session.Entry, bool) {
	entry, ok := h.sessions.Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return nil, false
	}
	return entry, true
}

// GenerateRequest asks the AI backend for a fresh email
type GenerateRequest struct {
	Prompt   string `json:"prompt" binding:"required"`
	VendorID string `json:"vendor_id" binding:"required"`
}

// Generate calls the generation backend and installs the result as the
// session's source. On failure the previous source stays untouched.
func (h *Handlers) Generate(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid generate request"})
		return
	}

	out, err := h.generator.Generate(c.Request.Context(), req.Prompt, req.VendorID)
	if err != nil {
		h.metrics.RecordGeneration("error")
		h.logger.Warn("generation failed", zap.String("session_id", entry.ID.String()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "generation failed", "detail": err.Error()})
		return
	}
	h.metrics.RecordGeneration("ok")

	document, err := entry.SetSource(out.HTML)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "generated content not renderable", "detail": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": entry.ID.String(),
		"subject":    out.Subject,
		"source":     out.HTML,
		"document":   document,
	})
}

// LoadSourceRequest installs draft content as the session source
type LoadSourceRequest struct {
	HTML string `json:"html" binding:"required"`
}

// LoadSource sets the source directly, used when resuming a saved draft
func (h *Handlers) LoadSource(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req LoadSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid source request"})
		return
	}

	document, err := entry.SetSource(req.HTML)
	if err != nil {
		if editorsync.IsEmptySource(err) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "source is empty"})
			return
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"session_id": entry.ID.String(), "document": document})
}

// Content returns the resolved best HTML and the session phase
func (h *Handlers) Content(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	state := entry.State()
	c.JSON(http.StatusOK, gin.H{
		"html":  entry.Resolve(),
		"phase": state.Phase.String(),
	})
}

// Document returns the current sandbox document for webview embedding
func (h *Handlers) Document(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	document := entry.Document()
	if document == "" {
		c.JSON(http.StatusNotFound, gin.H{"error": "no document rendered"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(document))
}

// History returns recent working snapshots, newest first
func (h *Handlers) History(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	n := 5
	if raw := c.Query("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}

	snapshots, err := entry.History().Recent(n)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"snapshots": snapshots, "count": len(snapshots)})
}

// EditLinkRequest is the link overlay's save payload
type EditLinkRequest struct {
	Index int    `json:"index"`
	Text  string `json:"text" binding:"required"`
	Href  string `json:"href"`
}

// EditLink applies a structured link edit server-side
func (h *Handlers) EditLink(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req EditLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link request"})
		return
	}

	if err := entry.EditLink(req.Index, req.Text, req.Href); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"applied": true})
}

// Finalize mirrors focus loss for REST-driven clients
func (h *Handlers) Finalize(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}
	entry.Finalize()
	c.JSON(http.StatusOK, gin.H{"finalized": true})
}

// CampaignRequest carries persistence metadata; content always comes
// from the session's resolve rule so unsaved keystrokes are never lost
type CampaignRequest struct {
	VendorID   string   `json:"vendor_id" binding:"required"`
	Subject    string   `json:"subject" binding:"required"`
	SegmentIDs []string `json:"segment_ids"`
	DraftID    string   `json:"draft_id"`
	Recipient  string   `json:"recipient"`
}

func (h *Handlers) campaign(entry *session.Entry, req CampaignRequest) (marketing.Campaign, bool) {
	html := entry.Resolve()
	if html == "" {
		return marketing.Campaign{}, false
	}
	return marketing.Campaign{
		VendorID:   req.VendorID,
		Subject:    req.Subject,
		HTML:       html,
		SegmentIDs: req.SegmentIDs,
	}, true
}

// SaveDraft persists the resolved content as a draft
func (h *Handlers) SaveDraft(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft request"})
		return
	}

	campaign, ok := h.campaign(entry, req)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to save"})
		return
	}

	if req.DraftID != "" {
		if err := h.persister.UpdateDraft(c.Request.Context(), req.DraftID, campaign); err != nil {
			h.persistenceFailed(c, entry, "update_draft", err)
			return
		}
		h.metrics.RecordPersistence("update_draft", "ok")
		c.JSON(http.StatusOK, gin.H{"draft_id": req.DraftID})
		return
	}

	draft, err := h.persister.CreateDraft(c.Request.Context(), campaign)
	if err != nil {
		h.persistenceFailed(c, entry, "create_draft", err)
		return
	}
	h.metrics.RecordPersistence("create_draft", "ok")
	c.JSON(http.StatusCreated, gin.H{"draft_id": draft.ID})
}

// Send dispatches the campaign to its audience
func (h *Handlers) Send(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid send request"})
		return
	}

	campaign, ok := h.campaign(entry, req)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to send"})
		return
	}

	if err := h.persister.SendCampaign(c.Request.Context(), campaign); err != nil {
		h.persistenceFailed(c, entry, "send", err)
		return
	}
	h.metrics.RecordPersistence("send", "ok")
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// TestSend delivers the campaign to a single test recipient
func (h *Handlers) TestSend(c *gin.Context) {
	entry, ok := h.entry(c)
	if !ok {
		return
	}

	var req CampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Recipient == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid test-send request"})
		return
	}

	campaign, ok := h.campaign(entry, req)
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": "nothing to send"})
		return
	}

	if err := h.persister.SendTestEmail(c.Request.Context(), campaign, req.Recipient); err != nil {
		h.persistenceFailed(c, entry, "test_send", err)
		return
	}
	h.metrics.RecordPersistence("test_send", "ok")
	c.JSON(http.StatusOK, gin.H{"sent": true})
}

// persistenceFailed surfaces a backend failure. Editor state is left
// intact so the vendor can retry without losing edits.
func (h *Handlers) persistenceFailed(c *gin.Context, entry *session.Entry, operation string, err error) {
	h.metrics.RecordPersistence(operation, "error")
	h.logger.Warn("persistence call failed",
		zap.String("session_id", entry.ID.String()),
		zap.String("operation", operation),
		zap.Error(err),
	)
	c.JSON(http.StatusBadGateway, gin.H{"error": "persistence failed", "detail": err.Error()})
}

// Health reports liveness
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": h.sessions.Count(),
	})
}
