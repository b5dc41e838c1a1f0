package http

import (
	"encoding/base64"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-gonic/gin"

	"github.com/canvasmail/backend/internal/shared/id"
)

// Image types email clients render reliably
var allowedAssetTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

// UploadAsset accepts a raw image body and returns a data URI suitable
// for inlining into the email. The content type is sniffed, never
// trusted from the request.
func (h *Handlers) UploadAsset(c *gin.Context) {
	if _, ok := h.entry(c); !ok {
		return
	}

	limit := h.editorCfg.MaxAssetBytes
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, limit+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable asset body"})
		return
	}
	if int64(len(data)) > limit {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("asset exceeds %d bytes", limit)})
		return
	}
	if len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty asset body"})
		return
	}

	detected := mimetype.Detect(data)
	allowed := false
	for _, t := range allowedAssetTypes {
		if detected.Is(t) {
			allowed = true
			break
		}
	}
	if !allowed {
		c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": fmt.Sprintf("unsupported asset type %s", detected.String())})
		return
	}

	dataURI := fmt.Sprintf("data:%s;base64,%s", detected.String(), base64.StdEncoding.EncodeToString(data))
	c.JSON(http.StatusCreated, gin.H{
		"asset_id": id.NewAssetID().String(),
		"data_uri": dataURI,
		"size":     len(data),
	})
}
