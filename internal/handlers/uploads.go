package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

type uploadResponse struct {
	ID         string    `json:"id"`
	Kind       string    `json:"kind"`
	FileName   string    `json:"fileName"`
	MimeType   string    `json:"mimeType"`
	SizeBytes  int64     `json:"sizeBytes"`
	StorageURL string    `json:"storageUrl"`
	UploadedAt time.Time `json:"uploadedAt"`
}

func (h HandlerSet) ListUploads(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	records, err := h.uploads.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.log.Error().Err(err).Msg("list uploads failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list_failed"})
		return
	}

	out := make([]uploadResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, uploadResponse{
			ID:         rec.ID,
			Kind:       string(rec.Kind),
			FileName:   rec.FileName,
			MimeType:   rec.MimeType,
			SizeBytes:  rec.SizeBytes,
			StorageURL: rec.StorageURL,
			UploadedAt: rec.UploadedAt,
		})
	}

	c.JSON(http.StatusOK, gin.H{"uploads": out})
}
