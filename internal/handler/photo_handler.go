package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/response"
	"github.com/scsvmv/vms-api/pkg/storage"
)

// PhotoHandler serves visitor photos through signed, expiring tokens. The
// photo directory itself is never exposed.
type PhotoHandler struct {
	photos *storage.PhotoStore
}

// NewPhotoHandler creates a new handler.
func NewPhotoHandler(photos *storage.PhotoStore) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Serve godoc
// @Summary Fetch a visitor photo
// @Tags Photos
// @Produce image/jpeg
// @Param token path string true "Signed photo token"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Router /photos/{token} [get]
func (h *PhotoHandler) Serve(c *gin.Context) {
	file, contentType, err := h.photos.Open(c.Param("token"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "photo not found or link expired"))
		return
	}
	defer file.Close()

	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "private, max-age=300")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, file); err != nil {
		_ = c.Error(err)
	}
}
