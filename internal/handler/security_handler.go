package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/pkg/response"
)

type gateService interface {
	LookupByUID(ctx context.Context, uid, actorID string) (*models.VisitorRequest, error)
	CheckIn(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error)
	CheckOut(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error)
}

// SecurityHandler exposes the gate desk operations.
type SecurityHandler struct {
	visitors gateService
}

// NewSecurityHandler creates a new handler.
func NewSecurityHandler(visitors gateService) *SecurityHandler {
	return &SecurityHandler{visitors: visitors}
}

// Lookup godoc
// @Summary Look up a visitor by pass UID
// @Tags Security
// @Produce json
// @Param uid path string true "Pass UID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /security/visitors/{uid} [get]
func (h *SecurityHandler) Lookup(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	record, err := h.visitors.LookupByUID(c.Request.Context(), c.Param("uid"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// CheckIn godoc
// @Summary Check a visitor in at the gate
// @Description Accepts a request id or a scanned pass UID
// @Tags Security
// @Produce json
// @Param id path string true "Request id or pass UID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /security/visitors/{id}/check-in [post]
func (h *SecurityHandler) CheckIn(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	record, err := h.visitors.CheckIn(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// CheckOut godoc
// @Summary Check a visitor out at the gate
// @Tags Security
// @Produce json
// @Param id path string true "Request id or pass UID"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /security/visitors/{id}/check-out [post]
func (h *SecurityHandler) CheckOut(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	record, err := h.visitors.CheckOut(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}
