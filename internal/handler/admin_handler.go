package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scsvmv/vms-api/internal/service"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/response"
)

// AdminHandler exposes the super admin console: staff accounts and the
// campus-wide visitor log feed.
type AdminHandler struct {
	provisioning *service.ProvisioningService
	visitors     *service.VisitorService
	exports      *service.ExportService
}

// NewAdminHandler creates a new handler.
func NewAdminHandler(provisioning *service.ProvisioningService, visitors *service.VisitorService, exports *service.ExportService) *AdminHandler {
	return &AdminHandler{provisioning: provisioning, visitors: visitors, exports: exports}
}

// CreateUser godoc
// @Summary Create or update a staff account
// @Description Creates an account, or updates password/role/department when the email already exists
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body service.ProvisionUserRequest true "Account payload"
// @Success 200 {object} response.Envelope
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users [post]
func (h *AdminHandler) CreateUser(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var req service.ProvisionUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid user payload"))
		return
	}

	outcome, err := h.provisioning.CreateOrUpdateUser(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	status := http.StatusOK
	if outcome.Outcome == service.OutcomeCreated {
		status = http.StatusCreated
	}
	response.JSON(c, status, outcome, nil)
}

// DeleteUser godoc
// @Summary Delete a staff account
// @Tags Admin
// @Produce json
// @Param id path string true "User id"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/users/{id} [delete]
func (h *AdminHandler) DeleteUser(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.provisioning.DeleteUser(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// ListUsers godoc
// @Summary List staff accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	users, err := h.provisioning.ListUsers(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, users, nil)
}

// Logs godoc
// @Summary Campus-wide visitor log feed
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /admin/logs [get]
func (h *AdminHandler) Logs(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	visitors, err := h.visitors.Logs(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitors, nil)
}

// ExportLogs godoc
// @Summary Download the visitor log feed as CSV
// @Tags Admin
// @Produce text/csv
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Router /admin/logs/export [get]
func (h *AdminHandler) ExportLogs(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	visitors, err := h.visitors.Logs(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	out, err := h.exports.LogsCSV(visitors)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "visitor-logs-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "text/csv", out)
}
