package handler

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/internal/service"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/response"
	"github.com/scsvmv/vms-api/pkg/storage"
)

type lifecycleService interface {
	Register(ctx context.Context, req service.RegisterVisitorRequest) (*models.VisitorRequest, error)
	Approve(ctx context.Context, requestID, actorID string) (*models.VisitorRequest, error)
	Resend(ctx context.Context, requestID, actorID string) error
	Get(ctx context.Context, requestID, actorID string) (*models.VisitorRequest, error)
	ListByDepartment(ctx context.Context, actorID string, status *models.VisitorStatus) ([]models.VisitorRequest, error)
}

// VisitorHandler wires HTTP endpoints to the visitor lifecycle service.
type VisitorHandler struct {
	visitors lifecycleService
	exports  *service.ExportService
	photos   *storage.PhotoStore
}

// NewVisitorHandler creates a new handler.
func NewVisitorHandler(visitors lifecycleService, exports *service.ExportService, photos *storage.PhotoStore) *VisitorHandler {
	return &VisitorHandler{visitors: visitors, exports: exports, photos: photos}
}

// Register godoc
// @Summary Register a visitor
// @Description Public registration form: multipart fields plus a photo file
// @Tags Visitors
// @Accept multipart/form-data
// @Produce json
// @Param photo formData file true "Visitor photo"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /visitors [post]
func (h *VisitorHandler) Register(c *gin.Context) {
	var form struct {
		Name         string `form:"name"`
		Designation  string `form:"designation"`
		Organization string `form:"organization"`
		Phone        string `form:"phone"`
		Email        string `form:"email"`
		Purpose      string `form:"purpose"`
		Department   string `form:"department"`
	}
	if err := c.ShouldBind(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration form"))
		return
	}

	photoURL, err := h.storePhoto(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	record, err := h.visitors.Register(c.Request.Context(), service.RegisterVisitorRequest{
		Name:         form.Name,
		Designation:  form.Designation,
		Organization: form.Organization,
		Phone:        form.Phone,
		Email:        form.Email,
		Purpose:      form.Purpose,
		Department:   models.Department(form.Department),
		PhotoURL:     photoURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

func (h *VisitorHandler) storePhoto(c *gin.Context) (string, error) {
	file, err := c.FormFile("photo")
	if err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "a visitor photo is required")
	}
	if file.Size > h.photos.MaxSize() {
		return "", appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("photo exceeds the %d byte limit", h.photos.MaxSize()))
	}

	src, err := file.Open()
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo")
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, h.photos.MaxSize()+1))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read photo")
	}
	if int64(len(data)) > h.photos.MaxSize() {
		return "", appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("photo exceeds the %d byte limit", h.photos.MaxSize()))
	}

	url, err := h.photos.Upload(data, file.Header.Get("Content-Type"))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unsupported photo upload")
	}
	return url, nil
}

// List godoc
// @Summary List department visitor requests
// @Description Returns the acting department admin's queue, optionally filtered by status
// @Tags Visitors
// @Produce json
// @Param status query string false "Lifecycle status filter"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /visitors [get]
func (h *VisitorHandler) List(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	var status *models.VisitorStatus
	if raw := c.Query("status"); raw != "" {
		s := models.VisitorStatus(raw)
		switch s {
		case models.StatusPending, models.StatusApproved, models.StatusCheckedIn, models.StatusCheckedOut:
			status = &s
		default:
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw)))
			return
		}
	}

	visitors, err := h.visitors.ListByDepartment(c.Request.Context(), claims.UserID, status)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, visitors, nil)
}

// Approve godoc
// @Summary Approve a visitor request
// @Description Transitions a pending request to approved and issues the pass UID
// @Tags Visitors
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /visitors/{id}/approve [post]
func (h *VisitorHandler) Approve(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	record, err := h.visitors.Approve(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, record, nil)
}

// Resend godoc
// @Summary Resend the approval email
// @Description Sends the approval email again; the response reports the delivery outcome
// @Tags Visitors
// @Produce json
// @Param id path string true "Request id"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /visitors/{id}/resend [post]
func (h *VisitorHandler) Resend(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	if err := h.visitors.Resend(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}

	// Resend delivers inline rather than through the queue, so a 200 here
	// means the mail actually went out.
	response.Message(c, http.StatusOK, "approval email sent")
}

// Pass godoc
// @Summary Download the printable visitor pass
// @Tags Visitors
// @Produce application/pdf
// @Param id path string true "Request id"
// @Success 200 {file} binary
// @Failure 401 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /visitors/{id}/pass [get]
func (h *VisitorHandler) Pass(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}

	record, err := h.visitors.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	pdf, err := h.exports.PassPDF(record)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=visitor-pass-%s.pdf", *record.VisitorUID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
