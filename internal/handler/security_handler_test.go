package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scsvmv/vms-api/internal/middleware"
	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/response"
)

type gateServiceMock struct {
	lookupResp  *models.VisitorRequest
	lookupErr   error
	checkInResp *models.VisitorRequest
	checkInErr  error
	lastRef     string
	lastActor   string
}

func (m *gateServiceMock) LookupByUID(ctx context.Context, uid, actorID string) (*models.VisitorRequest, error) {
	m.lastRef, m.lastActor = uid, actorID
	return m.lookupResp, m.lookupErr
}

func (m *gateServiceMock) CheckIn(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error) {
	m.lastRef, m.lastActor = ref, actorID
	return m.checkInResp, m.checkInErr
}

func (m *gateServiceMock) CheckOut(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error) {
	m.lastRef, m.lastActor = ref, actorID
	return m.checkInResp, m.checkInErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func securityClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "guard-1", Email: "gate@scsvmv.edu", Role: models.RoleSecurity}
}

func approvedVisitor() *models.VisitorRequest {
	uid := "SCSVMV1234A"
	return &models.VisitorRequest{
		ID:         "req-1",
		Name:       "Ravi Kumar",
		Department: models.DeptCSE,
		Status:     models.StatusApproved,
		VisitorUID: &uid,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestSecurityHandlerLookup(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &gateServiceMock{lookupResp: approvedVisitor()}
	h := NewSecurityHandler(mock)

	c, w := newGinContext(http.MethodGet, "/security/visitors/SCSVMV1234A", nil)
	c.Params = gin.Params{{Key: "uid", Value: "SCSVMV1234A"}}
	c.Set(middleware.ContextUserKey, securityClaims())

	h.Lookup(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SCSVMV1234A", mock.lastRef)
	assert.Equal(t, "guard-1", mock.lastActor)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Data)
}

func TestSecurityHandlerLookupNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &gateServiceMock{lookupErr: appErrors.Clone(appErrors.ErrNotFound, "visitor not found or invalid UID")}
	h := NewSecurityHandler(mock)

	c, w := newGinContext(http.MethodGet, "/security/visitors/SCSVMV0000X", nil)
	c.Params = gin.Params{{Key: "uid", Value: "SCSVMV0000X"}}
	c.Set(middleware.ContextUserKey, securityClaims())

	h.Lookup(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestSecurityHandlerCheckIn(t *testing.T) {
	gin.SetMode(gin.TestMode)
	visitor := approvedVisitor()
	visitor.Status = models.StatusCheckedIn
	mock := &gateServiceMock{checkInResp: visitor}
	h := NewSecurityHandler(mock)

	c, w := newGinContext(http.MethodPost, "/security/visitors/req-1/check-in", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, securityClaims())

	h.CheckIn(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-1", mock.lastRef)
}

func TestSecurityHandlerCheckInConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mock := &gateServiceMock{checkInErr: appErrors.Clone(appErrors.ErrInvalidTransition, "visitor already checked in")}
	h := NewSecurityHandler(mock)

	c, w := newGinContext(http.MethodPost, "/security/visitors/req-1/check-in", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, securityClaims())

	h.CheckIn(c)
	require.Equal(t, http.StatusConflict, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.NotNil(t, envelope.Error)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, envelope.Error.Code)
}

func TestSecurityHandlerRejectsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewSecurityHandler(&gateServiceMock{})

	c, w := newGinContext(http.MethodPost, "/security/visitors/req-1/check-out", nil)
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}

	h.CheckOut(c)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
