package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
)

func TestLogsCSVIncludesLifecycleColumns(t *testing.T) {
	svc := NewExportService()
	uid := "SCSVMV1234A"
	in := time.Date(2026, time.August, 30, 9, 30, 0, 0, time.UTC)
	out := in.Add(2 * time.Hour)

	data, err := svc.LogsCSV([]models.VisitorRequest{{
		ID:           "req-1",
		Name:         "Ravi Kumar",
		Phone:        "9876543210",
		Email:        "ravi@example.com",
		Purpose:      "review",
		Department:   models.DeptCSE,
		Status:       models.StatusCheckedOut,
		VisitorUID:   &uid,
		CheckInTime:  &in,
		CheckOutTime: &out,
		CreatedAt:    in.Add(-24 * time.Hour),
	}})
	require.NoError(t, err)

	csv := string(data)
	lines := strings.Split(strings.TrimSpace(csv), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "UID")
	assert.Contains(t, lines[0], "Check Out")
	assert.Contains(t, lines[1], "SCSVMV1234A")
	assert.Contains(t, lines[1], "checked_out")
	assert.Contains(t, lines[1], "2026-08-30T09:30:00Z")
}

func TestLogsCSVEmptyFeedStillHasHeader(t *testing.T) {
	svc := NewExportService()
	data, err := svc.LogsCSV(nil)
	require.NoError(t, err)
	assert.Contains(t, string(data), "UID")
}

func TestPassPDFRequiresApproval(t *testing.T) {
	svc := NewExportService()

	_, err := svc.PassPDF(&models.VisitorRequest{ID: "req-1", Status: models.StatusPending})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTransition.Code, appErrors.FromError(err).Code)

	uid := "SCSVMV1234A"
	pdf, err := svc.PassPDF(&models.VisitorRequest{
		ID:         "req-1",
		Name:       "Ravi Kumar",
		Department: models.DeptCSE,
		Status:     models.StatusApproved,
		VisitorUID: &uid,
		CreatedAt:  time.Now(),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF"))
}
