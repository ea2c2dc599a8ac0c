package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scsvmv/vms-api/internal/models"
)

func newVisitorRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func visitorRows(id string, status models.VisitorStatus, uid *string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "designation", "organization", "phone", "email", "purpose",
		"department", "photo_url", "status", "visitor_uid", "check_in_time", "check_out_time", "created_at",
	}).AddRow(id, "Ravi Kumar", "Engineer", "Acme", "9876543210", "ravi@example.com", "review",
		"CSE", "http://localhost/photo", status, uid, nil, nil, time.Now())
}

func TestVisitorRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO visitor_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	v := &models.VisitorRequest{
		Name:       "Ravi Kumar",
		Phone:      "9876543210",
		Email:      "ravi@example.com",
		Purpose:    "review",
		Department: models.DeptCSE,
		PhotoURL:   "http://localhost/photo",
	}
	require.NoError(t, repo.Create(context.Background(), v))
	assert.NotEmpty(t, v.ID)
	assert.Equal(t, models.StatusPending, v.Status)
	assert.False(t, v.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryGetByUIDCaseInsensitive(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	uid := "SCSVMV1234A"
	mock.ExpectQuery(regexp.QuoteMeta("UPPER(visitor_uid) = UPPER($1) ORDER BY created_at DESC LIMIT 1")).
		WithArgs("scsvmv1234a").
		WillReturnRows(visitorRows("req-1", models.StatusApproved, &uid))

	found, err := repo.GetByUID(context.Background(), "  scsvmv1234a ")
	require.NoError(t, err)
	assert.Equal(t, "req-1", found.ID)
	require.NotNil(t, found.VisitorUID)
	assert.Equal(t, uid, *found.VisitorUID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryUpdateStatusIfWins(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	uid := "SCSVMV1234A"
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE visitor_requests SET status = $3, visitor_uid = $4 WHERE id = $1 AND status = $2 RETURNING")).
		WithArgs("req-1", models.StatusPending, models.StatusApproved, uid).
		WillReturnRows(visitorRows("req-1", models.StatusApproved, &uid))

	updated, err := repo.UpdateStatusIf(context.Background(), "req-1", models.StatusPending, models.StatusChange{
		Status:     models.StatusApproved,
		VisitorUID: &uid,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryUpdateStatusIfLosesRace(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	now := time.Now().UTC()
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE visitor_requests SET status = $3, check_in_time = $4 WHERE id = $1 AND status = $2")).
		WithArgs("req-1", models.StatusApproved, models.StatusCheckedIn, now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.UpdateStatusIf(context.Background(), "req-1", models.StatusApproved, models.StatusChange{
		Status:      models.StatusCheckedIn,
		CheckInTime: &now,
	})
	// Passed through unwrapped so the service can diagnose.
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryUIDExists(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("SCSVMV1234A").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.UIDExists(context.Background(), "SCSVMV1234A")
	require.NoError(t, err)
	assert.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisitorRepositoryListByDepartmentStatusFilter(t *testing.T) {
	db, mock, cleanup := newVisitorRepoMock(t)
	defer cleanup()

	repo := NewVisitorRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE department = $1 AND status = $2 ORDER BY created_at DESC")).
		WithArgs(models.DeptCSE, models.StatusPending).
		WillReturnRows(visitorRows("req-1", models.StatusPending, nil))

	pending := models.StatusPending
	list, err := repo.ListByDepartment(context.Background(), models.DeptCSE, &pending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
