package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newIdentityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestIdentityRepositoryCreateNormalizesEmail(t *testing.T) {
	db, mock, cleanup := newIdentityRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	identity, err := repo.Create(context.Background(), "  Staff@SCSVMV.edu ", "hash")
	require.NoError(t, err)
	assert.Equal(t, "staff@scsvmv.edu", identity.Email)
	assert.NotEmpty(t, identity.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryCreateMapsUniqueViolation(t *testing.T) {
	db, mock, cleanup := newIdentityRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO identities")).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "identities_email_key"})

	_, err := repo.Create(context.Background(), "staff@scsvmv.edu", "hash")
	assert.ErrorIs(t, err, ErrEmailExists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newIdentityRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "created_at", "updated_at"}).
		AddRow("id-1", "staff@scsvmv.edu", "hash", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE LOWER(email) = LOWER($1)")).
		WithArgs("staff@scsvmv.edu").
		WillReturnRows(rows)

	identity, err := repo.FindByEmail(context.Background(), "staff@scsvmv.edu")
	require.NoError(t, err)
	assert.Equal(t, "id-1", identity.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdentityRepositoryUpdatePasswordAndDelete(t *testing.T) {
	db, mock, cleanup := newIdentityRepoMock(t)
	defer cleanup()

	repo := NewIdentityRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE identities SET password_hash = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdatePassword(context.Background(), "id-1", "newhash"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM identities WHERE id = $1")).
		WithArgs("id-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), "id-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
