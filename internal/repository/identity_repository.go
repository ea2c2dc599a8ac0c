package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/scsvmv/vms-api/internal/models"
)

// ErrEmailExists signals that identity creation hit the unique email
// constraint; the provisioning flow falls back to an update.
var ErrEmailExists = errors.New("email already exists")

const pqUniqueViolation = "23505"

// IdentityRepository implements the identity-provider contract against the
// local identities table.
type IdentityRepository struct {
	db *sqlx.DB
}

// NewIdentityRepository creates a new instance of IdentityRepository.
func NewIdentityRepository(db *sqlx.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// Create inserts a new identity with the given password hash and returns it.
// Returns ErrEmailExists when the email is already registered.
func (r *IdentityRepository) Create(ctx context.Context, email, passwordHash string) (*models.Identity, error) {
	now := time.Now().UTC()
	identity := &models.Identity{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	const query = `INSERT INTO identities (id, email, password_hash, created_at, updated_at)
	VALUES (:id, :email, :password_hash, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, identity); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create identity: %w", err)
	}
	return identity, nil
}

// FindByID returns an identity by identifier.
func (r *IdentityRepository) FindByID(ctx context.Context, id string) (*models.Identity, error) {
	const query = `SELECT id, email, password_hash, created_at, updated_at FROM identities WHERE id = $1 LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, id); err != nil {
		return nil, err
	}
	return &identity, nil
}

// FindByEmail returns an identity by exact email match.
func (r *IdentityRepository) FindByEmail(ctx context.Context, email string) (*models.Identity, error) {
	const query = `SELECT id, email, password_hash, created_at, updated_at FROM identities WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var identity models.Identity
	if err := r.db.GetContext(ctx, &identity, query, strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	return &identity, nil
}

// UpdatePassword replaces the stored password hash.
func (r *IdentityRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const query = `UPDATE identities SET password_hash = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, passwordHash, time.Now().UTC()); err != nil {
		return fmt.Errorf("update identity password: %w", err)
	}
	return nil
}

// Delete removes an identity row.
func (r *IdentityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM identities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete identity: %w", err)
	}
	return nil
}
