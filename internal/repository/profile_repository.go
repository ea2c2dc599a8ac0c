package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/scsvmv/vms-api/internal/models"
)

// ProfileRepository provides database access for staff profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository creates a new instance of ProfileRepository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// GetByID returns a profile by its identity id.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, email, role, department, created_at, updated_at FROM profiles WHERE id = $1 LIMIT 1`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByEmail returns a profile by email address.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	const query = `SELECT id, email, role, department, created_at, updated_at FROM profiles WHERE LOWER(email) = LOWER($1) LIMIT 1`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, strings.TrimSpace(email)); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetFirstByRole returns the oldest profile holding the given role. Used by
// the shared-PIN login, which maps the gate terminal onto one security account.
func (r *ProfileRepository) GetFirstByRole(ctx context.Context, role models.Role) (*models.Profile, error) {
	const query = `SELECT id, email, role, department, created_at, updated_at FROM profiles WHERE role = $1 ORDER BY created_at ASC LIMIT 1`
	var p models.Profile
	if err := r.db.GetContext(ctx, &p, query, role); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all profiles, newest first.
func (r *ProfileRepository) List(ctx context.Context) ([]models.Profile, error) {
	const query = `SELECT id, email, role, department, created_at, updated_at FROM profiles ORDER BY created_at DESC`
	var profiles []models.Profile
	if err := r.db.SelectContext(ctx, &profiles, query); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Upsert inserts the profile or, when the identity id already has one,
// replaces its email, role, and department.
func (r *ProfileRepository) Upsert(ctx context.Context, p *models.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	const query = `INSERT INTO profiles (id, email, role, department, created_at, updated_at)
	VALUES (:id, :email, :role, :department, :created_at, :updated_at)
	ON CONFLICT (id) DO UPDATE SET email = EXCLUDED.email, role = EXCLUDED.role, department = EXCLUDED.department, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, p); err != nil {
		return fmt.Errorf("upsert profile: %w", err)
	}
	return nil
}

// Delete removes a profile row. Missing rows are not an error: the deletion
// flow tolerates a profile that is already gone.
func (r *ProfileRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM profiles WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}
