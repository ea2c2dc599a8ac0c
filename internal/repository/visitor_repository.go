package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scsvmv/vms-api/internal/models"
)

const visitorColumns = `id, name, designation, organization, phone, email, purpose, department, photo_url, status, visitor_uid, check_in_time, check_out_time, created_at`

// VisitorRepository provides database access for visitor requests.
type VisitorRepository struct {
	db *sqlx.DB
}

// NewVisitorRepository creates a new instance of VisitorRepository.
func NewVisitorRepository(db *sqlx.DB) *VisitorRepository {
	return &VisitorRepository{db: db}
}

// Create inserts a new visitor request. The row is write-once: later changes
// go through UpdateStatusIf only.
func (r *VisitorRepository) Create(ctx context.Context, v *models.VisitorRequest) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Status == "" {
		v.Status = models.StatusPending
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO visitor_requests
	(id, name, designation, organization, phone, email, purpose, department, photo_url, status, created_at)
	VALUES (:id, :name, :designation, :organization, :phone, :email, :purpose, :department, :photo_url, :status, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, v); err != nil {
		return fmt.Errorf("create visitor request: %w", err)
	}
	return nil
}

// GetByID returns a visitor request by identifier.
func (r *VisitorRepository) GetByID(ctx context.Context, id string) (*models.VisitorRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitor_requests WHERE id = $1 LIMIT 1`, visitorColumns)
	var v models.VisitorRequest
	if err := r.db.GetContext(ctx, &v, query, id); err != nil {
		return nil, err
	}
	return &v, nil
}

// GetByUID returns the most recent request carrying the given pass UID.
// The match is case-insensitive; newest-first keeps the lookup deterministic
// should duplicate UIDs ever exist.
func (r *VisitorRepository) GetByUID(ctx context.Context, uid string) (*models.VisitorRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitor_requests WHERE UPPER(visitor_uid) = UPPER($1) ORDER BY created_at DESC LIMIT 1`, visitorColumns)
	var v models.VisitorRequest
	if err := r.db.GetContext(ctx, &v, query, strings.TrimSpace(uid)); err != nil {
		return nil, err
	}
	return &v, nil
}

// UIDExists reports whether any request already carries the given UID.
func (r *VisitorRepository) UIDExists(ctx context.Context, uid string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM visitor_requests WHERE UPPER(visitor_uid) = UPPER($1))`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, uid); err != nil {
		return false, fmt.Errorf("check uid exists: %w", err)
	}
	return exists, nil
}

// ListByDepartment returns requests for one department, optionally filtered
// by status, newest first.
func (r *VisitorRepository) ListByDepartment(ctx context.Context, dept models.Department, status *models.VisitorStatus) ([]models.VisitorRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitor_requests WHERE department = $1`, visitorColumns)
	args := []interface{}{dept}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY created_at DESC"

	var visitors []models.VisitorRequest
	if err := r.db.SelectContext(ctx, &visitors, query, args...); err != nil {
		return nil, fmt.Errorf("list visitors by department: %w", err)
	}
	return visitors, nil
}

// ListAll returns every visitor request, newest first.
func (r *VisitorRepository) ListAll(ctx context.Context) ([]models.VisitorRequest, error) {
	query := fmt.Sprintf(`SELECT %s FROM visitor_requests ORDER BY created_at DESC`, visitorColumns)
	var visitors []models.VisitorRequest
	if err := r.db.SelectContext(ctx, &visitors, query); err != nil {
		return nil, fmt.Errorf("list visitor requests: %w", err)
	}
	return visitors, nil
}

// UpdateStatusIf applies change only when the stored status still equals
// expected, in a single atomic statement. It returns the post-update row, or
// sql.ErrNoRows when no row matched — the caller re-reads to diagnose.
func (r *VisitorRepository) UpdateStatusIf(ctx context.Context, id string, expected models.VisitorStatus, change models.StatusChange) (*models.VisitorRequest, error) {
	setParts := []string{"status = $3"}
	args := []interface{}{id, expected, change.Status}
	if change.VisitorUID != nil {
		args = append(args, *change.VisitorUID)
		setParts = append(setParts, fmt.Sprintf("visitor_uid = $%d", len(args)))
	}
	if change.CheckInTime != nil {
		args = append(args, *change.CheckInTime)
		setParts = append(setParts, fmt.Sprintf("check_in_time = $%d", len(args)))
	}
	if change.CheckOutTime != nil {
		args = append(args, *change.CheckOutTime)
		setParts = append(setParts, fmt.Sprintf("check_out_time = $%d", len(args)))
	}

	query := fmt.Sprintf(`UPDATE visitor_requests SET %s WHERE id = $1 AND status = $2 RETURNING %s`,
		strings.Join(setParts, ", "), visitorColumns)

	var updated models.VisitorRequest
	if err := r.db.GetContext(ctx, &updated, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("conditional status update: %w", err)
	}
	return &updated, nil
}
