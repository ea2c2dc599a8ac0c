package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/internal/repository"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
	"github.com/scsvmv/vms-api/pkg/mailer"
)

type visitorStore interface {
	Create(ctx context.Context, v *models.VisitorRequest) error
	GetByID(ctx context.Context, id string) (*models.VisitorRequest, error)
	GetByUID(ctx context.Context, uid string) (*models.VisitorRequest, error)
	UIDExists(ctx context.Context, uid string) (bool, error)
	ListByDepartment(ctx context.Context, dept models.Department, status *models.VisitorStatus) ([]models.VisitorRequest, error)
	ListAll(ctx context.Context) ([]models.VisitorRequest, error)
	UpdateStatusIf(ctx context.Context, id string, expected models.VisitorStatus, change models.StatusChange) (*models.VisitorRequest, error)
}

type noticeDispatcher interface {
	Dispatch(notice mailer.ApprovalNotice)
	Send(ctx context.Context, notice mailer.ApprovalNotice) error
}

type logFeedCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, pattern string)
}

// UID format: fixed prefix, 4 random digits, 1-letter month code.
const uidPrefix = "SCSVMV"

var monthCodes = [...]string{"J", "F", "M", "A", "Y", "U", "L", "G", "S", "O", "N", "D"}

// FormatPassUID renders a pass UID from a 4-digit draw and a calendar month.
func FormatPassUID(draw int, month time.Month) string {
	return fmt.Sprintf("%s%04d%s", uidPrefix, draw, monthCodes[month-1])
}

// RegisterVisitorRequest is the anonymous registration payload.
type RegisterVisitorRequest struct {
	Name         string            `json:"name" validate:"required"`
	Designation  string            `json:"designation"`
	Organization string            `json:"organization"`
	Phone        string            `json:"phone" validate:"required,min=7"`
	Email        string            `json:"email" validate:"required,email"`
	Purpose      string            `json:"purpose" validate:"required"`
	Department   models.Department `json:"department" validate:"required"`
	PhotoURL     string            `json:"photo_url" validate:"required,url"`
}

// VisitorService drives the visitor lifecycle. All transitions are serialized
// by the store's conditional update; the service holds no locks.
type VisitorService struct {
	repo      visitorStore
	gate      *AuthzGate
	notifier  noticeDispatcher
	cache     logFeedCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger

	draw func() int
	now  func() time.Time
}

// NewVisitorService creates an instance of VisitorService.
func NewVisitorService(repo visitorStore, gate *AuthzGate, notifier noticeDispatcher, cache logFeedCache, cacheTTL time.Duration, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *VisitorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VisitorService{
		repo:      repo,
		gate:      gate,
		notifier:  notifier,
		cache:     cache,
		cacheTTL:  cacheTTL,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		draw:      func() int { return 1000 + rand.Intn(9000) },
		now:       time.Now,
	}
}

// Register inserts a new pending request. Anonymous and write-once: every
// later change goes through a gated transition.
func (s *VisitorService) Register(ctx context.Context, req RegisterVisitorRequest) (*models.VisitorRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}
	if !models.ValidDepartment(req.Department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown department %q", req.Department))
	}

	record := &models.VisitorRequest{
		Name:         strings.TrimSpace(req.Name),
		Designation:  strings.TrimSpace(req.Designation),
		Organization: strings.TrimSpace(req.Organization),
		Phone:        strings.TrimSpace(req.Phone),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Purpose:      strings.TrimSpace(req.Purpose),
		Department:   req.Department,
		PhotoURL:     req.PhotoURL,
		Status:       models.StatusPending,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to store visitor request")
	}
	s.invalidateLogFeed(ctx)
	s.metrics.ObserveTransition(string(models.StatusPending))
	return record, nil
}

// Approve transitions pending → approved, assigning the pass UID exactly
// once. Only a department admin of the record's own department may approve.
func (s *VisitorService) Approve(ctx context.Context, requestID, actorID string) (*models.VisitorRequest, error) {
	profile, err := s.gate.RequireRole(ctx, actorID, models.RoleDepartmentAdmin)
	if err != nil {
		return nil, err
	}

	record, err := s.fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.gate.RequireSameDepartment(profile, record.Department); err != nil {
		return nil, err
	}

	uid, err := s.newPassUID(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.UpdateStatusIf(ctx, record.ID, models.StatusPending, models.StatusChange{
		Status:     models.StatusApproved,
		VisitorUID: &uid,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.diagnose(ctx, record.ID, actionApprove)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to approve request")
	}

	s.invalidateLogFeed(ctx)
	s.metrics.ObserveTransition(string(models.StatusApproved))
	// Best effort: a failed email never undoes an approval.
	s.notifier.Dispatch(mailer.ApprovalNotice{
		To:          updated.Email,
		VisitorName: updated.Name,
		UID:         uid,
		Department:  string(updated.Department),
	})
	return updated, nil
}

// Resend re-sends the approval email without touching state. Unlike the
// approval path, a send failure is returned to the caller.
func (s *VisitorService) Resend(ctx context.Context, requestID, actorID string) error {
	profile, err := s.gate.RequireRole(ctx, actorID, models.RoleDepartmentAdmin)
	if err != nil {
		return err
	}
	record, err := s.fetch(ctx, requestID)
	if err != nil {
		return err
	}
	if err := s.gate.RequireSameDepartment(profile, record.Department); err != nil {
		return err
	}
	if record.Status == models.StatusPending || record.VisitorUID == nil {
		return appErrors.Clone(appErrors.ErrInvalidTransition, "visitor is not approved yet")
	}
	return s.notifier.Send(ctx, mailer.ApprovalNotice{
		To:          record.Email,
		VisitorName: record.Name,
		UID:         *record.VisitorUID,
		Department:  string(record.Department),
	})
}

// CheckIn transitions approved → checked_in. ref may be the request id or a
// scanned pass UID. Two concurrent scans resolve at the store: one wins, the
// other gets a deterministic diagnostic.
func (s *VisitorService) CheckIn(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSecurity); err != nil {
		return nil, err
	}
	id, err := s.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.repo.UpdateStatusIf(ctx, id, models.StatusApproved, models.StatusChange{
		Status:      models.StatusCheckedIn,
		CheckInTime: &now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.diagnose(ctx, id, actionCheckIn)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check in visitor")
	}
	s.invalidateLogFeed(ctx)
	s.metrics.ObserveTransition(string(models.StatusCheckedIn))
	return updated, nil
}

// CheckOut transitions checked_in → checked_out.
func (s *VisitorService) CheckOut(ctx context.Context, ref, actorID string) (*models.VisitorRequest, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSecurity); err != nil {
		return nil, err
	}
	id, err := s.resolveRef(ctx, ref)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	updated, err := s.repo.UpdateStatusIf(ctx, id, models.StatusCheckedIn, models.StatusChange{
		Status:       models.StatusCheckedOut,
		CheckOutTime: &now,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.diagnose(ctx, id, actionCheckOut)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check out visitor")
	}
	s.invalidateLogFeed(ctx)
	s.metrics.ObserveTransition(string(models.StatusCheckedOut))
	return updated, nil
}

// LookupByUID finds a visitor by pass UID for the security desk.
func (s *VisitorService) LookupByUID(ctx context.Context, uid, actorID string) (*models.VisitorRequest, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSecurity, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	record, err := s.repo.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "visitor not found or invalid UID")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to look up visitor")
	}
	return record, nil
}

// Get returns one request for staff viewing (pass download, detail view).
// Department admins only see their own department's requests.
func (s *VisitorService) Get(ctx context.Context, requestID, actorID string) (*models.VisitorRequest, error) {
	profile, err := s.gate.RequireRole(ctx, actorID, models.RoleDepartmentAdmin, models.RoleSecurity, models.RoleSuperAdmin)
	if err != nil {
		return nil, err
	}
	record, err := s.fetch(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if profile.Role == models.RoleDepartmentAdmin {
		if err := s.gate.RequireSameDepartment(profile, record.Department); err != nil {
			return nil, err
		}
	}
	return record, nil
}

// ListByDepartment returns the acting admin's department queue.
func (s *VisitorService) ListByDepartment(ctx context.Context, actorID string, status *models.VisitorStatus) ([]models.VisitorRequest, error) {
	profile, err := s.gate.RequireRole(ctx, actorID, models.RoleDepartmentAdmin)
	if err != nil {
		return nil, err
	}
	if profile.Department == nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "caller has no department")
	}
	visitors, err := s.repo.ListByDepartment(ctx, *profile.Department, status)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list visitor requests")
	}
	return visitors, nil
}

// Logs returns the full visitor log feed for the super admin, cached.
func (s *VisitorService) Logs(ctx context.Context, actorID string) ([]models.VisitorRequest, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSuperAdmin); err != nil {
		return nil, err
	}

	var cached []models.VisitorRequest
	if s.cache != nil {
		if err := s.cache.Get(ctx, repository.LogFeedCacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("log feed cache read failed", zap.Error(err))
		}
	}

	visitors, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load visitor logs")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, repository.LogFeedCacheKey, visitors, s.cacheTTL); err != nil {
			s.logger.Warn("log feed cache write failed", zap.Error(err))
		}
	}
	return visitors, nil
}

// fetch loads a record by id, mapping absence to NOT_FOUND.
func (s *VisitorService) fetch(ctx context.Context, requestID string) (*models.VisitorRequest, error) {
	record, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "visitor request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load visitor request")
	}
	return record, nil
}

// resolveRef maps a scanned pass UID or raw id to the record id.
func (s *VisitorService) resolveRef(ctx context.Context, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(strings.ToUpper(ref), uidPrefix) {
		return ref, nil
	}
	record, err := s.repo.GetByUID(ctx, ref)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "visitor not found or invalid UID")
		}
		return "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve visitor UID")
	}
	return record.ID, nil
}

// newPassUID draws a pass UID, retrying a handful of times when the draw is
// already taken. The textual format never varies.
func (s *VisitorService) newPassUID(ctx context.Context) (string, error) {
	var uid string
	for attempt := 0; attempt < 5; attempt++ {
		uid = FormatPassUID(s.draw(), s.now().Month())
		exists, err := s.repo.UIDExists(ctx, uid)
		if err != nil {
			return "", appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to check pass uid")
		}
		if !exists {
			return uid, nil
		}
	}
	// The UID space is small; after exhausting retries the last draw is
	// used, matching the source system's unchecked behaviour.
	return uid, nil
}

type transitionAction int

const (
	actionApprove transitionAction = iota
	actionCheckIn
	actionCheckOut
)

// diagnose turns a conditional-update miss into a precise error by
// re-reading the current row. No lock is taken: the losing side of a race
// lands here and learns the resulting status.
func (s *VisitorService) diagnose(ctx context.Context, id string, action transitionAction) error {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "visitor request not found")
		}
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load visitor request")
	}
	return transitionError(action, current.Status)
}

func transitionError(action transitionAction, current models.VisitorStatus) *appErrors.Error {
	switch action {
	case actionApprove:
		if current != models.StatusPending {
			return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("request already processed: status is %q", current))
		}
	case actionCheckIn:
		switch current {
		case models.StatusCheckedIn:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "visitor already checked in")
		case models.StatusCheckedOut:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "visitor pass already used (checked out)")
		case models.StatusPending:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot check in: visitor is not approved")
		}
	case actionCheckOut:
		switch current {
		case models.StatusCheckedOut:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "visitor already checked out")
		case models.StatusApproved:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "visitor has not checked in yet")
		case models.StatusPending:
			return appErrors.Clone(appErrors.ErrInvalidTransition, "cannot check out: visitor is not approved")
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidTransition, fmt.Sprintf("invalid transition from status %q", current))
}

func (s *VisitorService) invalidateLogFeed(ctx context.Context) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, repository.LogFeedCachePattern)
	}
}
