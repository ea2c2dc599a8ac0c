package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/internal/repository"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
)

type identityStore interface {
	Create(ctx context.Context, email, passwordHash string) (*models.Identity, error)
	FindByID(ctx context.Context, id string) (*models.Identity, error)
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
}

type profileStore interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	List(ctx context.Context) ([]models.Profile, error)
	Upsert(ctx context.Context, p *models.Profile) error
	Delete(ctx context.Context, id string) error
}

// ProvisionUserRequest is the super admin's create-or-update payload.
type ProvisionUserRequest struct {
	Email      string             `json:"email" validate:"required,email"`
	Password   string             `json:"password" validate:"required,min=8"`
	Role       models.Role        `json:"role" validate:"required"`
	Department *models.Department `json:"department,omitempty"`
}

// ProvisionOutcome reports whether an account was freshly created or an
// existing one was updated in place.
type ProvisionOutcome struct {
	Profile *models.Profile `json:"profile"`
	Outcome string          `json:"outcome"`
}

const (
	OutcomeCreated = "created"
	OutcomeUpdated = "updated"
)

// ProvisioningService manages staff accounts. An account spans two stores,
// identity and profile, and provisioning keeps them consistent with a
// compensating delete rather than a cross-store transaction.
type ProvisioningService struct {
	identities identityStore
	profiles   profileStore
	gate       *AuthzGate
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewProvisioningService creates an instance of ProvisioningService.
func NewProvisioningService(identities identityStore, profiles profileStore, gate *AuthzGate, validate *validator.Validate, logger *zap.Logger) *ProvisioningService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ProvisioningService{
		identities: identities,
		profiles:   profiles,
		gate:       gate,
		validator:  validate,
		logger:     logger,
	}
}

// CreateOrUpdateUser provisions a staff account. A fresh email yields a new
// identity plus profile; a taken email updates the existing account's
// password, role and department instead. Super admin accounts can never be
// repurposed this way.
func (s *ProvisioningService) CreateOrUpdateUser(ctx context.Context, actorID string, req ProvisionUserRequest) (*ProvisionOutcome, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !models.ValidRole(req.Role) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown role %q", req.Role))
	}
	if req.Role == models.RoleDepartmentAdmin {
		if req.Department == nil || !models.ValidDepartment(*req.Department) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department admin requires a valid department")
		}
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	identity, err := s.identities.Create(ctx, email, string(hash))
	if err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return s.updateExisting(ctx, email, string(hash), req)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to create identity")
	}

	profile := &models.Profile{
		ID:         identity.ID,
		Email:      email,
		Role:       req.Role,
		Department: departmentFor(req),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		// Roll back the identity so the email is not left claimed by a
		// half-provisioned account.
		if delErr := s.identities.Delete(ctx, identity.ID); delErr != nil {
			s.logger.Error("orphaned identity left behind after failed provisioning",
				zap.String("identity_id", identity.ID),
				zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to create profile")
	}

	return &ProvisionOutcome{Profile: profile, Outcome: OutcomeCreated}, nil
}

// departmentFor keeps the payload's department only for department admins;
// every other role stores a null department regardless of what was sent.
func departmentFor(req ProvisionUserRequest) *models.Department {
	if req.Role == models.RoleDepartmentAdmin {
		return req.Department
	}
	return nil
}

func (s *ProvisioningService) updateExisting(ctx context.Context, email, hash string, req ProvisionUserRequest) (*ProvisionOutcome, error) {
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to resolve existing account")
	}

	existing, err := s.profiles.GetByID(ctx, identity.ID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load existing profile")
	}
	if existing != nil && existing.Role == models.RoleSuperAdmin {
		return nil, appErrors.Clone(appErrors.ErrProtectedAccount, "the super admin account cannot be modified")
	}

	if err := s.identities.UpdatePassword(ctx, identity.ID, hash); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to update password")
	}
	profile := &models.Profile{
		ID:         identity.ID,
		Email:      email,
		Role:       req.Role,
		Department: departmentFor(req),
	}
	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to update profile")
	}

	return &ProvisionOutcome{Profile: profile, Outcome: OutcomeUpdated}, nil
}

// DeleteUser removes a staff account, profile first. A missing profile is
// tolerated; a failed identity delete is surfaced so the remaining row is
// not silently orphaned.
func (s *ProvisioningService) DeleteUser(ctx context.Context, actorID, userID string) error {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSuperAdmin); err != nil {
		return err
	}
	if userID == actorID {
		return appErrors.Clone(appErrors.ErrProtectedAccount, "you cannot delete your own account")
	}

	target, err := s.profiles.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load target profile")
	}
	if target != nil && target.Role == models.RoleSuperAdmin {
		return appErrors.Clone(appErrors.ErrProtectedAccount, "the super admin account cannot be deleted")
	}

	if err := s.profiles.Delete(ctx, userID); err != nil {
		s.logger.Warn("profile delete failed, continuing with identity",
			zap.String("user_id", userID),
			zap.Error(err))
	}
	if err := s.identities.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrProvisioning.Code, appErrors.ErrProvisioning.Status, "failed to delete identity")
	}
	return nil
}

// ListUsers returns every staff profile for the admin console.
func (s *ProvisioningService) ListUsers(ctx context.Context, actorID string) ([]models.Profile, error) {
	if _, err := s.gate.RequireRole(ctx, actorID, models.RoleSuperAdmin); err != nil {
		return nil, err
	}
	profiles, err := s.profiles.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to list users")
	}
	return profiles, nil
}
