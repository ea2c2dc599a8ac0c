package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/scsvmv/vms-api/internal/models"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
)

type profileReader interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
}

// AuthzGate resolves a caller identity to its Profile and enforces role and
// department checks. Read-only: every mutation path calls it before touching
// the store.
type AuthzGate struct {
	profiles profileReader
}

// NewAuthzGate constructs the gate.
func NewAuthzGate(profiles profileReader) *AuthzGate {
	return &AuthzGate{profiles: profiles}
}

// RequireRole loads the caller's profile and verifies its role is in the
// allowed set. Absent identity, missing profile, and wrong role all report
// UNAUTHORIZED.
func (g *AuthzGate) RequireRole(ctx context.Context, actorID string, allowed ...models.Role) (*models.Profile, error) {
	if actorID == "" {
		return nil, appErrors.ErrUnauthorized
	}
	profile, err := g.profiles.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnauthorized, "no profile for caller")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load caller profile")
	}
	for _, role := range allowed {
		if profile.Role == role {
			return profile, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, fmt.Sprintf("role %s may not perform this action", profile.Role))
}

// RequireSameDepartment verifies a department-scoped actor owns the record's
// department.
func (g *AuthzGate) RequireSameDepartment(profile *models.Profile, dept models.Department) error {
	if profile == nil || profile.Department == nil || *profile.Department != dept {
		return appErrors.Clone(appErrors.ErrUnauthorized, "request belongs to a different department")
	}
	return nil
}
