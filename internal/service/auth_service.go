package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/scsvmv/vms-api/internal/models"
	"github.com/scsvmv/vms-api/pkg/config"
	appErrors "github.com/scsvmv/vms-api/pkg/errors"
)

type identityFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.Identity, error)
}

type profileResolver interface {
	GetByID(ctx context.Context, id string) (*models.Profile, error)
	GetFirstByRole(ctx context.Context, role models.Role) (*models.Profile, error)
}

// AuthService authenticates staff and issues access tokens.
type AuthService struct {
	identities identityFinder
	profiles   profileResolver
	jwtCfg     config.JWTConfig
	accessPIN  string
	validator  *validator.Validate
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates an instance of AuthService.
func NewAuthService(identities identityFinder, profiles profileResolver, jwtCfg config.JWTConfig, accessPIN string, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{
		identities: identities,
		profiles:   profiles,
		jwtCfg:     jwtCfg,
		accessPIN:  accessPIN,
		validator:  validate,
		logger:     logger,
		now:        time.Now,
	}
}

// Login verifies email/password credentials and issues a token. Every
// failure path, missing account included, reports the same credential error.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve account")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(identity.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid email or password")
	}

	profile, err := s.profiles.GetByID(ctx, identity.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "account has no profile")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to load profile")
	}

	return s.issue(profile)
}

// LoginWithPIN exchanges the shared gate PIN for a token bound to the
// security account. Gate terminals have no per-person credentials.
func (s *AuthService) LoginWithPIN(ctx context.Context, req models.PINLoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid pin payload")
	}
	if s.accessPIN == "" {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "pin login is not enabled")
	}
	if subtle.ConstantTimeCompare([]byte(req.PIN), []byte(s.accessPIN)) != 1 {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid access pin")
	}

	profile, err := s.profiles.GetFirstByRole(ctx, models.RoleSecurity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "no security account is provisioned")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Status, "failed to resolve security account")
	}
	return s.issue(profile)
}

// ValidateToken parses and verifies an access token, returning its claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.jwtCfg.Secret), nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	return claims, nil
}

func (s *AuthService) issue(profile *models.Profile) (*models.LoginResponse, error) {
	now := s.now().UTC()
	expiry := now.Add(s.jwtCfg.Expiration)
	claims := models.JWTClaims{
		UserID:     profile.ID,
		Email:      profile.Email,
		Role:       profile.Role,
		Department: profile.Department,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   profile.ID,
			Issuer:    s.jwtCfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.jwtCfg.Secret))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign token")
	}

	return &models.LoginResponse{
		AccessToken: signed,
		ExpiresIn:   int64(s.jwtCfg.Expiration.Seconds()),
		IssuedAt:    now,
		User: models.UserInfo{
			ID:         profile.ID,
			Email:      profile.Email,
			Role:       profile.Role,
			Department: profile.Department,
		},
	}, nil
}
