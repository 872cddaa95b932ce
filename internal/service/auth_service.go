package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// Session is an issued access token.
type Session struct {
	Token     string
	ExpiresAt time.Time
}

// AuthService coordinates registration and login flows.
type AuthService struct {
	citizens   repository.CitizenRepository
	officers   repository.OfficerRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	CitizenRepo repository.CitizenRepository
	OfficerRepo repository.OfficerRepository
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	return &AuthService{
		citizens:   deps.CitizenRepo,
		officers:   deps.OfficerRepo,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// RegisterCitizen creates a citizen account and signs them in.
func (s *AuthService) RegisterCitizen(ctx context.Context, name, email, password string) (*domain.Citizen, *Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil, apperrors.NewValidationError("full_name is required", map[string]any{"field": "full_name"})
	}
	email, err := normalizeEmail(email)
	if err != nil {
		return nil, nil, err
	}
	if err := auth.ValidatePassword(password); err != nil {
		return nil, nil, err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, nil, apperrors.NewInternalError(err)
	}
	citizen := &domain.Citizen{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.citizens.Create(ctx, citizen); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, nil, apperrors.NewUnavailable("could not create account", err)
	}

	session, err := s.issue(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, nil, err
	}
	return citizen, session, nil
}

// LoginCitizen authenticates a citizen.
func (s *AuthService) LoginCitizen(ctx context.Context, email, password string) (*domain.Citizen, *Session, error) {
	citizen, err := s.citizens.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, credentialError(err)
	}
	if err := auth.ComparePassword(citizen.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	session, err := s.issue(citizen.ID, domain.SubjectTypeCitizen, nil)
	if err != nil {
		return nil, nil, err
	}
	return citizen, session, nil
}

// LoginOfficer authenticates an active officer and returns a role-bearing token.
func (s *AuthService) LoginOfficer(ctx context.Context, email, password string) (*domain.Officer, *Session, error) {
	officer, err := s.officers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, nil, credentialError(err)
	}
	if err := auth.ComparePassword(officer.PasswordHash, password); err != nil {
		return nil, nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !officer.Active {
		return nil, nil, apperrors.NewUnauthorized("officer account is deactivated")
	}
	role := officer.Role
	session, err := s.issue(officer.ID, domain.SubjectTypeOfficer, &role)
	if err != nil {
		return nil, nil, err
	}
	return officer, session, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) issue(subjectID string, subject domain.SubjectType, role *domain.OfficerRole) (*Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(subjectID, subject, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &Session{Token: token, ExpiresAt: exp}, nil
}

func credentialError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	return apperrors.NewUnavailable("identity store unavailable", err)
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperrors.NewValidationError("email is invalid", map[string]any{"field": "email"})
	}
	return email, nil
}
