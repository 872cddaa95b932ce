package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// OfficerCacheInvalidator drops cached officer records after a write.
type OfficerCacheInvalidator interface {
	Invalidate(ctx context.Context, officerID string) error
}

// OfficerService manages the officer directory.
type OfficerService struct {
	officers   repository.OfficerRepository
	cache      OfficerCacheInvalidator
	logger     *zap.Logger
	bcryptCost int
}

// OfficerDependencies bundles collaborators for OfficerService.
type OfficerDependencies struct {
	OfficerRepo repository.OfficerRepository
	Cache       OfficerCacheInvalidator
	Logger      *zap.Logger
}

// OfficerCreateInput describes a new officer account.
type OfficerCreateInput struct {
	FullName string
	Email    string
	Password string
	Role     domain.OfficerRole
	WardZone *string
}

// OfficerListFilters define listing parameters.
type OfficerListFilters struct {
	Role     *domain.OfficerRole
	WardZone *string
	Active   *bool
	Limit    int
	Offset   int
}

// NewOfficerService constructs the service.
func NewOfficerService(cfg config.Config, deps OfficerDependencies) *OfficerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OfficerService{
		officers:   deps.OfficerRepo,
		cache:      deps.Cache,
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

func requireAdmin(actor domain.Actor) error {
	if !actor.IsAdmin() {
		return apperrors.NewPermissionDenied("admin role required")
	}
	return nil
}

// CreateOfficer creates an officer account on behalf of an admin.
func (s *OfficerService) CreateOfficer(ctx context.Context, actor domain.Actor, input OfficerCreateInput) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Provision(ctx, input)
}

// Provision creates an officer without an acting admin. It backs the
// operator CLI, which is how the first admin is bootstrapped.
func (s *OfficerService) Provision(ctx context.Context, input OfficerCreateInput) (*domain.Officer, error) {
	name := strings.TrimSpace(input.FullName)
	if name == "" {
		return nil, apperrors.NewValidationError("full_name is required", map[string]any{"field": "full_name"})
	}
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}
	if !input.Role.Valid() {
		return nil, apperrors.NewValidationError("unknown officer role", map[string]any{"field": "role", "value": input.Role})
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return nil, err
	}
	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	officer := &domain.Officer{
		FullName:     name,
		Email:        email,
		PasswordHash: hash,
		Role:         input.Role,
		WardZone:     trimmedOrNil(input.WardZone),
		Active:       true,
	}
	if err := s.officers.Create(ctx, officer); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
		}
		return nil, apperrors.NewUnavailable("could not create officer", err)
	}
	s.logger.Info("officer created",
		zap.String("officer_id", officer.ID),
		zap.String("role", string(officer.Role)))
	return officer, nil
}

// ListOfficers returns officers matching filters.
func (s *OfficerService) ListOfficers(ctx context.Context, actor domain.Actor, filters OfficerListFilters) ([]domain.Officer, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("officer role required")
	}
	return s.List(ctx, filters)
}

// List returns officers without an access check, for operator tooling.
func (s *OfficerService) List(ctx context.Context, filters OfficerListFilters) ([]domain.Officer, error) {
	list, err := s.officers.List(ctx, repository.OfficerFilter{
		Role:     filters.Role,
		WardZone: filters.WardZone,
		Active:   filters.Active,
		Limit:    filters.Limit,
		Offset:   filters.Offset,
	})
	if err != nil {
		return nil, apperrors.NewUnavailable("officer store unavailable", err)
	}
	return list, nil
}

// DeactivateOfficer marks an officer inactive. Issues already assigned to
// them keep their assignee until an admin reassigns or revokes.
func (s *OfficerService) DeactivateOfficer(ctx context.Context, actor domain.Actor, officerID string) (*domain.Officer, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if actor.ID == officerID {
		return nil, apperrors.NewValidationError("admins cannot deactivate themselves", map[string]any{"officer_id": officerID})
	}
	officer, err := s.officers.GetByID(ctx, officerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
		}
		return nil, apperrors.NewUnavailable("officer store unavailable", err)
	}
	if !officer.Active {
		return officer, nil
	}
	officer.Active = false
	officer.UpdatedAt = time.Now().UTC()
	if err := s.officers.Update(ctx, officer); err != nil {
		return nil, apperrors.NewUnavailable("could not update officer", err)
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, officerID); err != nil {
			s.logger.Warn("officer cache invalidation failed", zap.String("officer_id", officerID), zap.Error(err))
		}
	}
	return officer, nil
}

func trimmedOrNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
