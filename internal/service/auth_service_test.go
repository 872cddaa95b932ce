package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
	"github.com/citycare/issue-service/internal/service"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 5
	cfg.Auth.BcryptCost = 4
	return cfg
}

func TestAuthService_CitizenFlow(t *testing.T) {
	ctx := context.Background()
	svc := service.NewAuthService(testConfig(), service.AuthDependencies{
		CitizenRepo: repository.NewMemoryCitizenRepository(),
		OfficerRepo: repository.NewMemoryOfficerRepository(),
	})

	citizen, session, err := svc.RegisterCitizen(ctx, "Cora", "Cora@Example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "cora@example.com", citizen.Email)
	assert.NotEmpty(t, session.Token)

	claims, err := svc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	assert.Equal(t, citizen.ID, claims.SubjectID())
	assert.Equal(t, domain.SubjectTypeCitizen, claims.Subject)

	_, _, err = svc.RegisterCitizen(ctx, "Cora", "cora@example.com", "password123")
	assert.Equal(t, apperrors.CodeConflict, apperrors.CodeOf(err))

	_, _, err = svc.RegisterCitizen(ctx, "Bad", "not-an-email", "password123")
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, _, err = svc.LoginCitizen(ctx, "cora@example.com", "wrong-password")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))

	_, _, err = svc.LoginCitizen(ctx, "nobody@example.com", "password123")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))

	_, session, err = svc.LoginCitizen(ctx, " CORA@example.com ", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
}

func TestOfficerService_LifecycleAndLogin(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	officers := repository.NewMemoryOfficerRepository()
	officerSvc := service.NewOfficerService(cfg, service.OfficerDependencies{OfficerRepo: officers})
	authSvc := service.NewAuthService(cfg, service.AuthDependencies{
		CitizenRepo: repository.NewMemoryCitizenRepository(),
		OfficerRepo: officers,
	})

	root, err := officerSvc.Provision(ctx, service.OfficerCreateInput{
		FullName: "Ada Admin", Email: "ada@city.gov", Password: "adminpass1", Role: domain.OfficerRoleAdmin,
	})
	require.NoError(t, err)
	admin := root.Actor()

	zone := " north "
	ward, err := officerSvc.CreateOfficer(ctx, admin, service.OfficerCreateInput{
		FullName: "Wes Ward", Email: "wes@city.gov", Password: "wardpass12", Role: domain.OfficerRoleWard, WardZone: &zone,
	})
	require.NoError(t, err)
	require.NotNil(t, ward.WardZone)
	assert.Equal(t, "north", *ward.WardZone)

	_, err = officerSvc.CreateOfficer(ctx, ward.Actor(), service.OfficerCreateInput{})
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	_, err = officerSvc.CreateOfficer(ctx, admin, service.OfficerCreateInput{
		FullName: "X", Email: "x@city.gov", Password: "password1", Role: "mayor",
	})
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	officer, session, err := authSvc.LoginOfficer(ctx, "wes@city.gov", "wardpass12")
	require.NoError(t, err)
	assert.Equal(t, ward.ID, officer.ID)
	claims, err := authSvc.TokenManager().ParseToken(session.Token)
	require.NoError(t, err)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.OfficerRoleWard, *claims.Role)

	active := true
	list, err := officerSvc.ListOfficers(ctx, admin, service.OfficerListFilters{Active: &active})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	deactivated, err := officerSvc.DeactivateOfficer(ctx, admin, ward.ID)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)

	_, err = officerSvc.DeactivateOfficer(ctx, admin, admin.ID)
	assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))

	_, err = officerSvc.DeactivateOfficer(ctx, admin, "ghost")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))

	_, _, err = authSvc.LoginOfficer(ctx, "wes@city.gov", "wardpass12")
	assert.Equal(t, apperrors.CodeUnauthorized, apperrors.CodeOf(err))
}
