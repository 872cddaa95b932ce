package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/cache"
	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/persistence"
	"github.com/citycare/issue-service/internal/repository"
	"github.com/citycare/issue-service/internal/service"
)

func useMemoryEnv(t *testing.T) *cliEnv {
	t.Helper()
	cfg := &config.Config{Auth: config.AuthConfig{BcryptCost: 4}}
	stores := repository.NewStores(nil)
	env := &cliEnv{
		cfg:    cfg,
		logger: zap.NewNop(),
		pg:     &persistence.Postgres{},
		stores: stores,
		officers: service.NewOfficerService(*cfg, service.OfficerDependencies{
			OfficerRepo: stores.Officers,
		}),
	}
	previous := openEnv
	openEnv = func(context.Context) (*cliEnv, func(), error) { return env, func() {}, nil }
	t.Cleanup(func() {
		openEnv = previous
		jsonOutput = false
	})
	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	jsonOutput = false
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seedAssignedIssue(t *testing.T, env *cliEnv, officerID string) *domain.Issue {
	t.Helper()
	ctx := context.Background()
	issues := service.NewIssueService(service.IssueDependencies{IssueRepo: env.stores.Issues, CitizenRepo: env.stores.Citizens})
	issue, err := issues.CreateIssue(ctx, domain.Actor{ID: "c1", Role: domain.ActorRoleCitizen}, service.IssueCreateInput{
		Title: "Streetlight out", Description: "Dark corner", Category: domain.CategoryLighting,
	})
	require.NoError(t, err)

	directory := cache.NewOfficerDirectory(env.stores.Officers, nil, 0, env.logger)
	lifecycle := service.NewLifecycleService(service.LifecycleDependencies{IssueRepo: env.stores.Issues, Officers: directory})
	_, err = lifecycle.Assign(ctx, domain.Actor{ID: "admin", Role: domain.ActorRoleAdmin}, issue.ID, officerID)
	require.NoError(t, err)
	return issue
}

func TestOfficerCreateAndList(t *testing.T) {
	useMemoryEnv(t)

	out, err := execute(t, "officer", "create", "--name", "Wen Field", "--email", "W1@City.gov",
		"--password", "field-pass-1", "--role", "field_officer", "--ward", "north")
	require.NoError(t, err)
	assert.Contains(t, out, "Wen Field")

	out, err = execute(t, "officer", "list", "--json", "--role", "field_officer")
	require.NoError(t, err)
	var views []officerView
	require.NoError(t, json.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "w1@city.gov", views[0].Email)
	assert.True(t, views[0].Active)

	_, err = execute(t, "officer", "create", "--name", "Bad", "--email", "bad@city.gov",
		"--password", "field-pass-1", "--role", "mayor")
	assert.Error(t, err)
}

func TestIssueShowAndVerify(t *testing.T) {
	env := useMemoryEnv(t)
	officer, err := env.officers.Provision(context.Background(), service.OfficerCreateInput{
		FullName: "Wen", Email: "w1@city.gov", Password: "field-pass-1", Role: domain.OfficerRoleField,
	})
	require.NoError(t, err)
	issue := seedAssignedIssue(t, env, officer.ID)

	out, err := execute(t, "issue", "show", issue.TicketID)
	require.NoError(t, err)
	assert.Contains(t, out, issue.TicketID)
	assert.Contains(t, out, "assign")

	out, err = execute(t, "issue", "verify", issue.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "1 events replay to in_progress")

	_, err = execute(t, "issue", "verify", "missing")
	assert.ErrorContains(t, err, "not found")
}

func TestIssueVerifyDetectsDrift(t *testing.T) {
	env := useMemoryEnv(t)
	officer, err := env.officers.Provision(context.Background(), service.OfficerCreateInput{
		FullName: "Wen", Email: "w1@city.gov", Password: "field-pass-1", Role: domain.OfficerRoleField,
	})
	require.NoError(t, err)
	issue := seedAssignedIssue(t, env, officer.ID)

	ctx := context.Background()
	stored, err := env.stores.Issues.Get(ctx, issue.ID)
	require.NoError(t, err)
	drifted := stored.Clone()
	drifted.Status = domain.IssueStatusResolved
	drifted.Revision++
	comment := domain.IssueEvent{
		ID: "ev-drift", IssueID: issue.ID, Sequence: len(stored.History) + 1,
		Kind: domain.EventKindComment, ActorID: "admin", ActorRole: domain.ActorRoleAdmin,
		Comment: "manual edit", Timestamp: time.Now().UTC(),
	}
	require.NoError(t, env.stores.Issues.CompareAndSwap(ctx, stored.Revision, drifted, comment))

	_, err = execute(t, "issue", "verify", issue.ID)
	assert.ErrorContains(t, err, "status mismatch")
}

func TestMigrateRequiresDatabase(t *testing.T) {
	useMemoryEnv(t)
	_, err := execute(t, "migrate")
	assert.ErrorContains(t, err, "POSTGRES_DSN")
}
