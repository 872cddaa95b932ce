package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
)

func newIssue(id, ticket string, score float64) *domain.Issue {
	now := time.Now().UTC()
	reporter := "citizen-1"
	return &domain.Issue{
		ID:            id,
		TicketID:      ticket,
		Title:         "Pothole on Main St",
		Description:   "Deep pothole near the bus stop",
		Category:      domain.CategoryRoad,
		Severity:      domain.SeverityHigh,
		Status:        domain.IssueStatusPending,
		ReporterID:    &reporter,
		WardZone:      "north",
		PriorityScore: score,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func assignEvent(issueID string, seq int, officer string) domain.IssueEvent {
	return domain.IssueEvent{
		ID:         "evt-" + officer,
		IssueID:    issueID,
		Sequence:   seq,
		Kind:       domain.EventKindAssign,
		ActorID:    "admin-1",
		ActorRole:  domain.ActorRoleAdmin,
		FromStatus: domain.IssueStatusPending,
		ToStatus:   domain.IssueStatusInProgress,
		ToAssignee: &officer,
		Timestamp:  time.Now().UTC(),
	}
}

func TestMemoryIssueRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIssueRepository()

	require.NoError(t, repo.Create(ctx, newIssue("i1", "CC-1", 1)))
	assert.ErrorIs(t, repo.Create(ctx, newIssue("i1", "CC-2", 1)), repository.ErrDuplicate)
	assert.ErrorIs(t, repo.Create(ctx, newIssue("i2", "CC-1", 1)), repository.ErrDuplicate)

	got, err := repo.GetByTicketID(ctx, "CC-1")
	require.NoError(t, err)
	assert.Equal(t, "i1", got.ID)
	assert.Empty(t, got.History)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestMemoryIssueRepository_CompareAndSwap(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIssueRepository()
	require.NoError(t, repo.Create(ctx, newIssue("i1", "CC-1", 1)))

	current, err := repo.Get(ctx, "i1")
	require.NoError(t, err)

	next := current.Clone()
	officer := "W1"
	next.Status = domain.IssueStatusInProgress
	next.AssignedTo = &officer
	next.Revision = current.Revision + 1
	event := assignEvent("i1", 1, "W1")
	require.NoError(t, repo.CompareAndSwap(ctx, current.Revision, next, event))

	stale := current.Clone()
	stale.Revision = current.Revision + 1
	err = repo.CompareAndSwap(ctx, current.Revision, stale, assignEvent("i1", 1, "W2"))
	assert.ErrorIs(t, err, repository.ErrRevisionConflict)

	stored, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Revision)
	require.Len(t, stored.History, 1)
	assert.Equal(t, "W1", *stored.AssignedTo)

	missing := newIssue("nope", "CC-9", 0)
	assert.ErrorIs(t, repo.CompareAndSwap(ctx, 0, missing, assignEvent("nope", 1, "W1")), repository.ErrNotFound)
}

func TestMemoryIssueRepository_ReadsAreIsolated(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIssueRepository()
	require.NoError(t, repo.Create(ctx, newIssue("i1", "CC-1", 1)))

	got, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	got.Status = domain.IssueStatusResolved
	got.History = append(got.History, domain.IssueEvent{ID: "rogue"})

	again, err := repo.Get(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusPending, again.Status)
	assert.Empty(t, again.History)
}

func TestMemoryIssueRepository_ListOrderingAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryIssueRepository()
	low := newIssue("low", "CC-LOW", 1)
	high := newIssue("high", "CC-HIGH", 9)
	water := newIssue("water", "CC-WATER", 5)
	water.Category = domain.CategoryWater
	water.Title = "Burst main"
	for _, issue := range []*domain.Issue{low, high, water} {
		require.NoError(t, repo.Create(ctx, issue))
	}

	all, err := repo.List(ctx, repository.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"high", "water", "low"}, []string{all[0].ID, all[1].ID, all[2].ID})

	onlyWater, err := repo.List(ctx, repository.IssueFilter{Categories: []domain.IssueCategory{domain.CategoryWater}})
	require.NoError(t, err)
	require.Len(t, onlyWater, 1)
	assert.Equal(t, "water", onlyWater[0].ID)

	term := "burst"
	searched, err := repo.List(ctx, repository.IssueFilter{SearchTerm: &term})
	require.NoError(t, err)
	require.Len(t, searched, 1)

	paged, err := repo.List(ctx, repository.IssueFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	assert.Equal(t, "low", paged[0].ID)

	counts, err := repo.CountByCategory(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[domain.CategoryRoad])
	assert.Equal(t, 1, counts[domain.CategoryWater])
}

func TestMemoryCitizenRepository_Leaderboard(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCitizenRepository()
	alice := &domain.Citizen{FullName: "Alice", Email: "Alice@Example.com"}
	bob := &domain.Citizen{FullName: "Bob", Email: "bob@example.com"}
	require.NoError(t, repo.Create(ctx, alice))
	require.NoError(t, repo.Create(ctx, bob))
	assert.ErrorIs(t, repo.Create(ctx, &domain.Citizen{Email: "alice@example.com"}), repository.ErrDuplicate)

	require.NoError(t, repo.AddPoints(ctx, bob.ID, 20))
	require.NoError(t, repo.AddPoints(ctx, alice.ID, 10))
	assert.ErrorIs(t, repo.AddPoints(ctx, "ghost", 1), repository.ErrNotFound)

	top, err := repo.TopByPoints(ctx, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, "Bob", top[0].FullName)

	byEmail, err := repo.GetByEmail(ctx, "ALICE@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)
}
