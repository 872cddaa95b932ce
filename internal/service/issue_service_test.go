package service_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/repository"
	"github.com/citycare/issue-service/internal/service"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

type issueFixture struct {
	issues    *repository.MemoryIssueRepository
	citizens  *repository.MemoryCitizenRepository
	svc       *service.IssueService
	reporter  domain.Actor
	published []events.Event
}

func newIssueFixture(t *testing.T) *issueFixture {
	t.Helper()
	f := &issueFixture{
		issues:   repository.NewMemoryIssueRepository(),
		citizens: repository.NewMemoryCitizenRepository(),
	}
	citizen := &domain.Citizen{FullName: "Cora Citizen", Email: "cora@example.com"}
	require.NoError(t, f.citizens.Create(context.Background(), citizen))
	f.reporter = citizen.Actor()

	dispatcher := events.NewInMemoryDispatcher(nil)
	dispatcher.Subscribe(events.EventIssueCreated, func(_ context.Context, ev events.Event) error {
		f.published = append(f.published, ev)
		return nil
	})
	f.svc = service.NewIssueService(service.IssueDependencies{
		IssueRepo:    f.issues,
		CitizenRepo:  f.citizens,
		Dispatcher:   dispatcher,
		ReportPoints: 10,
	})
	return f
}

func validInput() service.IssueCreateInput {
	return service.IssueCreateInput{
		Title:       "  Pothole on Main St ",
		Description: "Deep pothole next to the bus stop",
		Category:    domain.CategoryRoad,
		Severity:    domain.SeverityHigh,
		WardZone:    "north",
	}
}

func TestIssueService_CreateIssue(t *testing.T) {
	ctx := context.Background()
	f := newIssueFixture(t)

	issue, err := f.svc.CreateIssue(ctx, f.reporter, validInput())
	require.NoError(t, err)
	assert.Equal(t, "Pothole on Main St", issue.Title)
	assert.Equal(t, domain.IssueStatusPending, issue.Status)
	assert.Regexp(t, regexp.MustCompile(`^CC-[0-9A-F]{8}$`), issue.TicketID)
	assert.Equal(t, int64(0), issue.Revision)
	assert.Empty(t, issue.History)
	assert.InDelta(t, 3.9, issue.PriorityScore, 0.001)
	require.NotNil(t, issue.ReporterID)

	citizen, err := f.citizens.GetByID(ctx, f.reporter.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, citizen.Points)

	require.Len(t, f.published, 1)
	assert.Equal(t, issue.ID, f.published[0].IssueID)

	byTicket, err := f.svc.GetIssueByTicket(ctx, f.reporter, issue.TicketID)
	require.NoError(t, err)
	assert.Equal(t, issue.ID, byTicket.ID)
}

func TestIssueService_CreateAnonymous(t *testing.T) {
	ctx := context.Background()
	f := newIssueFixture(t)
	input := validInput()
	input.Anonymous = true

	issue, err := f.svc.CreateIssue(ctx, f.reporter, input)
	require.NoError(t, err)
	assert.Nil(t, issue.ReporterID)

	citizen, err := f.citizens.GetByID(ctx, f.reporter.ID)
	require.NoError(t, err)
	assert.Zero(t, citizen.Points)

	_, err = f.svc.GetIssue(ctx, f.reporter, issue.ID)
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	staffView, err := f.svc.GetIssue(ctx, domain.Actor{ID: "admin1", Role: domain.ActorRoleAdmin}, issue.ID)
	require.NoError(t, err)
	assert.True(t, staffView.Anonymous)
}

func TestIssueService_CreateValidation(t *testing.T) {
	f := newIssueFixture(t)
	cases := map[string]func(*service.IssueCreateInput){
		"missing title":    func(in *service.IssueCreateInput) { in.Title = " " },
		"missing body":     func(in *service.IssueCreateInput) { in.Description = "" },
		"unknown category": func(in *service.IssueCreateInput) { in.Category = "noise" },
		"unknown severity": func(in *service.IssueCreateInput) { in.Severity = "critical" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			input := validInput()
			mutate(&input)
			_, err := f.svc.CreateIssue(context.Background(), f.reporter, input)
			assert.Equal(t, apperrors.CodeValidationFailed, apperrors.CodeOf(err))
		})
	}

	_, err := f.svc.CreateIssue(context.Background(), domain.Actor{ID: "W1", Role: domain.ActorRoleWardOfficer}, validInput())
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))
}

func TestIssueService_ListsAndStats(t *testing.T) {
	ctx := context.Background()
	f := newIssueFixture(t)
	first, err := f.svc.CreateIssue(ctx, f.reporter, validInput())
	require.NoError(t, err)
	low := validInput()
	low.Severity = domain.SeverityLow
	low.Category = domain.CategoryWaste
	_, err = f.svc.CreateIssue(ctx, f.reporter, low)
	require.NoError(t, err)

	mine, err := f.svc.ListForCitizen(ctx, f.reporter, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, first.ID, mine[0].ID)

	field := domain.Actor{ID: "F1", Role: domain.ActorRoleFieldOfficer}
	queue, err := f.svc.ListForStaff(ctx, field, service.IssueStaffFilter{})
	require.NoError(t, err)
	assert.Empty(t, queue)

	ward := domain.Actor{ID: "W1", Role: domain.ActorRoleWardOfficer}
	queue, err = f.svc.ListForStaff(ctx, ward, service.IssueStaffFilter{Categories: []domain.IssueCategory{domain.CategoryWaste}})
	require.NoError(t, err)
	assert.Len(t, queue, 1)

	_, err = f.svc.ListForStaff(ctx, f.reporter, service.IssueStaffFilter{})
	assert.Equal(t, apperrors.CodePermissionDenied, apperrors.CodeOf(err))

	stats, err := f.svc.PublicStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ByStatus[domain.IssueStatusPending])
	assert.Equal(t, 0, stats.ByStatus[domain.IssueStatusResolved])
	assert.Equal(t, 1, stats.ByCategory[domain.CategoryWaste])

	board, err := f.svc.Leaderboard(ctx, 5)
	require.NoError(t, err)
	require.Len(t, board, 1)
	assert.Equal(t, 20, board[0].Points)

	_, err = f.svc.GetIssue(ctx, f.reporter, "missing")
	assert.Equal(t, apperrors.CodeNotFound, apperrors.CodeOf(err))
}
