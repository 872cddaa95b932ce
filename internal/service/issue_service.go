package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/repository"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 5000
	ticketKeyAttempts    = 3
)

// IssueService handles issue intake and read models.
type IssueService struct {
	issues       repository.IssueRepository
	citizens     repository.CitizenRepository
	scorer       PriorityScorer
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	reportPoints int
}

// IssueDependencies bundles collaborators for IssueService.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	CitizenRepo  repository.CitizenRepository
	Scorer       PriorityScorer
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	ReportPoints int
}

// IssueCreateInput describes an issue report.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.IssueCategory
	Severity    domain.IssueSeverity
	Location    string
	WardZone    string
	Anonymous   bool
}

// IssueStaffFilter describes triage listing filters.
type IssueStaffFilter struct {
	AssignedTo *string
	WardZone   *string
	Statuses   []domain.IssueStatus
	Categories []domain.IssueCategory
	Severities []domain.IssueSeverity
	SearchTerm *string
	Limit      int
	Offset     int
}

// PublicStats aggregates issue counts for the public dashboard.
type PublicStats struct {
	Total      int                          `json:"total"`
	ByStatus   map[domain.IssueStatus]int   `json:"by_status"`
	ByCategory map[domain.IssueCategory]int `json:"by_category"`
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	scorer := deps.Scorer
	if scorer == nil {
		scorer = NewWeightedPriorityScorer()
	}
	return &IssueService{
		issues:       deps.IssueRepo,
		citizens:     deps.CitizenRepo,
		scorer:       scorer,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		reportPoints: deps.ReportPoints,
	}
}

// CreateIssue files a new pending issue on behalf of a citizen.
func (s *IssueService) CreateIssue(ctx context.Context, reporter domain.Actor, input IssueCreateInput) (*domain.Issue, error) {
	if reporter.Role != domain.ActorRoleCitizen || reporter.ID == "" {
		return nil, apperrors.NewPermissionDenied("only citizens can report issues")
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	issue := &domain.Issue{
		ID:          uuid.NewString(),
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Severity:    input.Severity,
		Status:      domain.IssueStatusPending,
		Anonymous:   input.Anonymous,
		Location:    input.Location,
		WardZone:    input.WardZone,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if !input.Anonymous {
		id := reporter.ID
		issue.ReporterID = &id
	}
	issue.PriorityScore = s.scorer.Score(issue)

	var err error
	for attempt := 0; attempt < ticketKeyAttempts; attempt++ {
		issue.TicketID = generateTicketKey()
		err = s.issues.Create(ctx, issue)
		if !errors.Is(err, repository.ErrDuplicate) {
			break
		}
	}
	if err != nil {
		return nil, apperrors.NewUnavailable("could not store issue", err)
	}

	if !issue.Anonymous && s.citizens != nil && s.reportPoints > 0 {
		if err := s.citizens.AddPoints(ctx, reporter.ID, s.reportPoints); err != nil {
			s.logger.Warn("failed to award report points",
				zap.String("citizen_id", reporter.ID),
				zap.String("issue_id", issue.ID),
				zap.Error(err))
		}
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventIssueCreated,
		IssueID:  issue.ID,
		TicketID: issue.TicketID,
		Actor:    events.Actor{ID: reporter.ID, Role: reporter.Role},
		Payload: events.IssueCreatedPayload{
			Title:         issue.Title,
			Category:      issue.Category,
			Severity:      issue.Severity,
			WardZone:      issue.WardZone,
			PriorityScore: issue.PriorityScore,
			Anonymous:     issue.Anonymous,
		},
	})
	return issue, nil
}

// GetIssue returns an issue with its history. Citizens only see issues they
// reported; anonymous issues are visible to staff only.
func (s *IssueService) GetIssue(ctx context.Context, actor domain.Actor, id string) (*domain.Issue, error) {
	issue, err := s.issues.Get(ctx, id)
	if err != nil {
		return nil, s.readError(err, "issue", map[string]any{"issue_id": id})
	}
	if err := canView(actor, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// GetIssueByTicket looks an issue up by its human readable ticket id.
func (s *IssueService) GetIssueByTicket(ctx context.Context, actor domain.Actor, ticketID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByTicketID(ctx, strings.ToUpper(strings.TrimSpace(ticketID)))
	if err != nil {
		return nil, s.readError(err, "issue", map[string]any{"ticket_id": ticketID})
	}
	if err := canView(actor, issue); err != nil {
		return nil, err
	}
	return issue, nil
}

// History returns a page of an issue's events, oldest first.
func (s *IssueService) History(ctx context.Context, actor domain.Actor, id string, limit, offset int) ([]domain.IssueEvent, error) {
	if _, err := s.GetIssue(ctx, actor, id); err != nil {
		return nil, err
	}
	history, err := s.issues.ListEvents(ctx, id, limit, offset)
	if err != nil {
		return nil, s.readError(err, "issue", map[string]any{"issue_id": id})
	}
	return history, nil
}

// ListForCitizen returns the citizen's own reports.
func (s *IssueService) ListForCitizen(ctx context.Context, actor domain.Actor, statuses []domain.IssueStatus, limit, offset int) ([]domain.Issue, error) {
	if actor.Role != domain.ActorRoleCitizen {
		return nil, apperrors.NewPermissionDenied("citizen role required")
	}
	id := actor.ID
	list, err := s.issues.List(ctx, repository.IssueFilter{
		ReporterID: &id,
		Statuses:   statuses,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, s.readError(err, "issue", nil)
	}
	return list, nil
}

// ListForStaff returns the triage queue. Field officers only see issues
// assigned to them.
func (s *IssueService) ListForStaff(ctx context.Context, actor domain.Actor, filter IssueStaffFilter) ([]domain.Issue, error) {
	if !actor.IsStaff() {
		return nil, apperrors.NewPermissionDenied("officer role required")
	}
	repoFilter := repository.IssueFilter{
		AssignedTo: filter.AssignedTo,
		WardZone:   filter.WardZone,
		Statuses:   filter.Statuses,
		Categories: filter.Categories,
		Severities: filter.Severities,
		SearchTerm: filter.SearchTerm,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if actor.Role == domain.ActorRoleFieldOfficer {
		id := actor.ID
		repoFilter.AssignedTo = &id
	}
	list, err := s.issues.List(ctx, repoFilter)
	if err != nil {
		return nil, s.readError(err, "issue", nil)
	}
	return list, nil
}

// PublicStats returns aggregate counts without exposing individual issues.
func (s *IssueService) PublicStats(ctx context.Context) (*PublicStats, error) {
	byStatus, err := s.issues.CountByStatus(ctx)
	if err != nil {
		return nil, s.readError(err, "stats", nil)
	}
	byCategory, err := s.issues.CountByCategory(ctx)
	if err != nil {
		return nil, s.readError(err, "stats", nil)
	}
	stats := &PublicStats{
		ByStatus:   make(map[domain.IssueStatus]int),
		ByCategory: byCategory,
	}
	for _, status := range []domain.IssueStatus{
		domain.IssueStatusPending,
		domain.IssueStatusInProgress,
		domain.IssueStatusResolved,
		domain.IssueStatusRejected,
	} {
		stats.ByStatus[status] = byStatus[status]
		stats.Total += byStatus[status]
	}
	return stats, nil
}

// Leaderboard returns citizens ordered by points.
func (s *IssueService) Leaderboard(ctx context.Context, limit int) ([]domain.Citizen, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	top, err := s.citizens.TopByPoints(ctx, limit)
	if err != nil {
		return nil, s.readError(err, "leaderboard", nil)
	}
	return top, nil
}

func (s *IssueService) readError(err error, resource string, details map[string]any) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound(resource, details)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewUnavailable("issue store timed out", err)
	default:
		s.logger.Error("issue store read failed", zap.String("resource", resource), zap.Error(err))
		return apperrors.NewUnavailable("issue store unavailable", err)
	}
}

func (s *IssueService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func canView(actor domain.Actor, issue *domain.Issue) error {
	if actor.IsStaff() {
		return nil
	}
	if actor.Role == domain.ActorRoleCitizen && issue.IsReportedBy(actor.ID) {
		return nil
	}
	return apperrors.NewPermissionDenied("issue belongs to another reporter")
}

func validateCreateInput(input *IssueCreateInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	input.Location = strings.TrimSpace(input.Location)
	input.WardZone = strings.TrimSpace(input.WardZone)

	switch {
	case input.Title == "":
		return apperrors.NewValidationError("title is required", map[string]any{"field": "title"})
	case len(input.Title) > maxTitleLength:
		return apperrors.NewValidationError("title is too long", map[string]any{"field": "title", "max": maxTitleLength})
	case input.Description == "":
		return apperrors.NewValidationError("description is required", map[string]any{"field": "description"})
	case len(input.Description) > maxDescriptionLength:
		return apperrors.NewValidationError("description is too long", map[string]any{"field": "description", "max": maxDescriptionLength})
	case !input.Category.Valid():
		return apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": input.Category})
	}
	if input.Severity == "" {
		input.Severity = domain.SeverityMedium
	}
	if !input.Severity.Valid() {
		return apperrors.NewValidationError("unknown severity", map[string]any{"field": "severity", "value": input.Severity})
	}
	return nil
}

func generateTicketKey() string {
	return "CC-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}
