package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/dto"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/service"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

// parsePage reads page and page_size into limit/offset.
func parsePage(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return pageSize, (page - 1) * pageSize
}

func parseList[T ~string](raw string) []T {
	if raw == "" {
		return nil
	}
	var out []T
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, T(part))
		}
	}
	return out
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := strings.TrimSpace(c.Query(key)); val != "" {
		return &val
	}
	return nil
}

func issueSummary(issue *domain.Issue) dto.IssueSummary {
	return dto.IssueSummary{
		ID:            issue.ID,
		TicketID:      issue.TicketID,
		Title:         issue.Title,
		Category:      issue.Category,
		Severity:      issue.Severity,
		Status:        issue.Status,
		AssignedTo:    issue.AssignedTo,
		WardZone:      issue.WardZone,
		PriorityScore: issue.PriorityScore,
		CreatedAt:     issue.CreatedAt,
		UpdatedAt:     issue.UpdatedAt,
	}
}

func issueSummaries(issues []domain.Issue) []dto.IssueSummary {
	items := make([]dto.IssueSummary, 0, len(issues))
	for i := range issues {
		items = append(items, issueSummary(&issues[i]))
	}
	return items
}

func issueDetail(issue *domain.Issue) dto.IssueDetailResponse {
	return dto.IssueDetailResponse{
		ID:              issue.ID,
		TicketID:        issue.TicketID,
		Title:           issue.Title,
		Description:     issue.Description,
		Category:        issue.Category,
		Severity:        issue.Severity,
		Status:          issue.Status,
		AssignedTo:      issue.AssignedTo,
		ReporterID:      issue.ReporterID,
		Anonymous:       issue.Anonymous,
		Location:        issue.Location,
		WardZone:        issue.WardZone,
		PriorityScore:   issue.PriorityScore,
		RejectionReason: issue.RejectionReason,
		Revision:        issue.Revision,
		CreatedAt:       issue.CreatedAt,
		UpdatedAt:       issue.UpdatedAt,
		History:         eventResponses(issue.History),
	}
}

func eventResponse(ev domain.IssueEvent) dto.IssueEventResponse {
	return dto.IssueEventResponse{
		ID:           ev.ID,
		Sequence:     ev.Sequence,
		Kind:         ev.Kind,
		ActorID:      ev.ActorID,
		ActorRole:    ev.ActorRole,
		FromStatus:   ev.FromStatus,
		ToStatus:     ev.ToStatus,
		FromAssignee: ev.FromAssignee,
		ToAssignee:   ev.ToAssignee,
		Reason:       ev.Reason,
		Comment:      ev.Comment,
		Report:       ev.Report,
		Timestamp:    ev.Timestamp,
	}
}

func eventResponses(history []domain.IssueEvent) []dto.IssueEventResponse {
	resp := make([]dto.IssueEventResponse, 0, len(history))
	for _, ev := range history {
		resp = append(resp, eventResponse(ev))
	}
	return resp
}

func transitionResponse(c *fiber.Ctx, result *service.TransitionResult, err error) error {
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TransitionResponse{
		Issue: issueDetail(result.Issue),
		Event: eventResponse(result.Event),
	}})
}

func officerResponse(officer *domain.Officer) dto.OfficerResponse {
	return dto.OfficerResponse{
		ID:        officer.ID,
		FullName:  officer.FullName,
		Email:     officer.Email,
		Role:      officer.Role,
		WardZone:  officer.WardZone,
		Active:    officer.Active,
		CreatedAt: officer.CreatedAt,
		UpdatedAt: officer.UpdatedAt,
	}
}
