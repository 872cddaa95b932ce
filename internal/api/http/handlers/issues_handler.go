package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/dto"
	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/service"
)

// IssuesHandler serves citizen issue endpoints.
type IssuesHandler struct {
	issues    *service.IssueService
	lifecycle *service.LifecycleService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issues *service.IssueService, lifecycle *service.LifecycleService) *IssuesHandler {
	return &IssuesHandler{issues: issues, lifecycle: lifecycle}
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	var req dto.CreateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	issue, err := h.issues.CreateIssue(c.UserContext(), auth.ActorFromContext(c), service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Severity:    req.Severity,
		Location:    req.Location,
		WardZone:    req.WardZone,
		Anonymous:   req.Anonymous,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": issueDetail(issue)})
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	statuses := parseList[domain.IssueStatus](c.Query("status"))
	issues, err := h.issues.ListForCitizen(c.UserContext(), auth.ActorFromContext(c), statuses, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	issue, err := h.issues.GetIssue(c.UserContext(), auth.ActorFromContext(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue)})
}

// AddComment POST /issues/:id/comments.
func (h *IssuesHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Comment(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Text)
	return transitionResponse(c, result, err)
}
