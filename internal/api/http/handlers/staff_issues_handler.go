package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/api/dto"
	"github.com/citycare/issue-service/internal/auth"
	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/service"
)

// StaffIssuesHandler serves triage views and lifecycle operations.
type StaffIssuesHandler struct {
	issues    *service.IssueService
	lifecycle *service.LifecycleService
}

// NewStaffIssuesHandler constructs handler.
func NewStaffIssuesHandler(issues *service.IssueService, lifecycle *service.LifecycleService) *StaffIssuesHandler {
	return &StaffIssuesHandler{issues: issues, lifecycle: lifecycle}
}

// ListIssues GET /staff/issues.
func (h *StaffIssuesHandler) ListIssues(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	filter := service.IssueStaffFilter{
		AssignedTo: optionalQuery(c, "assigned_to"),
		WardZone:   optionalQuery(c, "ward_zone"),
		Statuses:   parseList[domain.IssueStatus](c.Query("status")),
		Categories: parseList[domain.IssueCategory](c.Query("category")),
		Severities: parseList[domain.IssueSeverity](c.Query("severity")),
		SearchTerm: optionalQuery(c, "search"),
		Limit:      limit,
		Offset:     offset,
	}
	issues, err := h.issues.ListForStaff(c.UserContext(), auth.ActorFromContext(c), filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueSummaries(issues)})
}

// GetIssue GET /staff/issues/:id. Ticket ids (CC-XXXXXXXX) are accepted too.
func (h *StaffIssuesHandler) GetIssue(c *fiber.Ctx) error {
	id := c.Params("id")
	actor := auth.ActorFromContext(c)
	var (
		issue *domain.Issue
		err   error
	)
	if strings.HasPrefix(strings.ToUpper(id), "CC-") {
		issue, err = h.issues.GetIssueByTicket(c.UserContext(), actor, id)
	} else {
		issue, err = h.issues.GetIssue(c.UserContext(), actor, id)
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueDetail(issue)})
}

// History GET /staff/issues/:id/history.
func (h *StaffIssuesHandler) History(c *fiber.Ctx) error {
	limit, offset := parsePage(c)
	history, err := h.issues.History(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": eventResponses(history)})
}

// UpdateStatus POST /staff/issues/:id/status.
func (h *StaffIssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.UpdateStatus(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Status, req.Comment)
	return transitionResponse(c, result, err)
}

// StartWork POST /staff/issues/:id/start.
func (h *StaffIssuesHandler) StartWork(c *fiber.Ctx) error {
	var req dto.StartWorkRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	result, err := h.lifecycle.StartWork(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Details)
	return transitionResponse(c, result, err)
}

// CompleteWork POST /staff/issues/:id/complete.
func (h *StaffIssuesHandler) CompleteWork(c *fiber.Ctx) error {
	var req dto.CompleteWorkRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.CompleteWork(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), domain.WorkReport{
		WorkDone:      req.WorkDone,
		MaterialsUsed: req.MaterialsUsed,
		TimeSpent:     req.TimeSpent,
		TeamSize:      req.TeamSize,
		Notes:         req.Notes,
	})
	return transitionResponse(c, result, err)
}

// AddComment POST /staff/issues/:id/comments.
func (h *StaffIssuesHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Comment(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Text)
	return transitionResponse(c, result, err)
}

// Assign POST /staff/issues/:id/assign.
func (h *StaffIssuesHandler) Assign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Assign(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.OfficerID)
	return transitionResponse(c, result, err)
}

// Reassign POST /staff/issues/:id/reassign.
func (h *StaffIssuesHandler) Reassign(c *fiber.Ctx) error {
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Reassign(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.OfficerID, req.Reason)
	return transitionResponse(c, result, err)
}

// Revoke POST /staff/issues/:id/revoke.
func (h *StaffIssuesHandler) Revoke(c *fiber.Ctx) error {
	var req dto.ReasonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Revoke(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Reason)
	return transitionResponse(c, result, err)
}

// Reject POST /staff/issues/:id/reject.
func (h *StaffIssuesHandler) Reject(c *fiber.Ctx) error {
	var req dto.ReasonRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.lifecycle.Reject(c.UserContext(), auth.ActorFromContext(c), c.Params("id"), req.Reason)
	return transitionResponse(c, result, err)
}
