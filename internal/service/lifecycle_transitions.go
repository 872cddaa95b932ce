package service

import (
	"fmt"
	"strings"

	"github.com/citycare/issue-service/internal/domain"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// Operation names a lifecycle operation.
type Operation string

const (
	OpUpdateStatus Operation = "update_status"
	OpAssign       Operation = "assign"
	OpReassign     Operation = "reassign"
	OpRevoke       Operation = "revoke"
	OpReject       Operation = "reject"
	OpStartWork    Operation = "start_work"
	OpCompleteWork Operation = "complete_work"
	OpComment      Operation = "comment"
)

// transitionRequest carries the operation specific input.
type transitionRequest struct {
	op        Operation
	actor     domain.Actor
	newStatus domain.IssueStatus
	officerID string
	reason    string
	comment   string
	report    *domain.WorkReport
}

// transitionRule is one row of the lifecycle table. Checks run in field
// order: permitted, validate, precondition; apply runs only when all pass.
type transitionRule struct {
	kind         domain.IssueEventKind
	needsOfficer bool
	permitted    func(actor domain.Actor, issue *domain.Issue) error
	validate     func(req transitionRequest) error
	precondition func(issue *domain.Issue, req transitionRequest) error
	apply        func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent)
}

var transitionTable = map[Operation]transitionRule{
	OpUpdateStatus: {
		kind:      domain.EventKindStatusChange,
		permitted: adminOrAssignee,
		validate: func(req transitionRequest) error {
			switch req.newStatus {
			case domain.IssueStatusPending, domain.IssueStatusInProgress, domain.IssueStatusResolved:
				return nil
			}
			return apperrors.NewValidationError("status must be one of pending, in_progress, resolved",
				map[string]any{"status": req.newStatus})
		},
		precondition: func(issue *domain.Issue, req transitionRequest) error {
			if err := notTerminal(issue); err != nil {
				return err
			}
			if issue.Status == req.newStatus {
				return invalidTransition(issue, fmt.Sprintf("issue is already %s", req.newStatus))
			}
			if req.newStatus == domain.IssueStatusResolved && issue.Status != domain.IssueStatusInProgress {
				return invalidTransition(issue, "issue can only be resolved from in_progress")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			issue.Status = req.newStatus
			ev.Comment = req.comment
		},
	},
	OpAssign: {
		kind:         domain.EventKindAssign,
		needsOfficer: true,
		permitted:    adminOnly,
		validate: func(req transitionRequest) error {
			return required("officer_id", req.officerID)
		},
		precondition: func(issue *domain.Issue, _ transitionRequest) error {
			if issue.Status != domain.IssueStatusPending {
				return invalidTransition(issue, "only pending issues can be assigned")
			}
			if issue.AssignedTo != nil {
				return invalidTransition(issue, "issue already assigned; use reassign")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, _ *domain.IssueEvent) {
			officer := req.officerID
			issue.AssignedTo = &officer
			issue.Status = domain.IssueStatusInProgress
		},
	},
	OpReassign: {
		kind:         domain.EventKindReassign,
		needsOfficer: true,
		permitted:    adminOnly,
		validate: func(req transitionRequest) error {
			if err := required("officer_id", req.officerID); err != nil {
				return err
			}
			return required("reason", req.reason)
		},
		precondition: func(issue *domain.Issue, req transitionRequest) error {
			if err := notTerminal(issue); err != nil {
				return err
			}
			if issue.AssignedTo == nil {
				return invalidTransition(issue, "issue has no current assignee")
			}
			if *issue.AssignedTo == req.officerID {
				return invalidTransition(issue, "issue is already assigned to this officer")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			officer := req.officerID
			issue.AssignedTo = &officer
			ev.Reason = req.reason
		},
	},
	OpRevoke: {
		kind:      domain.EventKindRevoke,
		permitted: adminOnly,
		validate: func(req transitionRequest) error {
			return required("reason", req.reason)
		},
		precondition: func(issue *domain.Issue, _ transitionRequest) error {
			if err := notTerminal(issue); err != nil {
				return err
			}
			if issue.AssignedTo == nil {
				return invalidTransition(issue, "issue has no current assignee")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			issue.AssignedTo = nil
			issue.Status = domain.IssueStatusPending
			ev.Reason = req.reason
		},
	},
	OpReject: {
		kind:      domain.EventKindReject,
		permitted: adminOnly,
		validate: func(req transitionRequest) error {
			return required("reason", req.reason)
		},
		precondition: func(issue *domain.Issue, _ transitionRequest) error {
			return notTerminal(issue)
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			issue.Status = domain.IssueStatusRejected
			issue.RejectionReason = req.reason
			issue.AssignedTo = nil
			ev.Reason = req.reason
		},
	},
	OpStartWork: {
		kind:      domain.EventKindStatusChange,
		permitted: assigneeOnly,
		validate:  func(transitionRequest) error { return nil },
		precondition: func(issue *domain.Issue, _ transitionRequest) error {
			if issue.Status != domain.IssueStatusPending {
				return invalidTransition(issue, "work can only be started on a pending issue")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			issue.Status = domain.IssueStatusInProgress
			ev.Comment = req.comment
		},
	},
	OpCompleteWork: {
		kind:      domain.EventKindStatusChange,
		permitted: assigneeOnly,
		validate: func(req transitionRequest) error {
			if req.report == nil {
				return apperrors.NewValidationError("work report is required", map[string]any{"field": "report"})
			}
			if err := required("work_done", req.report.WorkDone); err != nil {
				return err
			}
			if req.report.TeamSize < 0 {
				return apperrors.NewValidationError("team_size cannot be negative", map[string]any{"field": "team_size"})
			}
			return nil
		},
		precondition: func(issue *domain.Issue, _ transitionRequest) error {
			if issue.Status != domain.IssueStatusInProgress {
				return invalidTransition(issue, "work can only be completed on an in_progress issue")
			}
			return nil
		},
		apply: func(issue *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			issue.Status = domain.IssueStatusResolved
			report := normalizeReport(*req.report)
			ev.Report = &report
		},
	},
	OpComment: {
		kind: domain.EventKindComment,
		permitted: func(actor domain.Actor, issue *domain.Issue) error {
			if actor.IsAdmin() || (actor.IsStaff() && issue.IsAssignedTo(actor.ID)) {
				return nil
			}
			if actor.Role == domain.ActorRoleCitizen && issue.IsReportedBy(actor.ID) {
				return nil
			}
			return apperrors.NewPermissionDenied("only the reporter, the assigned officer or an admin may comment")
		},
		validate: func(req transitionRequest) error {
			return required("comment", req.comment)
		},
		precondition: func(*domain.Issue, transitionRequest) error { return nil },
		apply: func(_ *domain.Issue, req transitionRequest, ev *domain.IssueEvent) {
			ev.Comment = req.comment
		},
	},
}

func adminOnly(actor domain.Actor, _ *domain.Issue) error {
	if !actor.IsAdmin() {
		return apperrors.NewPermissionDenied("admin role required")
	}
	return nil
}

func assigneeOnly(actor domain.Actor, issue *domain.Issue) error {
	if !actor.IsStaff() || !issue.IsAssignedTo(actor.ID) {
		return apperrors.NewPermissionDenied("only the assigned officer may perform this action")
	}
	return nil
}

func adminOrAssignee(actor domain.Actor, issue *domain.Issue) error {
	if actor.IsAdmin() {
		return nil
	}
	return assigneeOnly(actor, issue)
}

func notTerminal(issue *domain.Issue) error {
	if issue.Status.IsTerminal() {
		return invalidTransition(issue, fmt.Sprintf("issue is %s and can no longer change", issue.Status))
	}
	return nil
}

func invalidTransition(issue *domain.Issue, message string) error {
	return apperrors.NewInvalidTransition(message, map[string]any{
		"issue_id": issue.ID,
		"status":   issue.Status,
	})
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperrors.NewValidationError(field+" is required", map[string]any{"field": field})
	}
	return nil
}

func normalizeReport(r domain.WorkReport) domain.WorkReport {
	r.WorkDone = strings.TrimSpace(r.WorkDone)
	r.MaterialsUsed = strings.TrimSpace(r.MaterialsUsed)
	r.TimeSpent = strings.TrimSpace(r.TimeSpent)
	r.Notes = strings.TrimSpace(r.Notes)
	return r
}
