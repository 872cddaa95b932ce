package dto

import (
	"time"

	"github.com/citycare/issue-service/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
	Severity    domain.IssueSeverity `json:"severity"`
	Location    string               `json:"location"`
	WardZone    string               `json:"ward_zone"`
	Anonymous   bool                 `json:"anonymous"`
}

// IssueSummary response.
type IssueSummary struct {
	ID            string               `json:"id"`
	TicketID      string               `json:"ticket_id"`
	Title         string               `json:"title"`
	Category      domain.IssueCategory `json:"category"`
	Severity      domain.IssueSeverity `json:"severity"`
	Status        domain.IssueStatus   `json:"status"`
	AssignedTo    *string              `json:"assigned_to"`
	WardZone      string               `json:"ward_zone,omitempty"`
	PriorityScore float64              `json:"priority_score"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// IssueDetailResponse provides the full issue with its history.
type IssueDetailResponse struct {
	ID              string               `json:"id"`
	TicketID        string               `json:"ticket_id"`
	Title           string               `json:"title"`
	Description     string               `json:"description"`
	Category        domain.IssueCategory `json:"category"`
	Severity        domain.IssueSeverity `json:"severity"`
	Status          domain.IssueStatus   `json:"status"`
	AssignedTo      *string              `json:"assigned_to"`
	ReporterID      *string              `json:"reporter_id,omitempty"`
	Anonymous       bool                 `json:"anonymous"`
	Location        string               `json:"location,omitempty"`
	WardZone        string               `json:"ward_zone,omitempty"`
	PriorityScore   float64              `json:"priority_score"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	Revision        int64                `json:"revision"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
	History         []IssueEventResponse `json:"history"`
}

// IssueEventResponse represents one history entry.
type IssueEventResponse struct {
	ID           string                `json:"id"`
	Sequence     int                   `json:"sequence"`
	Kind         domain.IssueEventKind `json:"kind"`
	ActorID      string                `json:"actor_id"`
	ActorRole    domain.ActorRole      `json:"actor_role"`
	FromStatus   domain.IssueStatus    `json:"from_status,omitempty"`
	ToStatus     domain.IssueStatus    `json:"to_status,omitempty"`
	FromAssignee *string               `json:"from_assignee,omitempty"`
	ToAssignee   *string               `json:"to_assignee,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	Comment      string                `json:"comment,omitempty"`
	Report       *domain.WorkReport    `json:"report,omitempty"`
	Timestamp    time.Time             `json:"timestamp"`
}

// TransitionResponse is returned by every lifecycle operation.
type TransitionResponse struct {
	Issue IssueDetailResponse `json:"issue"`
	Event IssueEventResponse  `json:"event"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status  domain.IssueStatus `json:"status"`
	Comment string             `json:"comment"`
}

// AssignRequest payload for assign and reassign.
type AssignRequest struct {
	OfficerID string `json:"officer_id"`
	Reason    string `json:"reason"`
}

// ReasonRequest payload for revoke and reject.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// StartWorkRequest payload.
type StartWorkRequest struct {
	Details string `json:"details"`
}

// CompleteWorkRequest payload.
type CompleteWorkRequest struct {
	WorkDone      string `json:"work_done"`
	MaterialsUsed string `json:"materials_used"`
	TimeSpent     string `json:"time_spent"`
	TeamSize      int    `json:"team_size"`
	Notes         string `json:"notes"`
}

// CommentRequest payload.
type CommentRequest struct {
	Text string `json:"text"`
}

// LeaderboardEntry is a public view of a citizen's points.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	FullName string `json:"full_name"`
	Points   int    `json:"points"`
}
