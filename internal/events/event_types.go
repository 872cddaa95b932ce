package events

import (
	"time"

	"github.com/citycare/issue-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventIssueAssigned      EventType = "issue_assigned"
	EventIssueReassigned    EventType = "issue_reassigned"
	EventIssueRevoked       EventType = "issue_revoked"
	EventIssueRejected      EventType = "issue_rejected"
	EventIssueCommented     EventType = "issue_commented"
)

// AllEventTypes lists every type a subscriber may register for.
var AllEventTypes = []EventType{
	EventIssueCreated,
	EventIssueStatusChanged,
	EventIssueAssigned,
	EventIssueReassigned,
	EventIssueRevoked,
	EventIssueRejected,
	EventIssueCommented,
}

// TypeForKind maps a history entry kind to the published event type.
func TypeForKind(kind domain.IssueEventKind) EventType {
	switch kind {
	case domain.EventKindAssign:
		return EventIssueAssigned
	case domain.EventKindReassign:
		return EventIssueReassigned
	case domain.EventKindRevoke:
		return EventIssueRevoked
	case domain.EventKindReject:
		return EventIssueRejected
	case domain.EventKindComment:
		return EventIssueCommented
	default:
		return EventIssueStatusChanged
	}
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	ID   string           `json:"id"`
	Role domain.ActorRole `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	IssueID   string    `json:"issue_id"`
	TicketID  string    `json:"ticket_id"`
	Actor     Actor     `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title         string               `json:"title"`
	Category      domain.IssueCategory `json:"category"`
	Severity      domain.IssueSeverity `json:"severity"`
	WardZone      string               `json:"ward_zone,omitempty"`
	PriorityScore float64              `json:"priority_score"`
	Anonymous     bool                 `json:"anonymous"`
}

// IssueTransitionPayload describes one appended history entry.
type IssueTransitionPayload struct {
	Kind         domain.IssueEventKind `json:"kind"`
	Sequence     int                   `json:"sequence"`
	FromStatus   domain.IssueStatus    `json:"from_status,omitempty"`
	ToStatus     domain.IssueStatus    `json:"to_status,omitempty"`
	FromAssignee *string               `json:"from_assignee,omitempty"`
	ToAssignee   *string               `json:"to_assignee,omitempty"`
	Reason       string                `json:"reason,omitempty"`
	Comment      string                `json:"comment,omitempty"`
	Report       *domain.WorkReport    `json:"report,omitempty"`
}
