package domain

import "time"

// IssueEventKind captures what kind of mutation an event records.
type IssueEventKind string

const (
	EventKindStatusChange IssueEventKind = "status_change"
	EventKindAssign       IssueEventKind = "assign"
	EventKindReassign     IssueEventKind = "reassign"
	EventKindRevoke       IssueEventKind = "revoke"
	EventKindReject       IssueEventKind = "reject"
	EventKindComment      IssueEventKind = "comment"
)

// WorkReport is the structured completion record filed by the assigned officer.
type WorkReport struct {
	WorkDone      string `json:"work_done"`
	MaterialsUsed string `json:"materials_used,omitempty"`
	TimeSpent     string `json:"time_spent,omitempty"`
	TeamSize      int    `json:"team_size,omitempty"`
	Notes         string `json:"notes,omitempty"`
}

// IssueEvent is an immutable history entry. Every event except comments
// carries the full post-event status and assignee so the projection can be
// rebuilt from history alone.
type IssueEvent struct {
	ID           string
	IssueID      string
	Sequence     int
	Kind         IssueEventKind
	ActorID      string
	ActorRole    ActorRole
	FromStatus   IssueStatus
	ToStatus     IssueStatus
	FromAssignee *string
	ToAssignee   *string
	Reason       string
	Comment      string
	Report       *WorkReport
	Timestamp    time.Time
}

// Clone returns a deep copy of the event.
func (e IssueEvent) Clone() IssueEvent {
	out := e
	out.FromAssignee = cloneString(e.FromAssignee)
	out.ToAssignee = cloneString(e.ToAssignee)
	if e.Report != nil {
		report := *e.Report
		out.Report = &report
	}
	return out
}
