package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusPending    IssueStatus = "pending"
	IssueStatusInProgress IssueStatus = "in_progress"
	IssueStatusResolved   IssueStatus = "resolved"
	IssueStatusRejected   IssueStatus = "rejected"
)

// IsTerminal reports whether no transition may leave the status.
func (s IssueStatus) IsTerminal() bool {
	return s == IssueStatusResolved || s == IssueStatusRejected
}

// Valid reports whether s is a known status.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusPending, IssueStatusInProgress, IssueStatusResolved, IssueStatusRejected:
		return true
	}
	return false
}

// IssueCategory classifies the reported problem.
type IssueCategory string

const (
	CategoryRoad     IssueCategory = "road"
	CategoryLighting IssueCategory = "lighting"
	CategoryWaste    IssueCategory = "waste"
	CategoryWater    IssueCategory = "water"
	CategoryOther    IssueCategory = "other"
)

// Valid reports whether c is a known category.
func (c IssueCategory) Valid() bool {
	switch c {
	case CategoryRoad, CategoryLighting, CategoryWaste, CategoryWater, CategoryOther:
		return true
	}
	return false
}

// IssueSeverity is the reporter supplied urgency.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// Valid reports whether s is a known severity.
func (s IssueSeverity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Issue is the aggregate for a reported civic problem.
//
// Status, AssignedTo and RejectionReason are a cached projection of History;
// ReplayHistory must always reproduce them.
type Issue struct {
	ID              string
	TicketID        string
	Title           string
	Description     string
	Category        IssueCategory
	Severity        IssueSeverity
	Status          IssueStatus
	AssignedTo      *string
	ReporterID      *string
	Anonymous       bool
	Location        string
	WardZone        string
	PriorityScore   float64
	RejectionReason string
	Revision        int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
	History         []IssueEvent
}

// IsAssignedTo reports whether officerID is the current assignee.
func (i *Issue) IsAssignedTo(officerID string) bool {
	return i.AssignedTo != nil && officerID != "" && *i.AssignedTo == officerID
}

// IsReportedBy reports whether citizenID filed the issue under their name.
func (i *Issue) IsReportedBy(citizenID string) bool {
	return !i.Anonymous && i.ReporterID != nil && citizenID != "" && *i.ReporterID == citizenID
}

// Clone returns a deep copy so callers can mutate without aliasing stored state.
func (i *Issue) Clone() *Issue {
	if i == nil {
		return nil
	}
	out := *i
	out.AssignedTo = cloneString(i.AssignedTo)
	out.ReporterID = cloneString(i.ReporterID)
	if i.History != nil {
		out.History = make([]IssueEvent, len(i.History))
		for idx := range i.History {
			out.History[idx] = i.History[idx].Clone()
		}
	}
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
