package domain

import "fmt"

// Projection is the state derived by folding an issue's history.
type Projection struct {
	Status          IssueStatus
	AssignedTo      *string
	RejectionReason string
}

// ReplayHistory folds events from the initial pending state.
func ReplayHistory(events []IssueEvent) Projection {
	p := Projection{Status: IssueStatusPending}
	for _, ev := range events {
		if ev.Kind == EventKindComment {
			continue
		}
		p.Status = ev.ToStatus
		p.AssignedTo = cloneString(ev.ToAssignee)
		if ev.Kind == EventKindReject {
			p.RejectionReason = ev.Reason
		} else {
			p.RejectionReason = ""
		}
	}
	return p
}

// VerifyProjection checks that the cached fields on issue match its history.
func VerifyProjection(issue *Issue) error {
	p := ReplayHistory(issue.History)
	if p.Status != issue.Status {
		return fmt.Errorf("status mismatch: stored %q, replayed %q", issue.Status, p.Status)
	}
	if !sameAssignee(p.AssignedTo, issue.AssignedTo) {
		return fmt.Errorf("assignee mismatch: stored %s, replayed %s", describe(issue.AssignedTo), describe(p.AssignedTo))
	}
	if p.RejectionReason != issue.RejectionReason {
		return fmt.Errorf("rejection reason mismatch: stored %q, replayed %q", issue.RejectionReason, p.RejectionReason)
	}
	for idx, ev := range issue.History {
		if ev.Sequence != idx+1 {
			return fmt.Errorf("event %s has sequence %d at position %d", ev.ID, ev.Sequence, idx+1)
		}
	}
	return nil
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func describe(s *string) string {
	if s == nil {
		return "<none>"
	}
	return fmt.Sprintf("%q", *s)
}
