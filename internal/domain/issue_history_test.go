package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citycare/issue-service/internal/domain"
)

func strPtr(s string) *string { return &s }

func TestReplayHistory_EmptyIsPending(t *testing.T) {
	p := domain.ReplayHistory(nil)
	assert.Equal(t, domain.IssueStatusPending, p.Status)
	assert.Nil(t, p.AssignedTo)
	assert.Empty(t, p.RejectionReason)
}

func TestReplayHistory_AssignReassignRevoke(t *testing.T) {
	events := []domain.IssueEvent{
		{Sequence: 1, Kind: domain.EventKindAssign, FromStatus: domain.IssueStatusPending, ToStatus: domain.IssueStatusInProgress, ToAssignee: strPtr("W1")},
		{Sequence: 2, Kind: domain.EventKindComment, Comment: "on my way"},
		{Sequence: 3, Kind: domain.EventKindReassign, FromStatus: domain.IssueStatusInProgress, ToStatus: domain.IssueStatusInProgress, FromAssignee: strPtr("W1"), ToAssignee: strPtr("W2"), Reason: "shift change"},
		{Sequence: 4, Kind: domain.EventKindRevoke, FromStatus: domain.IssueStatusInProgress, ToStatus: domain.IssueStatusPending, FromAssignee: strPtr("W2"), Reason: "wrong ward"},
	}

	p := domain.ReplayHistory(events)
	assert.Equal(t, domain.IssueStatusPending, p.Status)
	assert.Nil(t, p.AssignedTo)
}

func TestReplayHistory_Reject(t *testing.T) {
	events := []domain.IssueEvent{
		{Sequence: 1, Kind: domain.EventKindReject, FromStatus: domain.IssueStatusPending, ToStatus: domain.IssueStatusRejected, Reason: "Duplicate report"},
	}
	p := domain.ReplayHistory(events)
	assert.Equal(t, domain.IssueStatusRejected, p.Status)
	assert.Equal(t, "Duplicate report", p.RejectionReason)
}

func TestVerifyProjection(t *testing.T) {
	issue := &domain.Issue{
		Status:     domain.IssueStatusInProgress,
		AssignedTo: strPtr("W1"),
		History: []domain.IssueEvent{
			{ID: "e1", Sequence: 1, Kind: domain.EventKindAssign, ToStatus: domain.IssueStatusInProgress, ToAssignee: strPtr("W1")},
		},
	}
	require.NoError(t, domain.VerifyProjection(issue))

	issue.Status = domain.IssueStatusResolved
	assert.ErrorContains(t, domain.VerifyProjection(issue), "status mismatch")

	issue.Status = domain.IssueStatusInProgress
	issue.AssignedTo = strPtr("W9")
	assert.ErrorContains(t, domain.VerifyProjection(issue), "assignee mismatch")

	issue.AssignedTo = strPtr("W1")
	issue.History[0].Sequence = 7
	assert.ErrorContains(t, domain.VerifyProjection(issue), "sequence")
}

func TestIssueClone_DoesNotAlias(t *testing.T) {
	original := &domain.Issue{
		ID:         "i1",
		AssignedTo: strPtr("W1"),
		History: []domain.IssueEvent{
			{ID: "e1", ToAssignee: strPtr("W1"), Report: &domain.WorkReport{WorkDone: "patched"}},
		},
	}
	clone := original.Clone()
	*clone.AssignedTo = "W2"
	clone.History[0].Report.WorkDone = "changed"
	clone.History = append(clone.History, domain.IssueEvent{ID: "e2"})

	assert.Equal(t, "W1", *original.AssignedTo)
	assert.Equal(t, "patched", original.History[0].Report.WorkDone)
	assert.Len(t, original.History, 1)
}

func TestIssue_Ownership(t *testing.T) {
	issue := &domain.Issue{ReporterID: strPtr("c1"), AssignedTo: strPtr("W1")}
	assert.True(t, issue.IsReportedBy("c1"))
	assert.False(t, issue.IsReportedBy("c2"))
	assert.True(t, issue.IsAssignedTo("W1"))
	assert.False(t, issue.IsAssignedTo(""))

	issue.Anonymous = true
	assert.False(t, issue.IsReportedBy("c1"))
}

func TestEnums(t *testing.T) {
	assert.True(t, domain.IssueStatusResolved.IsTerminal())
	assert.True(t, domain.IssueStatusRejected.IsTerminal())
	assert.False(t, domain.IssueStatusInProgress.IsTerminal())
	assert.False(t, domain.IssueStatus("closed").Valid())
	assert.True(t, domain.CategoryLighting.Valid())
	assert.False(t, domain.IssueCategory("noise").Valid())
	assert.True(t, domain.SeverityHigh.Valid())
	assert.True(t, domain.OfficerRoleField.Valid())
	assert.True(t, domain.Actor{Role: domain.ActorRoleWardOfficer}.IsStaff())
	assert.False(t, domain.Actor{Role: domain.ActorRoleCitizen}.IsStaff())
}
