package events_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/events"
)

func TestDispatcher_ContinuesAfterHandlerError(t *testing.T) {
	d := events.NewInMemoryDispatcher(nil)
	var calls []string
	d.Subscribe(events.EventIssueAssigned, func(context.Context, events.Event) error {
		calls = append(calls, "first")
		return errors.New("smtp down")
	})
	d.Subscribe(events.EventIssueAssigned, func(context.Context, events.Event) error {
		calls = append(calls, "second")
		return nil
	})
	d.Subscribe(events.EventIssueRejected, func(context.Context, events.Event) error {
		calls = append(calls, "unrelated")
		return nil
	})

	err := d.Publish(context.Background(), events.Event{Type: events.EventIssueAssigned, IssueID: "i1"})
	assert.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestTypeForKind(t *testing.T) {
	assert.Equal(t, events.EventIssueAssigned, events.TypeForKind(domain.EventKindAssign))
	assert.Equal(t, events.EventIssueReassigned, events.TypeForKind(domain.EventKindReassign))
	assert.Equal(t, events.EventIssueRevoked, events.TypeForKind(domain.EventKindRevoke))
	assert.Equal(t, events.EventIssueRejected, events.TypeForKind(domain.EventKindReject))
	assert.Equal(t, events.EventIssueCommented, events.TypeForKind(domain.EventKindComment))
	assert.Equal(t, events.EventIssueStatusChanged, events.TypeForKind(domain.EventKindStatusChange))
}
