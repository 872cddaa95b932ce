package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/repository"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// OfficerDirectory resolves officers referenced by assign and reassign.
type OfficerDirectory interface {
	GetOfficer(ctx context.Context, id string) (*domain.Officer, error)
}

// LifecycleService owns every mutation of an issue after creation. Each
// successful call appends exactly one event to the issue history.
type LifecycleService struct {
	issues       repository.IssueRepository
	officers     OfficerDirectory
	dispatcher   events.Dispatcher
	logger       *zap.Logger
	storeTimeout time.Duration
	maxRetries   int
	now          func() time.Time
	locks        *issueLocks
}

// LifecycleDependencies bundles collaborators for the lifecycle engine.
type LifecycleDependencies struct {
	IssueRepo          repository.IssueRepository
	Officers           OfficerDirectory
	Dispatcher         events.Dispatcher
	Logger             *zap.Logger
	StoreTimeout       time.Duration
	MaxConflictRetries int
	Clock              func() time.Time
}

// TransitionResult is the updated issue plus the event that was appended.
type TransitionResult struct {
	Issue *domain.Issue
	Event domain.IssueEvent
}

// NewLifecycleService creates the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = func() time.Time { return time.Now().UTC() }
	}
	retries := deps.MaxConflictRetries
	if retries < 0 {
		retries = 0
	}
	return &LifecycleService{
		issues:       deps.IssueRepo,
		officers:     deps.Officers,
		dispatcher:   deps.Dispatcher,
		logger:       logger,
		storeTimeout: deps.StoreTimeout,
		maxRetries:   retries,
		now:          clock,
		locks:        newIssueLocks(),
	}
}

// UpdateStatus moves an issue between pending, in_progress and resolved.
func (s *LifecycleService) UpdateStatus(ctx context.Context, actor domain.Actor, issueID string, status domain.IssueStatus, comment string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:        OpUpdateStatus,
		actor:     actor,
		newStatus: status,
		comment:   strings.TrimSpace(comment),
	})
}

// Assign hands a pending issue to an officer and starts work on it.
func (s *LifecycleService) Assign(ctx context.Context, actor domain.Actor, issueID, officerID string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:        OpAssign,
		actor:     actor,
		officerID: strings.TrimSpace(officerID),
	})
}

// Reassign moves an assigned issue to a different officer.
func (s *LifecycleService) Reassign(ctx context.Context, actor domain.Actor, issueID, officerID, reason string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:        OpReassign,
		actor:     actor,
		officerID: strings.TrimSpace(officerID),
		reason:    strings.TrimSpace(reason),
	})
}

// Revoke clears the assignee and returns the issue to pending.
func (s *LifecycleService) Revoke(ctx context.Context, actor domain.Actor, issueID, reason string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:     OpRevoke,
		actor:  actor,
		reason: strings.TrimSpace(reason),
	})
}

// Reject closes a non-terminal issue with a reason.
func (s *LifecycleService) Reject(ctx context.Context, actor domain.Actor, issueID, reason string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:     OpReject,
		actor:  actor,
		reason: strings.TrimSpace(reason),
	})
}

// StartWork lets the assigned officer move a pending issue to in_progress.
// An issue already in_progress (for example through Assign) is rejected with
// INVALID_TRANSITION and no event is recorded.
func (s *LifecycleService) StartWork(ctx context.Context, actor domain.Actor, issueID, details string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:      OpStartWork,
		actor:   actor,
		comment: strings.TrimSpace(details),
	})
}

// CompleteWork resolves an in_progress issue with a structured work report.
func (s *LifecycleService) CompleteWork(ctx context.Context, actor domain.Actor, issueID string, report domain.WorkReport) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:     OpCompleteWork,
		actor:  actor,
		report: &report,
	})
}

// Comment appends a free text note without touching status or assignee.
func (s *LifecycleService) Comment(ctx context.Context, actor domain.Actor, issueID, text string) (*TransitionResult, error) {
	return s.execute(ctx, issueID, transitionRequest{
		op:      OpComment,
		actor:   actor,
		comment: strings.TrimSpace(text),
	})
}

func (s *LifecycleService) execute(ctx context.Context, issueID string, req transitionRequest) (*TransitionResult, error) {
	rule, ok := transitionTable[req.op]
	if !ok {
		return nil, apperrors.NewInternalError(fmt.Errorf("unknown lifecycle operation %q", req.op))
	}
	if req.actor.ID == "" {
		return nil, apperrors.NewUnauthorized("actor identity required")
	}
	if s.storeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()
	}

	release, err := s.locks.acquire(ctx, issueID)
	if err != nil {
		return nil, apperrors.NewUnavailable("timed out waiting for issue", err)
	}
	defer release()

	for attempt := 0; ; attempt++ {
		current, err := s.issues.Get(ctx, issueID)
		if err != nil {
			return nil, s.storeError(err, issueID)
		}

		next, event, err := s.plan(ctx, rule, current, req)
		if err != nil {
			return nil, err
		}

		err = s.issues.CompareAndSwap(ctx, current.Revision, next, event)
		if err == nil {
			next.History = append(next.History, event.Clone())
			s.publish(ctx, next, event)
			s.logger.Info("issue transition applied",
				zap.String("issue_id", next.ID),
				zap.String("operation", string(req.op)),
				zap.String("actor_id", req.actor.ID),
				zap.String("status", string(next.Status)),
				zap.Int("sequence", event.Sequence))
			return &TransitionResult{Issue: next, Event: event.Clone()}, nil
		}
		if !errors.Is(err, repository.ErrRevisionConflict) {
			return nil, s.storeError(err, issueID)
		}
		if attempt >= s.maxRetries {
			s.logger.Warn("issue revision conflict retries exhausted",
				zap.String("issue_id", issueID),
				zap.String("operation", string(req.op)),
				zap.Int("attempts", attempt+1))
			return nil, apperrors.NewUnavailable("issue is being modified concurrently, retry later", err)
		}
		s.logger.Debug("issue revision conflict, re-reading",
			zap.String("issue_id", issueID),
			zap.Int64("revision", current.Revision))
	}
}

// plan runs the rule checks against current and builds the next state and
// the event to append. current is never mutated.
func (s *LifecycleService) plan(ctx context.Context, rule transitionRule, current *domain.Issue, req transitionRequest) (*domain.Issue, domain.IssueEvent, error) {
	if err := rule.permitted(req.actor, current); err != nil {
		return nil, domain.IssueEvent{}, err
	}
	if err := rule.validate(req); err != nil {
		return nil, domain.IssueEvent{}, err
	}
	if err := rule.precondition(current, req); err != nil {
		return nil, domain.IssueEvent{}, err
	}
	if rule.needsOfficer {
		if err := s.checkOfficer(ctx, req.officerID); err != nil {
			return nil, domain.IssueEvent{}, err
		}
	}

	now := s.now()
	next := current.Clone()
	event := domain.IssueEvent{
		ID:           uuid.NewString(),
		IssueID:      current.ID,
		Sequence:     len(current.History) + 1,
		Kind:         rule.kind,
		ActorID:      req.actor.ID,
		ActorRole:    req.actor.Role,
		FromStatus:   current.Status,
		FromAssignee: cloneStringPtr(current.AssignedTo),
		Timestamp:    now,
	}
	rule.apply(next, req, &event)
	if rule.kind != domain.EventKindReject {
		next.RejectionReason = ""
	}
	if rule.kind == domain.EventKindComment {
		event.FromStatus = ""
		event.FromAssignee = nil
		next.RejectionReason = current.RejectionReason
	} else {
		event.ToStatus = next.Status
		event.ToAssignee = cloneStringPtr(next.AssignedTo)
	}
	next.Revision = current.Revision + 1
	next.UpdatedAt = now

	check := next.Clone()
	check.History = append(check.History, event)
	if err := domain.VerifyProjection(check); err != nil {
		return nil, domain.IssueEvent{}, apperrors.NewInternalError(err)
	}
	return next, event, nil
}

func (s *LifecycleService) checkOfficer(ctx context.Context, officerID string) error {
	if s.officers == nil {
		return apperrors.NewUnavailable("officer directory not configured", nil)
	}
	officer, err := s.officers.GetOfficer(ctx, officerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NewNotFound("officer", map[string]any{"officer_id": officerID})
		}
		return apperrors.NewUnavailable("officer directory unavailable", err)
	}
	if !officer.Active {
		return apperrors.NewValidationError("officer is inactive", map[string]any{"officer_id": officerID})
	}
	return nil
}

func (s *LifecycleService) storeError(err error, issueID string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.NewUnavailable("issue store timed out", err)
	default:
		s.logger.Error("issue store failure", zap.String("issue_id", issueID), zap.Error(err))
		return apperrors.NewUnavailable("issue store unavailable", err)
	}
}

func (s *LifecycleService) publish(ctx context.Context, issue *domain.Issue, event domain.IssueEvent) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, events.Event{
		ID:        event.ID,
		Type:      events.TypeForKind(event.Kind),
		IssueID:   issue.ID,
		TicketID:  issue.TicketID,
		Actor:     events.Actor{ID: event.ActorID, Role: event.ActorRole},
		Timestamp: event.Timestamp,
		Payload: events.IssueTransitionPayload{
			Kind:         event.Kind,
			Sequence:     event.Sequence,
			FromStatus:   event.FromStatus,
			ToStatus:     event.ToStatus,
			FromAssignee: cloneStringPtr(event.FromAssignee),
			ToAssignee:   cloneStringPtr(event.ToAssignee),
			Reason:       event.Reason,
			Comment:      event.Comment,
			Report:       event.Clone().Report,
		},
	})
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
