package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/citycare/issue-service/internal/config"
	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/notify"
)

// NotificationQueue hands events to an asynchronous deliverer. It reports
// false when the event could not be queued.
type NotificationQueue func(events.Event) bool

// NotificationService fans domain events out to mail, redis and RabbitMQ.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
	officers   OfficerDirectory
	mailer     notify.Mailer
	publishers map[string]notify.Publisher
	queue      NotificationQueue
}

// NotificationDependencies bundles optional delivery channels. Nil entries
// are skipped.
type NotificationDependencies struct {
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Officers   OfficerDirectory
	Mailer     notify.Mailer
	Publishers map[string]notify.Publisher
}

// NewNotificationService creates the service.
func NewNotificationService(cfg config.NotificationConfig, deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	publishers := make(map[string]notify.Publisher, len(deps.Publishers))
	for name, p := range deps.Publishers {
		if p != nil {
			publishers[name] = p
		}
	}
	return &NotificationService{
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
		officers:   deps.Officers,
		mailer:     deps.Mailer,
		publishers: publishers,
	}
}

// UseQueue routes events through queue instead of delivering inline.
func (n *NotificationService) UseQueue(queue NotificationQueue) {
	n.queue = queue
}

// RegisterHandlers subscribes to every issue event.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.handle)
	}
}

func (n *NotificationService) handle(ctx context.Context, event events.Event) error {
	n.logger.Info("issue event",
		zap.String("event_type", string(event.Type)),
		zap.String("issue_id", event.IssueID),
		zap.String("ticket_id", event.TicketID),
		zap.String("actor_id", event.Actor.ID))
	if n.queue != nil {
		if !n.queue(event) {
			n.logger.Warn("notification queue full, dropping event",
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	}
	return n.Deliver(ctx, event)
}

// Deliver pushes one event to every configured channel. Each channel gets
// its own timeout; failures are joined and returned after all channels ran.
func (n *NotificationService) Deliver(ctx context.Context, event events.Event) error {
	var errs []error
	routingKey := "issue." + string(event.Type)
	for name, publisher := range n.publishers {
		if err := n.withTimeout(ctx, func(ctx context.Context) error {
			return publisher.Publish(ctx, routingKey, event)
		}); err != nil {
			n.logger.Warn("event publish failed",
				zap.String("channel", name),
				zap.String("event_type", string(event.Type)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if err := n.mailAssignee(ctx, event); err != nil {
		n.logger.Warn("assignment mail failed", zap.String("issue_id", event.IssueID), zap.Error(err))
		errs = append(errs, fmt.Errorf("mail: %w", err))
	}
	return errors.Join(errs...)
}

func (n *NotificationService) mailAssignee(ctx context.Context, event events.Event) error {
	if n.mailer == nil || n.officers == nil {
		return nil
	}
	if event.Type != events.EventIssueAssigned && event.Type != events.EventIssueReassigned {
		return nil
	}
	payload, ok := event.Payload.(events.IssueTransitionPayload)
	if !ok || payload.ToAssignee == nil {
		return nil
	}
	officer, err := n.officers.GetOfficer(ctx, *payload.ToAssignee)
	if err != nil {
		return err
	}
	if strings.TrimSpace(officer.Email) == "" {
		return nil
	}

	subject := fmt.Sprintf("[CityCare] Issue %s assigned to you", event.TicketID)
	var body strings.Builder
	fmt.Fprintf(&body, "Hello %s,\n\n", officer.FullName)
	fmt.Fprintf(&body, "Issue %s has been assigned to you", event.TicketID)
	if payload.Reason != "" {
		fmt.Fprintf(&body, " (%s)", payload.Reason)
	}
	body.WriteString(".\n\nSign in to the CityCare staff console to review it.\n")

	return n.withTimeout(ctx, func(ctx context.Context) error {
		return n.mailer.Send(ctx, officer.Email, subject, body.String())
	})
}

func (n *NotificationService) withTimeout(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, n.cfg.PublishTimeout())
	defer cancel()
	return fn(ctx)
}
