package worker

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/citycare/issue-service/internal/events"
	"github.com/citycare/issue-service/internal/service"
)

// Deliverer pushes one event to external channels.
type Deliverer interface {
	Deliver(ctx context.Context, event events.Event) error
}

// NotificationWorker drains queued events on a fixed pool of goroutines so
// SMTP and broker latency stay off the request path.
type NotificationWorker struct {
	deliverer Deliverer
	logger    *zap.Logger
	queue     chan events.Event
	workers   int

	mu      sync.RWMutex
	closed  bool
	group   *errgroup.Group
	stopped chan struct{}
}

// NewNotificationWorker builds a worker with the given pool size and buffer.
func NewNotificationWorker(deliverer Deliverer, logger *zap.Logger, workers, buffer int) *NotificationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = 2
	}
	if buffer <= 0 {
		buffer = 256
	}
	return &NotificationWorker{
		deliverer: deliverer,
		logger:    logger,
		queue:     make(chan events.Event, buffer),
		workers:   workers,
		stopped:   make(chan struct{}),
	}
}

// Enqueue offers an event without blocking. It returns false when the buffer
// is full or the worker has stopped.
func (w *NotificationWorker) Enqueue(event events.Event) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.closed {
		return false
	}
	select {
	case w.queue <- event:
		return true
	default:
		return false
	}
}

// Start launches the pool. Deliveries use ctx, which should outlive requests.
func (w *NotificationWorker) Start(ctx context.Context) {
	w.group, ctx = errgroup.WithContext(ctx)
	for i := 0; i < w.workers; i++ {
		w.group.Go(func() error {
			for event := range w.queue {
				if err := w.deliverer.Deliver(ctx, event); err != nil {
					w.logger.Debug("notification delivery incomplete",
						zap.String("event_id", event.ID),
						zap.Error(err))
				}
			}
			return nil
		})
	}
	go func() {
		_ = w.group.Wait()
		close(w.stopped)
	}()
}

// Stop refuses new events, drains the queue and waits for the pool or ctx.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.queue)
	}
	w.mu.Unlock()
	if w.group == nil {
		return nil
	}
	select {
	case <-w.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartNotificationWorker registers notification handlers and, when a
// worker is supplied, routes deliveries through it.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, w *NotificationWorker) {
	if notificationService == nil {
		return
	}
	if w != nil {
		notificationService.UseQueue(w.Enqueue)
		w.Start(ctx)
	}
	notificationService.RegisterHandlers()
}
