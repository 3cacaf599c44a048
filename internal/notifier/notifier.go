// Package notifier delivers lifecycle notifications out of band. The engine
// hands off fire-and-forget; everything here is best effort except the inbox
// row, which is retried like any other channel but backed by Postgres.
package notifier

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/metrics"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Directory resolves recipient ids to deliverable contact details.
type Directory interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Channel delivers one notification to one recipient.
type Channel interface {
	Name() string
	Deliver(ctx context.Context, user *models.User, n *models.Notification) error
}

// Dispatcher accepts notification requests without blocking the caller.
type Dispatcher interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationKind, payload map[string]interface{})
}

type job struct {
	notification models.Notification
}

// AsyncDispatcher fans notifications out to its channels from a worker pool
// behind a bounded queue. When the queue is full the notification is dropped
// and counted; a lifecycle action never waits on email.
type AsyncDispatcher struct {
	directory Directory
	channels  []Channel
	log       logger.Logger

	queue      chan job
	retries    int
	retryDelay time.Duration
	workers    int
	timeout    time.Duration

	wg        sync.WaitGroup
	closeOnce sync.Once
	now       func() time.Time
}

// Option configures the dispatcher.
type Option func(*AsyncDispatcher)

// WithQueueSize sets the pending-notification bound.
func WithQueueSize(n int) Option { return func(d *AsyncDispatcher) { d.queue = make(chan job, n) } }

// WithRetries sets per-channel delivery attempts.
func WithRetries(n int) Option { return func(d *AsyncDispatcher) { d.retries = n } }

// WithRetryDelay sets the pause between delivery attempts.
func WithRetryDelay(delay time.Duration) Option {
	return func(d *AsyncDispatcher) { d.retryDelay = delay }
}

// WithWorkers sets the delivery concurrency.
func WithWorkers(n int) Option { return func(d *AsyncDispatcher) { d.workers = n } }

// WithDeliveryTimeout bounds one channel delivery attempt.
func WithDeliveryTimeout(timeout time.Duration) Option {
	return func(d *AsyncDispatcher) { d.timeout = timeout }
}

// NewAsync creates and starts the dispatcher.
func NewAsync(directory Directory, channels []Channel, log logger.Logger, opts ...Option) *AsyncDispatcher {
	d := &AsyncDispatcher{
		directory:  directory,
		channels:   channels,
		log:        log.WithFields(map[string]interface{}{"component": "notifier"}),
		queue:      make(chan job, 256),
		retries:    wferrors.GetRetryCount(wferrors.ErrCodeNotificationSendFailed),
		retryDelay: time.Second,
		workers:    2,
		timeout:    10 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(d)
	}
	d.wg.Add(d.workers)
	for i := 0; i < d.workers; i++ {
		go d.worker()
	}
	return d
}

// Notify enqueues a notification. Never blocks; a full queue drops the
// notification and counts it as failed.
func (d *AsyncDispatcher) Notify(_ context.Context, recipientID string, kind models.NotificationKind, payload map[string]interface{}) {
	n := models.Notification{
		ID:          uuid.New().String(),
		RecipientID: recipientID,
		Kind:        kind,
		Payload:     payload,
		CreatedAt:   d.now(),
	}
	select {
	case d.queue <- job{notification: n}:
	default:
		metrics.NotificationsFailed.WithLabelValues(string(kind)).Inc()
		d.log.Warn("notification queue full, dropping", map[string]interface{}{
			"recipient_id": recipientID,
			"kind":         string(kind),
		})
	}
}

// Close drains the queue and stops the workers.
func (d *AsyncDispatcher) Close() {
	d.closeOnce.Do(func() { close(d.queue) })
	d.wg.Wait()
}

func (d *AsyncDispatcher) worker() {
	defer d.wg.Done()
	for j := range d.queue {
		d.dispatch(j.notification)
	}
}

func (d *AsyncDispatcher) dispatch(n models.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	user, err := d.directory.GetUser(ctx, n.RecipientID)
	if err != nil {
		metrics.NotificationsFailed.WithLabelValues(string(n.Kind)).Inc()
		d.log.WithError(err).Error("recipient lookup failed", map[string]interface{}{
			"recipient_id": n.RecipientID,
			"kind":         string(n.Kind),
		})
		return
	}

	delivered := false
	for _, ch := range d.channels {
		if err := d.deliverWithRetry(ctx, ch, user, &n); err != nil {
			metrics.NotificationsFailed.WithLabelValues(string(n.Kind)).Inc()
			d.log.WithError(wferrors.NewNotificationSendFailedError(ch.Name(), err)).
				Error("notification delivery failed", map[string]interface{}{
					"channel":      ch.Name(),
					"recipient_id": n.RecipientID,
					"kind":         string(n.Kind),
				})
			continue
		}
		delivered = true
	}
	if delivered {
		metrics.NotificationsSent.WithLabelValues(string(n.Kind)).Inc()
	}
}

func (d *AsyncDispatcher) deliverWithRetry(ctx context.Context, ch Channel, user *models.User, n *models.Notification) error {
	var err error
	for attempt := 0; attempt <= d.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(d.retryDelay):
			}
		}
		if err = ch.Deliver(ctx, user, n); err == nil {
			return nil
		}
	}
	return err
}
