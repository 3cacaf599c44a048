// Package engine implements the lifecycle engine: the only component allowed
// to mutate AO, candidature and interview status. Every mutation is validated
// against the transition table, guarded by ownership, and written under
// optimistic concurrency.
package engine

import (
	"context"
	"fmt"
	"time"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/metrics"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

// Notifier accepts fire-and-forget notification requests. Implementations
// must never block the caller; delivery failures are logged, not surfaced.
type Notifier interface {
	Notify(ctx context.Context, recipientID string, kind models.NotificationKind, payload map[string]interface{})
}

// Publisher receives the snapshot of every committed mutation.
type Publisher interface {
	Publish(snap models.Snapshot)
}

// Invalidator is the cache's invalidate-on-write hook.
type Invalidator interface {
	Invalidate(ctx context.Context, entity models.EntityType, id string)
}

// ActionRequest is one transition attempt. Actor identity comes from the
// upstream auth layer, never from the payload.
type ActionRequest struct {
	Entity  models.EntityType
	ID      string
	Action  transition.Action
	Actor   models.Actor
	Payload map[string]interface{}
}

// Result carries the updated snapshots. Secondary holds cascade updates and
// records created as side effects (e.g. the interview spawned by
// requestInterview). Warnings lists cascade writes that did not apply; when
// non-empty the returned error has code PARTIAL_CASCADE_FAILURE but the
// primary transition has committed.
type Result struct {
	Primary   models.Snapshot           `json:"primary"`
	Secondary []models.Snapshot         `json:"secondary,omitempty"`
	Warnings  []wferrors.CascadeFailure `json:"warnings,omitempty"`
}

// Engine validates and applies transitions. It holds no entity state across
// calls; each call re-reads from the store.
type Engine struct {
	store              repository.Store
	log                logger.Logger
	notifier           Notifier
	publisher          Publisher
	invalidator        Invalidator
	maxConflictRetries int
	now                func() time.Time
}

// Option configures optional collaborators.
type Option func(*Engine)

// WithNotifier wires the notification dispatcher.
func WithNotifier(n Notifier) Option { return func(e *Engine) { e.notifier = n } }

// WithPublisher wires the change propagator.
func WithPublisher(p Publisher) Option { return func(e *Engine) { e.publisher = p } }

// WithInvalidator wires the dashboard cache's invalidate-on-write hook.
func WithInvalidator(i Invalidator) Option { return func(e *Engine) { e.invalidator = i } }

// WithConflictRetries bounds ApplyActionRetry.
func WithConflictRetries(n int) Option { return func(e *Engine) { e.maxConflictRetries = n } }

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(e *Engine) { e.now = now } }

// New creates an engine on top of the given store.
func New(store repository.Store, log logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		store:              store,
		log:                log.WithFields(map[string]interface{}{"component": "engine"}),
		maxConflictRetries: 3,
		now:                func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ApplyAction validates and applies one transition, runs its cascades, emits
// notifications and returns the updated snapshots.
func (e *Engine) ApplyAction(ctx context.Context, req ActionRequest) (*Result, error) {
	start := e.now()

	var (
		res *Result
		err error
	)
	switch req.Entity {
	case models.EntityAO:
		res, err = e.applyAO(ctx, req)
	case models.EntityCandidature:
		res, err = e.applyCandidature(ctx, req)
	case models.EntityInterview:
		res, err = e.applyInterview(ctx, req)
	default:
		err = wferrors.NewNotFoundError(string(req.Entity), req.ID)
	}

	e.record(req, start, err)
	return res, err
}

// ApplyActionRetry wraps ApplyAction with a bounded retry on CONFLICT. Each
// retry re-reads fresh state; fatal errors pass through immediately.
func (e *Engine) ApplyActionRetry(ctx context.Context, req ActionRequest) (*Result, error) {
	var (
		res *Result
		err error
	)
	for attempt := 0; attempt < e.maxConflictRetries; attempt++ {
		res, err = e.ApplyAction(ctx, req)
		if err == nil || !wferrors.IsCode(err, wferrors.ErrCodeConflict) {
			return res, err
		}
		metrics.ConflictRetries.Inc()
		e.log.Warn("conflict, retrying with fresh state", map[string]interface{}{
			"entityType": req.Entity,
			"entityId":   req.ID,
			"attempt":    attempt + 1,
		})
	}
	return res, err
}

func (e *Engine) record(req ActionRequest, start time.Time, err error) {
	metrics.ActionDuration.WithLabelValues(string(req.Entity), string(req.Action)).
		Observe(e.now().Sub(start).Seconds())
	if err == nil || wferrors.IsCode(err, wferrors.ErrCodePartialCascadeFailure) {
		metrics.ActionsApplied.WithLabelValues(string(req.Entity), string(req.Action)).Inc()
		return
	}
	metrics.ActionsRejected.WithLabelValues(string(req.Entity), string(wferrors.CodeOf(err))).Inc()
}

// lookupRule resolves the transition-table row. An action the role may never
// take on the entity fails UNAUTHORIZED; a known action that is merely
// illegal from the current status fails INVALID_TRANSITION. Required payload
// fields are checked here too, before any write.
func lookupRule(entity models.EntityType, status string, action transition.Action, actor models.Actor, payload map[string]interface{}) (transition.Rule, error) {
	rule, ok := transition.Lookup(entity, status, action, actor.Role)
	if !ok {
		if transition.ActionKnown(entity, action) && !transition.RoleAllowed(entity, action, actor.Role) {
			return transition.Rule{}, wferrors.NewUnauthorizedError(
				fmt.Sprintf("role %s may not %s a %s", actor.Role, action, entity))
		}
		return transition.Rule{}, wferrors.NewInvalidTransitionError(string(entity), status, string(action), string(actor.Role))
	}
	for _, field := range rule.RequiredFields {
		if v, ok := payload[field]; !ok || v == nil || v == "" {
			return transition.Rule{}, wferrors.NewMissingFieldError(field)
		}
	}
	return rule, nil
}

// committed runs the post-commit hooks shared by every successful mutation.
func (e *Engine) committed(ctx context.Context, snap models.Snapshot) {
	if e.invalidator != nil {
		e.invalidator.Invalidate(ctx, snap.Entity, snap.ID)
	}
	if e.publisher != nil {
		e.publisher.Publish(snap)
	}
}

func (e *Engine) notify(ctx context.Context, recipientID string, kind models.NotificationKind, payload map[string]interface{}) {
	if e.notifier == nil || kind == "" || recipientID == "" {
		return
	}
	e.notifier.Notify(ctx, recipientID, kind, payload)
}
