// Package sweeper expires published AOs whose candidature deadline has
// passed. It is the only source of the system expire action.
package sweeper

import (
	"context"
	"time"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/metrics"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/engine"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

// Sweeper periodically lists overdue AOs and expires them through the
// engine, so expiry obeys the same table and concurrency rules as any
// other transition.
type Sweeper struct {
	store    repository.Store
	engine   *engine.Engine
	log      logger.Logger
	interval time.Duration
	now      func() time.Time
}

// Option configures the sweeper.
type Option func(*Sweeper)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(s *Sweeper) { s.now = now } }

// New creates a sweeper ticking at the given interval.
func New(store repository.Store, eng *engine.Engine, log logger.Logger, interval time.Duration, opts ...Option) *Sweeper {
	s := &Sweeper{
		store:    store,
		engine:   eng,
		log:      log.WithFields(map[string]interface{}{"component": "sweeper"}),
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on a ticker until the context is cancelled. The first sweep
// happens immediately so a restart does not delay overdue expirations.
func (s *Sweeper) Run(ctx context.Context) {
	s.sweepAndLog(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepAndLog(ctx)
		}
	}
}

func (s *Sweeper) sweepAndLog(ctx context.Context) {
	expired, err := s.SweepOnce(ctx)
	if err != nil {
		s.log.WithError(err).Error("sweep failed", nil)
		return
	}
	if expired > 0 {
		s.log.Info("sweep expired overdue offers", map[string]interface{}{"count": expired})
	}
}

// SweepOnce expires every overdue published AO and returns how many it
// transitioned. An AO that raced to a terminal status between listing and
// expiry is skipped, so repeated sweeps over the same data converge.
func (s *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	metrics.SweepRuns.Inc()

	overdue, err := s.store.ListExpiredPublishedAOs(ctx, s.now())
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, ao := range overdue {
		_, err := s.engine.ApplyActionRetry(ctx, engine.ActionRequest{
			Entity: models.EntityAO,
			ID:     ao.ID,
			Action: transition.ActionExpire,
			Actor:  models.System,
		})
		switch wferrors.CodeOf(err) {
		case "":
			expired++
			metrics.SweepExpirations.Inc()
		case wferrors.ErrCodeInvalidTransition, wferrors.ErrCodeNotFound, wferrors.ErrCodeConflict:
			// Already expired, deleted, or won by a concurrent writer.
		default:
			s.log.WithError(err).Error("expire failed", map[string]interface{}{"ao_id": ao.ID})
		}
	}
	return expired, nil
}
