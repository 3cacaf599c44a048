// Package propagator fans committed entity changes out to live subscribers.
// Delivery is best effort: a slow subscriber loses its oldest events rather
// than blocking the engine's commit path.
package propagator

import (
	"context"
	"sync"

	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/metrics"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
)

// Scope identifies a subscriber. The same ownership rule the engine enforces
// on writes decides which events the subscriber may see; admin and system
// scopes see everything.
type Scope struct {
	Role    models.Role
	ActorID string
}

// Event is one committed mutation.
type Event struct {
	Entity   models.EntityType `json:"entityType"`
	Snapshot models.Snapshot   `json:"snapshot"`
}

type subscriber struct {
	scope Scope
	ch    chan Event
	// last enqueued version per entity id; older events are dropped so a
	// subscriber never observes a status regression.
	last map[string]int
	once sync.Once
}

// Propagator implements the engine's Publisher hook.
type Propagator struct {
	store   repository.Store
	log     logger.Logger
	bufSize int

	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int

	// aoID -> owning company, cached because AO ownership never changes.
	owners map[string]string
}

// Option configures the propagator.
type Option func(*Propagator)

// WithBufferSize sets the per-subscriber channel depth.
func WithBufferSize(n int) Option { return func(p *Propagator) { p.bufSize = n } }

// New creates a propagator. The store is only consulted to resolve the owning
// company of candidature events, never on the hot path for AOs or interviews.
func New(store repository.Store, log logger.Logger, opts ...Option) *Propagator {
	p := &Propagator{
		store:   store,
		log:     log.WithFields(map[string]interface{}{"component": "propagator"}),
		bufSize: 64,
		subs:    make(map[int]*subscriber),
		owners:  make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe registers a scope and returns its event channel plus a cancel
// func. Cancel is idempotent and closes the channel.
func (p *Propagator) Subscribe(scope Scope) (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	sub := &subscriber{
		scope: scope,
		ch:    make(chan Event, p.bufSize),
		last:  make(map[string]int),
	}
	p.subs[id] = sub

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if _, ok := p.subs[id]; ok {
			delete(p.subs, id)
			sub.once.Do(func() { close(sub.ch) })
		}
	}
	return sub.ch, cancel
}

// Publish fans the snapshot out to every subscriber whose scope authorizes
// it. Never blocks.
func (p *Propagator) Publish(snap models.Snapshot) {
	company := p.resolveCompany(snap)
	ev := Event{Entity: snap.Entity, Snapshot: snap}
	key := string(snap.Entity) + "/" + snap.ID

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		if !authorized(sub.scope, snap, company) {
			continue
		}
		if snap.Version <= sub.last[key] {
			metrics.PropagatorDropped.WithLabelValues("stale").Inc()
			continue
		}
		sub.last[key] = snap.Version
		p.send(sub, ev)
	}
}

// send enqueues without blocking; when the buffer is full the oldest pending
// event is evicted in favor of the new one.
func (p *Propagator) send(sub *subscriber, ev Event) {
	select {
	case sub.ch <- ev:
		return
	default:
	}
	select {
	case <-sub.ch:
		metrics.PropagatorDropped.WithLabelValues("slow_subscriber").Inc()
	default:
	}
	select {
	case sub.ch <- ev:
	default:
		metrics.PropagatorDropped.WithLabelValues("slow_subscriber").Inc()
	}
}

// resolveCompany returns the owning company for candidature snapshots, which
// reference their parent AO rather than carrying the company id themselves.
func (p *Propagator) resolveCompany(snap models.Snapshot) string {
	switch snap.Entity {
	case models.EntityAO:
		if snap.AO != nil {
			return snap.AO.CompanyID
		}
	case models.EntityInterview:
		if snap.Interview != nil {
			return snap.Interview.CompanyID
		}
	case models.EntityCandidature:
		if snap.Candidature == nil {
			return ""
		}
		p.mu.Lock()
		owner, ok := p.owners[snap.Candidature.AOID]
		p.mu.Unlock()
		if ok {
			return owner
		}
		ao, err := p.store.GetAO(context.Background(), snap.Candidature.AOID)
		if err != nil {
			// Parent already deleted; company subscribers miss the final
			// cascade event, which only the admin dashboard needs anyway.
			return ""
		}
		p.mu.Lock()
		p.owners[ao.ID] = ao.CompanyID
		p.mu.Unlock()
		return ao.CompanyID
	}
	return ""
}

func authorized(scope Scope, snap models.Snapshot, company string) bool {
	switch scope.Role {
	case models.RoleAdmin, models.RoleSystem:
		return true
	case models.RoleCompany:
		return company != "" && company == scope.ActorID
	case models.RoleExpert:
		switch snap.Entity {
		case models.EntityCandidature:
			return snap.Candidature != nil && snap.Candidature.ExpertID == scope.ActorID
		case models.EntityInterview:
			return snap.Interview != nil && snap.Interview.ExpertID == scope.ActorID
		}
	}
	return false
}

// Close tears down every subscription.
func (p *Propagator) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, sub := range p.subs {
		delete(p.subs, id)
		sub.once.Do(func() { close(sub.ch) })
	}
}
