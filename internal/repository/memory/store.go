// Package memory provides an in-memory repository.Store with the same
// optimistic-concurrency semantics as the Postgres store. Used by tests and
// by local development runs without a database.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Store keeps every entity in maps guarded by one mutex. Copies go in and
// out so callers never share memory with the store.
type Store struct {
	mu           sync.Mutex
	aos          map[string]*models.AO
	candidatures map[string]*models.Candidature
	interviews   map[string]*models.Interview
}

// New creates an empty store.
func New() *Store {
	return &Store{
		aos:          make(map[string]*models.AO),
		candidatures: make(map[string]*models.Candidature),
		interviews:   make(map[string]*models.Interview),
	}
}

// --- AO ---

func (s *Store) GetAO(_ context.Context, id string) (*models.AO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ao, ok := s.aos[id]
	if !ok {
		return nil, wferrors.NewNotFoundError(string(models.EntityAO), id)
	}
	cp := *ao
	return &cp, nil
}

func (s *Store) ListExpiredPublishedAOs(_ context.Context, now time.Time) ([]*models.AO, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.AO
	for _, ao := range s.aos {
		if ao.Status == models.AOPublished && ao.DeadlinePassed(now) {
			cp := *ao
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertAO(_ context.Context, ao *models.AO) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *ao
	s.aos[ao.ID] = &cp
	return nil
}

func (s *Store) UpdateAO(_ context.Context, ao *models.AO, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.aos[ao.ID]
	if !ok {
		return wferrors.NewNotFoundError(string(models.EntityAO), ao.ID)
	}
	if cur.Version != expectedVersion {
		return wferrors.NewConflictError(string(models.EntityAO), ao.ID)
	}
	ao.Version = expectedVersion + 1
	ao.UpdatedAt = time.Now().UTC()
	cp := *ao
	s.aos[ao.ID] = &cp
	return nil
}

func (s *Store) DeleteAO(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.aos[id]; !ok {
		return wferrors.NewNotFoundError(string(models.EntityAO), id)
	}
	delete(s.aos, id)
	return nil
}

// --- Candidature ---

func (s *Store) GetCandidature(_ context.Context, id string) (*models.Candidature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidatures[id]
	if !ok {
		return nil, wferrors.NewNotFoundError(string(models.EntityCandidature), id)
	}
	cp := *c
	return &cp, nil
}

func (s *Store) ListCandidaturesByAO(_ context.Context, aoID string) ([]*models.Candidature, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Candidature
	for _, c := range s.candidatures {
		if c.AOID == aoID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertCandidature(_ context.Context, c *models.Candidature) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.candidatures[c.ID] = &cp
	return nil
}

func (s *Store) UpdateCandidature(_ context.Context, c *models.Candidature, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.candidatures[c.ID]
	if !ok {
		return wferrors.NewNotFoundError(string(models.EntityCandidature), c.ID)
	}
	if cur.Version != expectedVersion {
		return wferrors.NewConflictError(string(models.EntityCandidature), c.ID)
	}
	c.Version = expectedVersion + 1
	c.UpdatedAt = time.Now().UTC()
	cp := *c
	s.candidatures[c.ID] = &cp
	return nil
}

func (s *Store) DeleteCandidature(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.candidatures[id]; !ok {
		return wferrors.NewNotFoundError(string(models.EntityCandidature), id)
	}
	delete(s.candidatures, id)
	return nil
}

// --- Interview ---

func (s *Store) GetInterview(_ context.Context, id string) (*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	iv, ok := s.interviews[id]
	if !ok {
		return nil, wferrors.NewNotFoundError(string(models.EntityInterview), id)
	}
	cp := *iv
	cp.ProposedSlots = append([]time.Time(nil), iv.ProposedSlots...)
	return &cp, nil
}

func (s *Store) ListInterviewsByCandidature(_ context.Context, candidatureID string) ([]*models.Interview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Interview
	for _, iv := range s.interviews {
		if iv.CandidatureID == candidatureID {
			cp := *iv
			cp.ProposedSlots = append([]time.Time(nil), iv.ProposedSlots...)
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertInterview(_ context.Context, iv *models.Interview) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *iv
	cp.ProposedSlots = append([]time.Time(nil), iv.ProposedSlots...)
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *Store) UpdateInterview(_ context.Context, iv *models.Interview, expectedVersion int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.interviews[iv.ID]
	if !ok {
		return wferrors.NewNotFoundError(string(models.EntityInterview), iv.ID)
	}
	if cur.Version != expectedVersion {
		return wferrors.NewConflictError(string(models.EntityInterview), iv.ID)
	}
	iv.Version = expectedVersion + 1
	iv.UpdatedAt = time.Now().UTC()
	cp := *iv
	cp.ProposedSlots = append([]time.Time(nil), iv.ProposedSlots...)
	s.interviews[iv.ID] = &cp
	return nil
}

func (s *Store) DeleteInterview(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviews[id]; !ok {
		return wferrors.NewNotFoundError(string(models.EntityInterview), id)
	}
	delete(s.interviews, id)
	return nil
}
