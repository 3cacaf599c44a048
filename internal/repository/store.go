// Package repository defines the entity store contract consumed by the
// workflow engine. The store is the single source of truth; every write is
// conditioned on the version read beforehand (optimistic concurrency).
package repository

import (
	"context"
	"time"

	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Store is the engine-facing persistence contract.
//
// Update* applies the given record conditionally: the write succeeds only if
// the stored version still equals expectedVersion, in which case the version
// is incremented and UpdatedAt refreshed on the passed record. A stale
// expectedVersion yields a CONFLICT error, an unknown id a NOT_FOUND.
type Store interface {
	GetAO(ctx context.Context, id string) (*models.AO, error)
	GetCandidature(ctx context.Context, id string) (*models.Candidature, error)
	GetInterview(ctx context.Context, id string) (*models.Interview, error)

	ListCandidaturesByAO(ctx context.Context, aoID string) ([]*models.Candidature, error)
	ListInterviewsByCandidature(ctx context.Context, candidatureID string) ([]*models.Interview, error)
	ListExpiredPublishedAOs(ctx context.Context, now time.Time) ([]*models.AO, error)

	InsertAO(ctx context.Context, ao *models.AO) error
	InsertCandidature(ctx context.Context, c *models.Candidature) error
	InsertInterview(ctx context.Context, iv *models.Interview) error

	UpdateAO(ctx context.Context, ao *models.AO, expectedVersion int) error
	UpdateCandidature(ctx context.Context, c *models.Candidature, expectedVersion int) error
	UpdateInterview(ctx context.Context, iv *models.Interview, expectedVersion int) error

	DeleteAO(ctx context.Context, id string) error
	DeleteCandidature(ctx context.Context, id string) error
	DeleteInterview(ctx context.Context, id string) error
}
