// internal/models/entity.go
package models

import (
	"fmt"
	"time"
)

// EntityType discriminates the three record kinds managed by the engine.
type EntityType string

const (
	EntityAO          EntityType = "ao"
	EntityCandidature EntityType = "candidature"
	EntityInterview   EntityType = "interview"
)

// ParseEntityType converts a raw string to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	switch et {
	case EntityAO, EntityCandidature, EntityInterview:
		return et, nil
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Snapshot is the engine's view of one entity after a mutation. Exactly one
// of AO, Candidature, Interview is non-nil, matching Entity.
type Snapshot struct {
	Entity      EntityType   `json:"entityType"`
	ID          string       `json:"id"`
	Status      string       `json:"status"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Version     int          `json:"version"`
	AO          *AO          `json:"ao,omitempty"`
	Candidature *Candidature `json:"candidature,omitempty"`
	Interview   *Interview   `json:"interview,omitempty"`
}

// SnapshotAO builds a snapshot for an AO record.
func SnapshotAO(a *AO) Snapshot {
	return Snapshot{Entity: EntityAO, ID: a.ID, Status: string(a.Status), UpdatedAt: a.UpdatedAt, Version: a.Version, AO: a}
}

// SnapshotCandidature builds a snapshot for a candidature record.
func SnapshotCandidature(c *Candidature) Snapshot {
	return Snapshot{Entity: EntityCandidature, ID: c.ID, Status: string(c.Status), UpdatedAt: c.UpdatedAt, Version: c.Version, Candidature: c}
}

// SnapshotInterview builds a snapshot for an interview record.
func SnapshotInterview(iv *Interview) Snapshot {
	return Snapshot{Entity: EntityInterview, ID: iv.ID, Status: string(iv.Status), UpdatedAt: iv.UpdatedAt, Version: iv.Version, Interview: iv}
}
