// internal/models/ao.go
package models

import (
	"fmt"
	"time"
)

// AOStatus mirrors the ao_status enum in PostgreSQL.
//
// Status graph:
//
//	DRAFT ──► SUBMITTED ──► PUBLISHED ──► ARCHIVED
//	              │   ▲          ├──────► EXPIRED
//	              ▼   │          └──────► FILLED
//	           REJECTED
//
// ARCHIVED, EXPIRED and FILLED are terminal. A terminal (or REJECTED) AO
// accepts no new candidature.
type AOStatus string

const (
	AODraft     AOStatus = "DRAFT"
	AOSubmitted AOStatus = "SUBMITTED"
	AOPublished AOStatus = "PUBLISHED"
	AORejected  AOStatus = "REJECTED"
	AOArchived  AOStatus = "ARCHIVED"
	AOExpired   AOStatus = "EXPIRED"
	AOFilled    AOStatus = "FILLED"
)

// ParseAOStatus converts a raw string to an AOStatus.
func ParseAOStatus(s string) (AOStatus, error) {
	st := AOStatus(s)
	switch st {
	case AODraft, AOSubmitted, AOPublished, AORejected, AOArchived, AOExpired, AOFilled:
		return st, nil
	}
	return "", fmt.Errorf("unknown AO status %q", s)
}

// Terminal reports whether the status admits no further transitions.
func (s AOStatus) Terminal() bool {
	return s == AOArchived || s == AOExpired || s == AOFilled
}

// AcceptsCandidatures reports whether a new candidature may be submitted
// against an AO in this status. Review actions on candidatures already in
// flight remain legal regardless.
func (s AOStatus) AcceptsCandidatures() bool {
	return s == AOPublished
}

// AO is a mission offer ("appel d'offres") posted by a company.
type AO struct {
	ID                  string     `json:"id"`
	CompanyID           string     `json:"companyId"`
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	Status              AOStatus   `json:"status"`
	RejectionReason     string     `json:"rejectionReason,omitempty"`
	CandidatureDeadline *time.Time `json:"candidatureDeadline,omitempty"`
	CreatedAt           time.Time  `json:"createdAt"`
	UpdatedAt           time.Time  `json:"updatedAt"`
	Version             int        `json:"version"`
}

// DeadlinePassed reports whether the candidature deadline is set and in the past.
func (a *AO) DeadlinePassed(now time.Time) bool {
	return a.CandidatureDeadline != nil && now.After(*a.CandidatureDeadline)
}
