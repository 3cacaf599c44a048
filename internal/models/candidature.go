// internal/models/candidature.go
package models

import (
	"fmt"
	"time"
)

// CandidatureStatus mirrors the candidature_status enum in PostgreSQL.
//
// HIRED, WITHDRAWN, FILLED and both REJECTED_* statuses are terminal.
// FILLED marks a candidature closed because another expert was hired on the
// same AO; it is deliberately distinct from a rejection.
type CandidatureStatus string

const (
	CandidatureDraft              CandidatureStatus = "DRAFT"
	CandidatureSubmitted          CandidatureStatus = "SUBMITTED"
	CandidatureValidated          CandidatureStatus = "VALIDATED"
	CandidatureRejectedByAdmin    CandidatureStatus = "REJECTED_BY_ADMIN"
	CandidatureRejectedByCompany  CandidatureStatus = "REJECTED_BY_ENTERPRISE"
	CandidatureInterviewRequested CandidatureStatus = "INTERVIEW_REQUESTED"
	CandidatureHired              CandidatureStatus = "HIRED"
	CandidatureWithdrawn          CandidatureStatus = "WITHDRAWN"
	CandidatureFilled             CandidatureStatus = "FILLED"
)

// ParseCandidatureStatus converts a raw string to a CandidatureStatus.
func ParseCandidatureStatus(s string) (CandidatureStatus, error) {
	st := CandidatureStatus(s)
	switch st {
	case CandidatureDraft, CandidatureSubmitted, CandidatureValidated,
		CandidatureRejectedByAdmin, CandidatureRejectedByCompany,
		CandidatureInterviewRequested, CandidatureHired,
		CandidatureWithdrawn, CandidatureFilled:
		return st, nil
	}
	return "", fmt.Errorf("unknown candidature status %q", s)
}

// Terminal reports whether the status admits no further transitions.
func (s CandidatureStatus) Terminal() bool {
	switch s {
	case CandidatureRejectedByAdmin, CandidatureRejectedByCompany,
		CandidatureHired, CandidatureWithdrawn, CandidatureFilled:
		return true
	}
	return false
}

// Candidature is an application submitted by an expert against an AO.
// The AO is referenced by id only, never embedded.
type Candidature struct {
	ID            string            `json:"id"`
	AOID          string            `json:"aoId"`
	ExpertID      string            `json:"expertId"`
	Status        CandidatureStatus `json:"status"`
	RefusalReason string            `json:"motifRefus,omitempty"`
	AppliedAt     time.Time         `json:"appliedAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
	Version       int               `json:"version"`
}
