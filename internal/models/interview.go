// internal/models/interview.go
package models

import (
	"fmt"
	"time"
)

// InterviewStatus mirrors the interview_status enum in PostgreSQL.
// COMPLETED and CANCELLED are terminal; a candidature has at most one
// interview in a non-terminal status.
type InterviewStatus string

const (
	InterviewPending         InterviewStatus = "PENDING"
	InterviewConfirmed       InterviewStatus = "CONFIRMED"
	InterviewCounterProposal InterviewStatus = "COUNTER_PROPOSAL"
	InterviewCompleted       InterviewStatus = "COMPLETED"
	InterviewCancelled       InterviewStatus = "CANCELLED"
)

// ParseInterviewStatus converts a raw string to an InterviewStatus.
func ParseInterviewStatus(s string) (InterviewStatus, error) {
	st := InterviewStatus(s)
	switch st {
	case InterviewPending, InterviewConfirmed, InterviewCounterProposal,
		InterviewCompleted, InterviewCancelled:
		return st, nil
	}
	return "", fmt.Errorf("unknown interview status %q", s)
}

// Terminal reports whether the status admits no further transitions.
func (s InterviewStatus) Terminal() bool {
	return s == InterviewCompleted || s == InterviewCancelled
}

// MaxProposedSlots bounds the slot list on proposals and counter-proposals.
const MaxProposedSlots = 3

// Interview is a scheduling negotiation between a company and an expert,
// tied to exactly one candidature.
type Interview struct {
	ID            string          `json:"id"`
	CandidatureID string          `json:"candidatureId"`
	CompanyID     string          `json:"companyId"`
	ExpertID      string          `json:"expertId"`
	Status        InterviewStatus `json:"status"`
	ProposedSlots []time.Time     `json:"proposedSlots"`
	ConfirmedTime *time.Time      `json:"confirmedTime,omitempty"`
	Notes         string          `json:"notes,omitempty"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	Version       int             `json:"version"`
}

// HasSlot reports whether t matches one of the proposed slots.
func (iv *Interview) HasSlot(t time.Time) bool {
	for _, s := range iv.ProposedSlots {
		if s.Equal(t) {
			return true
		}
	}
	return false
}
