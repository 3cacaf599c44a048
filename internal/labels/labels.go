// Package labels maps entity statuses to the text and badge variant each
// role sees. Presentation only; the engine never consults this table.
package labels

import (
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Variant names the badge style a dashboard renders for a status.
type Variant string

const (
	VariantNeutral Variant = "neutral"
	VariantInfo    Variant = "info"
	VariantSuccess Variant = "success"
	VariantWarning Variant = "warning"
	VariantDanger  Variant = "danger"
)

// Label is the display text plus badge variant for one (status, role) pair.
type Label struct {
	Text    string  `json:"text"`
	Variant Variant `json:"variant"`
}

type key struct {
	entity models.EntityType
	status string
	role   models.Role
}

// table holds the role-specific overrides; defaults covers the rest. The
// same status reads differently per audience: a SUBMITTED AO is "pending
// review" to its company but "to review" to an admin.
var table = map[key]Label{
	{models.EntityAO, string(models.AOSubmitted), models.RoleCompany}: {"Pending review", VariantInfo},
	{models.EntityAO, string(models.AOSubmitted), models.RoleAdmin}:   {"To review", VariantWarning},
	{models.EntityAO, string(models.AORejected), models.RoleCompany}:  {"Changes requested", VariantDanger},
	{models.EntityAO, string(models.AORejected), models.RoleAdmin}:    {"Rejected", VariantDanger},

	{models.EntityCandidature, string(models.CandidatureSubmitted), models.RoleExpert}:           {"Under review", VariantInfo},
	{models.EntityCandidature, string(models.CandidatureSubmitted), models.RoleAdmin}:            {"To review", VariantWarning},
	{models.EntityCandidature, string(models.CandidatureValidated), models.RoleExpert}:           {"Shortlisted", VariantSuccess},
	{models.EntityCandidature, string(models.CandidatureValidated), models.RoleCompany}:          {"Awaiting your decision", VariantWarning},
	{models.EntityCandidature, string(models.CandidatureRejectedByAdmin), models.RoleExpert}:     {"Not retained", VariantDanger},
	{models.EntityCandidature, string(models.CandidatureRejectedByCompany), models.RoleExpert}:   {"Not retained", VariantDanger},
	{models.EntityCandidature, string(models.CandidatureFilled), models.RoleExpert}:              {"Position filled", VariantNeutral},
	{models.EntityCandidature, string(models.CandidatureInterviewRequested), models.RoleExpert}:  {"Interview requested", VariantInfo},
	{models.EntityCandidature, string(models.CandidatureInterviewRequested), models.RoleCompany}: {"Awaiting candidate", VariantInfo},

	{models.EntityInterview, string(models.InterviewPending), models.RoleExpert}:          {"Pick a slot", VariantWarning},
	{models.EntityInterview, string(models.InterviewPending), models.RoleCompany}:         {"Awaiting candidate", VariantInfo},
	{models.EntityInterview, string(models.InterviewCounterProposal), models.RoleCompany}: {"New slots proposed", VariantWarning},
	{models.EntityInterview, string(models.InterviewCounterProposal), models.RoleExpert}:  {"Awaiting company", VariantInfo},
}

type defaultKey struct {
	entity models.EntityType
	status string
}

var defaults = map[defaultKey]Label{
	{models.EntityAO, string(models.AODraft)}:     {"Draft", VariantNeutral},
	{models.EntityAO, string(models.AOPublished)}: {"Published", VariantSuccess},
	{models.EntityAO, string(models.AOArchived)}:  {"Archived", VariantNeutral},
	{models.EntityAO, string(models.AOExpired)}:   {"Expired", VariantNeutral},
	{models.EntityAO, string(models.AOFilled)}:    {"Filled", VariantSuccess},

	{models.EntityCandidature, string(models.CandidatureDraft)}:     {"Draft", VariantNeutral},
	{models.EntityCandidature, string(models.CandidatureHired)}:     {"Hired", VariantSuccess},
	{models.EntityCandidature, string(models.CandidatureWithdrawn)}: {"Withdrawn", VariantNeutral},

	{models.EntityInterview, string(models.InterviewConfirmed)}: {"Confirmed", VariantSuccess},
	{models.EntityInterview, string(models.InterviewCompleted)}: {"Completed", VariantNeutral},
	{models.EntityInterview, string(models.InterviewCancelled)}: {"Cancelled", VariantDanger},
}

// For returns the label a role sees for the given status. Unknown statuses
// fall back to the raw status text.
func For(entity models.EntityType, status string, role models.Role) Label {
	if l, ok := table[key{entity, status, role}]; ok {
		return l
	}
	if l, ok := defaults[defaultKey{entity, status}]; ok {
		return l
	}
	return Label{Text: status, Variant: VariantNeutral}
}
