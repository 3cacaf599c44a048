// Package transition defines the declarative, side-effect-free transition
// table governing AO, candidature and interview lifecycles.
//
// AO status graph:
//
//	DRAFT ──► SUBMITTED ──► PUBLISHED ──► ARCHIVED | EXPIRED | FILLED
//	              │   ▲
//	              ▼   │ (resubmit)
//	           REJECTED
//
// An action absent from the table for a given (status, action, role) triple
// is illegal; callers must check legality before attempting any write.
package transition

import (
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Action names every operation the engine accepts through the table.
type Action string

const (
	// AO actions
	ActionSubmit   Action = "submit"
	ActionPublish  Action = "publish"
	ActionReject   Action = "reject"
	ActionArchive  Action = "archive"
	ActionExpire   Action = "expire"
	ActionResubmit Action = "resubmit"
	ActionFill     Action = "fill"

	// Candidature actions
	ActionValidate         Action = "validate"
	ActionRequestInterview Action = "requestInterview"
	ActionHire             Action = "hire"
	ActionWithdraw         Action = "withdraw"
	ActionClose            Action = "close"

	// Interview actions
	ActionConfirm   Action = "confirm"
	ActionCounter   Action = "counter"
	ActionRepropose Action = "repropose"
	ActionComplete  Action = "complete"
	ActionCancel    Action = "cancel"
)

// ParseAction converts a raw string to an Action without validating it
// against the table; an unknown action simply never matches a rule.
func ParseAction(s string) Action { return Action(s) }

// Payload field names checked by the required-fields guard.
const (
	FieldRejectionReason = "rejectionReason"
	FieldReason          = "reason"
	FieldProposedSlots   = "proposedSlots"
	FieldConfirmedTime   = "confirmedTime"
)

// Rule is one legal transition. Roles lists every actor role allowed to
// trigger it; RequiredFields must be present in the action payload; Notify,
// when set, names the message emitted after the transition commits (the
// engine resolves the recipient).
type Rule struct {
	Entity         models.EntityType
	From           string
	Action         Action
	Roles          []models.Role
	To             string
	RequiredFields []string
	Notify         models.NotificationKind
}

// AllowsRole reports whether the rule may be triggered by the given role.
func (r Rule) AllowsRole(role models.Role) bool {
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

var rules = []Rule{
	// --- AO ---
	{Entity: models.EntityAO, From: string(models.AODraft), Action: ActionSubmit,
		Roles: []models.Role{models.RoleCompany}, To: string(models.AOSubmitted)},
	{Entity: models.EntityAO, From: string(models.AOSubmitted), Action: ActionPublish,
		Roles: []models.Role{models.RoleAdmin}, To: string(models.AOPublished),
		Notify: models.KindAOPublished},
	{Entity: models.EntityAO, From: string(models.AOSubmitted), Action: ActionReject,
		Roles: []models.Role{models.RoleAdmin}, To: string(models.AORejected),
		RequiredFields: []string{FieldRejectionReason}, Notify: models.KindAORejected},
	{Entity: models.EntityAO, From: string(models.AOPublished), Action: ActionArchive,
		Roles: []models.Role{models.RoleCompany}, To: string(models.AOArchived)},
	{Entity: models.EntityAO, From: string(models.AOPublished), Action: ActionExpire,
		Roles: []models.Role{models.RoleSystem}, To: string(models.AOExpired)},
	{Entity: models.EntityAO, From: string(models.AOPublished), Action: ActionFill,
		Roles: []models.Role{models.RoleSystem}, To: string(models.AOFilled)},
	{Entity: models.EntityAO, From: string(models.AORejected), Action: ActionResubmit,
		Roles: []models.Role{models.RoleCompany}, To: string(models.AOSubmitted)},

	// --- Candidature ---
	{Entity: models.EntityCandidature, From: string(models.CandidatureDraft), Action: ActionSubmit,
		Roles: []models.Role{models.RoleExpert}, To: string(models.CandidatureSubmitted)},
	{Entity: models.EntityCandidature, From: string(models.CandidatureSubmitted), Action: ActionValidate,
		Roles: []models.Role{models.RoleAdmin}, To: string(models.CandidatureValidated),
		Notify: models.KindCandidatureValidated},
	{Entity: models.EntityCandidature, From: string(models.CandidatureSubmitted), Action: ActionReject,
		Roles: []models.Role{models.RoleAdmin}, To: string(models.CandidatureRejectedByAdmin),
		RequiredFields: []string{FieldReason}, Notify: models.KindCandidatureRejected},
	{Entity: models.EntityCandidature, From: string(models.CandidatureValidated), Action: ActionReject,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureRejectedByCompany),
		RequiredFields: []string{FieldReason}, Notify: models.KindCandidatureRejected},
	{Entity: models.EntityCandidature, From: string(models.CandidatureInterviewRequested), Action: ActionReject,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureRejectedByCompany),
		RequiredFields: []string{FieldReason}, Notify: models.KindCandidatureRejected},
	{Entity: models.EntityCandidature, From: string(models.CandidatureValidated), Action: ActionRequestInterview,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureInterviewRequested),
		RequiredFields: []string{FieldProposedSlots}, Notify: models.KindInterviewRequested},
	{Entity: models.EntityCandidature, From: string(models.CandidatureInterviewRequested), Action: ActionRequestInterview,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureInterviewRequested),
		RequiredFields: []string{FieldProposedSlots}, Notify: models.KindInterviewRequested},
	{Entity: models.EntityCandidature, From: string(models.CandidatureValidated), Action: ActionHire,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureHired),
		Notify: models.KindCandidatureHired},
	{Entity: models.EntityCandidature, From: string(models.CandidatureInterviewRequested), Action: ActionHire,
		Roles: []models.Role{models.RoleCompany}, To: string(models.CandidatureHired),
		Notify: models.KindCandidatureHired},
	{Entity: models.EntityCandidature, From: string(models.CandidatureDraft), Action: ActionWithdraw,
		Roles: []models.Role{models.RoleExpert}, To: string(models.CandidatureWithdrawn)},
	{Entity: models.EntityCandidature, From: string(models.CandidatureSubmitted), Action: ActionWithdraw,
		Roles: []models.Role{models.RoleExpert}, To: string(models.CandidatureWithdrawn)},

	// --- Interview ---
	{Entity: models.EntityInterview, From: string(models.InterviewPending), Action: ActionConfirm,
		Roles: []models.Role{models.RoleExpert}, To: string(models.InterviewConfirmed),
		RequiredFields: []string{FieldConfirmedTime}, Notify: models.KindInterviewConfirmed},
	{Entity: models.EntityInterview, From: string(models.InterviewPending), Action: ActionCounter,
		Roles: []models.Role{models.RoleExpert}, To: string(models.InterviewCounterProposal),
		RequiredFields: []string{FieldProposedSlots}},
	{Entity: models.EntityInterview, From: string(models.InterviewCounterProposal), Action: ActionRepropose,
		Roles: []models.Role{models.RoleCompany}, To: string(models.InterviewPending),
		RequiredFields: []string{FieldProposedSlots}},
	{Entity: models.EntityInterview, From: string(models.InterviewConfirmed), Action: ActionComplete,
		Roles: []models.Role{models.RoleAdmin, models.RoleCompany}, To: string(models.InterviewCompleted)},
}

func init() {
	// Cascade-only closure rows: hiring one candidature closes its siblings as
	// FILLED; deleting an AO withdraws them. Only the system actor may use these.
	for _, from := range []models.CandidatureStatus{
		models.CandidatureDraft, models.CandidatureSubmitted,
		models.CandidatureValidated, models.CandidatureInterviewRequested,
	} {
		rules = append(rules,
			Rule{Entity: models.EntityCandidature, From: string(from), Action: ActionClose,
				Roles: []models.Role{models.RoleSystem}, To: string(models.CandidatureFilled)},
			Rule{Entity: models.EntityCandidature, From: string(from), Action: ActionWithdraw,
				Roles: []models.Role{models.RoleSystem}, To: string(models.CandidatureWithdrawn)},
		)
	}

	// Any non-terminal interview can be cancelled by either party or the system.
	for _, from := range []models.InterviewStatus{
		models.InterviewPending, models.InterviewCounterProposal, models.InterviewConfirmed,
	} {
		rules = append(rules, Rule{
			Entity: models.EntityInterview, From: string(from), Action: ActionCancel,
			Roles: []models.Role{models.RoleAdmin, models.RoleCompany, models.RoleSystem},
			To:    string(models.InterviewCancelled),
		})
	}
}

// Lookup finds the rule matching (entity, from, action, role). The bool
// result is false when no rule matches, which callers surface as an
// INVALID_TRANSITION before touching the store.
func Lookup(entity models.EntityType, from string, action Action, role models.Role) (Rule, bool) {
	for _, r := range rules {
		if r.Entity == entity && r.From == from && r.Action == action && r.AllowsRole(role) {
			return r, true
		}
	}
	return Rule{}, false
}

// ActionKnown reports whether any rule uses this action on the entity.
func ActionKnown(entity models.EntityType, action Action) bool {
	for _, r := range rules {
		if r.Entity == entity && r.Action == action {
			return true
		}
	}
	return false
}

// RoleAllowed reports whether some rule grants the role this action on the
// entity, from any starting status.
func RoleAllowed(entity models.EntityType, action Action, role models.Role) bool {
	for _, r := range rules {
		if r.Entity == entity && r.Action == action && r.AllowsRole(role) {
			return true
		}
	}
	return false
}

// Rules returns a copy of the full table, for diagnostics and tests.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
