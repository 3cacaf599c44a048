// internal/workflow/engine/interview.go
package engine

import (
	"context"
	"fmt"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

func (e *Engine) applyInterview(ctx context.Context, req ActionRequest) (*Result, error) {
	iv, err := e.store.GetInterview(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	if err := authorizeInterview(req.Actor, iv); err != nil {
		return nil, err
	}

	rule, err := lookupRule(models.EntityInterview, string(iv.Status), req.Action, req.Actor, req.Payload)
	if err != nil {
		return nil, err
	}

	expected := iv.Version
	iv.Status = models.InterviewStatus(rule.To)
	switch req.Action {
	case transition.ActionConfirm:
		confirmed, err := timeField(req.Payload, transition.FieldConfirmedTime)
		if err != nil {
			return nil, err
		}
		// The confirmed time must be one of the slots the company proposed.
		if !iv.HasSlot(confirmed) {
			return nil, wferrors.NewMissingFieldError(transition.FieldConfirmedTime)
		}
		iv.ConfirmedTime = &confirmed
	case transition.ActionCounter, transition.ActionRepropose:
		slots, err := slotsField(req.Payload, transition.FieldProposedSlots)
		if err != nil {
			return nil, err
		}
		iv.ProposedSlots = slots
		iv.ConfirmedTime = nil
	}
	if notes, ok := req.Payload["notes"].(string); ok && notes != "" {
		iv.Notes = notes
	}

	if err := e.store.UpdateInterview(ctx, iv, expected); err != nil {
		return nil, err
	}

	snap := models.SnapshotInterview(iv)
	e.committed(ctx, snap)

	// Confirmation news goes to the company; nothing else notifies.
	if rule.Notify == models.KindInterviewConfirmed {
		e.notify(ctx, iv.CompanyID, rule.Notify, map[string]interface{}{
			"interviewId":   iv.ID,
			"candidatureId": iv.CandidatureID,
			"confirmedTime": iv.ConfirmedTime,
		})
	}

	return &Result{Primary: snap}, nil
}

func authorizeInterview(actor models.Actor, iv *models.Interview) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSystem:
		return nil
	case models.RoleCompany:
		if iv.CompanyID == actor.ID {
			return nil
		}
	case models.RoleExpert:
		if iv.ExpertID == actor.ID {
			return nil
		}
	}
	return wferrors.NewUnauthorizedError(
		fmt.Sprintf("%s %s is not a party of interview %s", actor.Role, actor.ID, iv.ID))
}
