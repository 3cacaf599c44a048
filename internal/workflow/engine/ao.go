// internal/workflow/engine/ao.go
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

// CreateAOInput is the writable subset on creation.
type CreateAOInput struct {
	Title               string     `json:"title"`
	Description         string     `json:"description"`
	CandidatureDeadline *time.Time `json:"candidatureDeadline,omitempty"`
}

// CreateAO inserts a new offer as DRAFT, owned by the acting company.
func (e *Engine) CreateAO(ctx context.Context, actor models.Actor, in CreateAOInput) (*models.AO, error) {
	if actor.Role != models.RoleCompany {
		return nil, wferrors.NewUnauthorizedError(
			fmt.Sprintf("role %s cannot create an AO", actor.Role))
	}
	if in.Title == "" {
		return nil, wferrors.NewMissingFieldError("title")
	}

	now := e.now()
	ao := &models.AO{
		ID:                  uuid.New().String(),
		CompanyID:           actor.ID,
		Title:               in.Title,
		Description:         in.Description,
		Status:              models.AODraft,
		CandidatureDeadline: in.CandidatureDeadline,
		CreatedAt:           now,
		UpdatedAt:           now,
		Version:             1,
	}
	if err := e.store.InsertAO(ctx, ao); err != nil {
		return nil, wferrors.NewInternalError(err)
	}
	e.committed(ctx, models.SnapshotAO(ao))
	return ao, nil
}

func (e *Engine) applyAO(ctx context.Context, req ActionRequest) (*Result, error) {
	ao, err := e.store.GetAO(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	// Ownership before table lookup: companies act only on their own AOs,
	// experts never act on an AO directly.
	if err := authorizeAO(req.Actor, ao); err != nil {
		return nil, err
	}

	rule, err := lookupRule(models.EntityAO, string(ao.Status), req.Action, req.Actor, req.Payload)
	if err != nil {
		return nil, err
	}

	expected := ao.Version
	ao.Status = models.AOStatus(rule.To)
	switch req.Action {
	case transition.ActionReject:
		reason, err := stringField(req.Payload, transition.FieldRejectionReason)
		if err != nil {
			return nil, err
		}
		ao.RejectionReason = reason
	case transition.ActionResubmit:
		ao.RejectionReason = ""
	}

	if err := e.store.UpdateAO(ctx, ao, expected); err != nil {
		return nil, err
	}

	snap := models.SnapshotAO(ao)
	e.committed(ctx, snap)
	e.notify(ctx, ao.CompanyID, rule.Notify, map[string]interface{}{
		"aoId":   ao.ID,
		"title":  ao.Title,
		"status": string(ao.Status),
		"reason": ao.RejectionReason,
	})

	return &Result{Primary: snap}, nil
}

// DeleteAO removes an offer. While the AO is non-terminal its dependent
// candidatures are withdrawn and their interviews cancelled first; cascade
// failures do not undo the delete (PARTIAL_CASCADE_FAILURE).
func (e *Engine) DeleteAO(ctx context.Context, actor models.Actor, aoID string) (*Result, error) {
	ao, err := e.store.GetAO(ctx, aoID)
	if err != nil {
		return nil, err
	}
	if err := authorizeAO(actor, ao); err != nil {
		return nil, err
	}

	cascade := !ao.Status.Terminal()

	if err := e.store.DeleteAO(ctx, aoID); err != nil {
		return nil, err
	}
	if e.invalidator != nil {
		e.invalidator.Invalidate(ctx, models.EntityAO, aoID)
	}

	res := &Result{Primary: models.SnapshotAO(ao)}
	if !cascade {
		return res, nil
	}

	candidatures, err := e.store.ListCandidaturesByAO(ctx, aoID)
	if err != nil {
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityCandidature), EntityID: aoID,
			Action: string(transition.ActionWithdraw), Reason: err.Error(),
		})
		return res, wferrors.NewPartialCascadeFailureError(res.Warnings)
	}

	for _, c := range candidatures {
		e.closeCandidature(ctx, c, transition.ActionWithdraw, res)
	}

	if len(res.Warnings) > 0 {
		return res, wferrors.NewPartialCascadeFailureError(res.Warnings)
	}
	return res, nil
}

func authorizeAO(actor models.Actor, ao *models.AO) error {
	switch actor.Role {
	case models.RoleAdmin, models.RoleSystem:
		return nil
	case models.RoleCompany:
		if ao.CompanyID == actor.ID {
			return nil
		}
		return wferrors.NewUnauthorizedError(
			fmt.Sprintf("company %s does not own AO %s", actor.ID, ao.ID))
	default:
		return wferrors.NewUnauthorizedError(
			fmt.Sprintf("role %s cannot act on an AO", actor.Role))
	}
}
