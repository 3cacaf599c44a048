// internal/workflow/engine/candidature.go
package engine

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/metrics"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

// CreateCandidatureInput is the writable subset on creation.
type CreateCandidatureInput struct {
	AOID string `json:"aoId"`
}

// CreateCandidature inserts a new application as DRAFT. The parent AO must
// be accepting candidatures: published and before its deadline.
func (e *Engine) CreateCandidature(ctx context.Context, actor models.Actor, in CreateCandidatureInput) (*models.Candidature, error) {
	if actor.Role != models.RoleExpert {
		return nil, wferrors.NewUnauthorizedError(
			fmt.Sprintf("role %s cannot create a candidature", actor.Role))
	}
	if in.AOID == "" {
		return nil, wferrors.NewMissingFieldError("aoId")
	}

	ao, err := e.store.GetAO(ctx, in.AOID)
	if err != nil {
		return nil, err
	}
	if err := e.guardAcceptsCandidatures(ao); err != nil {
		return nil, err
	}

	now := e.now()
	c := &models.Candidature{
		ID:        uuid.New().String(),
		AOID:      in.AOID,
		ExpertID:  actor.ID,
		Status:    models.CandidatureDraft,
		AppliedAt: now,
		UpdatedAt: now,
		Version:   1,
	}
	if err := e.store.InsertCandidature(ctx, c); err != nil {
		return nil, wferrors.NewInternalError(err)
	}
	e.committed(ctx, models.SnapshotCandidature(c))
	return c, nil
}

func (e *Engine) applyCandidature(ctx context.Context, req ActionRequest) (*Result, error) {
	c, err := e.store.GetCandidature(ctx, req.ID)
	if err != nil {
		return nil, err
	}

	// Ownership before table lookup. The parent AO is loaded lazily: only a
	// company actor needs it here, so cascades keep working after an AO
	// delete removed the parent row.
	switch req.Actor.Role {
	case models.RoleAdmin, models.RoleSystem:
	case models.RoleExpert:
		if c.ExpertID != req.Actor.ID {
			return nil, wferrors.NewUnauthorizedError(
				fmt.Sprintf("expert %s does not own candidature %s", req.Actor.ID, c.ID))
		}
	case models.RoleCompany:
		ao, err := e.store.GetAO(ctx, c.AOID)
		if err != nil {
			return nil, err
		}
		if ao.CompanyID != req.Actor.ID {
			return nil, wferrors.NewUnauthorizedError(
				fmt.Sprintf("company %s does not own AO %s of candidature %s", req.Actor.ID, c.AOID, c.ID))
		}
	default:
		return nil, wferrors.NewUnauthorizedError(
			fmt.Sprintf("unknown role %s", req.Actor.Role))
	}

	// New submissions are blocked once the parent AO stops accepting; review
	// actions on candidatures already in flight stay legal.
	if req.Action == transition.ActionSubmit {
		ao, err := e.store.GetAO(ctx, c.AOID)
		if err != nil {
			return nil, err
		}
		if err := e.guardAcceptsCandidatures(ao); err != nil {
			return nil, err
		}
	}

	rule, err := lookupRule(models.EntityCandidature, string(c.Status), req.Action, req.Actor, req.Payload)
	if err != nil {
		return nil, err
	}

	expected := c.Version
	c.Status = models.CandidatureStatus(rule.To)
	if req.Action == transition.ActionReject {
		reason, err := stringField(req.Payload, transition.FieldReason)
		if err != nil {
			return nil, err
		}
		c.RefusalReason = reason
	}

	if err := e.store.UpdateCandidature(ctx, c, expected); err != nil {
		return nil, err
	}

	snap := models.SnapshotCandidature(c)
	e.committed(ctx, snap)
	res := &Result{Primary: snap}

	// Side effects run after the primary commit; their failures surface as
	// PARTIAL_CASCADE_FAILURE, never as a rollback.
	switch req.Action {
	case transition.ActionRequestInterview:
		e.spawnInterview(ctx, c, req, res)
	case transition.ActionHire:
		e.hireCascade(ctx, c, res)
	}

	e.notifyCandidature(ctx, c, rule.Notify)

	if len(res.Warnings) > 0 {
		return res, wferrors.NewPartialCascadeFailureError(res.Warnings)
	}
	return res, nil
}

func (e *Engine) guardAcceptsCandidatures(ao *models.AO) error {
	if !ao.Status.AcceptsCandidatures() {
		return wferrors.NewInvalidTransitionError(
			string(models.EntityAO), string(ao.Status), "acceptCandidature", "expert")
	}
	if ao.DeadlinePassed(e.now()) {
		return wferrors.NewInvalidTransitionError(
			string(models.EntityAO), string(ao.Status), "acceptCandidature", "expert")
	}
	return nil
}

// spawnInterview cancels any still-active interview of the candidature and
// creates a fresh PENDING one with the proposed slots.
func (e *Engine) spawnInterview(ctx context.Context, c *models.Candidature, req ActionRequest, res *Result) {
	slots, err := slotsField(req.Payload, transition.FieldProposedSlots)
	if err != nil {
		// Unreachable after the required-fields check unless the slot list is
		// malformed; report it as a cascade failure since the primary committed.
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityInterview), EntityID: c.ID,
			Action: "create", Reason: err.Error(),
		})
		return
	}

	e.cancelActiveInterviews(ctx, c.ID, res)

	ao, err := e.store.GetAO(ctx, c.AOID)
	if err != nil {
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityInterview), EntityID: c.ID,
			Action: "create", Reason: err.Error(),
		})
		return
	}

	now := e.now()
	iv := &models.Interview{
		ID:            uuid.New().String(),
		CandidatureID: c.ID,
		CompanyID:     ao.CompanyID,
		ExpertID:      c.ExpertID,
		Status:        models.InterviewPending,
		ProposedSlots: slots,
		CreatedAt:     now,
		UpdatedAt:     now,
		Version:       1,
	}
	if notes, ok := req.Payload["notes"].(string); ok {
		iv.Notes = notes
	}
	if err := e.store.InsertInterview(ctx, iv); err != nil {
		metrics.CascadeFailures.WithLabelValues(string(models.EntityInterview), "create").Inc()
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityInterview), EntityID: iv.ID,
			Action: "create", Reason: err.Error(),
		})
		return
	}
	ivSnap := models.SnapshotInterview(iv)
	e.committed(ctx, ivSnap)
	res.Secondary = append(res.Secondary, ivSnap)
}

// hireCascade closes out the offer after a hire: the AO becomes FILLED and
// every competing non-terminal candidature is force-closed as FILLED (a
// terminal, non-rejecting closure). Steps run sequentially, entity by
// entity, and are not atomic across entities.
func (e *Engine) hireCascade(ctx context.Context, hired *models.Candidature, res *Result) {
	ao, err := e.store.GetAO(ctx, hired.AOID)
	switch {
	case err != nil:
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityAO), EntityID: hired.AOID,
			Action: string(transition.ActionFill), Reason: err.Error(),
		})
	case ao.Status.Terminal():
		// Already closed, idempotent.
	default:
		fillRes, err := e.ApplyActionRetry(ctx, ActionRequest{
			Entity: models.EntityAO, ID: ao.ID,
			Action: transition.ActionFill, Actor: models.System,
		})
		if err != nil {
			metrics.CascadeFailures.WithLabelValues(string(models.EntityAO), string(transition.ActionFill)).Inc()
			res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
				EntityType: string(models.EntityAO), EntityID: ao.ID,
				Action: string(transition.ActionFill), Reason: err.Error(),
			})
		} else {
			res.Secondary = append(res.Secondary, fillRes.Primary)
		}
	}

	siblings, err := e.store.ListCandidaturesByAO(ctx, hired.AOID)
	if err != nil {
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityCandidature), EntityID: hired.AOID,
			Action: string(transition.ActionClose), Reason: err.Error(),
		})
		return
	}
	for _, sib := range siblings {
		if sib.ID == hired.ID {
			continue
		}
		e.closeCandidature(ctx, sib, transition.ActionClose, res)
	}
}

// closeCandidature applies a system-actor closure (close or withdraw) to one
// candidature and cancels its active interviews. A candidature found already
// terminal is success, not a conflict: a concurrent admin action may have
// raced the cascade.
func (e *Engine) closeCandidature(ctx context.Context, c *models.Candidature, action transition.Action, res *Result) {
	if !c.Status.Terminal() {
		closeRes, err := e.ApplyActionRetry(ctx, ActionRequest{
			Entity: models.EntityCandidature, ID: c.ID,
			Action: action, Actor: models.System,
		})
		switch {
		case err == nil:
			res.Secondary = append(res.Secondary, closeRes.Primary)
		case wferrors.IsCode(err, wferrors.ErrCodeInvalidTransition):
			// Raced into a terminal status between the list and the write.
		default:
			metrics.CascadeFailures.WithLabelValues(string(models.EntityCandidature), string(action)).Inc()
			res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
				EntityType: string(models.EntityCandidature), EntityID: c.ID,
				Action: string(action), Reason: err.Error(),
			})
			return
		}
	}
	e.cancelActiveInterviews(ctx, c.ID, res)
}

// cancelActiveInterviews system-cancels every non-terminal interview of the
// candidature.
func (e *Engine) cancelActiveInterviews(ctx context.Context, candidatureID string, res *Result) {
	interviews, err := e.store.ListInterviewsByCandidature(ctx, candidatureID)
	if err != nil {
		res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
			EntityType: string(models.EntityInterview), EntityID: candidatureID,
			Action: string(transition.ActionCancel), Reason: err.Error(),
		})
		return
	}
	for _, iv := range interviews {
		if iv.Status.Terminal() {
			continue
		}
		cancelRes, err := e.ApplyActionRetry(ctx, ActionRequest{
			Entity: models.EntityInterview, ID: iv.ID,
			Action: transition.ActionCancel, Actor: models.System,
		})
		switch {
		case err == nil:
			res.Secondary = append(res.Secondary, cancelRes.Primary)
		case wferrors.IsCode(err, wferrors.ErrCodeInvalidTransition):
			// Already terminal, fine.
		default:
			metrics.CascadeFailures.WithLabelValues(string(models.EntityInterview), string(transition.ActionCancel)).Inc()
			res.Warnings = append(res.Warnings, wferrors.CascadeFailure{
				EntityType: string(models.EntityInterview), EntityID: iv.ID,
				Action: string(transition.ActionCancel), Reason: err.Error(),
			})
		}
	}
}

// notifyCandidature resolves the recipient for a candidature notification:
// validation news goes to the owning company, everything else to the expert.
func (e *Engine) notifyCandidature(ctx context.Context, c *models.Candidature, kind models.NotificationKind) {
	if kind == "" || e.notifier == nil {
		return
	}

	payload := map[string]interface{}{
		"candidatureId": c.ID,
		"aoId":          c.AOID,
		"status":        string(c.Status),
		"reason":        c.RefusalReason,
	}

	recipient := c.ExpertID
	if kind == models.KindCandidatureValidated {
		ao, err := e.store.GetAO(ctx, c.AOID)
		if err != nil {
			e.log.Warn("cannot resolve notification recipient", map[string]interface{}{
				"candidatureId": c.ID,
				"kind":          kind,
				"error":         err.Error(),
			})
			return
		}
		recipient = ao.CompanyID
	}

	e.notify(ctx, recipient, kind, payload)
}
