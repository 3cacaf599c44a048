package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/common/observability"
	"github.com/Constantin2105/inspiratec-engine/internal/labels"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/engine"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

type handlers struct {
	engine *engine.Engine
	reader Reader
	store  repository.Store
	log    logger.Logger
	obs    *observability.Observability
	health map[string]func(context.Context) error
}

// actionResponse is the wire shape of every mutation. CascadeWarnings is
// only present when a cascade write failed after the primary committed.
type actionResponse struct {
	Primary         models.Snapshot           `json:"primary"`
	Secondary       []models.Snapshot         `json:"secondary,omitempty"`
	CascadeWarnings []wferrors.CascadeFailure `json:"cascadeWarnings,omitempty"`
}

func toResponse(res *engine.Result) actionResponse {
	return actionResponse{
		Primary:         res.Primary,
		Secondary:       res.Secondary,
		CascadeWarnings: res.Warnings,
	}
}

// writeResult maps the (result, error) pair: a partial cascade failure still
// answers 200 because the primary transition committed.
func writeResult(c *gin.Context, res *engine.Result, err error) {
	if err != nil {
		if wferrors.IsCode(err, wferrors.ErrCodePartialCascadeFailure) && res != nil {
			c.JSON(http.StatusOK, toResponse(res))
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toResponse(res))
}

func (h *handlers) applyAction(c *gin.Context) {
	var body map[string]interface{}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, wferrors.NewMissingFieldError("body"))
		return
	}
	if err := validateActionRequest(body); err != nil {
		writeError(c, err)
		return
	}

	entity, err := models.ParseEntityType(body["entityType"].(string))
	if err != nil {
		writeError(c, wferrors.NewMissingFieldError("entityType"))
		return
	}
	payload, _ := body["payload"].(map[string]interface{})
	action := body["action"].(string)

	start := time.Now()
	res, applyErr := h.engine.ApplyActionRetry(c.Request.Context(), engine.ActionRequest{
		Entity:  entity,
		ID:      body["entityId"].(string),
		Action:  transition.ParseAction(action),
		Actor:   actorFrom(c),
		Payload: payload,
	})
	if h.obs != nil {
		outcome := "success"
		if applyErr != nil {
			outcome = string(wferrors.CodeOf(applyErr))
		}
		h.obs.RecordAction(c.Request.Context(), string(entity), action, outcome)
		h.obs.RecordActionDuration(c.Request.Context(), time.Since(start), string(entity), action)
	}
	writeResult(c, res, applyErr)
}

func (h *handlers) createAO(c *gin.Context) {
	var in engine.CreateAOInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, wferrors.NewMissingFieldError("body"))
		return
	}
	ao, err := h.engine.CreateAO(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ao)
}

func (h *handlers) deleteAO(c *gin.Context) {
	res, err := h.engine.DeleteAO(c.Request.Context(), actorFrom(c), c.Param("id"))
	writeResult(c, res, err)
}

func (h *handlers) createCandidature(c *gin.Context) {
	var in engine.CreateCandidatureInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, wferrors.NewMissingFieldError("body"))
		return
	}
	cd, err := h.engine.CreateCandidature(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cd)
}

func (h *handlers) getAO(c *gin.Context) {
	ao, err := h.reader.GetAO(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	actor := actorFrom(c)
	// Published offers are the public catalogue; drafts and review states
	// stay between the owner and the admins.
	if ao.Status != models.AOPublished && !canReadCompanyOwned(actor, ao.CompanyID) {
		writeError(c, wferrors.NewUnauthorizedError("not the offer owner"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ao":    ao,
		"label": labels.For(models.EntityAO, string(ao.Status), actor.Role),
	})
}

func (h *handlers) getCandidature(c *gin.Context) {
	cd, err := h.reader.GetCandidature(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	actor := actorFrom(c)
	if err := h.authorizeCandidatureRead(c.Request.Context(), actor, cd); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"candidature": cd,
		"label":       labels.For(models.EntityCandidature, string(cd.Status), actor.Role),
	})
}

func (h *handlers) getInterview(c *gin.Context) {
	iv, err := h.reader.GetInterview(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	actor := actorFrom(c)
	if actor.Role != models.RoleAdmin &&
		!(actor.Role == models.RoleCompany && actor.ID == iv.CompanyID) &&
		!(actor.Role == models.RoleExpert && actor.ID == iv.ExpertID) {
		writeError(c, wferrors.NewUnauthorizedError("not a party to this interview"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interview": iv,
		"label":     labels.For(models.EntityInterview, string(iv.Status), actor.Role),
	})
}

func (h *handlers) listCandidatures(c *gin.Context) {
	ctx := c.Request.Context()
	ao, err := h.reader.GetAO(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	actor := actorFrom(c)
	if !canReadCompanyOwned(actor, ao.CompanyID) {
		writeError(c, wferrors.NewUnauthorizedError("not the offer owner"))
		return
	}
	list, err := h.store.ListCandidaturesByAO(ctx, ao.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidatures": list})
}

func (h *handlers) listInterviews(c *gin.Context) {
	ctx := c.Request.Context()
	cd, err := h.reader.GetCandidature(ctx, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if err := h.authorizeCandidatureRead(ctx, actorFrom(c), cd); err != nil {
		writeError(c, err)
		return
	}
	list, err := h.store.ListInterviewsByCandidature(ctx, cd.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"interviews": list})
}

func (h *handlers) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.health))
	for name, ping := range h.health {
		if err := ping(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}
	c.JSON(status, gin.H{"status": http.StatusText(status), "checks": checks})
}

func canReadCompanyOwned(actor models.Actor, companyID string) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	return actor.Role == models.RoleCompany && actor.ID == companyID
}

// authorizeCandidatureRead lets admins, the applying expert, and the company
// owning the parent AO through.
func (h *handlers) authorizeCandidatureRead(ctx context.Context, actor models.Actor, cd *models.Candidature) error {
	switch actor.Role {
	case models.RoleAdmin:
		return nil
	case models.RoleExpert:
		if actor.ID == cd.ExpertID {
			return nil
		}
	case models.RoleCompany:
		ao, err := h.reader.GetAO(ctx, cd.AOID)
		if err == nil && ao.CompanyID == actor.ID {
			return nil
		}
	}
	return wferrors.NewUnauthorizedError("not a party to this candidature")
}
