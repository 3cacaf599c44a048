// internal/workflow/engine/engine_test.go
package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
	"github.com/Constantin2105/inspiratec-engine/internal/repository/memory"
	"github.com/Constantin2105/inspiratec-engine/internal/workflow/transition"
)

// ==========================
// Test Helpers
// ==========================

type sentNote struct {
	RecipientID string
	Kind        models.NotificationKind
	Payload     map[string]interface{}
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNote
}

func (f *fakeNotifier) Notify(_ context.Context, recipientID string, kind models.NotificationKind, payload map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentNote{RecipientID: recipientID, Kind: kind, Payload: payload})
}

func (f *fakeNotifier) byKind(kind models.NotificationKind) []sentNote {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentNote
	for _, n := range f.sent {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

func newTestEngine(t *testing.T) (*Engine, *memory.Store, *fakeNotifier) {
	t.Helper()
	store := memory.New()
	notifier := &fakeNotifier{}
	eng := New(store, logger.NewTestLogger(t), WithNotifier(notifier))
	return eng, store, notifier
}

func seedAO(t *testing.T, store *memory.Store, companyID string, status models.AOStatus, deadline *time.Time) *models.AO {
	t.Helper()
	now := time.Now().UTC()
	ao := &models.AO{
		ID: uuid.New().String(), CompanyID: companyID,
		Title: "Backend mission", Status: status,
		CandidatureDeadline: deadline,
		CreatedAt:           now, UpdatedAt: now, Version: 1,
	}
	require.NoError(t, store.InsertAO(context.Background(), ao))
	return ao
}

func seedCandidature(t *testing.T, store *memory.Store, aoID, expertID string, status models.CandidatureStatus) *models.Candidature {
	t.Helper()
	now := time.Now().UTC()
	c := &models.Candidature{
		ID: uuid.New().String(), AOID: aoID, ExpertID: expertID,
		Status: status, AppliedAt: now, UpdatedAt: now, Version: 1,
	}
	require.NoError(t, store.InsertCandidature(context.Background(), c))
	return c
}

func seedInterview(t *testing.T, store *memory.Store, c *models.Candidature, companyID string, status models.InterviewStatus, slots []time.Time) *models.Interview {
	t.Helper()
	now := time.Now().UTC()
	iv := &models.Interview{
		ID: uuid.New().String(), CandidatureID: c.ID,
		CompanyID: companyID, ExpertID: c.ExpertID,
		Status: status, ProposedSlots: slots,
		CreatedAt: now, UpdatedAt: now, Version: 1,
	}
	require.NoError(t, store.InsertInterview(context.Background(), iv))
	return iv
}

func admin() models.Actor   { return models.Actor{ID: "admin-1", Role: models.RoleAdmin} }
func company(id string) models.Actor { return models.Actor{ID: id, Role: models.RoleCompany} }
func expert(id string) models.Actor  { return models.Actor{ID: id, Role: models.RoleExpert} }

// ==========================
// Guard / Validation Tests
// ==========================

func TestApplyAction_InvalidTransitionNeverMutates(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AODraft, nil)

	// Publishing a draft is illegal even for the admin who could publish a
	// submitted one; for the owning company publish is never its action.
	cases := []struct {
		actor models.Actor
		want  wferrors.ErrorCode
	}{
		{admin(), wferrors.ErrCodeInvalidTransition},
		{company("co-1"), wferrors.ErrCodeUnauthorized},
	}
	for _, tc := range cases {
		_, err := eng.ApplyAction(ctx, ActionRequest{
			Entity: models.EntityAO, ID: ao.ID,
			Action: transition.ActionPublish, Actor: tc.actor,
		})
		require.Error(t, err)
		assert.Equal(t, tc.want, wferrors.CodeOf(err), "role %s", tc.actor.Role)
	}

	got, err := store.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AODraft, got.Status)
	assert.Equal(t, 1, got.Version, "rejected action must not touch the store")
}

func TestApplyAction_NotFound(t *testing.T) {
	eng, _, _ := newTestEngine(t)
	_, err := eng.ApplyAction(context.Background(), ActionRequest{
		Entity: models.EntityAO, ID: "missing",
		Action: transition.ActionSubmit, Actor: company("co-1"),
	})
	assert.Equal(t, wferrors.ErrCodeNotFound, wferrors.CodeOf(err))
}

func TestApplyAction_OwnershipBeforeTable(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AODraft, nil)

	// Another company holds no rights, even for a transition that exists.
	_, err := eng.ApplyAction(ctx, ActionRequest{
		Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionSubmit, Actor: company("co-2"),
	})
	assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err))

	// And ownership is checked before legality: an illegal action by a
	// non-owner still fails Unauthorized, not InvalidTransition.
	_, err = eng.ApplyAction(ctx, ActionRequest{
		Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionPublish, Actor: company("co-2"),
	})
	assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err))
}

func TestApplyAction_ExpertRejectAlwaysUnauthorized(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AOPublished, nil)

	for _, status := range []models.CandidatureStatus{
		models.CandidatureDraft, models.CandidatureSubmitted, models.CandidatureValidated,
		models.CandidatureInterviewRequested, models.CandidatureHired,
	} {
		c := seedCandidature(t, store, ao.ID, "ex-1", status)
		// Even the owning expert cannot reject; reject belongs to admin/company,
		// so the failure is an authorization one whatever the status.
		_, err := eng.ApplyAction(ctx, ActionRequest{
			Entity: models.EntityCandidature, ID: c.ID,
			Action: transition.ActionReject, Actor: expert("ex-1"),
			Payload: map[string]interface{}{"reason": "nope"},
		})
		require.Error(t, err, "status %s", status)
		assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err), "status %s", status)

		// A non-owning expert fails before the table is even consulted.
		_, err = eng.ApplyAction(ctx, ActionRequest{
			Entity: models.EntityCandidature, ID: c.ID,
			Action: transition.ActionReject, Actor: expert("ex-2"),
			Payload: map[string]interface{}{"reason": "nope"},
		})
		assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err), "status %s", status)
	}
}

func TestApplyAction_ForeignRoleActionIsUnauthorized(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureSubmitted)

	// validate belongs to admins; the owning company clears ownership but
	// not the role gate.
	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionValidate, Actor: company("co-1")})
	assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err))

	// An action the table does not know at all is not an authorization problem.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.Action("promote"), Actor: company("co-1")})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))
}

func TestApplyAction_MissingFieldBeforeWrite(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AOSubmitted, nil)

	_, err := eng.ApplyAction(ctx, ActionRequest{
		Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionReject, Actor: admin(),
	})
	assert.Equal(t, wferrors.ErrCodeMissingField, wferrors.CodeOf(err))

	got, err := store.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AOSubmitted, got.Status)
	assert.Equal(t, 1, got.Version)
}

// ==========================
// Scenario Tests
// ==========================

func TestFullHiringScenario(t *testing.T) {
	eng, store, notifier := newTestEngine(t)
	ctx := context.Background()

	// Company X drafts, submits; admin publishes.
	ao, err := eng.CreateAO(ctx, company("co-x"), CreateAOInput{Title: "Go backend"})
	require.NoError(t, err)
	assert.Equal(t, models.AODraft, ao.Status)

	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionSubmit, Actor: company("co-x")})
	require.NoError(t, err)
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionPublish, Actor: admin()})
	require.NoError(t, err)

	// Expert Y applies and submits.
	c, err := eng.CreateCandidature(ctx, expert("ex-y"), CreateCandidatureInput{AOID: ao.ID})
	require.NoError(t, err)
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionSubmit, Actor: expert("ex-y")})
	require.NoError(t, err)

	// Admin validates; owning company is notified.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionValidate, Actor: admin()})
	require.NoError(t, err)
	validated := notifier.byKind(models.KindCandidatureValidated)
	require.Len(t, validated, 1)
	assert.Equal(t, "co-x", validated[0].RecipientID)

	// Company requests an interview with two slots.
	slot1 := time.Date(2026, 9, 10, 9, 0, 0, 0, time.UTC)
	slot2 := time.Date(2026, 9, 11, 14, 0, 0, 0, time.UTC)
	res, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionRequestInterview, Actor: company("co-x"),
		Payload: map[string]interface{}{"proposedSlots": []time.Time{slot1, slot2}},
	})
	require.NoError(t, err)
	require.Len(t, res.Secondary, 1)
	iv := res.Secondary[0].Interview
	require.NotNil(t, iv)
	assert.Equal(t, models.InterviewPending, iv.Status)
	assert.Len(t, iv.ProposedSlots, 2)

	// Expert confirms slot 1.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityInterview, ID: iv.ID,
		Action: transition.ActionConfirm, Actor: expert("ex-y"),
		Payload: map[string]interface{}{"confirmedTime": slot1},
	})
	require.NoError(t, err)
	gotIV, err := store.GetInterview(ctx, iv.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InterviewConfirmed, gotIV.Status)
	require.NotNil(t, gotIV.ConfirmedTime)
	assert.True(t, gotIV.ConfirmedTime.Equal(slot1))

	// Company hires.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionHire, Actor: company("co-x")})
	require.NoError(t, err)

	gotC, err := store.GetCandidature(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.CandidatureHired, gotC.Status)
	gotAO, err := store.GetAO(ctx, ao.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AOFilled, gotAO.Status)

	hiredNotes := notifier.byKind(models.KindCandidatureHired)
	require.Len(t, hiredNotes, 1)
	assert.Equal(t, "ex-y", hiredNotes[0].RecipientID)
}

func TestHireCascadeClosesCompetingCandidatures(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c1 := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureValidated)
	c2 := seedCandidature(t, store, ao.ID, "ex-2", models.CandidatureValidated)
	c3 := seedCandidature(t, store, ao.ID, "ex-3", models.CandidatureValidated)
	iv2 := seedInterview(t, store, c2, "co-1", models.InterviewPending,
		[]time.Time{time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)})

	res, err := eng.ApplyAction(ctx, ActionRequest{
		Entity: models.EntityCandidature, ID: c1.ID,
		Action: transition.ActionHire, Actor: company("co-1"),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	gotAO, _ := store.GetAO(ctx, ao.ID)
	assert.Equal(t, models.AOFilled, gotAO.Status)
	got1, _ := store.GetCandidature(ctx, c1.ID)
	assert.Equal(t, models.CandidatureHired, got1.Status)
	got2, _ := store.GetCandidature(ctx, c2.ID)
	assert.Equal(t, models.CandidatureFilled, got2.Status)
	got3, _ := store.GetCandidature(ctx, c3.ID)
	assert.Equal(t, models.CandidatureFilled, got3.Status)
	gotIV2, _ := store.GetInterview(ctx, iv2.ID)
	assert.Equal(t, models.InterviewCancelled, gotIV2.Status)
}

func TestSingleHireInvariant(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c1 := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureValidated)
	c2 := seedCandidature(t, store, ao.ID, "ex-2", models.CandidatureValidated)

	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c1.ID,
		Action: transition.ActionHire, Actor: company("co-1")})
	require.NoError(t, err)

	// The cascade closed c2 as FILLED, so a second hire has no legal row.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c2.ID,
		Action: transition.ActionHire, Actor: company("co-1")})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))

	hired := 0
	all, _ := store.ListCandidaturesByAO(ctx, ao.ID)
	for _, c := range all {
		if c.Status == models.CandidatureHired {
			hired++
		}
	}
	assert.Equal(t, 1, hired)
}

func TestTerminalAOBlocksNewSubmissionsOnly(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	past := time.Now().UTC().Add(-time.Hour)
	ao := seedAO(t, store, "co-1", models.AOPublished, &past)
	inFlight := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureSubmitted)
	draft := seedCandidature(t, store, ao.ID, "ex-2", models.CandidatureDraft)

	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionExpire, Actor: models.System})
	require.NoError(t, err)

	// New submission against the expired AO is guarded off.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: draft.ID,
		Action: transition.ActionSubmit, Actor: expert("ex-2")})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))

	// And so is creating a fresh candidature.
	_, err = eng.CreateCandidature(ctx, expert("ex-3"), CreateCandidatureInput{AOID: ao.ID})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))

	// Review work already in flight stays legal.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: inFlight.ID,
		Action: transition.ActionValidate, Actor: admin()})
	assert.NoError(t, err)
}

func TestCreateCandidature_DeadlinePassed(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	past := time.Now().UTC().Add(-time.Minute)
	ao := seedAO(t, store, "co-1", models.AOPublished, &past)

	_, err := eng.CreateCandidature(context.Background(), expert("ex-1"), CreateCandidatureInput{AOID: ao.ID})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))
}

func TestDeleteAOCascades(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c1 := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureSubmitted)
	c2 := seedCandidature(t, store, ao.ID, "ex-2", models.CandidatureHired)
	iv := seedInterview(t, store, c1, "co-1", models.InterviewPending,
		[]time.Time{time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC)})

	res, err := eng.DeleteAO(ctx, company("co-1"), ao.ID)
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)

	_, err = store.GetAO(ctx, ao.ID)
	assert.Equal(t, wferrors.ErrCodeNotFound, wferrors.CodeOf(err))

	got1, _ := store.GetCandidature(ctx, c1.ID)
	assert.Equal(t, models.CandidatureWithdrawn, got1.Status)
	// Terminal candidatures stay untouched for the historical record.
	got2, _ := store.GetCandidature(ctx, c2.ID)
	assert.Equal(t, models.CandidatureHired, got2.Status)
	gotIV, _ := store.GetInterview(ctx, iv.ID)
	assert.Equal(t, models.InterviewCancelled, gotIV.Status)
}

func TestDeleteAO_OnlyOwnerOrAdmin(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AODraft, nil)

	_, err := eng.DeleteAO(ctx, company("co-2"), ao.ID)
	assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err))
	_, err = eng.DeleteAO(ctx, expert("ex-1"), ao.ID)
	assert.Equal(t, wferrors.ErrCodeUnauthorized, wferrors.CodeOf(err))

	_, err = eng.DeleteAO(ctx, admin(), ao.ID)
	assert.NoError(t, err)
}

func TestRequestInterviewReplacesActiveOne(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureValidated)

	slots := []time.Time{time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)}
	res1, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionRequestInterview, Actor: company("co-1"),
		Payload: map[string]interface{}{"proposedSlots": slots}})
	require.NoError(t, err)
	first := res1.Secondary[0].Interview

	res2, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionRequestInterview, Actor: company("co-1"),
		Payload: map[string]interface{}{"proposedSlots": slots}})
	require.NoError(t, err)

	gotFirst, _ := store.GetInterview(ctx, first.ID)
	assert.Equal(t, models.InterviewCancelled, gotFirst.Status)

	active := 0
	all, _ := store.ListInterviewsByCandidature(ctx, c.ID)
	for _, iv := range all {
		if !iv.Status.Terminal() {
			active++
		}
	}
	assert.Equal(t, 1, active, "at most one non-terminal interview per candidature")
	require.NotEmpty(t, res2.Secondary)
}

func TestInterviewConfirm_RejectsUnproposedSlot(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureInterviewRequested)
	slot := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	iv := seedInterview(t, store, c, "co-1", models.InterviewPending, []time.Time{slot})

	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityInterview, ID: iv.ID,
		Action: transition.ActionConfirm, Actor: expert("ex-1"),
		Payload: map[string]interface{}{"confirmedTime": slot.Add(time.Hour)}})
	assert.Equal(t, wferrors.ErrCodeMissingField, wferrors.CodeOf(err))

	got, _ := store.GetInterview(ctx, iv.ID)
	assert.Equal(t, models.InterviewPending, got.Status)
}

func TestInterviewCounterProposalRoundTrip(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()

	ao := seedAO(t, store, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureInterviewRequested)
	slot := time.Date(2026, 9, 5, 10, 0, 0, 0, time.UTC)
	iv := seedInterview(t, store, c, "co-1", models.InterviewPending, []time.Time{slot})

	alt := slot.Add(48 * time.Hour)
	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityInterview, ID: iv.ID,
		Action: transition.ActionCounter, Actor: expert("ex-1"),
		Payload: map[string]interface{}{"proposedSlots": []time.Time{alt}}})
	require.NoError(t, err)

	got, _ := store.GetInterview(ctx, iv.ID)
	assert.Equal(t, models.InterviewCounterProposal, got.Status)
	require.Len(t, got.ProposedSlots, 1)
	assert.True(t, got.ProposedSlots[0].Equal(alt))

	// Company re-proposes on the same record, not a new one.
	final := alt.Add(24 * time.Hour)
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityInterview, ID: iv.ID,
		Action: transition.ActionRepropose, Actor: company("co-1"),
		Payload: map[string]interface{}{"proposedSlots": []time.Time{final}}})
	require.NoError(t, err)

	got, _ = store.GetInterview(ctx, iv.ID)
	assert.Equal(t, models.InterviewPending, got.Status)
	assert.Equal(t, 3, got.Version)
}

func TestAOResubmitClearsRejectionReason(t *testing.T) {
	eng, store, notifier := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AOSubmitted, nil)

	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionReject, Actor: admin(),
		Payload: map[string]interface{}{"rejectionReason": "too vague"}})
	require.NoError(t, err)

	got, _ := store.GetAO(ctx, ao.ID)
	assert.Equal(t, models.AORejected, got.Status)
	assert.Equal(t, "too vague", got.RejectionReason)

	rejected := notifier.byKind(models.KindAORejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, "co-1", rejected[0].RecipientID)

	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityAO, ID: ao.ID,
		Action: transition.ActionResubmit, Actor: company("co-1")})
	require.NoError(t, err)

	got, _ = store.GetAO(ctx, ao.ID)
	assert.Equal(t, models.AOSubmitted, got.Status)
	assert.Empty(t, got.RejectionReason)
}

// ==========================
// Concurrency Tests
// ==========================

// staleStore serves one read of a pre-recorded candidature snapshot, then
// delegates. It models a second session that read before a concurrent write.
type staleStore struct {
	*memory.Store
	mu    sync.Mutex
	stale *models.Candidature
}

func (s *staleStore) GetCandidature(ctx context.Context, id string) (*models.Candidature, error) {
	s.mu.Lock()
	if s.stale != nil && s.stale.ID == id {
		c := *s.stale
		s.stale = nil
		s.mu.Unlock()
		return &c, nil
	}
	s.mu.Unlock()
	return s.Store.GetCandidature(ctx, id)
}

func TestConcurrentValidate_ExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	store := &staleStore{Store: base}
	eng := New(store, logger.NewNoOpLogger())

	ao := seedAO(t, base, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, base, ao.ID, "ex-1", models.CandidatureSubmitted)

	// Both admin sessions read C at version 1.
	snapshot := *c
	store.stale = &snapshot

	// Session A reads the stale copy and still wins the write.
	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionValidate, Actor: admin()})
	require.NoError(t, err)

	// Session B re-read fresh state... which is VALIDATED now.
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionValidate, Actor: admin()})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))

	// At the store level the race is a version conflict.
	staleCopy := snapshot
	staleCopy.Status = models.CandidatureValidated
	err = base.UpdateCandidature(ctx, &staleCopy, snapshot.Version)
	assert.Equal(t, wferrors.ErrCodeConflict, wferrors.CodeOf(err))
}

// conflictStore fails every conditional write with CONFLICT.
type conflictStore struct {
	*memory.Store
	attempts int
}

func (s *conflictStore) UpdateCandidature(_ context.Context, c *models.Candidature, _ int) error {
	s.attempts++
	return wferrors.NewConflictError(string(models.EntityCandidature), c.ID)
}

func TestApplyActionRetry_Bounded(t *testing.T) {
	base := memory.New()
	store := &conflictStore{Store: base}
	eng := New(store, logger.NewNoOpLogger(), WithConflictRetries(3))

	ao := seedAO(t, base, "co-1", models.AOPublished, nil)
	c := seedCandidature(t, base, ao.ID, "ex-1", models.CandidatureSubmitted)

	_, err := eng.ApplyActionRetry(context.Background(), ActionRequest{
		Entity: models.EntityCandidature, ID: c.ID,
		Action: transition.ActionValidate, Actor: admin(),
	})
	assert.Equal(t, wferrors.ErrCodeConflict, wferrors.CodeOf(err))
	assert.Equal(t, 3, store.attempts)
}

// failingCloseStore makes sibling closure writes fail to exercise the
// partial-cascade report.
type failingCloseStore struct {
	*memory.Store
	failID string
}

func (s *failingCloseStore) UpdateCandidature(ctx context.Context, c *models.Candidature, expected int) error {
	if c.ID == s.failID {
		return wferrors.NewInternalError(assert.AnError)
	}
	return s.Store.UpdateCandidature(ctx, c, expected)
}

func TestHireCascade_PartialFailureIsSurfaced(t *testing.T) {
	ctx := context.Background()
	base := memory.New()
	store := &failingCloseStore{Store: base}
	eng := New(store, logger.NewNoOpLogger())

	ao := seedAO(t, base, "co-1", models.AOPublished, nil)
	c1 := seedCandidature(t, base, ao.ID, "ex-1", models.CandidatureValidated)
	c2 := seedCandidature(t, base, ao.ID, "ex-2", models.CandidatureValidated)
	store.failID = c2.ID

	res, err := eng.ApplyAction(ctx, ActionRequest{
		Entity: models.EntityCandidature, ID: c1.ID,
		Action: transition.ActionHire, Actor: company("co-1"),
	})
	require.Error(t, err)
	assert.Equal(t, wferrors.ErrCodePartialCascadeFailure, wferrors.CodeOf(err))

	// The primary transition committed regardless.
	require.NotNil(t, res)
	got1, _ := base.GetCandidature(ctx, c1.ID)
	assert.Equal(t, models.CandidatureHired, got1.Status)
	gotAO, _ := base.GetAO(ctx, ao.ID)
	assert.Equal(t, models.AOFilled, gotAO.Status)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, c2.ID, res.Warnings[0].EntityID)
}

func TestWithdrawOnlyBeforeValidation(t *testing.T) {
	eng, store, _ := newTestEngine(t)
	ctx := context.Background()
	ao := seedAO(t, store, "co-1", models.AOPublished, nil)

	submitted := seedCandidature(t, store, ao.ID, "ex-1", models.CandidatureSubmitted)
	_, err := eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: submitted.ID,
		Action: transition.ActionWithdraw, Actor: expert("ex-1")})
	assert.NoError(t, err)

	validated := seedCandidature(t, store, ao.ID, "ex-2", models.CandidatureValidated)
	_, err = eng.ApplyAction(ctx, ActionRequest{Entity: models.EntityCandidature, ID: validated.ID,
		Action: transition.ActionWithdraw, Actor: expert("ex-2")})
	assert.Equal(t, wferrors.ErrCodeInvalidTransition, wferrors.CodeOf(err))
}
