package labels

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

func TestFor_RoleSpecificText(t *testing.T) {
	tests := []struct {
		name   string
		entity models.EntityType
		status string
		role   models.Role
		want   string
	}{
		{"submitted ao, company view", models.EntityAO, string(models.AOSubmitted), models.RoleCompany, "Pending review"},
		{"submitted ao, admin view", models.EntityAO, string(models.AOSubmitted), models.RoleAdmin, "To review"},
		{"rejected ao, company view", models.EntityAO, string(models.AORejected), models.RoleCompany, "Changes requested"},
		{"validated candidature, expert view", models.EntityCandidature, string(models.CandidatureValidated), models.RoleExpert, "Shortlisted"},
		{"validated candidature, company view", models.EntityCandidature, string(models.CandidatureValidated), models.RoleCompany, "Awaiting your decision"},
		{"pending interview, expert view", models.EntityInterview, string(models.InterviewPending), models.RoleExpert, "Pick a slot"},
		{"pending interview, company view", models.EntityInterview, string(models.InterviewPending), models.RoleCompany, "Awaiting candidate"},
		{"published ao, any role", models.EntityAO, string(models.AOPublished), models.RoleExpert, "Published"},
		{"hired, any role", models.EntityCandidature, string(models.CandidatureHired), models.RoleAdmin, "Hired"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, For(tt.entity, tt.status, tt.role).Text)
		})
	}
}

func TestFor_UnknownStatusFallsBack(t *testing.T) {
	l := For(models.EntityAO, "SOMETHING_NEW", models.RoleAdmin)
	assert.Equal(t, "SOMETHING_NEW", l.Text)
	assert.Equal(t, VariantNeutral, l.Variant)
}

func TestFor_EveryKnownStatusHasText(t *testing.T) {
	roles := []models.Role{models.RoleAdmin, models.RoleCompany, models.RoleExpert}
	for _, status := range []models.AOStatus{
		models.AODraft, models.AOSubmitted, models.AOPublished, models.AORejected,
		models.AOArchived, models.AOExpired, models.AOFilled,
	} {
		for _, role := range roles {
			assert.NotEmpty(t, For(models.EntityAO, string(status), role).Text)
		}
	}
}
