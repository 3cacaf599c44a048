// internal/repository/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/common/logger"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// Store implements repository.Store over PostgreSQL. Conditional updates use
// a version column: UPDATE ... WHERE id = $n AND version = $m, so a stale
// writer affects zero rows and gets a CONFLICT.
type Store struct {
	db  *sql.DB
	log logger.Logger
}

// New creates a Postgres-backed store.
func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:  db,
		log: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
	}
}

// --- AO ---

const aoColumns = `id, company_id, title, description, status, rejection_reason, candidature_deadline, created_at, updated_at, version`

func scanAO(row interface{ Scan(...interface{}) error }) (*models.AO, error) {
	var (
		ao       models.AO
		reason   sql.NullString
		deadline sql.NullTime
		status   string
	)
	err := row.Scan(&ao.ID, &ao.CompanyID, &ao.Title, &ao.Description, &status,
		&reason, &deadline, &ao.CreatedAt, &ao.UpdatedAt, &ao.Version)
	if err != nil {
		return nil, err
	}
	ao.Status = models.AOStatus(status)
	if reason.Valid {
		ao.RejectionReason = reason.String
	}
	if deadline.Valid {
		t := deadline.Time
		ao.CandidatureDeadline = &t
	}
	return &ao, nil
}

func (s *Store) GetAO(ctx context.Context, id string) (*models.AO, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+aoColumns+` FROM aos WHERE id = $1`, id)
	ao, err := scanAO(row)
	if err == sql.ErrNoRows {
		return nil, wferrors.NewNotFoundError(string(models.EntityAO), id)
	}
	if err != nil {
		return nil, fmt.Errorf("get ao: %w", err)
	}
	return ao, nil
}

func (s *Store) ListExpiredPublishedAOs(ctx context.Context, now time.Time) ([]*models.AO, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+aoColumns+` FROM aos
		 WHERE status = $1 AND candidature_deadline IS NOT NULL AND candidature_deadline < $2`,
		string(models.AOPublished), now)
	if err != nil {
		return nil, fmt.Errorf("list expired aos: %w", err)
	}
	defer rows.Close()

	var out []*models.AO
	for rows.Next() {
		ao, err := scanAO(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ao: %w", err)
		}
		out = append(out, ao)
	}
	return out, rows.Err()
}

func (s *Store) InsertAO(ctx context.Context, ao *models.AO) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO aos (`+aoColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ao.ID, ao.CompanyID, ao.Title, ao.Description, string(ao.Status),
		nullString(ao.RejectionReason), nullTime(ao.CandidatureDeadline),
		ao.CreatedAt, ao.UpdatedAt, ao.Version)
	if err != nil {
		return fmt.Errorf("insert ao: %w", err)
	}
	return nil
}

func (s *Store) UpdateAO(ctx context.Context, ao *models.AO, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE aos SET title = $1, description = $2, status = $3, rejection_reason = $4,
		 candidature_deadline = $5, updated_at = $6, version = version + 1
		 WHERE id = $7 AND version = $8`,
		ao.Title, ao.Description, string(ao.Status), nullString(ao.RejectionReason),
		nullTime(ao.CandidatureDeadline), now, ao.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update ao: %w", err)
	}
	if err := s.checkWrite(ctx, res, "aos", string(models.EntityAO), ao.ID); err != nil {
		return err
	}
	ao.Version = expectedVersion + 1
	ao.UpdatedAt = now
	return nil
}

func (s *Store) DeleteAO(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "aos", string(models.EntityAO), id)
}

// --- Candidature ---

const candidatureColumns = `id, ao_id, expert_id, status, motif_refus, applied_at, updated_at, version`

func scanCandidature(row interface{ Scan(...interface{}) error }) (*models.Candidature, error) {
	var (
		c      models.Candidature
		reason sql.NullString
		status string
	)
	err := row.Scan(&c.ID, &c.AOID, &c.ExpertID, &status, &reason,
		&c.AppliedAt, &c.UpdatedAt, &c.Version)
	if err != nil {
		return nil, err
	}
	c.Status = models.CandidatureStatus(status)
	if reason.Valid {
		c.RefusalReason = reason.String
	}
	return &c, nil
}

func (s *Store) GetCandidature(ctx context.Context, id string) (*models.Candidature, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+candidatureColumns+` FROM candidatures WHERE id = $1`, id)
	c, err := scanCandidature(row)
	if err == sql.ErrNoRows {
		return nil, wferrors.NewNotFoundError(string(models.EntityCandidature), id)
	}
	if err != nil {
		return nil, fmt.Errorf("get candidature: %w", err)
	}
	return c, nil
}

func (s *Store) ListCandidaturesByAO(ctx context.Context, aoID string) ([]*models.Candidature, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+candidatureColumns+` FROM candidatures WHERE ao_id = $1 ORDER BY applied_at`, aoID)
	if err != nil {
		return nil, fmt.Errorf("list candidatures: %w", err)
	}
	defer rows.Close()

	var out []*models.Candidature
	for rows.Next() {
		c, err := scanCandidature(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidature: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) InsertCandidature(ctx context.Context, c *models.Candidature) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO candidatures (`+candidatureColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.AOID, c.ExpertID, string(c.Status), nullString(c.RefusalReason),
		c.AppliedAt, c.UpdatedAt, c.Version)
	if err != nil {
		return fmt.Errorf("insert candidature: %w", err)
	}
	return nil
}

func (s *Store) UpdateCandidature(ctx context.Context, c *models.Candidature, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidatures SET status = $1, motif_refus = $2, updated_at = $3, version = version + 1
		 WHERE id = $4 AND version = $5`,
		string(c.Status), nullString(c.RefusalReason), now, c.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update candidature: %w", err)
	}
	if err := s.checkWrite(ctx, res, "candidatures", string(models.EntityCandidature), c.ID); err != nil {
		return err
	}
	c.Version = expectedVersion + 1
	c.UpdatedAt = now
	return nil
}

func (s *Store) DeleteCandidature(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "candidatures", string(models.EntityCandidature), id)
}

// --- Interview ---

const interviewColumns = `id, candidature_id, company_id, expert_id, status, proposed_slots, confirmed_time, notes, created_at, updated_at, version`

func scanInterview(row interface{ Scan(...interface{}) error }) (*models.Interview, error) {
	var (
		iv        models.Interview
		confirmed sql.NullTime
		status    string
		rawSlots  []time.Time
	)
	err := row.Scan(&iv.ID, &iv.CandidatureID, &iv.CompanyID, &iv.ExpertID, &status,
		pq.Array(&rawSlots), &confirmed, &iv.Notes, &iv.CreatedAt, &iv.UpdatedAt, &iv.Version)
	if err != nil {
		return nil, err
	}
	iv.Status = models.InterviewStatus(status)
	iv.ProposedSlots = rawSlots
	if confirmed.Valid {
		t := confirmed.Time
		iv.ConfirmedTime = &t
	}
	return &iv, nil
}

func (s *Store) GetInterview(ctx context.Context, id string) (*models.Interview, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE id = $1`, id)
	iv, err := scanInterview(row)
	if err == sql.ErrNoRows {
		return nil, wferrors.NewNotFoundError(string(models.EntityInterview), id)
	}
	if err != nil {
		return nil, fmt.Errorf("get interview: %w", err)
	}
	return iv, nil
}

func (s *Store) ListInterviewsByCandidature(ctx context.Context, candidatureID string) ([]*models.Interview, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interviewColumns+` FROM interviews WHERE candidature_id = $1 ORDER BY created_at`, candidatureID)
	if err != nil {
		return nil, fmt.Errorf("list interviews: %w", err)
	}
	defer rows.Close()

	var out []*models.Interview
	for rows.Next() {
		iv, err := scanInterview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan interview: %w", err)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Store) InsertInterview(ctx context.Context, iv *models.Interview) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interviews (`+interviewColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		iv.ID, iv.CandidatureID, iv.CompanyID, iv.ExpertID, string(iv.Status),
		pq.Array(iv.ProposedSlots), nullTime(iv.ConfirmedTime), iv.Notes,
		iv.CreatedAt, iv.UpdatedAt, iv.Version)
	if err != nil {
		return fmt.Errorf("insert interview: %w", err)
	}
	return nil
}

func (s *Store) UpdateInterview(ctx context.Context, iv *models.Interview, expectedVersion int) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE interviews SET status = $1, proposed_slots = $2, confirmed_time = $3, notes = $4,
		 updated_at = $5, version = version + 1
		 WHERE id = $6 AND version = $7`,
		string(iv.Status), pq.Array(iv.ProposedSlots), nullTime(iv.ConfirmedTime), iv.Notes,
		now, iv.ID, expectedVersion)
	if err != nil {
		return fmt.Errorf("update interview: %w", err)
	}
	if err := s.checkWrite(ctx, res, "interviews", string(models.EntityInterview), iv.ID); err != nil {
		return err
	}
	iv.Version = expectedVersion + 1
	iv.UpdatedAt = now
	return nil
}

func (s *Store) DeleteInterview(ctx context.Context, id string) error {
	return s.deleteRow(ctx, "interviews", string(models.EntityInterview), id)
}

// --- helpers ---

// checkWrite disambiguates a zero-row conditional update: the row either
// vanished (NOT_FOUND) or its version moved (CONFLICT).
func (s *Store) checkWrite(ctx context.Context, res sql.Result, table, entityType, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+table+` WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("existence check: %w", err)
	}
	if !exists {
		return wferrors.NewNotFoundError(entityType, id)
	}
	return wferrors.NewConflictError(entityType, id)
}

func (s *Store) deleteRow(ctx context.Context, table, entityType, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return wferrors.NewNotFoundError(entityType, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
