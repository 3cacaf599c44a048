// internal/repository/postgres/users.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	wferrors "github.com/Constantin2105/inspiratec-engine/internal/common/errors"
	"github.com/Constantin2105/inspiratec-engine/internal/models"
)

// GetUser returns contact details for notification delivery.
func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	var (
		u     models.User
		role  string
		phone sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, role, email, phone FROM users WHERE id = $1`, id).
		Scan(&u.ID, &role, &u.Email, &phone)
	if err == sql.ErrNoRows {
		return nil, wferrors.NewNotFoundError("user", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	u.Role = models.Role(role)
	if phone.Valid {
		u.Phone = phone.String
	}
	return &u, nil
}

// InsertNotification appends a row to the user-visible inbox. The inbox is
// the at-least-once delivery target; email and SMS are best-effort extras.
func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	payload, err := json.Marshal(n.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, recipient_id, kind, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		n.ID, n.RecipientID, string(n.Kind), payload, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}
