// internal/models/notification.go
package models

import "time"

// NotificationKind names the user-facing message templates.
type NotificationKind string

const (
	KindAORejected           NotificationKind = "ao_rejected"
	KindAOPublished          NotificationKind = "ao_published"
	KindCandidatureValidated NotificationKind = "candidature_validated"
	KindCandidatureRejected  NotificationKind = "candidature_rejected"
	KindInterviewRequested   NotificationKind = "interview_requested"
	KindInterviewConfirmed   NotificationKind = "interview_confirmed"
	KindCandidatureHired     NotificationKind = "candidature_hired"
)

// Notification is one delivery request. Delivery is at-least-once and
// best-effort; a failed delivery never rolls back the transition that
// emitted it.
type Notification struct {
	ID          string                 `json:"id"`
	RecipientID string                 `json:"recipientId"`
	Kind        NotificationKind       `json:"kind"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	CreatedAt   time.Time              `json:"createdAt"`
}
