// internal/models/user.go
package models

// User carries the contact fields the notifier needs for delivery.
type User struct {
	ID    string `json:"id"`
	Role  Role   `json:"role"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}
