// internal/models/actor.go
package models

import "fmt"

// Role identifies who is requesting an action. RoleSystem is the internal
// actor used for cascades and scheduled sweeps; it bypasses ownership checks
// but still goes through the transition table.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleCompany Role = "company"
	RoleExpert  Role = "expert"
	RoleSystem  Role = "system"
)

// ParseRole converts a raw string to a Role, returning an error for unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleCompany, RoleExpert, RoleSystem:
		return r, nil
	}
	return "", fmt.Errorf("unknown actor role %q", s)
}

// Actor is the resolved caller identity, provided by the upstream auth layer.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// System is the engine-internal actor used for cascades and sweeps.
var System = Actor{ID: "system", Role: RoleSystem}
