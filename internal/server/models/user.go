// Package models defines server-side data models persisted in the database.
package models

import "time"

// Account roles. Fixed at registration; agents and board members are
// provisioned by an operator, not self-registration.
const (
	RoleApplicant = "applicant"
	RoleBroker    = "broker"
	RoleAgent     = "agent"
	RoleBoard     = "board"
)

// ValidRole reports whether role is one of the known account roles.
func ValidRole(role string) bool {
	switch role {
	case RoleApplicant, RoleBroker, RoleAgent, RoleBoard:
		return true
	}
	return false
}

type User struct {
	ID           string
	Email        string
	FullName     string
	Role         string
	PasswordHash string
	CreatedAt    time.Time
}
