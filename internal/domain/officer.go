package domain

import "time"

// OfficerRole enumerates municipal operator roles.
type OfficerRole string

const (
	OfficerRoleWard  OfficerRole = "ward_officer"
	OfficerRoleField OfficerRole = "field_officer"
	OfficerRoleAdmin OfficerRole = "admin"
)

// Valid reports whether r is a known officer role.
func (r OfficerRole) Valid() bool {
	switch r {
	case OfficerRoleWard, OfficerRoleField, OfficerRoleAdmin:
		return true
	}
	return false
}

// Officer models a ward officer, field officer or administrator.
type Officer struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Role         OfficerRole
	WardZone     *string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor returns the identity used when the officer performs operations.
func (o *Officer) Actor() Actor {
	return Actor{ID: o.ID, Role: ActorRole(o.Role)}
}
