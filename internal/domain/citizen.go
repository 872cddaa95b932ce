package domain

import "time"

// Citizen is a resident who reports issues.
type Citizen struct {
	ID           string
	FullName     string
	Email        string
	PasswordHash string
	Points       int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor returns the identity used when the citizen performs operations.
func (c *Citizen) Actor() Actor {
	return Actor{ID: c.ID, Role: ActorRoleCitizen}
}
