package dto

import (
	"time"

	"github.com/citycare/issue-service/internal/domain"
)

// CreateOfficerRequest payload.
type CreateOfficerRequest struct {
	FullName string             `json:"full_name"`
	Email    string             `json:"email"`
	Password string             `json:"password"`
	Role     domain.OfficerRole `json:"role"`
	WardZone *string            `json:"ward_zone"`
}

// OfficerResponse represents an officer without credentials.
type OfficerResponse struct {
	ID        string             `json:"id"`
	FullName  string             `json:"full_name"`
	Email     string             `json:"email"`
	Role      domain.OfficerRole `json:"role"`
	WardZone  *string            `json:"ward_zone"`
	Active    bool               `json:"active"`
	CreatedAt time.Time          `json:"created_at"`
	UpdatedAt time.Time          `json:"updated_at"`
}
