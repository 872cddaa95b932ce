package auth

import (
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// MinPasswordLength is enforced on registration and officer creation.
const MinPasswordLength = 8

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// ValidatePassword rejects passwords bcrypt cannot handle or that are too short.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return apperrors.NewValidationError("password is too short", map[string]any{"field": "password", "min": MinPasswordLength})
	}
	if len(password) > 72 {
		return apperrors.NewValidationError("password is too long", map[string]any{"field": "password", "max": 72})
	}
	return nil
}
