package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/domain"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

// RequireCitizen ensures a citizen is authenticated.
func RequireCitizen() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeCitizen || principal.Citizen == nil {
			return apperrors.NewPermissionDenied("citizen account required")
		}
		return c.Next()
	}
}

// RequireOfficerRole ensures the officer principal has one of the allowed
// roles. With no roles any active officer passes.
func RequireOfficerRole(allowed ...domain.OfficerRole) fiber.Handler {
	allowedSet := make(map[domain.OfficerRole]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || principal.SubjectType != domain.SubjectTypeOfficer || principal.Officer == nil {
			return apperrors.NewPermissionDenied("officer account required")
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Officer.Role]; !exists {
			return apperrors.NewPermissionDenied("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin is RequireOfficerRole(admin).
func RequireAdmin() fiber.Handler {
	return RequireOfficerRole(domain.OfficerRoleAdmin)
}
