package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/citycare/issue-service/internal/domain"
	"github.com/citycare/issue-service/internal/repository"
	apperrors "github.com/citycare/issue-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Citizen     *domain.Citizen
	Officer     *domain.Officer
}

// Actor returns the identity the lifecycle engine acts on.
func (p *Principal) Actor() domain.Actor {
	switch {
	case p.Officer != nil:
		return p.Officer.Actor()
	case p.Citizen != nil:
		return p.Citizen.Actor()
	}
	return domain.Actor{}
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens   *TokenManager
	citizens repository.CitizenRepository
	officers repository.OfficerRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, citizens repository.CitizenRepository, officers repository.OfficerRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, citizens: citizens, officers: officers}
}

// Handle enforces authentication for protected routes. Officers are reloaded
// on every request so deactivation takes effect before the token expires.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid or expired token")
	}

	principal := &Principal{SubjectType: claims.Subject}
	ctx := c.UserContext()

	switch claims.Subject {
	case domain.SubjectTypeCitizen:
		citizen, err := m.citizens.GetByID(ctx, claims.SubjectID())
		if err != nil {
			return lookupError(err, "citizen not found")
		}
		principal.Citizen = citizen
	case domain.SubjectTypeOfficer:
		officer, err := m.officers.GetByID(ctx, claims.SubjectID())
		if err != nil {
			return lookupError(err, "officer not found")
		}
		if !officer.Active {
			return apperrors.NewUnauthorized("officer account is deactivated")
		}
		principal.Officer = officer
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// ActorFromContext returns the caller identity, or an empty actor.
func ActorFromContext(c *fiber.Ctx) domain.Actor {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return domain.Actor{}
	}
	return principal.Actor()
}

func lookupError(err error, message string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewUnauthorized(message)
	}
	return apperrors.NewUnavailable("identity lookup failed", err)
}
