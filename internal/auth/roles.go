package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/observability"
)

// Guard gates protected areas with an AccessController. Denied callers are
// redirected with 303 See Other.
type Guard struct {
	access  *AccessController
	metrics *observability.Metrics
}

// NewGuard builds a Guard that records every decision it enforces.
func NewGuard(access *AccessController, metrics *observability.Metrics) *Guard {
	return &Guard{access: access, metrics: metrics}
}

// RequireRoute applies the policy's allowed roles for route.
func (g *Guard) RequireRoute(route string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return g.enforce(c, g.access.AuthorizeRoute(principal, route))
	}
}

// RequireRoles allows only the listed roles.
func (g *Guard) RequireRoles(roles ...domain.Role) fiber.Handler {
	allowed := domain.NewRoleSet(roles...)
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return g.enforce(c, g.access.Authorize(principal, allowed))
	}
}

func (g *Guard) enforce(c *fiber.Ctx, decision Decision) error {
	if decision.Allowed() {
		g.metrics.RecordDecision(observability.DecisionAllow)
		return c.Next()
	}
	g.metrics.RecordDecision(observability.DecisionRedirect)
	return c.Redirect(decision.Path, fiber.StatusSeeOther)
}
