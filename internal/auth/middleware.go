package auth

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/session"
	apperrors "github.com/spec-kit/school-portal/pkg/util/errorutil"
)

const (
	namespaceKey = "client_namespace"
	observerKey  = "session_observer"
	principalKey = "auth_principal"
)

// ClientContext pins every caller to a client namespace carried in a cookie.
// Callers without a valid one are issued a fresh namespace.
func ClientContext(cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ns := c.Cookies(cookieName)
		if _, err := uuid.Parse(ns); err != nil {
			ns = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    ns,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}
		c.Locals(namespaceKey, ns)
		return c.Next()
	}
}

// NamespaceFromContext returns the caller's client namespace.
func NamespaceFromContext(c *fiber.Ctx) (string, bool) {
	ns, ok := c.Locals(namespaceKey).(string)
	return ns, ok && ns != ""
}

// SessionMiddleware attaches the caller's session observer and, when the
// session is authenticated, its principal.
type SessionMiddleware struct {
	registry *session.Registry
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(registry *session.Registry) *SessionMiddleware {
	return &SessionMiddleware{registry: registry}
}

// Handle must run after ClientContext.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	ns, ok := NamespaceFromContext(c)
	if !ok {
		return apperrors.NewInternalError(errors.New("client namespace missing"))
	}

	observer := m.registry.Observer(c.UserContext(), ns)
	c.Locals(observerKey, observer)
	if view := observer.View(); view.Authenticated {
		c.Locals(principalKey, view.Principal)
	}
	return c.Next()
}

// ObserverFromContext retrieves the caller's session observer.
func ObserverFromContext(c *fiber.Ctx) (*session.Observer, bool) {
	observer, ok := c.Locals(observerKey).(*session.Observer)
	return observer, ok && observer != nil
}

// PrincipalFromContext retrieves the authenticated principal.
func PrincipalFromContext(c *fiber.Ctx) (*domain.Principal, bool) {
	principal, ok := c.Locals(principalKey).(*domain.Principal)
	return principal, ok && principal != nil
}
