package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/session"
)

const testCookie = "portal_client"

func newGuardedApp(t *testing.T) (*fiber.App, *session.Registry) {
	t.Helper()
	registry := session.NewRegistry(session.NewMemoryStorage(), NewValidator(seedDirectory(t), nil, 0, nil), nil, nil)
	t.Cleanup(registry.Close)

	guard := NewGuard(NewAccessController(nil), nil)
	app := fiber.New()
	app.Use(ClientContext(testCookie), NewSessionMiddleware(registry).Handle)
	for _, route := range DefaultPolicy().Routes() {
		app.Get(route, guard.RequireRoute(route), func(c *fiber.Ctx) error {
			p, ok := PrincipalFromContext(c)
			if !ok {
				return fiber.ErrUnauthorized
			}
			return c.SendString(p.ID)
		})
	}
	app.Get("/about", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/staff", guard.RequireRoles(domain.RoleTeacher, domain.RoleAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app, registry
}

func get(t *testing.T, app *fiber.App, path, ns string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodGet, path, nil)
	if ns != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: ns})
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestClientContextIssuesNamespace(t *testing.T) {
	app, _ := newGuardedApp(t)

	resp := get(t, app, "/about", "")
	var issued string
	for _, c := range resp.Cookies() {
		if c.Name == testCookie {
			issued = c.Value
		}
	}
	_, err := uuid.Parse(issued)
	assert.NoError(t, err)

	resp = get(t, app, "/about", "not-a-uuid")
	assert.NotEmpty(t, resp.Header.Get(fiber.HeaderSetCookie))

	resp = get(t, app, "/about", uuid.NewString())
	assert.Empty(t, resp.Header.Get(fiber.HeaderSetCookie))
}

func TestGuardRedirectsAnonymousToLanding(t *testing.T) {
	app, _ := newGuardedApp(t)

	resp := get(t, app, "/student", uuid.NewString())
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}

func TestGuardSendsWrongRoleHome(t *testing.T) {
	app, registry := newGuardedApp(t)
	ns := uuid.NewString()

	_, err := registry.Observer(context.Background(), ns).Login(context.Background(), "sarah.williams@school.edu", "teacher123")
	require.NoError(t, err)

	resp := get(t, app, "/admin", ns)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/teacher", resp.Header.Get(fiber.HeaderLocation))

	resp = get(t, app, "/teacher", ns)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = get(t, app, "/staff", ns)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
}

func TestGuardFollowsLogout(t *testing.T) {
	app, registry := newGuardedApp(t)
	ns := uuid.NewString()
	ctx := context.Background()

	observer := registry.Observer(ctx, ns)
	_, err := observer.Login(ctx, "alice.johnson@school.edu", "student123")
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, get(t, app, "/student", ns).StatusCode)

	observer.Logout(ctx)
	resp := get(t, app, "/student", ns)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get(fiber.HeaderLocation))
}
