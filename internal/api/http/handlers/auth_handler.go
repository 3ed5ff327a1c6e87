package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/api/dto"
	"github.com/spec-kit/school-portal/internal/auth"
	"github.com/spec-kit/school-portal/internal/identity"
	"github.com/spec-kit/school-portal/internal/session"
	apperrors "github.com/spec-kit/school-portal/pkg/util/errorutil"
)

// AuthHandler exposes the sign-in flow of a client context.
type AuthHandler struct {
	policy *auth.Policy
	demo   []identity.DemoCredential
	logger *zap.Logger
}

// NewAuthHandler constructs handler. The demo-credentials endpoint answers
// 404 when demo is empty.
func NewAuthHandler(policy *auth.Policy, demo []identity.DemoCredential, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{policy: policy, demo: demo, logger: logger}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	observer, err := observerFrom(c)
	if err != nil {
		return err
	}
	principal, err := observer.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{
			User:     principal,
			Redirect: h.policy.HomeRouteFor(principal.Role()),
		},
	})
}

// Logout handles POST /auth/logout. Signing out twice is harmless.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	observer, err := observerFrom(c)
	if err != nil {
		return err
	}
	observer.Logout(c.UserContext())
	h.logger.Debug("signed out", zap.String("namespace", observer.Namespace()))

	return c.JSON(fiber.Map{
		"data": dto.LogoutResponse{Redirect: h.policy.Landing()},
	})
}

// Session handles GET /auth/session.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	observer, err := observerFrom(c)
	if err != nil {
		return err
	}
	view := observer.View()

	resp := dto.SessionResponse{
		User:            view.Principal,
		IsAuthenticated: view.Authenticated,
		Loading:         view.Loading,
	}
	if view.Authenticated {
		resp.Redirect = h.policy.HomeRouteFor(view.Principal.Role())
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Landing handles GET on the landing route, the sign-in page. Signed-in
// callers are sent on to their home route.
func (h *AuthHandler) Landing(c *fiber.Ctx) error {
	observer, err := observerFrom(c)
	if err != nil {
		return err
	}
	if view := observer.View(); view.Authenticated {
		return c.Redirect(h.policy.HomeRouteFor(view.Principal.Role()), fiber.StatusSeeOther)
	}

	resp := dto.LandingResponse{Login: "/auth/login"}
	if len(h.demo) > 0 {
		resp.DemoCredentials = "/auth/demo-credentials"
	}
	return c.JSON(fiber.Map{"data": resp})
}

// DemoCredentials handles GET /auth/demo-credentials.
func (h *AuthHandler) DemoCredentials(c *fiber.Ctx) error {
	if len(h.demo) == 0 {
		return apperrors.NewNotFound("demo credentials", nil)
	}

	out := make([]dto.DemoCredential, 0, len(h.demo))
	for _, cred := range h.demo {
		out = append(out, dto.DemoCredential{Role: cred.Role, Email: cred.Email, Password: cred.Password})
	}
	return c.JSON(fiber.Map{"data": out})
}

func observerFrom(c *fiber.Ctx) (*session.Observer, error) {
	observer, ok := auth.ObserverFromContext(c)
	if !ok {
		return nil, apperrors.NewInternalError(nil)
	}
	return observer, nil
}
