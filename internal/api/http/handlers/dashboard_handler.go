package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/school-portal/internal/api/dto"
	"github.com/spec-kit/school-portal/internal/auth"
	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/identity"
	apperrors "github.com/spec-kit/school-portal/pkg/util/errorutil"
)

// DashboardHandler serves the role dashboards behind the access guard.
type DashboardHandler struct {
	directory *identity.Directory
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(directory *identity.Directory) *DashboardHandler {
	return &DashboardHandler{directory: directory}
}

// Show handles GET on every dashboard route. Parents also get their children.
func (h *DashboardHandler) Show(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("sign-in required")
	}

	resp := dto.DashboardResponse{User: *principal}
	if principal.Role() == domain.RoleParent {
		resp.Children = h.directory.ChildrenOf(principal.ID)
	}
	return c.JSON(fiber.Map{"data": resp})
}
