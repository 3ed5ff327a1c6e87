package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/school-portal/internal/domain"
)

func principalWithRole(t *testing.T, role domain.Role) *domain.Principal {
	t.Helper()
	profile := domain.Profile{ID: string(role) + "1", Name: "Test", Email: string(role) + "@school.edu"}
	var p domain.Principal
	switch role {
	case domain.RoleStudent:
		p = domain.NewStudent(profile, domain.StudentProfile{})
	case domain.RoleTeacher:
		p = domain.NewTeacher(profile, domain.TeacherProfile{})
	case domain.RoleParent:
		p = domain.NewParent(profile, domain.ParentProfile{})
	case domain.RoleAdmin:
		p = domain.NewAdmin(profile, domain.AdminProfile{})
	default:
		t.Fatalf("unexpected role %s", role)
	}
	return &p
}

func TestAuthorize(t *testing.T) {
	ac := NewAccessController(nil)

	teacher := principalWithRole(t, domain.RoleTeacher)
	assert.Equal(t, DenyRedirect("/teacher"), ac.Authorize(teacher, domain.NewRoleSet(domain.RoleAdmin)))
	assert.Equal(t, Allow(), ac.Authorize(teacher, domain.NewRoleSet(domain.RoleTeacher, domain.RoleAdmin)))
	assert.Equal(t, DenyRedirect("/"), ac.Authorize(nil, domain.NewRoleSet(domain.RoleStudent)))
	assert.Equal(t, DenyRedirect("/"), ac.Authorize(nil, domain.NewRoleSet()))
}

func TestAuthorizeRouteFollowsPolicy(t *testing.T) {
	ac := NewAccessController(DefaultPolicy())

	for _, role := range domain.Roles() {
		p := principalWithRole(t, role)
		home := ac.Policy().HomeRouteFor(role)
		for _, route := range ac.Policy().Routes() {
			d := ac.AuthorizeRoute(p, route)
			if route == home {
				assert.True(t, d.Allowed(), "%s on %s", role, route)
			} else {
				assert.Equal(t, DenyRedirect(home), d, "%s on %s", role, route)
			}
		}
	}

	assert.True(t, ac.AuthorizeRoute(nil, "/about").Allowed())
}

func TestPolicyValidation(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, []string{"/admin", "/parent", "/student", "/teacher"}, p.Routes())
	assert.Equal(t, "/", p.HomeRouteFor(domain.Role("janitor")))

	_, err := NewPolicy("/", map[domain.Role]string{domain.RoleAdmin: "/admin"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role teacher has no home route")

	_, err = NewPolicy("", map[domain.Role]string{
		domain.RoleAdmin:   "/admin",
		domain.RoleTeacher: "/teacher",
		domain.RoleStudent: "/student",
		domain.RoleParent:  "/parent",
	}, map[string]domain.RoleSet{"/reports": domain.NewRoleSet()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "landing route is required")
	assert.Contains(t, err.Error(), "route /reports allows no roles")
}

func TestRoleHelpers(t *testing.T) {
	parent := principalWithRole(t, domain.RoleParent)
	assert.True(t, HasRole(parent, domain.RoleParent))
	assert.False(t, HasRole(parent, domain.RoleAdmin))
	assert.False(t, HasRole(nil, domain.RoleParent))
	assert.True(t, CanAccess(parent, domain.RoleStudent, domain.RoleParent))
	assert.False(t, CanAccess(parent))
	assert.False(t, CanAccess(nil, domain.RoleParent))
}
