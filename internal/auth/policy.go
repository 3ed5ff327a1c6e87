package auth

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spec-kit/school-portal/internal/domain"
)

// LandingRoute is where unauthenticated callers are sent.
const LandingRoute = "/"

// Policy is the static access table: one home route per role and the set of
// roles allowed on each protected route.
type Policy struct {
	landing string
	homes   map[domain.Role]string
	routes  map[string]domain.RoleSet
}

// NewPolicy validates and copies the given tables.
func NewPolicy(landing string, homes map[domain.Role]string, routes map[string]domain.RoleSet) (*Policy, error) {
	p := &Policy{
		landing: landing,
		homes:   make(map[domain.Role]string, len(homes)),
		routes:  make(map[string]domain.RoleSet, len(routes)),
	}
	for role, home := range homes {
		p.homes[role] = home
	}
	for route, allowed := range routes {
		p.routes[route] = domain.NewRoleSet(allowed.Slice()...)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// DefaultPolicy maps each role to its own dashboard and nothing else.
func DefaultPolicy() *Policy {
	p, err := NewPolicy(LandingRoute,
		map[domain.Role]string{
			domain.RoleAdmin:   "/admin",
			domain.RoleTeacher: "/teacher",
			domain.RoleStudent: "/student",
			domain.RoleParent:  "/parent",
		},
		map[string]domain.RoleSet{
			"/admin":   domain.NewRoleSet(domain.RoleAdmin),
			"/teacher": domain.NewRoleSet(domain.RoleTeacher),
			"/student": domain.NewRoleSet(domain.RoleStudent),
			"/parent":  domain.NewRoleSet(domain.RoleParent),
		},
	)
	if err != nil {
		panic(err)
	}
	return p
}

// Validate enforces one home route per role and a non-empty allowed set per
// protected route.
func (p *Policy) Validate() error {
	var errs []error
	if p.landing == "" {
		errs = append(errs, errors.New("landing route is required"))
	}
	for _, role := range domain.Roles() {
		if p.homes[role] == "" {
			errs = append(errs, fmt.Errorf("role %s has no home route", role))
		}
	}
	for role := range p.homes {
		if !role.Valid() {
			errs = append(errs, fmt.Errorf("home route for %w: %q", domain.ErrUnknownRole, role))
		}
	}
	for route, allowed := range p.routes {
		if len(allowed) == 0 {
			errs = append(errs, fmt.Errorf("route %s allows no roles", route))
		}
	}
	return errors.Join(errs...)
}

// Landing returns the unauthenticated landing route.
func (p *Policy) Landing() string { return p.landing }

// HomeRouteFor returns the role's dashboard, or the landing route for an
// unknown role.
func (p *Policy) HomeRouteFor(role domain.Role) string {
	if home, ok := p.homes[role]; ok {
		return home
	}
	return p.landing
}

// AllowedRoles returns the roles permitted on a protected route.
func (p *Policy) AllowedRoles(route string) (domain.RoleSet, bool) {
	allowed, ok := p.routes[route]
	return allowed, ok
}

// Routes lists the protected routes in lexical order.
func (p *Policy) Routes() []string {
	out := make([]string, 0, len(p.routes))
	for route := range p.routes {
		out = append(out, route)
	}
	sort.Strings(out)
	return out
}
