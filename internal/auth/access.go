package auth

import "github.com/spec-kit/school-portal/internal/domain"

// DecisionKind distinguishes allow from redirect.
type DecisionKind int

const (
	DecisionAllow DecisionKind = iota
	DecisionDenyRedirect
)

// Decision is the controller's verdict for one request.
type Decision struct {
	Kind DecisionKind
	Path string
}

// Allow lets the request through.
func Allow() Decision { return Decision{Kind: DecisionAllow} }

// DenyRedirect refuses the request and sends the caller to path.
func DenyRedirect(path string) Decision {
	return Decision{Kind: DecisionDenyRedirect, Path: path}
}

// Allowed reports whether the decision lets the request through.
func (d Decision) Allowed() bool { return d.Kind == DecisionAllow }

// AccessController turns a principal and an allowed-role set into a
// decision. It holds no state beyond the policy.
type AccessController struct {
	policy *Policy
}

// NewAccessController decides against policy.
func NewAccessController(policy *Policy) *AccessController {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &AccessController{policy: policy}
}

// Policy returns the policy decisions are made against.
func (a *AccessController) Policy() *Policy { return a.policy }

// Authorize allows the principal iff its role is in allowed. A missing
// principal is sent to the landing route, a disallowed one to its own home
// route; the home route is not re-checked against allowed.
func (a *AccessController) Authorize(principal *domain.Principal, allowed domain.RoleSet) Decision {
	if principal == nil {
		return DenyRedirect(a.policy.Landing())
	}
	if allowed.Contains(principal.Role()) {
		return Allow()
	}
	return DenyRedirect(a.policy.HomeRouteFor(principal.Role()))
}

// AuthorizeRoute looks up the route's allowed set first. Unknown routes are
// not protected.
func (a *AccessController) AuthorizeRoute(principal *domain.Principal, route string) Decision {
	allowed, ok := a.policy.AllowedRoles(route)
	if !ok {
		return Allow()
	}
	return a.Authorize(principal, allowed)
}

// HasRole reports whether principal holds exactly role.
func HasRole(principal *domain.Principal, role domain.Role) bool {
	return principal != nil && principal.Role() == role
}

// CanAccess reports whether principal's role is among allowed.
func CanAccess(principal *domain.Principal, allowed ...domain.Role) bool {
	if principal == nil {
		return false
	}
	return domain.NewRoleSet(allowed...).Contains(principal.Role())
}
