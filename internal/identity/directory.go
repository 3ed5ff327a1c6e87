package identity

import (
	"errors"
	"fmt"

	"github.com/spec-kit/school-portal/internal/domain"
)

// ErrInconsistent is returned by Validate when the credential table and the
// principal set disagree.
var ErrInconsistent = errors.New("identity directory inconsistent")

// Store is the read-only view of known principals and their credentials.
type Store interface {
	ByEmail(email string) (domain.Principal, bool)
	ByID(id string) (domain.Principal, bool)
	Credential(email string) (domain.CredentialEntry, bool)
}

// Directory is an immutable in-memory identity store. Lookups are exact and
// case-sensitive.
type Directory struct {
	principals  []domain.Principal
	byEmail     map[string]int
	byID        map[string]int
	credentials []domain.CredentialEntry
	credIndex   map[string]int
}

// NewDirectory indexes principals and credentials. Structural problems
// (invalid principals, duplicate ids or emails) are rejected here; the
// cross-table invariants are checked by Validate.
func NewDirectory(principals []domain.Principal, credentials []domain.CredentialEntry) (*Directory, error) {
	d := &Directory{
		principals:  make([]domain.Principal, 0, len(principals)),
		byEmail:     make(map[string]int, len(principals)),
		byID:        make(map[string]int, len(principals)),
		credentials: make([]domain.CredentialEntry, 0, len(credentials)),
		credIndex:   make(map[string]int, len(credentials)),
	}

	for _, p := range principals {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := d.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate principal id %q", p.ID)
		}
		if _, dup := d.byEmail[p.Email]; dup {
			return nil, fmt.Errorf("duplicate principal email %q", p.Email)
		}
		d.byID[p.ID] = len(d.principals)
		d.byEmail[p.Email] = len(d.principals)
		d.principals = append(d.principals, p)
	}

	for _, c := range credentials {
		if c.Email == "" {
			return nil, errors.New("credential email is required")
		}
		if _, dup := d.credIndex[c.Email]; dup {
			return nil, fmt.Errorf("duplicate credential for %q", c.Email)
		}
		d.credIndex[c.Email] = len(d.credentials)
		d.credentials = append(d.credentials, c)
	}
	return d, nil
}

// Validate checks that every credential resolves to exactly one principal
// with the same role.
func (d *Directory) Validate() error {
	var errs []error
	for _, c := range d.credentials {
		if !c.Role.Valid() {
			errs = append(errs, fmt.Errorf("credential %s: %w: %q", c.Email, domain.ErrUnknownRole, c.Role))
			continue
		}
		p, ok := d.ByEmail(c.Email)
		if !ok {
			errs = append(errs, fmt.Errorf("credential %s: no principal", c.Email))
			continue
		}
		if p.Role() != c.Role {
			errs = append(errs, fmt.Errorf("credential %s: role %s does not match principal role %s", c.Email, c.Role, p.Role()))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInconsistent, errors.Join(errs...))
	}
	return nil
}

// ByEmail looks a principal up by sign-in email, ignoring case.
func (d *Directory) ByEmail(email string) (domain.Principal, bool) {
	idx, ok := d.byEmail[email]
	if !ok {
		return domain.Principal{}, false
	}
	return d.principals[idx], true
}

// ByID looks a principal up by its stable id.
func (d *Directory) ByID(id string) (domain.Principal, bool) {
	idx, ok := d.byID[id]
	if !ok {
		return domain.Principal{}, false
	}
	return d.principals[idx], true
}

// Credential returns the credential entry registered for email.
func (d *Directory) Credential(email string) (domain.CredentialEntry, bool) {
	idx, ok := d.credIndex[email]
	if !ok {
		return domain.CredentialEntry{}, false
	}
	return d.credentials[idx], true
}

// All returns every principal in load order.
func (d *Directory) All() []domain.Principal {
	return append([]domain.Principal(nil), d.principals...)
}

// Credentials returns the credential table in load order.
func (d *Directory) Credentials() []domain.CredentialEntry {
	return append([]domain.CredentialEntry(nil), d.credentials...)
}

// ByRole returns the principals holding role.
func (d *Directory) ByRole(role domain.Role) []domain.Principal {
	var out []domain.Principal
	for _, p := range d.principals {
		if p.Role() == role {
			out = append(out, p)
		}
	}
	return out
}

// StudentsByGrade returns the students enrolled in grade.
func (d *Directory) StudentsByGrade(grade string) []domain.Principal {
	var out []domain.Principal
	for _, p := range d.principals {
		if s, ok := p.Student(); ok && s.Grade == grade {
			out = append(out, p)
		}
	}
	return out
}

// ChildrenOf returns the student principals listed under a parent. Unknown
// parents and dangling child ids yield nothing.
func (d *Directory) ChildrenOf(parentID string) []domain.Principal {
	p, ok := d.ByID(parentID)
	if !ok {
		return nil
	}
	parent, ok := p.Parent()
	if !ok {
		return nil
	}
	var out []domain.Principal
	for _, childID := range parent.Children {
		child, ok := d.ByID(childID)
		if !ok || child.Role() != domain.RoleStudent {
			continue
		}
		out = append(out, child)
	}
	return out
}

// DemoCredential is the sign-in hint shown for a role.
type DemoCredential struct {
	Role     domain.Role `json:"role"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
}

// DemoCredentials returns the first credential of each role in Roles() order.
func (d *Directory) DemoCredentials() []DemoCredential {
	first := make(map[domain.Role]domain.CredentialEntry)
	for _, c := range d.credentials {
		if _, seen := first[c.Role]; !seen {
			first[c.Role] = c
		}
	}
	out := make([]DemoCredential, 0, len(first))
	for _, role := range domain.Roles() {
		if c, ok := first[role]; ok {
			out = append(out, DemoCredential{Role: role, Email: c.Email, Password: c.Secret})
		}
	}
	return out
}
