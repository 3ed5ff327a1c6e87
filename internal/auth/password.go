package auth

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/school-portal/internal/config"
	"github.com/spec-kit/school-portal/internal/domain"
)

// PasswordMatcher compares a submitted password with a stored secret.
type PasswordMatcher interface {
	Match(secret, password string) bool
}

// PlainMatcher compares secrets verbatim. Mock-grade only.
type PlainMatcher struct{}

func (PlainMatcher) Match(secret, password string) bool {
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// BcryptMatcher expects secrets to be bcrypt hashes.
type BcryptMatcher struct{}

func (BcryptMatcher) Match(secret, password string) bool {
	return ComparePassword(secret, password) == nil
}

// MatcherFor returns the matcher for a configured scheme.
func MatcherFor(scheme string) (PasswordMatcher, error) {
	switch scheme {
	case config.PasswordSchemePlain:
		return PlainMatcher{}, nil
	case config.PasswordSchemeBcrypt:
		return BcryptMatcher{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", scheme)
	}
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}

// HashCredentials returns a copy of entries with every plaintext secret
// replaced by its bcrypt hash. Secrets that already are bcrypt hashes are
// kept as they are.
func HashCredentials(entries []domain.CredentialEntry, cost int) ([]domain.CredentialEntry, error) {
	out := make([]domain.CredentialEntry, len(entries))
	for i, entry := range entries {
		out[i] = entry
		if _, err := bcrypt.Cost([]byte(entry.Secret)); err == nil {
			continue
		}
		hashed, err := HashPassword(entry.Secret, cost)
		if err != nil {
			return nil, fmt.Errorf("hash secret for %s: %w", entry.Email, err)
		}
		out[i].Secret = hashed
	}
	return out, nil
}
