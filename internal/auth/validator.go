package auth

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/identity"
	apperrors "github.com/spec-kit/school-portal/pkg/util/errorutil"
)

// Validator checks submitted credentials against the identity store.
type Validator struct {
	store   identity.Store
	matcher PasswordMatcher
	latency time.Duration
	logger  *zap.Logger
}

// NewValidator builds a validator. latency simulates a remote credential
// check and may be zero.
func NewValidator(store identity.Store, matcher PasswordMatcher, latency time.Duration, logger *zap.Logger) *Validator {
	if matcher == nil {
		matcher = PlainMatcher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{store: store, matcher: matcher, latency: latency, logger: logger}
}

// Validate returns the principal owning email when password matches. Unknown
// emails and wrong passwords both yield domain.ErrInvalidCredentials.
func (v *Validator) Validate(ctx context.Context, email, password string) (domain.Principal, error) {
	if email == "" || password == "" {
		return domain.Principal{}, apperrors.NewValidationError("email and password required", nil)
	}

	if err := v.wait(ctx); err != nil {
		return domain.Principal{}, err
	}

	entry, ok := v.store.Credential(email)
	if !ok || !v.matcher.Match(entry.Secret, password) {
		return domain.Principal{}, domain.ErrInvalidCredentials
	}

	principal, ok := v.store.ByEmail(email)
	if !ok {
		v.logger.Error("credential without profile", zap.String("email", email))
		return domain.Principal{}, domain.ErrProfileNotFound
	}
	return principal, nil
}

func (v *Validator) wait(ctx context.Context) error {
	if v.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(v.latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
