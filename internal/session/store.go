package session

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/events"
)

// Storage keys of a persisted session.
const (
	KeyUser  = "auth_user"
	KeyToken = "auth_token"
)

// TokenFor derives the opaque session token for a principal.
func TokenFor(p domain.Principal) string {
	return "mock_token_" + p.ID
}

// Snapshot is what one read of the store found.
type Snapshot struct {
	Principal *domain.Principal
	Token     string
}

// Authenticated reports whether both the profile and the token were present.
func (s Snapshot) Authenticated() bool {
	return s.Principal != nil && s.Token != ""
}

// Store is the session record of one client namespace.
type Store struct {
	storage   Storage
	namespace string
	logger    *zap.Logger
}

// NewStore scopes storage to one client namespace.
func NewStore(storage Storage, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		storage:   storage,
		namespace: namespace,
		logger:    logger.With(zap.String("namespace", namespace)),
	}
}

func (s *Store) Namespace() string { return s.namespace }

// Persist writes the profile, then the token.
func (s *Store) Persist(ctx context.Context, p domain.Principal) error {
	profile, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, s.namespace, KeyUser, string(profile)); err != nil {
		return domain.ErrStorageUnavailable.Wrap(err)
	}
	if err := s.storage.Set(ctx, s.namespace, KeyToken, TokenFor(p)); err != nil {
		return domain.ErrStorageUnavailable.Wrap(err)
	}
	return nil
}

// Clear removes both session keys.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.storage.Delete(ctx, s.namespace, KeyUser, KeyToken); err != nil {
		return domain.ErrStorageUnavailable.Wrap(err)
	}
	return nil
}

// Load reads the session. A missing key is not an error: the snapshot simply
// carries no principal. Failures are domain.ErrStorageUnavailable or
// domain.ErrSessionCorrupt.
func (s *Store) Load(ctx context.Context) (Snapshot, error) {
	profile, hasProfile, err := s.storage.Get(ctx, s.namespace, KeyUser)
	if err != nil {
		return Snapshot{}, domain.ErrStorageUnavailable.Wrap(err)
	}
	token, hasToken, err := s.storage.Get(ctx, s.namespace, KeyToken)
	if err != nil {
		return Snapshot{}, domain.ErrStorageUnavailable.Wrap(err)
	}
	if !hasProfile || !hasToken {
		return Snapshot{Token: token}, nil
	}

	var p domain.Principal
	if err := json.Unmarshal([]byte(profile), &p); err != nil {
		return Snapshot{Token: token}, domain.ErrSessionCorrupt.Wrap(err)
	}
	if err := p.Validate(); err != nil {
		return Snapshot{Token: token}, domain.ErrSessionCorrupt.Wrap(err)
	}
	return Snapshot{Principal: &p, Token: token}, nil
}

// Read returns the stored principal, or nil when there is none or it cannot
// be read. Failures are logged, never returned.
func (s *Store) Read(ctx context.Context) *domain.Principal {
	snap, err := s.Load(ctx)
	if err != nil {
		s.logger.Warn("treating session as signed out", zap.Error(err))
		return nil
	}
	return snap.Principal
}

// Subscribe registers fn for changes to the session keys of this namespace.
func (s *Store) Subscribe(fn func(ctx context.Context, key string)) (unsubscribe func()) {
	return s.storage.Watch(s.namespace, func(ctx context.Context, e events.Event) error {
		if e.Key == KeyUser || e.Key == KeyToken {
			fn(ctx, e.Key)
		}
		return nil
	})
}
