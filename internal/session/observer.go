package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/spec-kit/school-portal/internal/domain"
	"github.com/spec-kit/school-portal/internal/observability"
)

// CredentialValidator resolves an email/password pair to a principal.
type CredentialValidator interface {
	Validate(ctx context.Context, email, password string) (domain.Principal, error)
}

// State is the observer's view of its client context.
type State int

const (
	StateUnknown State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// View is a consistent copy of the observer's state.
type View struct {
	State         State
	Principal     *domain.Principal
	Loading       bool
	Authenticated bool
}

// Observer holds one client context's view of its namespace's session and
// follows changes made by other contexts.
//
// Only one Login runs at a time; a second one fails with
// domain.ErrFlowInProgress. Logout may run at any time. Every Logout starts a
// new generation, and a Login that finishes validating after a newer
// generation began neither persists nor authenticates.
type Observer struct {
	store     *Store
	validator CredentialValidator
	logger    *zap.Logger
	metrics   *observability.Metrics

	startOnce sync.Once
	// writeMu orders session writes against the generation check.
	writeMu sync.Mutex
	// syncMu keeps store re-reads from applying out of order.
	syncMu sync.Mutex

	mu          sync.Mutex
	state       State
	principal   *domain.Principal
	token       bool
	loading     bool
	inFlight    bool
	generation  uint64
	unsubscribe func()
	closed      bool
}

// NewObserver returns an observer in StateUnknown. Call Start before use.
func NewObserver(store *Store, validator CredentialValidator, logger *zap.Logger, metrics *observability.Metrics) *Observer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observer{
		store:     store,
		validator: validator,
		logger:    logger.With(zap.String("namespace", store.Namespace())),
		metrics:   metrics,
		state:     StateUnknown,
	}
}

func (o *Observer) Namespace() string { return o.store.Namespace() }

// Start subscribes to store changes and performs the initial read. Later
// calls block until the first one has finished, then do nothing.
func (o *Observer) Start(ctx context.Context) {
	o.startOnce.Do(func() {
		o.mu.Lock()
		if o.closed {
			o.mu.Unlock()
			return
		}
		o.loading = true
		o.mu.Unlock()

		unsubscribe := o.store.Subscribe(func(ctx context.Context, _ string) {
			o.Sync(ctx)
		})

		o.mu.Lock()
		o.unsubscribe = unsubscribe
		o.mu.Unlock()

		o.Sync(ctx)

		o.mu.Lock()
		o.loading = o.inFlight
		o.mu.Unlock()
	})
}

// Close stops reacting to store changes.
func (o *Observer) Close() {
	o.mu.Lock()
	o.closed = true
	unsubscribe := o.unsubscribe
	o.unsubscribe = nil
	o.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
}

// Sync re-reads the store and adopts what it finds. Unreadable or
// unreachable storage counts as signed out.
func (o *Observer) Sync(ctx context.Context) {
	o.syncMu.Lock()
	defer o.syncMu.Unlock()

	snap, err := o.store.Load(ctx)
	if err != nil {
		o.logger.Warn("session unreadable, treating as signed out", zap.Error(err))
		o.metrics.RecordSync(observability.SyncDegraded)
		snap = Snapshot{}
	}

	o.mu.Lock()
	o.apply(snap)
	state := o.state
	o.mu.Unlock()

	if err == nil {
		o.metrics.RecordSync(state.String())
	}
}

func (o *Observer) apply(snap Snapshot) {
	if snap.Authenticated() {
		p := *snap.Principal
		o.principal = &p
		o.token = true
		o.state = StateAuthenticated
		return
	}
	o.principal = nil
	o.token = snap.Token != ""
	o.state = StateUnauthenticated
}

// Login validates the credentials and, on success, persists the session.
func (o *Observer) Login(ctx context.Context, email, password string) (domain.Principal, error) {
	o.mu.Lock()
	if o.inFlight {
		o.mu.Unlock()
		o.metrics.RecordLogin(observability.OutcomeRejected)
		return domain.Principal{}, domain.ErrFlowInProgress
	}
	o.inFlight = true
	o.loading = true
	generation := o.generation
	o.mu.Unlock()
	defer o.finishFlow()

	principal, err := o.validator.Validate(ctx, email, password)
	if err != nil {
		o.metrics.RecordLogin(loginOutcome(err))
		if errors.Is(err, domain.ErrProfileNotFound) {
			o.logger.Error("credential table references a missing profile", zap.String("email", email))
		}
		return domain.Principal{}, err
	}

	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	o.mu.Lock()
	superseded := o.generation != generation
	o.mu.Unlock()
	if superseded {
		o.metrics.RecordLogin(observability.OutcomeSuperseded)
		return domain.Principal{}, domain.ErrLoginSuperseded
	}

	if err := o.store.Persist(ctx, principal); err != nil {
		o.logger.Warn("could not persist session", zap.Error(err))
		o.metrics.RecordLogin(observability.OutcomeStorageUnavailable)
		return domain.Principal{}, err
	}

	o.mu.Lock()
	o.generation++
	o.apply(Snapshot{Principal: &principal, Token: TokenFor(principal)})
	o.mu.Unlock()

	o.logger.Info("signed in", zap.String("principal", principal.ID), zap.String("role", string(principal.Role())))
	o.metrics.RecordLogin(observability.OutcomeSuccess)
	return principal, nil
}

// Logout clears the session. Storage failures are logged; the context ends
// up signed out either way.
func (o *Observer) Logout(ctx context.Context) {
	o.writeMu.Lock()
	defer o.writeMu.Unlock()

	o.mu.Lock()
	o.generation++
	o.loading = true
	o.mu.Unlock()

	if err := o.store.Clear(ctx); err != nil {
		o.logger.Warn("could not clear session", zap.Error(err))
	}

	o.mu.Lock()
	o.apply(Snapshot{})
	o.loading = o.inFlight
	o.mu.Unlock()

	o.metrics.RecordLogout()
}

func (o *Observer) finishFlow() {
	o.mu.Lock()
	o.inFlight = false
	o.loading = false
	o.mu.Unlock()
}

// Principal returns a copy of the current principal, or nil.
func (o *Observer) Principal() *domain.Principal {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.principal == nil {
		return nil
	}
	p := *o.principal
	return &p
}

// Loading is true while the initial read or a sign-in is in flight.
func (o *Observer) Loading() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loading
}

func (o *Observer) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsAuthenticated requires both a principal and a session token.
func (o *Observer) IsAuthenticated() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.principal != nil && o.token
}

// View returns the whole state under one lock.
func (o *Observer) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()
	v := View{
		State:         o.state,
		Loading:       o.loading,
		Authenticated: o.principal != nil && o.token,
	}
	if o.principal != nil {
		p := *o.principal
		v.Principal = &p
	}
	return v
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return observability.OutcomeInvalidCredentials
	case errors.Is(err, domain.ErrProfileNotFound):
		return observability.OutcomeProfileNotFound
	default:
		return observability.OutcomeError
	}
}
