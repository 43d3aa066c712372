// ABOUTME: Admin session state machine reconciling cache, credential store, and sign-in
// ABOUTME: Serializes async completions with request tokens so stale results never publish

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/CodeGallantX/quanta/internal/store"
)

// Session errors
var (
	// ErrInvalidCredentials covers both "no such email" and "wrong password".
	// The two are deliberately merged so callers cannot probe for account
	// existence.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrLookupFailed indicates a transient credential store failure. It is
	// retryable and must not be presented as a wrong password.
	ErrLookupFailed = errors.New("credential lookup failed")

	// ErrAlreadyInitialized is returned by a second Initialize call.
	ErrAlreadyInitialized = errors.New("session manager already initialized")

	// ErrAlreadyAuthenticated is returned when SignIn is called while an
	// administrator is signed in. Callers must sign out first; there is no
	// direct identity-to-identity transition.
	ErrAlreadyAuthenticated = errors.New("already signed in")

	// ErrManagerClosed is returned when an operation completes after Close.
	ErrManagerClosed = errors.New("session manager closed")
)

// SessionStatus is the tri-state admin session status.
type SessionStatus int

const (
	// StateInitializing is the only legal starting state: the startup check
	// is in flight and no privilege decision may be made yet.
	StateInitializing SessionStatus = iota
	// StateUnauthenticated means no identity is established.
	StateUnauthenticated
	// StateAuthenticated means an administrator is signed in.
	StateAuthenticated
)

// String returns a human-readable status name for logs.
func (s SessionStatus) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// SessionState is the published session state. Identity is set only when
// Status is StateAuthenticated.
type SessionState struct {
	Status   SessionStatus
	Identity *AdminIdentity
}

// CredentialStore is the lookup service consumed by the session manager.
// It is treated as untrusted network I/O: slow, fallible, possibly empty.
// store.SQLiteStore satisfies it directly.
type CredentialStore interface {
	GetAdminUserByEmail(ctx context.Context, email string) (*store.AdminUser, error)
}

// IdentityEvent is a notification from an external identity layer that the
// signed-in account changed. Email is empty when that layer signed out.
// Events can revoke or refresh an admin session but never grant one: the
// authenticated state is only reachable through SignIn or cache restore.
type IdentityEvent struct {
	Email string
}

const subscriberBufferSize = 16

// SessionManager owns the authoritative in-memory admin session state and
// reconciles it with the SessionCache and CredentialStore. One manager serves
// one logical session per client process.
type SessionManager struct {
	creds  CredentialStore
	cache  SessionCache
	logger *slog.Logger

	mu          sync.Mutex
	state       SessionState
	initialized bool
	closed      bool
	issuedToken uint64 // last request token handed out
	latestToken uint64 // token of the last applied publish
	subscribers map[string]chan SessionState
}

// NewSessionManager creates a manager in the Initializing state. Pass nil
// logger for the default.
func NewSessionManager(creds CredentialStore, cache SessionCache, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		creds:       creds,
		cache:       cache,
		logger:      logger.With("component", "session"),
		state:       SessionState{Status: StateInitializing},
		subscribers: make(map[string]chan SessionState),
	}
}

// beginOp issues the next request token. Tokens are compared at publish time
// so a slower-resolving stale operation cannot overwrite a newer result.
func (m *SessionManager) beginOp() (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return 0, ErrManagerClosed
	}
	m.issuedToken++
	return m.issuedToken, nil
}

// publish applies a state transition if the token is still current and the
// manager is live. Returns false when the completion was discarded.
func (m *SessionManager) publish(token uint64, state SessionState) bool {
	return m.commit(token, state, nil)
}

// commit applies a state transition together with its cache mutation. The
// cache op runs inside the critical section, after the token check, so a
// completion that lost the race can neither publish nor touch the persisted
// slot: the slot and the published state always move together.
func (m *SessionManager) commit(token uint64, state SessionState, cacheOp func()) bool {
	m.mu.Lock()
	if m.closed || token < m.latestToken {
		m.mu.Unlock()
		return false
	}
	m.latestToken = token
	m.state = state
	if cacheOp != nil {
		cacheOp()
	}

	targets := make([]chan SessionState, 0, len(m.subscribers))
	for _, ch := range m.subscribers {
		targets = append(targets, ch)
	}
	m.mu.Unlock()

	m.logger.Debug("session state published", "status", state.Status.String())

	for _, ch := range targets {
		select {
		case ch <- state:
		default:
			// Buffer full: evict the oldest buffered state and enqueue this
			// one, so a slow subscriber's stream still ends in the latest
			// state instead of a stale one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- state:
			default:
			}
			m.logger.Debug("coalesced state for slow subscriber")
		}
	}
	return true
}

// Initialize runs the startup check exactly once: it reads the session cache
// and publishes Authenticated when a previously verified identity was
// persisted, Unauthenticated otherwise. A second call returns
// ErrAlreadyInitialized rather than racing a duplicate check.
func (m *SessionManager) Initialize(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.initialized {
		m.mu.Unlock()
		return ErrAlreadyInitialized
	}
	m.initialized = true
	m.issuedToken++
	token := m.issuedToken
	m.mu.Unlock()

	identity, err := m.cache.Read()
	if err != nil {
		m.logger.Warn("session cache read failed, starting unauthenticated", "error", err)
		identity = nil
	}
	if ctx.Err() != nil {
		// Don't strand the manager in Initializing: a cancelled startup
		// check resolves to unauthenticated, never to a cached grant.
		m.publish(token, SessionState{Status: StateUnauthenticated})
		return ctx.Err()
	}

	if identity != nil {
		m.publish(token, SessionState{Status: StateAuthenticated, Identity: identity})
		m.logger.Info("restored admin session", "email", identity.Email)
	} else {
		m.publish(token, SessionState{Status: StateUnauthenticated})
	}
	return nil
}

// SignIn verifies the credentials and, on success, persists the identity
// projection to the cache and publishes Authenticated. A missing account and
// a wrong password both return ErrInvalidCredentials; a transient store
// failure returns ErrLookupFailed and leaves the current state untouched.
func (m *SessionManager) SignIn(ctx context.Context, email, password string) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	if m.state.Status == StateAuthenticated {
		m.mu.Unlock()
		return ErrAlreadyAuthenticated
	}
	m.issuedToken++
	token := m.issuedToken
	m.mu.Unlock()

	user, err := m.creds.GetAdminUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			CheckCredentials(nil, password)
			return ErrInvalidCredentials
		}
		m.logger.Warn("credential lookup failed", "error", err)
		return fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}

	if !CheckCredentials(user, password) {
		return ErrInvalidCredentials
	}

	identity := IdentityFromRecord(user)
	committed := m.commit(token, SessionState{Status: StateAuthenticated, Identity: identity}, func() {
		if err := m.cache.Write(identity); err != nil {
			// Sign-in still succeeds; the session just won't survive a restart
			m.logger.Warn("failed to persist session cache", "error", err)
		}
	})
	if !committed && m.isClosed() {
		return ErrManagerClosed
	}

	m.logger.Info("admin sign-in successful", "email", identity.Email)
	return nil
}

// SignOut clears the session cache and publishes Unauthenticated. It is
// idempotent: signing out while unauthenticated is a no-op that still leaves
// the cache empty.
func (m *SessionManager) SignOut() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.issuedToken++
	token := m.issuedToken
	m.mu.Unlock()

	m.commit(token, SessionState{Status: StateUnauthenticated}, func() {
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear session cache", "error", err)
		}
	})
	m.logger.Info("admin signed out")
}

// CurrentState returns the last published state.
func (m *SessionManager) CurrentState() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers for state publications. The current state is delivered
// first, then every subsequent publication in order. Returns the channel and
// a subscription ID for Unsubscribe. The subscription is cleaned up when ctx
// is cancelled.
func (m *SessionManager) Subscribe(ctx context.Context) (<-chan SessionState, string) {
	subID := uuid.New().String()
	ch := make(chan SessionState, subscriberBufferSize)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		close(ch)
		return ch, subID
	}
	ch <- m.state
	m.subscribers[subID] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.Unsubscribe(subID)
	}()

	return ch, subID
}

// Unsubscribe removes a subscription and closes its channel.
func (m *SessionManager) Unsubscribe(subID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ch, ok := m.subscribers[subID]
	if !ok {
		return
	}
	delete(m.subscribers, subID)
	close(ch)
}

// WatchExternal consumes identity-change notifications from an external
// identity layer until the returned stop function is called, the events
// channel is closed, or the manager is closed. Events obey the same token
// rule as every other async path, and can only revoke or refresh — an event
// never grants the authenticated state.
func (m *SessionManager) WatchExternal(events <-chan IdentityEvent) (stop func()) {
	done := make(chan struct{})
	var once sync.Once

	go func() {
		for {
			select {
			case <-done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				m.handleExternalEvent(ev)
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// handleExternalEvent applies one external identity notification.
func (m *SessionManager) handleExternalEvent(ev IdentityEvent) {
	token, err := m.beginOp()
	if err != nil {
		return
	}

	clearCache := func() {
		if err := m.cache.Clear(); err != nil {
			m.logger.Warn("failed to clear session cache", "error", err)
		}
	}

	if ev.Email == "" {
		// Identity layer signed out from under us
		m.commit(token, SessionState{Status: StateUnauthenticated}, clearCache)
		return
	}

	current := m.CurrentState()
	if current.Status != StateAuthenticated || current.Identity.Email != ev.Email {
		// Not our session — an event alone never signs anyone in
		return
	}

	// Re-check that the admin record still exists; demote if it was revoked
	user, err := m.creds.GetAdminUserByEmail(context.Background(), ev.Email)
	if err != nil {
		if errors.Is(err, store.ErrAdminNotFound) {
			m.commit(token, SessionState{Status: StateUnauthenticated}, clearCache)
			m.logger.Info("admin privilege revoked externally", "email", ev.Email)
		} else {
			// Transient failure — keep the current state
			m.logger.Warn("external identity re-check failed", "error", err)
		}
		return
	}

	identity := IdentityFromRecord(user)
	m.commit(token, SessionState{Status: StateAuthenticated, Identity: identity}, func() {
		if err := m.cache.Write(identity); err != nil {
			m.logger.Warn("failed to persist session cache", "error", err)
		}
	})
}

// Close tears the manager down: subscribers are detached and any in-flight
// completion becomes a no-op, so a late-arriving result cannot resurrect a
// stale session.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	m.closed = true

	for subID, ch := range m.subscribers {
		close(ch)
		delete(m.subscribers, subID)
	}
	m.logger.Debug("session manager closed")
}

func (m *SessionManager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
