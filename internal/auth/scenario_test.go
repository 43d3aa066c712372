// ABOUTME: Race scenarios for the session manager request-token ordering
// ABOUTME: A stale startup check or an in-flight sign-in must never clobber newer state

package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/CodeGallantX/quanta/internal/store"
)

// A slow startup check that resolves after a sign-in already completed must
// be discarded, not applied: its token is older than the sign-in's.
func TestStaleInitializeDoesNotClobberSignIn(t *testing.T) {
	creds := newFakeCredentialStore()
	user := testAdminUser(t)
	creds.users[user.Email] = user

	cache := &memSessionCache{
		identity: &AdminIdentity{ID: "old-admin", Email: "old@school.edu"},
		readGate: make(chan struct{}),
	}
	m := NewSessionManager(creds, cache, nil)
	defer m.Close()

	initDone := make(chan error, 1)
	go func() {
		initDone <- m.Initialize(context.Background())
	}()

	// Give Initialize time to park inside the cache read
	time.Sleep(20 * time.Millisecond)

	// Sign in while the startup check is still in flight
	if err := m.SignIn(context.Background(), user.Email, "secret123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if state := m.CurrentState(); state.Identity.ID != user.ID {
		t.Fatalf("sign-in should be visible immediately, got %+v", state)
	}

	// Release the stale startup check; its completion carries an older token
	close(cache.readGate)
	if err := <-initDone; err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	state := m.CurrentState()
	if state.Status != StateAuthenticated {
		t.Fatalf("status = %s, want authenticated", state.Status)
	}
	if state.Identity.ID != user.ID {
		t.Errorf("stale startup result overwrote the sign-in: identity = %q", state.Identity.ID)
	}
}

// A sign-in still in flight when the manager closes must surface
// ErrManagerClosed instead of publishing into a dead manager.
func TestCloseDiscardsInFlightSignIn(t *testing.T) {
	creds := newFakeCredentialStore()
	user := testAdminUser(t)
	creds.users[user.Email] = user
	creds.block = make(chan struct{})

	cache := &memSessionCache{}
	m := NewSessionManager(creds, cache, nil)

	// Initialize only reads the cache, so the lookup gate does not block it
	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	signInDone := make(chan error, 1)
	go func() {
		signInDone <- m.SignIn(context.Background(), user.Email, "secret123")
	}()

	time.Sleep(20 * time.Millisecond)
	m.Close()
	close(creds.block)

	err := <-signInDone
	if !errors.Is(err, ErrManagerClosed) {
		t.Fatalf("expected ErrManagerClosed, got %v", err)
	}
	if state := m.CurrentState(); state.Status == StateAuthenticated {
		t.Error("a completion after Close must not publish")
	}
	if got := cache.stored(); got != nil {
		t.Errorf("a completion after Close must not write the cache, slot holds %q", got.Email)
	}
}

// A sign-out racing a slower sign-in: whichever operation started later wins,
// regardless of completion order.
func TestLaterSignOutWinsOverSlowerSignIn(t *testing.T) {
	creds := newFakeCredentialStore()
	user := testAdminUser(t)
	creds.users[user.Email] = user
	creds.block = make(chan struct{})

	cache := &memSessionCache{}
	m := NewSessionManager(creds, cache, nil)
	defer m.Close()

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	signInDone := make(chan error, 1)
	go func() {
		signInDone <- m.SignIn(context.Background(), user.Email, "secret123")
	}()

	time.Sleep(20 * time.Millisecond)

	// SignOut starts after the sign-in, so it holds the newer token
	m.SignOut()
	close(creds.block)

	if err := <-signInDone; err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if state := m.CurrentState(); state.Status != StateUnauthenticated {
		t.Errorf("the later sign-out must win, got %s", state.Status)
	}
}

// A sign-in that loses the race to a newer sign-out must not leave its
// identity in the cache either: a populated slot under an unauthenticated
// state would restore the signed-out session on the next startup.
func TestStaleSignInDoesNotRepopulateCache(t *testing.T) {
	creds := newFakeCredentialStore()
	user := testAdminUser(t)
	creds.users[user.Email] = user
	creds.block = make(chan struct{})

	cache := &memSessionCache{}
	m := NewSessionManager(creds, cache, nil)
	defer m.Close()

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}

	signInDone := make(chan error, 1)
	go func() {
		signInDone <- m.SignIn(context.Background(), user.Email, "secret123")
	}()

	time.Sleep(20 * time.Millisecond)
	m.SignOut()
	close(creds.block)

	if err := <-signInDone; err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	if got := cache.stored(); got != nil {
		t.Errorf("cache holds %q after the sign-out won the race; slot must stay empty", got.Email)
	}
	if state := m.CurrentState(); state.Status != StateUnauthenticated {
		t.Errorf("status = %s, want unauthenticated", state.Status)
	}
}

// Subscribers observe transitions in publish order with no stale interleaving.
func TestSubscriberSeesOrderedTransitions(t *testing.T) {
	creds := newFakeCredentialStore()
	user := testAdminUser(t)
	creds.users[user.Email] = user

	cache := &memSessionCache{}
	m := NewSessionManager(creds, cache, nil)
	defer m.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := m.Subscribe(ctx)

	if err := m.Initialize(context.Background()); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	if err := m.SignIn(context.Background(), user.Email, "secret123"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	m.SignOut()

	want := []SessionStatus{
		StateInitializing,
		StateUnauthenticated,
		StateAuthenticated,
		StateUnauthenticated,
	}
	for i, status := range want {
		select {
		case state := <-ch:
			if state.Status != status {
				t.Fatalf("transition %d = %s, want %s", i, state.Status, status)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for transition %d (%s)", i, status)
		}
	}
}

// The credential store interface is satisfied by the real SQLite store; this
// pins the contract so the fake cannot drift.
var _ CredentialStore = (*store.SQLiteStore)(nil)
