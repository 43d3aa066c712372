// Package auth provides authentication for quanta administrators and students.
//
// # Admin session core
//
// The heart of the package is SessionManager, a small state machine owning
// the tri-state admin session:
//
//   - StateInitializing: the startup check is still in flight; no privilege
//     decision may be made yet
//   - StateUnauthenticated: no identity established
//   - StateAuthenticated: an administrator is signed in
//
// The manager reconciles three inputs: a persisted SessionCache (last-known
// identity, restored at startup), a CredentialStore (authoritative email ->
// credential record lookup), and password verification via bcrypt. The
// authenticated state is only ever reached after a bcrypt match, or by
// restoring an identity that was verified in a previous run.
//
// Asynchronous completions (the startup cache read, sign-in lookups, external
// identity events) are serialized with a monotonically increasing request
// token: each operation captures a token when it starts, and a completion is
// only applied if no later-initiated operation has already published. Closing
// the manager flips a liveness flag so in-flight completions become no-ops.
//
// Consumers observe state via CurrentState or Subscribe, and map it to a
// renderable outcome with Evaluate (loading, redirect to sign-in, or content).
//
// # Errors
//
// SignIn reports exactly two failures: ErrInvalidCredentials (no such email
// OR wrong password, deliberately merged so callers cannot probe for account
// existence) and ErrLookupFailed (transient backend failure, retryable).
//
// # Student tokens
//
// The package also provides HS256 JWT issue/verify for the student API
// (JWTVerifier), and context helpers for propagating the authenticated
// student through request handlers.
package auth
