// ABOUTME: Package documentation for the admin web UI
// ABOUTME: Describes routes, authentication, and CSRF handling

// Package webadmin implements the browser-facing admin interface for the
// quanta content platform.
//
// Administrators sign in with email and password. Successful logins get a
// server-side session stored in SQLite and referenced by an HttpOnly cookie.
// A failed login always reports "Invalid email or password" regardless of
// whether the account exists, and the password check runs against a dummy
// hash when it doesn't, so response timing stays uniform.
//
// All state-changing routes require a CSRF token issued in a cookie and
// echoed back in the form. Content management covers subjects, lessons
// (markdown with a sanitized HTML preview), practice questions, and
// read-only student and analytics views.
//
// Signup is only exposed when open_signup is enabled in the config. This is
// meant for bootstrapping a fresh install and should be disabled once the
// first administrator account exists.
package webadmin
