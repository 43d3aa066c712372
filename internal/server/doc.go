// ABOUTME: Package documentation for the server orchestration layer
// ABOUTME: Describes listener setup, route wiring, and shutdown behavior

// Package server assembles the quanta HTTP surface: it opens the SQLite
// store's routes through the admin UI and student API, serves them over a
// plain TCP listener or an embedded Tailscale node (tsnet), runs the
// periodic expired-session cleanup, and handles graceful shutdown when the
// run context is canceled.
package server
