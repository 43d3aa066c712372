// ABOUTME: Admin web UI package for quanta content management
// ABOUTME: Provides authentication, session management, and admin routes

package webadmin

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/CodeGallantX/quanta/internal/auth"
	"github.com/CodeGallantX/quanta/internal/store"
)

const (
	// SessionCookieName is the name of the session cookie
	SessionCookieName = "quanta_admin_session"

	// CSRFCookieName is the name of the CSRF token cookie
	CSRFCookieName = "quanta_admin_csrf"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const userContextKey contextKey = "admin_user"
const csrfContextKey contextKey = "csrf_token"

// Config holds admin UI configuration
type Config struct {
	// BaseURL is the external URL of the admin UI
	BaseURL string

	// OpenSignup allows creating admin accounts without an invite.
	// Bootstrap behavior; turn it off once administrators exist.
	OpenSignup bool

	// SessionDuration is how long browser sessions last
	SessionDuration time.Duration
}

// FullStore combines content and admin persistence for the admin UI
type FullStore interface {
	store.Store
	store.AdminStore
}

// Admin handles admin UI routes and authentication
type Admin struct {
	store  FullStore
	config Config
	logger *slog.Logger
}

// New creates a new Admin handler
func New(fullStore FullStore, cfg Config) *Admin {
	if cfg.SessionDuration <= 0 {
		cfg.SessionDuration = 7 * 24 * time.Hour
	}
	return &Admin{
		store:  fullStore,
		config: cfg,
		logger: slog.Default().With("component", "webadmin"),
	}
}

// RegisterRoutes registers all admin routes on the given mux
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	// Public routes (no auth required)
	mux.HandleFunc("GET /admin/login", a.handleLoginPage)
	mux.HandleFunc("POST /admin/login", a.handleLogin)
	mux.HandleFunc("GET /admin/signup", a.handleSignupPage)
	mux.HandleFunc("POST /admin/signup", a.handleSignup)

	// Protected routes (auth required)
	mux.HandleFunc("GET /admin/", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("GET /admin", a.requireAuth(a.handleDashboard))
	mux.HandleFunc("POST /admin/logout", a.requireAuth(a.handleLogout))

	// Subjects
	mux.HandleFunc("GET /admin/subjects", a.requireAuth(a.handleSubjectsPage))
	mux.HandleFunc("POST /admin/subjects", a.requireAuth(a.handleSubjectCreate))
	mux.HandleFunc("POST /admin/subjects/{id}/delete", a.requireAuth(a.handleSubjectDelete))

	// Lessons
	mux.HandleFunc("GET /admin/subjects/{id}/lessons", a.requireAuth(a.handleLessonsPage))
	mux.HandleFunc("POST /admin/subjects/{id}/lessons", a.requireAuth(a.handleLessonCreate))
	mux.HandleFunc("GET /admin/lessons/{id}", a.requireAuth(a.handleLessonDetail))
	mux.HandleFunc("POST /admin/lessons/{id}", a.requireAuth(a.handleLessonUpdate))
	mux.HandleFunc("POST /admin/lessons/{id}/delete", a.requireAuth(a.handleLessonDelete))

	// Practice questions
	mux.HandleFunc("GET /admin/questions", a.requireAuth(a.handleQuestionsPage))
	mux.HandleFunc("POST /admin/questions", a.requireAuth(a.handleQuestionCreate))
	mux.HandleFunc("POST /admin/questions/{id}/delete", a.requireAuth(a.handleQuestionDelete))

	// Students and analytics
	mux.HandleFunc("GET /admin/students", a.requireAuth(a.handleStudentsPage))
	mux.HandleFunc("GET /admin/analytics", a.requireAuth(a.handleAnalyticsPage))

	a.logger.Info("admin routes registered", "open_signup", a.config.OpenSignup)
}

// requireAuth wraps a handler to require authentication
func (a *Admin) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := a.getUserFromSession(r)
		if err != nil {
			http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
			return
		}

		// Add user to context
		ctx := context.WithValue(r.Context(), userContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// getUserFromSession retrieves the authenticated user from the session cookie
func (a *Admin) getUserFromSession(r *http.Request) (*store.AdminUser, error) {
	cookie, err := r.Cookie(SessionCookieName)
	if err != nil {
		return nil, err
	}

	session, err := a.store.GetAdminSession(r.Context(), cookie.Value)
	if err != nil {
		return nil, err
	}

	return a.store.GetAdminUser(r.Context(), session.UserID)
}

// getUserFromContext retrieves the authenticated user from the request context
func getUserFromContext(r *http.Request) *store.AdminUser {
	user, _ := r.Context().Value(userContextKey).(*store.AdminUser)
	return user
}

// getCSRFToken retrieves the CSRF token from the request context
func getCSRFToken(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// ensureCSRFToken generates a CSRF token if not present and adds it to context
func (a *Admin) ensureCSRFToken(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	cookie, err := r.Cookie(CSRFCookieName)
	if err == nil && cookie.Value != "" {
		ctx := context.WithValue(r.Context(), csrfContextKey, cookie.Value)
		return r.WithContext(ctx), cookie.Value
	}

	token, err := generateSecureToken(32)
	if err != nil {
		a.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // Will fail validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    token,
		Path:     "/admin",
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	ctx := context.WithValue(r.Context(), csrfContextKey, token)
	return r.WithContext(ctx), token
}

// validateCSRF checks the CSRF token from form against cookie
func (a *Admin) validateCSRF(r *http.Request) bool {
	cookie, err := r.Cookie(CSRFCookieName)
	if err != nil || cookie.Value == "" {
		return false
	}

	formToken := r.FormValue("csrf_token")
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}

	return formToken != "" && formToken == cookie.Value
}

// createSession creates a new session for a user and sets the cookie
func (a *Admin) createSession(w http.ResponseWriter, r *http.Request, userID string) error {
	sessionID, err := generateSecureToken(32)
	if err != nil {
		return err
	}

	session := &store.AdminSession{
		ID:        sessionID,
		UserID:    userID,
		CreatedAt: time.Now(),
		ExpiresAt: time.Now().Add(a.config.SessionDuration),
	}

	if err := a.store.CreateAdminSession(r.Context(), session); err != nil {
		return err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sessionID,
		Path:     "/admin",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// handleLoginPage renders the login page
func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	// If already logged in, redirect to dashboard
	if _, err := a.getUserFromSession(r); err == nil {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}

	r, csrfToken := a.ensureCSRFToken(w, r)
	a.renderLoginPage(w, "", csrfToken)
}

// handleLogin processes login form submission. A missing account and a wrong
// password produce the same message so the form can't be used to probe for
// admin emails.
func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Invalid form data", csrfToken)
		return
	}

	if !a.validateCSRF(r) {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Invalid request, please try again", csrfToken)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if email == "" || password == "" {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Email and password required", csrfToken)
		return
	}

	user, err := a.store.GetAdminUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, store.ErrAdminNotFound) {
		a.logger.Error("failed to look up admin user", "error", err)
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Something went wrong, please try again later", csrfToken)
		return
	}
	if errors.Is(err, store.ErrAdminNotFound) {
		user = nil
	}

	if !auth.CheckCredentials(user, password) {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Invalid email or password", csrfToken)
		return
	}

	if err := a.createSession(w, r, user.ID); err != nil {
		a.logger.Error("failed to create session", "error", err)
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderLoginPage(w, "Something went wrong, please try again later", csrfToken)
		return
	}

	a.logger.Info("admin login successful", "email", email)
	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// handleLogout logs out the current user
func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		// Validate CSRF - but don't block logout if invalid
		if !a.validateCSRF(r) {
			a.logger.Warn("logout request with invalid CSRF token")
		}
	}

	cookie, err := r.Cookie(SessionCookieName)
	if err == nil {
		_ = a.store.DeleteAdminSession(r.Context(), cookie.Value)
	}

	// Clear session cookie
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})

	// Clear CSRF cookie
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookieName,
		Value:    "",
		Path:     "/admin",
		MaxAge:   -1,
		HttpOnly: true,
	})

	http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
}

// handleSignupPage renders the signup page when open signup is enabled
func (a *Admin) handleSignupPage(w http.ResponseWriter, r *http.Request) {
	if !a.config.OpenSignup {
		http.NotFound(w, r)
		return
	}
	if _, err := a.getUserFromSession(r); err == nil {
		http.Redirect(w, r, "/admin/", http.StatusSeeOther)
		return
	}

	r, csrfToken := a.ensureCSRFToken(w, r)
	a.renderSignupPage(w, "", csrfToken)
}

// handleSignup creates a new admin account from the signup form.
// Only reachable when open_signup is enabled; every account creation is
// logged so the bootstrap window leaves a trail.
func (a *Admin) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !a.config.OpenSignup {
		http.NotFound(w, r)
		return
	}

	if err := r.ParseForm(); err != nil {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderSignupPage(w, "Invalid form data", csrfToken)
		return
	}

	if !a.validateCSRF(r) {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderSignupPage(w, "Invalid request, please try again", csrfToken)
		return
	}

	email := strings.TrimSpace(r.FormValue("email"))
	fullName := strings.TrimSpace(r.FormValue("full_name"))
	password := r.FormValue("password")
	confirm := r.FormValue("confirm_password")

	errMsg := ""
	switch {
	case email == "" || fullName == "" || password == "":
		errMsg = "All fields are required"
	case !strings.Contains(email, "@"):
		errMsg = "Invalid email address"
	case len(password) < 6:
		errMsg = "Password must be at least 6 characters"
	case password != confirm:
		errMsg = "Passwords do not match"
	}
	if errMsg != "" {
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderSignupPage(w, errMsg, csrfToken)
		return
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		a.logger.Error("failed to hash password", "error", err)
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderSignupPage(w, "Something went wrong, please try again later", csrfToken)
		return
	}

	user := &store.AdminUser{
		ID:           uuid.New().String(),
		Email:        email,
		FullName:     fullName,
		Role:         "admin",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if err := a.store.CreateAdminUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			_, csrfToken := a.ensureCSRFToken(w, r)
			a.renderSignupPage(w, "An account with that email already exists", csrfToken)
			return
		}
		a.logger.Error("failed to create admin user", "error", err)
		_, csrfToken := a.ensureCSRFToken(w, r)
		a.renderSignupPage(w, "Something went wrong, please try again later", csrfToken)
		return
	}

	a.logger.Info("admin signup", "email", email, "id", user.ID)

	if err := a.createSession(w, r, user.ID); err != nil {
		a.logger.Error("failed to create session", "error", err)
		http.Redirect(w, r, "/admin/login", http.StatusSeeOther)
		return
	}

	http.Redirect(w, r, "/admin/", http.StatusSeeOther)
}

// generateSecureToken returns a URL-safe random token of n bytes entropy
func generateSecureToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
