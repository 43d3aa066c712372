// ABOUTME: Tests for student JWT issue and verification
// ABOUTME: Covers roundtrips, expiry, wrong secrets, and missing claims

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-that-is-at-least-32-bytes!")

func TestJWTVerifier_Roundtrip(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token, err := v.Generate("student-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	studentID, err := v.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if studentID != "student-123" {
		t.Errorf("studentID = %q, want %q", studentID, "student-123")
	}
}

func TestJWTVerifier_Expired(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	token, err := v.Generate("student-123", -time.Minute)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestJWTVerifier_WrongSecret(t *testing.T) {
	v := NewJWTVerifier(testSecret)
	other := NewJWTVerifier([]byte("a-completely-different-signing-secret"))

	token, err := v.Generate("student-123", time.Hour)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	_, err = other.Verify(token)
	if !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestJWTVerifier_Garbage(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := v.Verify(tok); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestJWTVerifier_RejectsNonStudentRole(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	claims := jwt.MapClaims{
		"sub":  "admin-1",
		"role": "admin",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("expected ErrMissingClaim for non-student role, got %v", err)
	}
}

func TestJWTVerifier_RejectsMissingSubject(t *testing.T) {
	v := NewJWTVerifier(testSecret)

	claims := jwt.MapClaims{
		"role": "student",
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	_, err = v.Verify(token)
	if !errors.Is(err, ErrMissingClaim) {
		t.Errorf("expected ErrMissingClaim for missing sub, got %v", err)
	}
}
