// ABOUTME: Tests for bcrypt password hashing and credential checks
// ABOUTME: Covers mismatches, malformed hashes, and missing records

package auth

import (
	"testing"
	"time"

	"github.com/CodeGallantX/quanta/internal/store"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	if !VerifyPassword("correct horse battery staple", hash) {
		t.Error("correct password should verify")
	}
	if VerifyPassword("wrong password", hash) {
		t.Error("wrong password should not verify")
	}
	if VerifyPassword("", hash) {
		t.Error("empty password should not verify")
	}
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"not-a-bcrypt-hash",
		"$2a$garbage",
		"plaintext-password",
	}
	for _, hash := range cases {
		if VerifyPassword("anything", hash) {
			t.Errorf("malformed hash %q should not verify", hash)
		}
	}
}

func TestHashPassword_ProducesDistinctHashes(t *testing.T) {
	h1, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	h2, err := HashPassword("same password")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if h1 == h2 {
		t.Error("two hashes of the same password should differ by salt")
	}
}

func TestCheckCredentials(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}

	user := &store.AdminUser{
		ID:           "admin-1",
		Email:        "admin@school.edu",
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}

	if !CheckCredentials(user, "secret123") {
		t.Error("correct credentials should pass")
	}
	if CheckCredentials(user, "wrong") {
		t.Error("wrong password should fail")
	}
	if CheckCredentials(nil, "secret123") {
		t.Error("missing record should fail")
	}

	passwordless := &store.AdminUser{ID: "admin-2", Email: "legacy@school.edu"}
	if CheckCredentials(passwordless, "anything") {
		t.Error("record without a password hash should fail")
	}
}
