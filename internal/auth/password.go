// ABOUTME: Password hashing and verification using bcrypt
// ABOUTME: Verify never reveals whether the hash or the password was at fault

package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/CodeGallantX/quanta/internal/store"
)

// bcryptCost matches the cost used when admin accounts were created.
const bcryptCost = 12

// dummyHash is a valid bcrypt hash compared against when no credential record
// exists, so lookup misses take as long as password mismatches. This prevents
// timing attacks that could enumerate valid emails.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashPassword hashes a plaintext password for storage.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword reports whether plaintext matches the stored bcrypt hash.
// An empty plaintext, a wrong password, and a malformed hash all return
// false; callers must treat these identically.
func VerifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

// compareDummy burns a bcrypt comparison for accounts that don't exist,
// keeping the sign-in path constant-time with respect to account existence.
func compareDummy(plaintext string) {
	_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(plaintext))
}

// CheckCredentials compares a password against a credential record, burning a
// dummy comparison when the record is missing or passwordless so lookup
// misses cost the same as mismatches. Pass nil for accounts that don't exist.
func CheckCredentials(user *store.AdminUser, password string) bool {
	if user == nil || user.PasswordHash == "" {
		compareDummy(password)
		return false
	}
	return VerifyPassword(password, user.PasswordHash)
}
