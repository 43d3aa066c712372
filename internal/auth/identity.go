// ABOUTME: AdminIdentity projection of the admin credential record
// ABOUTME: Safe to hold in memory, cache on disk, and expose to UI layers

package auth

import (
	"time"

	"github.com/CodeGallantX/quanta/internal/store"
)

// AdminIdentity is the credential record with the password hash stripped.
// This is the only admin shape that leaves the auth/store layers.
type AdminIdentity struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// IdentityFromRecord projects a credential record into an AdminIdentity.
func IdentityFromRecord(user *store.AdminUser) *AdminIdentity {
	return &AdminIdentity{
		ID:        user.ID,
		Email:     user.Email,
		FullName:  user.FullName,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// Valid reports whether the identity carries the fields every real record
// has. Cached identities failing this check are treated as corrupt.
func (id *AdminIdentity) Valid() bool {
	return id != nil && id.ID != "" && id.Email != ""
}
