package model

import (
	"fmt"
	"strings"
	"time"
)

// Role is the single authorization axis of a user.  It is a closed set:
// the zero value is not a valid role and identifies a guest.
type Role uint8

const (
	RoleCustomer Role = iota + 1
	RoleAdministrator
)

const (
	roleCustomerName      = "cliente"
	roleAdministratorName = "administrador"
)

// String returns the persisted name of the role.
func (r Role) String() string {
	switch r {
	case RoleCustomer:
		return roleCustomerName
	case RoleAdministrator:
		return roleAdministratorName
	}
	return ""
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool { return r == RoleCustomer || r == RoleAdministrator }

// ParseRole converts a stored role name into a Role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case roleCustomerName:
		return RoleCustomer, nil
	case roleAdministratorName:
		return RoleAdministrator, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// MarshalText lets roles travel as their names in JSON payloads.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", r)
	}
	return []byte(r.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (r *Role) UnmarshalText(b []byte) error {
	v, err := ParseRole(string(b))
	if err != nil {
		return err
	}
	*r = v
	return nil
}

// User represents an application user record as stored in the
// `users` table.  The password hash never leaves the server.
//
// Fields:
//
//	ID              – primary key identifier of the user.
//	Name            – display name.
//	Email           – unique email address.
//	PasswordHash    – bcrypt hashed password.
//	Role            – cliente or administrador.
//	EmailVerifiedAt – set once the address is verified (nullable).
//	CreatedAt       – timestamp of creation.
//	UpdatedAt       – timestamp of last update.
type User struct {
	ID              uint64     `json:"id"`
	Name            string     `json:"name"`
	Email           string     `json:"email"`
	PasswordHash    string     `json:"-"`
	Role            Role       `json:"role"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// IsAdministrator reports whether the user carries the administrador role.
func (u User) IsAdministrator() bool { return u.Role == RoleAdministrator }

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to a user and contains metadata for expiry
// and revocation.  The plain token is not stored; only its
// SHA‑256 hash.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
