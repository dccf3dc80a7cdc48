package domain

import "time"

// Role represents a membership role within an organization or team.
type Role string

// Membership roles. Owner is only meaningful at organization scope and is
// never assignable through member mutation endpoints.
const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// IsValid checks if the role is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return true
	}
	return false
}

// IsAssignable reports whether the role may be granted through member
// mutation endpoints. Ownership is set once at organization creation.
func (r Role) IsAssignable() bool {
	return r.IsValid() && r != RoleOwner
}

// User represents an internal user record. External principals (verified
// bearer tokens from an identity provider) are mapped onto users by
// ExternalID; locally registered users carry a bcrypt PasswordHash.
type User struct {
	ID           string    `json:"id"`
	ExternalID   *string   `json:"external_id,omitempty"`
	Email        string    `json:"email"`
	Name         string    `json:"name,omitempty"`
	Picture      string    `json:"picture,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
