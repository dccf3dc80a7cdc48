package domain

import "time"

// Organization represents a tenant publishing a status page.
type Organization struct {
	ID        string               `json:"id"`
	Name      string               `json:"name"`
	Slug      string               `json:"slug"`
	LogoURL   string               `json:"logo_url,omitempty"`
	OwnerID   string               `json:"owner_id"`
	Members   []OrganizationMember `json:"members"`
	CreatedAt time.Time            `json:"created_at"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// OrganizationMember is a user's membership in an organization.
// Membership is keyed by UserID: at most one role per user per organization.
type OrganizationMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// MemberRole returns the member role for userID, or false if the user is not
// listed in Members. The owner is not required to appear in Members.
func (o *Organization) MemberRole(userID string) (Role, bool) {
	for _, m := range o.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// IsMember reports whether userID is the owner or a listed member.
func (o *Organization) IsMember(userID string) bool {
	if o.OwnerID == userID {
		return true
	}
	_, ok := o.MemberRole(userID)
	return ok
}

// PopulatedMember is an organization member joined with user details.
type PopulatedMember struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Email   string `json:"email"`
	Picture string `json:"picture,omitempty"`
	Role    Role   `json:"role"`
}
