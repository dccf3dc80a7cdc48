package domain

import "time"

// Team represents a group of organization members.
type Team struct {
	ID             string       `json:"id"`
	OrganizationID string       `json:"organization_id"`
	Name           string       `json:"name"`
	Description    string       `json:"description,omitempty"`
	Members        []TeamMember `json:"members"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// TeamMember is a user's membership in a team. Every team member must also
// be a member of the parent organization; the check happens at mutation
// time, not as a storage constraint.
type TeamMember struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// MemberRole returns the team role for userID, or false if absent.
func (t *Team) MemberRole(userID string) (Role, bool) {
	for _, m := range t.Members {
		if m.UserID == userID {
			return m.Role, true
		}
	}
	return "", false
}

// AdminCount returns the number of team members with the admin role.
func (t *Team) AdminCount() int {
	n := 0
	for _, m := range t.Members {
		if m.Role == RoleAdmin {
			n++
		}
	}
	return n
}
