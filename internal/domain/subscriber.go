package domain

import "time"

// Subscriber is an email address subscribed to an organization's status
// updates. (email, organization_id) is unique.
type Subscriber struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	OrganizationID string    `json:"organization_id"`
	CreatedAt      time.Time `json:"created_at"`
}
