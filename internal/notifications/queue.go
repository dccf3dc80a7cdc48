// Package notifications delivers subscriber emails through a database-backed
// queue drained by background workers. Delivery is fire-and-forget relative
// to the mutation that triggered it.
package notifications

import "time"

// Status is the lifecycle state of a queued notification.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

// Notification is one queued message. The subject and body are shared by all
// subscribers of the organization; recipient resolution happens at send time
// so late subscribers still receive pending messages.
type Notification struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	Status         Status    `json:"status"`
	Attempts       int       `json:"attempts"`
	NextAttemptAt  time.Time `json:"next_attempt_at"`
	LastError      string    `json:"last_error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
