package notifications

import (
	"context"
	"time"
)

// Repository defines storage operations for the notification queue.
type Repository interface {
	// Enqueue inserts a pending notification due immediately.
	Enqueue(ctx context.Context, notification *Notification) error

	// ClaimBatch atomically moves up to limit due pending notifications to
	// processing and returns them. Concurrent workers never claim the same
	// row twice.
	ClaimBatch(ctx context.Context, limit int, now time.Time) ([]Notification, error)

	// MarkSent finalizes a delivered notification.
	MarkSent(ctx context.Context, id string) error

	// Reschedule returns a notification to pending with a new due time after
	// a retryable failure.
	Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error

	// MarkFailed finalizes a notification that ran out of attempts or hit a
	// permanent error.
	MarkFailed(ctx context.Context, id string, attempts int, lastError string) error

	// ListSubscriberEmails returns the recipient addresses for an
	// organization.
	ListSubscriberEmails(ctx context.Context, orgID string) ([]string, error)
}
