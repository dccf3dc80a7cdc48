// Package postgres provides PostgreSQL implementation of the notification
// queue repository.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statustrack/statustrack/internal/notifications"
)

// Repository implements the notifications.Repository interface using
// PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Enqueue inserts a pending notification due immediately.
func (r *Repository) Enqueue(ctx context.Context, n *notifications.Notification) error {
	query := `
		INSERT INTO notification_queue (organization_id, subject, body, status, next_attempt_at)
		VALUES ($1, $2, $3, 'pending', now())
		RETURNING id, status, attempts, next_attempt_at, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, n.OrganizationID, n.Subject, n.Body).Scan(
		&n.ID, &n.Status, &n.Attempts, &n.NextAttemptAt, &n.CreatedAt, &n.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ClaimBatch moves due pending notifications to processing. SKIP LOCKED keeps
// concurrent workers from claiming the same rows.
func (r *Repository) ClaimBatch(ctx context.Context, limit int, now time.Time) ([]notifications.Notification, error) {
	query := `
		UPDATE notification_queue
		SET status = 'processing', updated_at = now()
		WHERE id IN (
			SELECT id FROM notification_queue
			WHERE status = 'pending' AND next_attempt_at <= $2
			ORDER BY next_attempt_at
			LIMIT $1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING id, organization_id, subject, body, status, attempts,
		          next_attempt_at, last_error, created_at, updated_at
	`
	rows, err := r.db.Query(ctx, query, limit, now)
	if err != nil {
		return nil, fmt.Errorf("claim notification batch: %w", err)
	}
	defer rows.Close()

	batch := make([]notifications.Notification, 0, limit)
	for rows.Next() {
		var n notifications.Notification
		var lastError *string
		if err := rows.Scan(
			&n.ID, &n.OrganizationID, &n.Subject, &n.Body, &n.Status,
			&n.Attempts, &n.NextAttemptAt, &lastError, &n.CreatedAt, &n.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		if lastError != nil {
			n.LastError = *lastError
		}
		batch = append(batch, n)
	}
	return batch, rows.Err()
}

// MarkSent finalizes a delivered notification.
func (r *Repository) MarkSent(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'sent', last_error = NULL, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}
	return nil
}

// Reschedule returns a notification to pending with a new due time.
func (r *Repository) Reschedule(ctx context.Context, id string, attempts int, nextAttemptAt time.Time, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'pending', attempts = $2, next_attempt_at = $3,
		    last_error = $4, updated_at = now()
		WHERE id = $1
	`, id, attempts, nextAttemptAt, lastError)
	if err != nil {
		return fmt.Errorf("reschedule notification: %w", err)
	}
	return nil
}

// MarkFailed finalizes a notification that exhausted its attempts.
func (r *Repository) MarkFailed(ctx context.Context, id string, attempts int, lastError string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE notification_queue
		SET status = 'failed', attempts = $2, last_error = $3, updated_at = now()
		WHERE id = $1
	`, id, attempts, lastError)
	if err != nil {
		return fmt.Errorf("mark notification failed: %w", err)
	}
	return nil
}

// ListSubscriberEmails returns the recipient addresses for an organization.
func (r *Repository) ListSubscriberEmails(ctx context.Context, orgID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT email FROM subscribers
		WHERE organization_id = $1
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list subscriber emails: %w", err)
	}
	defer rows.Close()

	emails := make([]string, 0)
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("scan subscriber email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, rows.Err()
}
