// Package postgres provides PostgreSQL implementation of the status page
// repository: subscribers plus the status event window reads behind uptime.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/statuspage"
)

const uniqueViolation = "23505"

// Repository implements the statuspage.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSubscriber inserts a subscriber row.
func (r *Repository) CreateSubscriber(ctx context.Context, subscriber *domain.Subscriber) error {
	query := `
		INSERT INTO subscribers (email, organization_id)
		VALUES ($1, $2)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, subscriber.Email, subscriber.OrganizationID).
		Scan(&subscriber.ID, &subscriber.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return statuspage.ErrAlreadySubscribed
		}
		return fmt.Errorf("insert subscriber: %w", err)
	}
	return nil
}

// DeleteSubscriber removes a subscriber row; absent rows are not an error.
func (r *Repository) DeleteSubscriber(ctx context.Context, orgID, email string) error {
	_, err := r.db.Exec(ctx, `
		DELETE FROM subscribers
		WHERE organization_id = $1 AND email = $2
	`, orgID, email)
	if err != nil {
		return fmt.Errorf("delete subscriber: %w", err)
	}
	return nil
}

// ListStatusEventsForWindow returns the in-window events plus the latest
// event before the window when one exists.
func (r *Repository) ListStatusEventsForWindow(ctx context.Context, serviceID string, windowStart, windowEnd time.Time) ([]domain.StatusEvent, error) {
	events := make([]domain.StatusEvent, 0)

	var carryIn domain.StatusEvent
	err := r.db.QueryRow(ctx, `
		SELECT id, service_id, old_status, new_status, timestamp
		FROM service_status_events
		WHERE service_id = $1 AND timestamp < $2
		ORDER BY timestamp DESC
		LIMIT 1
	`, serviceID, windowStart).Scan(
		&carryIn.ID, &carryIn.ServiceID, &carryIn.OldStatus,
		&carryIn.NewStatus, &carryIn.Timestamp,
	)
	switch {
	case err == nil:
		events = append(events, carryIn)
	case errors.Is(err, pgx.ErrNoRows):
	default:
		return nil, fmt.Errorf("get carry-in status event: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, service_id, old_status, new_status, timestamp
		FROM service_status_events
		WHERE service_id = $1 AND timestamp >= $2 AND timestamp < $3
		ORDER BY timestamp
	`, serviceID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("list status events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var event domain.StatusEvent
		if err := rows.Scan(
			&event.ID, &event.ServiceID, &event.OldStatus,
			&event.NewStatus, &event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
