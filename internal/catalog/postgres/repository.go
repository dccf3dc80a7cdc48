// Package postgres provides PostgreSQL implementation of the catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statustrack/statustrack/internal/catalog"
	"github.com/statustrack/statustrack/internal/domain"
)

// Repository implements the catalog.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a service.
func (r *Repository) Create(ctx context.Context, service *domain.Service) error {
	query := `
		INSERT INTO services (organization_id, name, description, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		service.OrganizationID,
		service.Name,
		service.Description,
		service.Status,
	).Scan(&service.ID, &service.CreatedAt, &service.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert service: %w", err)
	}
	return nil
}

// GetByID retrieves a service.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Service, error) {
	query := `
		SELECT id, organization_id, name, description, status, created_at, updated_at
		FROM services
		WHERE id = $1
	`
	var service domain.Service
	err := r.db.QueryRow(ctx, query, id).Scan(
		&service.ID,
		&service.OrganizationID,
		&service.Name,
		&service.Description,
		&service.Status,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrServiceNotFound
		}
		return nil, fmt.Errorf("get service: %w", err)
	}
	return &service, nil
}

// ListByOrganization retrieves all services of an organization.
func (r *Repository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Service, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, organization_id, name, description, status, created_at, updated_at
		FROM services
		WHERE organization_id = $1
		ORDER BY created_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Service, 0)
	for rows.Next() {
		var service domain.Service
		if err := rows.Scan(
			&service.ID, &service.OrganizationID, &service.Name,
			&service.Description, &service.Status,
			&service.CreatedAt, &service.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan service: %w", err)
		}
		result = append(result, service)
	}
	return result, rows.Err()
}

// Update persists name, description and status changes.
func (r *Repository) Update(ctx context.Context, service *domain.Service) error {
	query := `
		UPDATE services
		SET name = $2, description = $3, status = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		service.ID, service.Name, service.Description, service.Status,
	).Scan(&service.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return catalog.ErrServiceNotFound
		}
		return fmt.Errorf("update service: %w", err)
	}
	return nil
}

// Delete removes a service and cascades to its status log.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrServiceNotFound
	}
	return nil
}

// AppendStatusEvent inserts a status log entry.
func (r *Repository) AppendStatusEvent(ctx context.Context, event *domain.StatusEvent) error {
	query := `
		INSERT INTO service_status_events (service_id, old_status, new_status, timestamp)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRow(ctx, query,
		event.ServiceID,
		event.OldStatus,
		event.NewStatus,
		event.Timestamp,
	).Scan(&event.ID)
	if err != nil {
		return fmt.Errorf("insert status event: %w", err)
	}
	return nil
}

// ListStatusEvents retrieves status log entries newest first.
func (r *Repository) ListStatusEvents(ctx context.Context, serviceID string, limit, offset int) ([]domain.StatusEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, service_id, old_status, new_status, timestamp
		FROM service_status_events
		WHERE service_id = $1
		ORDER BY timestamp DESC
		LIMIT $2 OFFSET $3
	`, serviceID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list status events: %w", err)
	}
	defer rows.Close()

	result := make([]domain.StatusEvent, 0)
	for rows.Next() {
		var event domain.StatusEvent
		if err := rows.Scan(
			&event.ID, &event.ServiceID, &event.OldStatus,
			&event.NewStatus, &event.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("scan status event: %w", err)
		}
		result = append(result, event)
	}
	return result, rows.Err()
}
