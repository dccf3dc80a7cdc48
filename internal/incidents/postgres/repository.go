// Package postgres provides PostgreSQL implementation of the incidents repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/incidents"
)

// Repository implements the incidents.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts an incident together with its affected service links.
func (r *Repository) Create(ctx context.Context, incident *domain.Incident) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "error", err)
		}
	}()

	query := `
		INSERT INTO incidents (organization_id, title, status, severity, created_by, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		incident.OrganizationID,
		incident.Title,
		incident.Status,
		incident.Severity,
		incident.CreatedBy,
		incident.ResolvedAt,
	).Scan(&incident.ID, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}

	if err := insertAffectedServices(ctx, tx, incident.ID, incident.AffectedServices); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func insertAffectedServices(ctx context.Context, tx pgx.Tx, incidentID string, serviceIDs []string) error {
	for _, serviceID := range serviceIDs {
		_, err := tx.Exec(ctx, `
			INSERT INTO incident_services (incident_id, service_id)
			VALUES ($1, $2)
		`, incidentID, serviceID)
		if err != nil {
			return fmt.Errorf("insert incident service link: %w", err)
		}
	}
	return nil
}

// GetByID retrieves an incident with affected services and timeline.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Incident, error) {
	query := `
		SELECT id, organization_id, title, status, severity, created_by,
		       created_at, updated_at, resolved_at
		FROM incidents
		WHERE id = $1
	`
	var incident domain.Incident
	err := r.db.QueryRow(ctx, query, id).Scan(
		&incident.ID,
		&incident.OrganizationID,
		&incident.Title,
		&incident.Status,
		&incident.Severity,
		&incident.CreatedBy,
		&incident.CreatedAt,
		&incident.UpdatedAt,
		&incident.ResolvedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, incidents.ErrIncidentNotFound
		}
		return nil, fmt.Errorf("get incident: %w", err)
	}

	if err := r.populate(ctx, &incident); err != nil {
		return nil, err
	}
	return &incident, nil
}

func (r *Repository) populate(ctx context.Context, incident *domain.Incident) error {
	services, err := r.listAffectedServices(ctx, incident.ID)
	if err != nil {
		return err
	}
	incident.AffectedServices = services

	updates, err := r.listUpdates(ctx, incident.ID)
	if err != nil {
		return err
	}
	incident.Updates = updates
	return nil
}

func (r *Repository) listAffectedServices(ctx context.Context, incidentID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT service_id
		FROM incident_services
		WHERE incident_id = $1
		ORDER BY service_id
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list affected services: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan affected service: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repository) listUpdates(ctx context.Context, incidentID string) ([]domain.IncidentUpdate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, message, created_by, created_at
		FROM incident_updates
		WHERE incident_id = $1
		ORDER BY created_at DESC
	`, incidentID)
	if err != nil {
		return nil, fmt.Errorf("list incident updates: %w", err)
	}
	defer rows.Close()

	updates := make([]domain.IncidentUpdate, 0)
	for rows.Next() {
		var u domain.IncidentUpdate
		if err := rows.Scan(&u.ID, &u.Message, &u.CreatedBy, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan incident update: %w", err)
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// ListByOrganization retrieves all incidents of an organization, newest first.
func (r *Repository) ListByOrganization(ctx context.Context, orgID string) ([]domain.Incident, error) {
	return r.list(ctx, `
		SELECT id, organization_id, title, status, severity, created_by,
		       created_at, updated_at, resolved_at
		FROM incidents
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`, orgID)
}

// ListUnresolvedByOrganization retrieves open incidents, newest first.
func (r *Repository) ListUnresolvedByOrganization(ctx context.Context, orgID string) ([]domain.Incident, error) {
	return r.list(ctx, `
		SELECT id, organization_id, title, status, severity, created_by,
		       created_at, updated_at, resolved_at
		FROM incidents
		WHERE organization_id = $1 AND status <> 'resolved'
		ORDER BY created_at DESC
	`, orgID)
}

func (r *Repository) list(ctx context.Context, query, orgID string) ([]domain.Incident, error) {
	rows, err := r.db.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Incident, 0)
	for rows.Next() {
		var incident domain.Incident
		if err := rows.Scan(
			&incident.ID, &incident.OrganizationID, &incident.Title,
			&incident.Status, &incident.Severity, &incident.CreatedBy,
			&incident.CreatedAt, &incident.UpdatedAt, &incident.ResolvedAt,
		); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		result = append(result, incident)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		if err := r.populate(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// Update persists incident fields and replaces the affected service links.
func (r *Repository) Update(ctx context.Context, incident *domain.Incident) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("rollback failed", "error", err)
		}
	}()

	query := `
		UPDATE incidents
		SET title = $2, status = $3, severity = $4, resolved_at = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		incident.ID, incident.Title, incident.Status,
		incident.Severity, incident.ResolvedAt,
	).Scan(&incident.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return incidents.ErrIncidentNotFound
		}
		return fmt.Errorf("update incident: %w", err)
	}

	_, err = tx.Exec(ctx, `DELETE FROM incident_services WHERE incident_id = $1`, incident.ID)
	if err != nil {
		return fmt.Errorf("clear incident service links: %w", err)
	}
	if err := insertAffectedServices(ctx, tx, incident.ID, incident.AffectedServices); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Delete removes an incident and cascades to links and updates.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM incidents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete incident: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return incidents.ErrIncidentNotFound
	}
	return nil
}

// AddUpdate appends a timeline entry.
func (r *Repository) AddUpdate(ctx context.Context, incidentID string, update *domain.IncidentUpdate) error {
	query := `
		INSERT INTO incident_updates (incident_id, message, created_by)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, incidentID, update.Message, update.CreatedBy).
		Scan(&update.ID, &update.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert incident update: %w", err)
	}
	return nil
}
