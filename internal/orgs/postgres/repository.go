// Package postgres provides PostgreSQL implementation of the orgs repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/orgs"
)

const uniqueViolation = "23505"

// Repository implements the orgs.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts an organization together with its initial members.
func (r *Repository) Create(ctx context.Context, org *domain.Organization) error {
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
		INSERT INTO organizations (name, slug, logo_url, owner_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err = tx.QueryRow(ctx, query,
		org.Name,
		org.Slug,
		org.LogoURL,
		org.OwnerID,
	).Scan(&org.ID, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return orgs.ErrSlugConflict
		}
		return fmt.Errorf("insert organization: %w", err)
	}

	for _, m := range org.Members {
		_, err = tx.Exec(ctx, `
			INSERT INTO organization_members (organization_id, user_id, role)
			VALUES ($1, $2, $3)
		`, org.ID, m.UserID, m.Role)
		if err != nil {
			return fmt.Errorf("insert organization member: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetByID retrieves an organization with its members.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetBySlug retrieves an organization with its members by slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*domain.Organization, error) {
	return r.getOne(ctx, "slug = $1", slug)
}

func (r *Repository) getOne(ctx context.Context, where string, arg interface{}) (*domain.Organization, error) {
	query := `
		SELECT id, name, slug, logo_url, owner_id, created_at, updated_at
		FROM organizations
		WHERE ` + where

	var org domain.Organization
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.LogoURL,
		&org.OwnerID,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, orgs.ErrOrganizationNotFound
		}
		return nil, fmt.Errorf("get organization: %w", err)
	}

	members, err := r.listMembers(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	org.Members = members
	return &org, nil
}

func (r *Repository) listMembers(ctx context.Context, orgID string) ([]domain.OrganizationMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, role
		FROM organization_members
		WHERE organization_id = $1
		ORDER BY added_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list organization members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.OrganizationMember, 0)
	for rows.Next() {
		var m domain.OrganizationMember
		if err := rows.Scan(&m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("scan organization member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// SlugExists reports whether any organization holds the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM organizations WHERE slug = $1)
	`, slug).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return exists, nil
}

// ListByUser retrieves organizations the user owns or is a member of.
func (r *Repository) ListByUser(ctx context.Context, userID string) ([]domain.Organization, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT o.id, o.name, o.slug, o.logo_url, o.owner_id, o.created_at, o.updated_at
		FROM organizations o
		LEFT JOIN organization_members m ON m.organization_id = o.id
		WHERE o.owner_id = $1 OR m.user_id = $1
		ORDER BY o.created_at
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	defer rows.Close()

	result := make([]domain.Organization, 0)
	for rows.Next() {
		var org domain.Organization
		if err := rows.Scan(
			&org.ID, &org.Name, &org.Slug, &org.LogoURL,
			&org.OwnerID, &org.CreatedAt, &org.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		result = append(result, org)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		members, err := r.listMembers(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].Members = members
	}
	return result, nil
}

// Update persists name and logo changes.
func (r *Repository) Update(ctx context.Context, org *domain.Organization) error {
	query := `
		UPDATE organizations
		SET name = $2, logo_url = $3, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, org.ID, org.Name, org.LogoURL).Scan(&org.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return orgs.ErrOrganizationNotFound
		}
		return fmt.Errorf("update organization: %w", err)
	}
	return nil
}

// Delete removes an organization. Dependent rows go with it via
// ON DELETE CASCADE foreign keys.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM organizations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orgs.ErrOrganizationNotFound
	}
	return nil
}

// AddMember inserts a membership row.
func (r *Repository) AddMember(ctx context.Context, orgID string, member domain.OrganizationMember) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO organization_members (organization_id, user_id, role)
		VALUES ($1, $2, $3)
	`, orgID, member.UserID, member.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return orgs.ErrMemberExists
		}
		return fmt.Errorf("add organization member: %w", err)
	}
	return nil
}

// RemoveMember deletes a membership row.
func (r *Repository) RemoveMember(ctx context.Context, orgID, userID string) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM organization_members
		WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID)
	if err != nil {
		return fmt.Errorf("remove organization member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orgs.ErrMemberNotFound
	}
	return nil
}

// UpdateMemberRole changes a membership row's role.
func (r *Repository) UpdateMemberRole(ctx context.Context, orgID, userID string, role domain.Role) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE organization_members
		SET role = $3
		WHERE organization_id = $1 AND user_id = $2
	`, orgID, userID, role)
	if err != nil {
		return fmt.Errorf("update member role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return orgs.ErrMemberNotFound
	}
	return nil
}

// ListMembersPopulated joins members with their user details.
func (r *Repository) ListMembersPopulated(ctx context.Context, orgID string) ([]domain.PopulatedMember, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.name, u.email, u.picture, m.role
		FROM organization_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.organization_id = $1
		ORDER BY m.added_at
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("list populated members: %w", err)
	}
	defer rows.Close()

	members := make([]domain.PopulatedMember, 0)
	for rows.Next() {
		var m domain.PopulatedMember
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Picture, &m.Role); err != nil {
			return nil, fmt.Errorf("scan populated member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// GetUserIDByEmail resolves a user id from an email address.
func (r *Repository) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", orgs.ErrUserNotFound
		}
		return "", fmt.Errorf("get user by email: %w", err)
	}
	return id, nil
}
