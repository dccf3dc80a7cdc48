package orgs

import (
	"context"

	"github.com/statustrack/statustrack/internal/domain"
)

// Repository defines storage operations for organizations and their members.
type Repository interface {
	Create(ctx context.Context, org *domain.Organization) error
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Organization, error)
	Update(ctx context.Context, org *domain.Organization) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, orgID string, member domain.OrganizationMember) error
	RemoveMember(ctx context.Context, orgID, userID string) error
	UpdateMemberRole(ctx context.Context, orgID, userID string, role domain.Role) error
	ListMembersPopulated(ctx context.Context, orgID string) ([]domain.PopulatedMember, error)

	GetUserIDByEmail(ctx context.Context, email string) (string, error)
}
