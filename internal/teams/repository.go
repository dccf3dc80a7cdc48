package teams

import (
	"context"

	"github.com/statustrack/statustrack/internal/domain"
)

// Repository defines storage operations for teams and their members.
type Repository interface {
	Create(ctx context.Context, team *domain.Team) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Team, error)
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, teamID string, member domain.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	UpdateMemberRole(ctx context.Context, teamID, userID string, role domain.Role) error
}

// OrganizationGetter loads the parent organization for permission checks.
type OrganizationGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}
