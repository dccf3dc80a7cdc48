package orgs

import (
	"context"
	"fmt"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
)

// Service implements organization business logic.
type Service struct {
	repo Repository
}

// NewService creates a new organization service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateInput contains organization creation data.
type CreateInput struct {
	Name    string
	LogoURL string
}

// Create creates an organization. The creator becomes its owner and its
// first admin member, and the slug is derived from the name with a numeric
// suffix appended until it is unique.
func (s *Service) Create(ctx context.Context, actorID string, input CreateInput) (*domain.Organization, error) {
	slug, err := s.uniqueSlug(ctx, input.Name)
	if err != nil {
		return nil, err
	}

	org := &domain.Organization{
		Name:    input.Name,
		Slug:    slug,
		LogoURL: input.LogoURL,
		OwnerID: actorID,
		Members: []domain.OrganizationMember{
			{UserID: actorID, Role: domain.RoleAdmin},
		},
	}
	if err := s.repo.Create(ctx, org); err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}
	return org, nil
}

// uniqueSlug derives a slug from name, counting up a suffix until no
// existing organization holds it. The check-then-insert is not atomic; the
// unique index on slug turns the losing side of a race into ErrSlugConflict
// instead of a duplicate row.
func (s *Service) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slugify(name)
	slug := base
	for counter := 1; ; counter++ {
		exists, err := s.repo.SlugExists(ctx, slug)
		if err != nil {
			return "", fmt.Errorf("check slug: %w", err)
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, counter)
	}
}

// List returns organizations the actor owns or belongs to.
func (s *Service) List(ctx context.Context, actorID string) ([]domain.Organization, error) {
	return s.repo.ListByUser(ctx, actorID)
}

// Get returns an organization; members only.
func (s *Service) Get(ctx context.Context, actorID, orgID string) (*domain.Organization, error) {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionViewOrganization, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return org, nil
}

// UpdateInput contains partial organization update data.
type UpdateInput struct {
	Name    *string
	LogoURL *string
}

// Update applies a partial update. An update with no fields set is a
// validation error, matching the other partial-update endpoints.
func (s *Service) Update(ctx context.Context, actorID, orgID string, input UpdateInput) (*domain.Organization, error) {
	if input.Name == nil && input.LogoURL == nil {
		return nil, ErrEmptyUpdate
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionUpdateOrganization, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		org.Name = *input.Name
	}
	if input.LogoURL != nil {
		org.LogoURL = *input.LogoURL
	}
	if err := s.repo.Update(ctx, org); err != nil {
		return nil, fmt.Errorf("update organization: %w", err)
	}
	return org, nil
}

// Delete removes an organization and everything that hangs off it.
func (s *Service) Delete(ctx context.Context, actorID, orgID string) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if err := authz.Can(authz.ActionDeleteOrganization, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return err
	}
	return s.repo.Delete(ctx, orgID)
}

// ListMembers returns members with their user details joined in.
func (s *Service) ListMembers(ctx context.Context, actorID, orgID string) ([]domain.PopulatedMember, error) {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionViewOrganization, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return s.repo.ListMembersPopulated(ctx, orgID)
}

// AddMember adds a user, looked up by email, to the organization.
func (s *Service) AddMember(ctx context.Context, actorID, orgID, email string, role domain.Role) (*domain.Organization, error) {
	if !role.IsAssignable() {
		return nil, ErrInvalidRole
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionAddOrgMember, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}

	userID, err := s.repo.GetUserIDByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if _, isMember := org.MemberRole(userID); isMember {
		return nil, ErrMemberExists
	}

	if err := s.repo.AddMember(ctx, orgID, domain.OrganizationMember{UserID: userID, Role: role}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orgID)
}

// RemoveMember removes a member from the organization.
func (s *Service) RemoveMember(ctx context.Context, actorID, orgID, targetUserID string) error {
	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return err
	}
	if err := authz.Can(authz.ActionRemoveOrgMember, authz.Input{
		ActorID:      actorID,
		Organization: org,
		TargetUserID: targetUserID,
	}); err != nil {
		return err
	}

	if _, isMember := org.MemberRole(targetUserID); !isMember {
		return ErrMemberNotFound
	}
	return s.repo.RemoveMember(ctx, orgID, targetUserID)
}

// UpdateMemberRole changes a member's role.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, orgID, targetUserID string, role domain.Role) (*domain.Organization, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	org, err := s.repo.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionChangeOrgMemberRole, authz.Input{
		ActorID:      actorID,
		Organization: org,
		TargetUserID: targetUserID,
		NewRole:      role,
	}); err != nil {
		return nil, err
	}

	if _, isMember := org.MemberRole(targetUserID); !isMember {
		return nil, ErrMemberNotFound
	}
	if err := s.repo.UpdateMemberRole(ctx, orgID, targetUserID, role); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, orgID)
}
