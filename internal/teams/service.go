package teams

import (
	"context"
	"fmt"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
)

// Service implements team business logic.
type Service struct {
	repo Repository
	orgs OrganizationGetter
}

// NewService creates a new team service.
func NewService(repo Repository, orgs OrganizationGetter) *Service {
	return &Service{repo: repo, orgs: orgs}
}

// CreateInput contains team creation data.
type CreateInput struct {
	Name        string
	Description string
}

// Create creates a team inside an organization. The creator becomes the
// team's first admin.
func (s *Service) Create(ctx context.Context, actorID, orgID string, input CreateInput) (*domain.Team, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageTeam, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}

	team := &domain.Team{
		OrganizationID: orgID,
		Name:           input.Name,
		Description:    input.Description,
		Members: []domain.TeamMember{
			{UserID: actorID, Role: domain.RoleAdmin},
		},
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, fmt.Errorf("create team: %w", err)
	}
	return team, nil
}

// List returns the teams of an organization; members only.
func (s *Service) List(ctx context.Context, actorID, orgID string) ([]domain.Team, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageTeam, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Get returns a team; members of its organization only.
func (s *Service) Get(ctx context.Context, actorID, teamID string) (*domain.Team, error) {
	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageTeam, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateInput contains partial team update data.
type UpdateInput struct {
	Name        *string
	Description *string
}

// Update applies a partial update to a team.
func (s *Service) Update(ctx context.Context, actorID, teamID string, input UpdateInput) (*domain.Team, error) {
	if input.Name == nil && input.Description == nil {
		return nil, ErrEmptyUpdate
	}

	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageTeam, authz.Input{ActorID: actorID, Organization: org, Team: team}); err != nil {
		return nil, err
	}

	if input.Name != nil {
		team.Name = *input.Name
	}
	if input.Description != nil {
		team.Description = *input.Description
	}
	if err := s.repo.Update(ctx, team); err != nil {
		return nil, fmt.Errorf("update team: %w", err)
	}
	return team, nil
}

// Delete removes a team.
func (s *Service) Delete(ctx context.Context, actorID, teamID string) error {
	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return err
	}
	if err := authz.Can(authz.ActionManageTeam, authz.Input{ActorID: actorID, Organization: org, Team: team}); err != nil {
		return err
	}
	return s.repo.Delete(ctx, teamID)
}

// AddMember adds an organization member to the team.
func (s *Service) AddMember(ctx context.Context, actorID, teamID, targetUserID string, role domain.Role) (*domain.Team, error) {
	if !role.IsAssignable() {
		return nil, ErrInvalidRole
	}

	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionAddTeamMember, authz.Input{
		ActorID:      actorID,
		Organization: org,
		Team:         team,
		TargetUserID: targetUserID,
		NewRole:      role,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.AddMember(ctx, teamID, domain.TeamMember{UserID: targetUserID, Role: role}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, teamID)
}

// RemoveMember removes a member from the team.
func (s *Service) RemoveMember(ctx context.Context, actorID, teamID, targetUserID string) (*domain.Team, error) {
	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionRemoveTeamMember, authz.Input{
		ActorID:      actorID,
		Organization: org,
		Team:         team,
		TargetUserID: targetUserID,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.RemoveMember(ctx, teamID, targetUserID); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, teamID)
}

// UpdateMemberRole changes a team member's role.
func (s *Service) UpdateMemberRole(ctx context.Context, actorID, teamID, targetUserID string, role domain.Role) (*domain.Team, error) {
	if !role.IsValid() {
		return nil, ErrInvalidRole
	}

	team, org, err := s.load(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionChangeTeamMemberRole, authz.Input{
		ActorID:      actorID,
		Organization: org,
		Team:         team,
		TargetUserID: targetUserID,
		NewRole:      role,
	}); err != nil {
		return nil, err
	}

	if err := s.repo.UpdateMemberRole(ctx, teamID, targetUserID, role); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, teamID)
}

func (s *Service) load(ctx context.Context, teamID string) (*domain.Team, *domain.Organization, error) {
	team, err := s.repo.GetByID(ctx, teamID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.orgs.GetByID(ctx, team.OrganizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load parent organization: %w", err)
	}
	return team, org, nil
}
