// Package authz decides whether an actor may perform a membership or
// entity mutation. Decisions are pure functions of the loaded entities;
// callers resolve entities first and reject with the returned error.
package authz

import "github.com/statustrack/statustrack/internal/domain"

// Action identifies a guarded operation.
type Action string

const (
	ActionViewOrganization     Action = "organization.view"
	ActionUpdateOrganization   Action = "organization.update"
	ActionDeleteOrganization   Action = "organization.delete"
	ActionAddOrgMember         Action = "organization.member.add"
	ActionRemoveOrgMember      Action = "organization.member.remove"
	ActionChangeOrgMemberRole  Action = "organization.member.role"
	ActionManageService        Action = "service.manage"
	ActionManageIncident       Action = "incident.manage"
	ActionViewIncidents        Action = "incident.view"
	ActionManageTeam           Action = "team.manage"
	ActionAddTeamMember        Action = "team.member.add"
	ActionRemoveTeamMember     Action = "team.member.remove"
	ActionChangeTeamMemberRole Action = "team.member.role"
)

// Input carries everything a rule may inspect. Organization is required for
// every action; Team only for team-scoped actions; TargetUserID and NewRole
// only for member mutations.
type Input struct {
	ActorID      string
	Organization *domain.Organization
	Team         *domain.Team
	TargetUserID string
	NewRole      domain.Role
}

// rule either passes (nil) or decides the outcome with an error.
type rule func(in Input) error

// rules encodes the permission table. Rules run in declared order and the
// first failure decides, so ordering is part of the contract: role
// requirements come first, then per-target restrictions.
var rules = map[Action][]rule{
	ActionViewOrganization:    {requireOrgMember},
	ActionUpdateOrganization:  {requireOrgOwnerOrAdmin},
	ActionDeleteOrganization:  {requireOrgOwner},
	ActionAddOrgMember:        {requireOrgOwnerOrAdmin},
	ActionRemoveOrgMember:     {requireOrgOwnerOrAdmin, denyOwnerTargetRemoval, denySelfRemovalWithoutOwnership},
	ActionChangeOrgMemberRole: {requireOrgOwnerOrAdmin, denyOwnerRoleGrant, denyOwnerTargetRoleChange, denySelfRoleChangeWithoutOwnership},
	ActionManageService:       {requireOrgMember},
	ActionManageIncident:      {requireOrgOwnerOrAdmin},
	ActionViewIncidents:       {requireOrgMember},
	ActionManageTeam:          {requireOrgMember},
	ActionAddTeamMember:       {requireTeamManager, requireTargetOrgMember, denyDuplicateTeamMember},
	ActionRemoveTeamMember:    {requireTeamManager, requireTargetTeamMember, denyLastAdminSelfRemoval, denyCrossAdminRemoval},
	ActionChangeTeamMemberRole: {
		requireTeamManager, denyOwnerRoleGrant, requireTargetTeamMember,
		denySelfTeamRoleChange, denyPeerAdminRoleChange,
	},
}

// Can evaluates the rule chain for action. A nil return grants the action.
func Can(action Action, in Input) error {
	chain, ok := rules[action]
	if !ok {
		return ErrPermissionDenied
	}
	for _, r := range chain {
		if err := r(in); err != nil {
			return err
		}
	}
	return nil
}

func isOrgOwner(in Input) bool {
	return in.Organization != nil && in.Organization.OwnerID == in.ActorID
}

func isOrgAdmin(in Input) bool {
	if in.Organization == nil {
		return false
	}
	role, ok := in.Organization.MemberRole(in.ActorID)
	return ok && (role == domain.RoleAdmin || role == domain.RoleOwner)
}

func isTeamAdmin(in Input) bool {
	if in.Team == nil {
		return false
	}
	role, ok := in.Team.MemberRole(in.ActorID)
	return ok && role == domain.RoleAdmin
}

func requireOrgMember(in Input) error {
	if in.Organization == nil || !in.Organization.IsMember(in.ActorID) {
		return ErrPermissionDenied
	}
	return nil
}

func requireOrgOwner(in Input) error {
	if !isOrgOwner(in) {
		return ErrPermissionDenied
	}
	return nil
}

func requireOrgOwnerOrAdmin(in Input) error {
	if !isOrgOwner(in) && !isOrgAdmin(in) {
		return ErrPermissionDenied
	}
	return nil
}

// requireTeamManager grants team-member mutations to organization owners and
// admins, plus admins of the team itself.
func requireTeamManager(in Input) error {
	if isOrgOwner(in) || isOrgAdmin(in) || isTeamAdmin(in) {
		return nil
	}
	return ErrPermissionDenied
}

func denyOwnerTargetRemoval(in Input) error {
	if in.TargetUserID == in.Organization.OwnerID {
		return ErrCannotRemoveOwner
	}
	return nil
}

func denySelfRemovalWithoutOwnership(in Input) error {
	if !isOrgOwner(in) && in.TargetUserID == in.ActorID {
		return ErrCannotRemoveSelf
	}
	return nil
}

func denyOwnerRoleGrant(in Input) error {
	if in.NewRole == domain.RoleOwner {
		return ErrCannotAssignOwner
	}
	return nil
}

func denyOwnerTargetRoleChange(in Input) error {
	if in.TargetUserID == in.Organization.OwnerID {
		return ErrCannotChangeOwnerRole
	}
	return nil
}

func denySelfRoleChangeWithoutOwnership(in Input) error {
	if !isOrgOwner(in) && in.TargetUserID == in.ActorID {
		return ErrCannotChangeOwnRole
	}
	return nil
}

func requireTargetOrgMember(in Input) error {
	if in.Organization == nil || !in.Organization.IsMember(in.TargetUserID) {
		return ErrTargetNotOrgMember
	}
	return nil
}

func denyDuplicateTeamMember(in Input) error {
	if _, ok := in.Team.MemberRole(in.TargetUserID); ok {
		return ErrAlreadyTeamMember
	}
	return nil
}

func requireTargetTeamMember(in Input) error {
	if in.Team == nil {
		return ErrTargetNotTeamMember
	}
	if _, ok := in.Team.MemberRole(in.TargetUserID); !ok {
		return ErrTargetNotTeamMember
	}
	return nil
}

// denyLastAdminSelfRemoval keeps a team from losing its only admin. The
// block applies even to org owners removing their own admin membership;
// assign another admin first or delete the team.
func denyLastAdminSelfRemoval(in Input) error {
	role, _ := in.Team.MemberRole(in.TargetUserID)
	if in.TargetUserID == in.ActorID && role == domain.RoleAdmin && in.Team.AdminCount() <= 1 {
		return ErrLastTeamAdmin
	}
	return nil
}

// denyCrossAdminRemoval stops team admins without org-level rights from
// removing fellow team admins.
func denyCrossAdminRemoval(in Input) error {
	if isOrgOwner(in) || isOrgAdmin(in) {
		return nil
	}
	role, _ := in.Team.MemberRole(in.TargetUserID)
	if role == domain.RoleAdmin && in.TargetUserID != in.ActorID {
		return ErrPermissionDenied
	}
	return nil
}

func denySelfTeamRoleChange(in Input) error {
	if isOrgOwner(in) || isOrgAdmin(in) {
		return nil
	}
	if in.TargetUserID == in.ActorID {
		return ErrCannotChangeOwnRole
	}
	return nil
}

func denyPeerAdminRoleChange(in Input) error {
	if isOrgOwner(in) || isOrgAdmin(in) {
		return nil
	}
	if role, _ := in.Team.MemberRole(in.TargetUserID); role == domain.RoleAdmin {
		return ErrPermissionDenied
	}
	return nil
}
