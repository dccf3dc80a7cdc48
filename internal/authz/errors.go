package authz

import "errors"

var (
	// ErrPermissionDenied is the generic denial for an actor lacking the
	// role an action requires.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrCannotRemoveOwner denies removing the organization owner through
	// member endpoints, regardless of who asks.
	ErrCannotRemoveOwner = errors.New("cannot remove the organization owner")

	// ErrCannotChangeOwnerRole denies role changes targeting the owner.
	ErrCannotChangeOwnerRole = errors.New("cannot change the organization owner's role")

	// ErrCannotAssignOwner denies granting the owner role through member
	// endpoints. Ownership is set once at organization creation.
	ErrCannotAssignOwner = errors.New("cannot assign the owner role")

	// ErrCannotRemoveSelf denies admins removing their own membership.
	ErrCannotRemoveSelf = errors.New("admins cannot remove themselves")

	// ErrCannotChangeOwnRole denies actors changing their own role without
	// organization-level rights.
	ErrCannotChangeOwnRole = errors.New("cannot change own role")

	// ErrLastTeamAdmin denies the only team admin removing themselves.
	ErrLastTeamAdmin = errors.New("cannot remove the only team admin")

	// ErrTargetNotOrgMember rejects adding a user to a team when they are
	// not a member of the parent organization.
	ErrTargetNotOrgMember = errors.New("user is not a member of the parent organization")

	// ErrTargetNotTeamMember rejects member mutations whose target is not
	// in the team.
	ErrTargetNotTeamMember = errors.New("user is not a member of the team")

	// ErrAlreadyTeamMember rejects adding a user to a team twice.
	ErrAlreadyTeamMember = errors.New("user is already a member of the team")
)
