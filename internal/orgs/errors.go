package orgs

import "errors"

var (
	// ErrOrganizationNotFound indicates the organization does not exist.
	ErrOrganizationNotFound = errors.New("organization not found")

	// ErrUserNotFound indicates the user to be added does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrMemberExists indicates the user is already a member.
	ErrMemberExists = errors.New("user is already a member")

	// ErrMemberNotFound indicates the target user is not a member.
	ErrMemberNotFound = errors.New("member not found")

	// ErrInvalidRole indicates a role outside the assignable set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyUpdate indicates a partial update with no fields set.
	ErrEmptyUpdate = errors.New("no update data provided")

	// ErrSlugConflict indicates a concurrent creation won the slug.
	ErrSlugConflict = errors.New("organization slug already taken")
)
