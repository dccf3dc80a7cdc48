package teams

import "errors"

var (
	// ErrTeamNotFound indicates the team does not exist.
	ErrTeamNotFound = errors.New("team not found")

	// ErrInvalidRole indicates a role outside the assignable set.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyUpdate indicates a partial update with no fields set.
	ErrEmptyUpdate = errors.New("no update data provided")
)
