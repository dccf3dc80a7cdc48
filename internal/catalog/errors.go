package catalog

import "errors"

var (
	// ErrServiceNotFound indicates the service does not exist.
	ErrServiceNotFound = errors.New("service not found")

	// ErrInvalidStatus indicates a status outside the known set.
	ErrInvalidStatus = errors.New("invalid service status")

	// ErrEmptyUpdate indicates a partial update with no fields set.
	ErrEmptyUpdate = errors.New("no update data provided")
)
