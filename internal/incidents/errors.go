package incidents

import "errors"

var (
	// ErrIncidentNotFound indicates the incident does not exist.
	ErrIncidentNotFound = errors.New("incident not found")

	// ErrInvalidStatus indicates a status outside the known set.
	ErrInvalidStatus = errors.New("invalid incident status")

	// ErrInvalidSeverity indicates a severity outside the known set.
	ErrInvalidSeverity = errors.New("invalid incident severity")

	// ErrServiceNotInOrganization indicates an affected service that does not
	// belong to the incident's organization.
	ErrServiceNotInOrganization = errors.New("affected service does not belong to the organization")

	// ErrEmptyUpdate indicates a partial update with no fields set.
	ErrEmptyUpdate = errors.New("no update data provided")
)
