package incidents

import (
	"context"

	"github.com/statustrack/statustrack/internal/domain"
)

// Repository defines storage operations for incidents and their updates.
type Repository interface {
	Create(ctx context.Context, incident *domain.Incident) error
	GetByID(ctx context.Context, id string) (*domain.Incident, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Incident, error)
	ListUnresolvedByOrganization(ctx context.Context, orgID string) ([]domain.Incident, error)
	Update(ctx context.Context, incident *domain.Incident) error
	Delete(ctx context.Context, id string) error

	AddUpdate(ctx context.Context, incidentID string, update *domain.IncidentUpdate) error
}

// OrganizationGetter loads the parent organization for permission checks.
type OrganizationGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
}

// ServiceGetter verifies affected services against the owning organization.
type ServiceGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
}

// Broadcaster pushes realtime events to an organization's stream.
type Broadcaster interface {
	Broadcast(orgID, event string, payload any)
}

// Notifier enqueues a subscriber notification. Implementations must not block
// the request path on delivery.
type Notifier interface {
	Enqueue(ctx context.Context, orgID, subject, body string) error
}
