package catalog

import (
	"context"

	"github.com/statustrack/statustrack/internal/domain"
)

// Repository defines storage operations for services and their status log.
type Repository interface {
	Create(ctx context.Context, service *domain.Service) error
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Service, error)
	Update(ctx context.Context, service *domain.Service) error
	Delete(ctx context.Context, id string) error

	AppendStatusEvent(ctx context.Context, event *domain.StatusEvent) error
	ListStatusEvents(ctx context.Context, serviceID string, limit, offset int) ([]domain.StatusEvent, error)
}

// OrganizationGetter loads the parent organization for permission checks.
type OrganizationGetter interface {
	GetByID(ctx context.Context, id string) (*domain.Organization, error)
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
