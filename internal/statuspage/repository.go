package statuspage

import (
	"context"
	"time"

	"github.com/statustrack/statustrack/internal/domain"
)

// Repository defines storage operations owned by the public status page:
// subscriber management and the status event window reads behind uptime.
type Repository interface {
	// CreateSubscriber returns ErrAlreadySubscribed on a duplicate
	// (email, organization) pair.
	CreateSubscriber(ctx context.Context, subscriber *domain.Subscriber) error

	// DeleteSubscriber is a no-op when no matching row exists.
	DeleteSubscriber(ctx context.Context, orgID, email string) error

	// ListStatusEventsForWindow returns the events inside
	// [windowStart, windowEnd) plus the latest event before windowStart,
	// when one exists, at its original timestamp.
	ListStatusEventsForWindow(ctx context.Context, serviceID string, windowStart, windowEnd time.Time) ([]domain.StatusEvent, error)
}

// OrganizationSource resolves a status page by its public slug.
type OrganizationSource interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Organization, error)
}

// ServiceSource reads the service catalog.
type ServiceSource interface {
	GetByID(ctx context.Context, id string) (*domain.Service, error)
	ListByOrganization(ctx context.Context, orgID string) ([]domain.Service, error)
}

// IncidentSource reads open incidents.
type IncidentSource interface {
	ListUnresolvedByOrganization(ctx context.Context, orgID string) ([]domain.Incident, error)
}

// EmailSender delivers a single message; used for subscription confirmations.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}
