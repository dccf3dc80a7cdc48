// Package statuspage serves the unauthenticated public view of an
// organization: current service status, open incidents, uptime reports and
// email subscriptions.
package statuspage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/statustrack/statustrack/internal/catalog"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/orgs"
	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
	"github.com/statustrack/statustrack/internal/uptime"
)

// Service implements the public status page reads and subscription writes.
type Service struct {
	repo      Repository
	orgs      OrganizationSource
	services  ServiceSource
	incidents IncidentSource
	sender    EmailSender

	uptimeWindow time.Duration
	now          func() time.Time
}

// NewService creates a new status page service. sender may be nil; the
// subscription confirmation email is then skipped. A non-positive
// uptimeWindow falls back to the default 90 days.
func NewService(repo Repository, orgs OrganizationSource, services ServiceSource, incidents IncidentSource, sender EmailSender, uptimeWindow time.Duration) *Service {
	if uptimeWindow <= 0 {
		uptimeWindow = uptime.DefaultWindow
	}
	return &Service{
		repo:         repo,
		orgs:         orgs,
		services:     services,
		incidents:    incidents,
		sender:       sender,
		uptimeWindow: uptimeWindow,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// OrganizationSummary is the public subset of an organization.
type OrganizationSummary struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Slug    string `json:"slug"`
	LogoURL string `json:"logo_url,omitempty"`
}

// PublicStatus is the full public page payload.
type PublicStatus struct {
	Organization OrganizationSummary `json:"organization"`
	Services     []domain.Service    `json:"services"`
	Incidents    []domain.Incident   `json:"incidents"`
}

// Status returns the public page for a slug: the organization summary, its
// services and its unresolved incidents, newest first.
func (s *Service) Status(ctx context.Context, slug string) (*PublicStatus, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	services, err := s.services.ListByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	incidents, err := s.incidents.ListUnresolvedByOrganization(ctx, org.ID)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}

	return &PublicStatus{
		Organization: OrganizationSummary{
			ID:      org.ID,
			Name:    org.Name,
			Slug:    org.Slug,
			LogoURL: org.LogoURL,
		},
		Services:  services,
		Incidents: incidents,
	}, nil
}

// Uptime computes the trailing-window uptime report for one service of the
// slug's organization.
func (s *Service) Uptime(ctx context.Context, slug, serviceID string) (*uptime.Report, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	service, err := s.services.GetByID(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if service.OrganizationID != org.ID {
		return nil, catalog.ErrServiceNotFound
	}

	windowEnd := s.now()
	windowStart := windowEnd.Add(-s.uptimeWindow)
	events, err := s.repo.ListStatusEventsForWindow(ctx, serviceID, windowStart, windowEnd)
	if err != nil {
		return nil, fmt.Errorf("load status events: %w", err)
	}

	report := uptime.Compute(events, windowStart, windowEnd, service.Status)
	return &report, nil
}

// Subscribe registers an email address for the slug's notifications and
// sends a best-effort confirmation.
func (s *Service) Subscribe(ctx context.Context, slug, email string) (*domain.Subscriber, error) {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	subscriber := &domain.Subscriber{Email: email, OrganizationID: org.ID}
	if err := s.repo.CreateSubscriber(ctx, subscriber); err != nil {
		return nil, err
	}

	if s.sender != nil {
		subject := fmt.Sprintf("Subscribed to %s status updates", org.Name)
		body := fmt.Sprintf("You will receive status updates for %s.", org.Name)
		if err := s.sender.Send(ctx, []string{email}, subject, body); err != nil {
			ctxlog.FromContext(ctx).Warn("confirmation email failed",
				"organization_id", org.ID, "error", err)
		}
	}
	return subscriber, nil
}

// Unsubscribe removes an email address. It succeeds whether or not the slug
// or the address exists, so the endpoint reveals neither organizations nor
// subscribers.
func (s *Service) Unsubscribe(ctx context.Context, slug, email string) error {
	org, err := s.orgs.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, orgs.ErrOrganizationNotFound) {
			return nil
		}
		return err
	}
	return s.repo.DeleteSubscriber(ctx, org.ID, email)
}
