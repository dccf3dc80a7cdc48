// Package catalog manages an organization's monitored services and their
// append-only status log.
package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
	"github.com/statustrack/statustrack/internal/realtime"
)

// Service implements service catalog business logic.
type Service struct {
	repo        Repository
	orgs        OrganizationGetter
	broadcaster Broadcaster
	notifier    Notifier
}

// NewService creates a new catalog service. broadcaster and notifier may be
// nil; change events and subscriber emails are then skipped.
func NewService(repo Repository, orgs OrganizationGetter, broadcaster Broadcaster, notifier Notifier) *Service {
	return &Service{repo: repo, orgs: orgs, broadcaster: broadcaster, notifier: notifier}
}

// CreateInput contains service creation data.
type CreateInput struct {
	Name        string
	Description string
	Status      domain.ServiceStatus
}

// Create registers a service and writes the first entry of its status log.
func (s *Service) Create(ctx context.Context, actorID, orgID string, input CreateInput) (*domain.Service, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageService, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.StatusOperational
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}

	service := &domain.Service{
		OrganizationID: orgID,
		Name:           input.Name,
		Description:    input.Description,
		Status:         status,
	}
	if err := s.repo.Create(ctx, service); err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	event := &domain.StatusEvent{
		ServiceID: service.ID,
		NewStatus: status,
		Timestamp: service.CreatedAt,
	}
	if err := s.repo.AppendStatusEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("append initial status event: %w", err)
	}

	s.broadcast(orgID, realtime.EventServiceCreated, service)
	return service, nil
}

// List returns the services of an organization; members only.
func (s *Service) List(ctx context.Context, actorID, orgID string) ([]domain.Service, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageService, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Get returns a service; members of its organization only.
func (s *Service) Get(ctx context.Context, actorID, serviceID string) (*domain.Service, error) {
	service, _, err := s.authorize(ctx, actorID, serviceID)
	return service, err
}

// UpdateInput contains partial service update data.
type UpdateInput struct {
	Name        *string
	Description *string
	Status      *domain.ServiceStatus
}

// Update applies a partial update. A status change appends exactly one status
// event and notifies subscribers; updates that repeat the current status do
// not touch the log.
func (s *Service) Update(ctx context.Context, actorID, serviceID string, input UpdateInput) (*domain.Service, error) {
	if input.Name == nil && input.Description == nil && input.Status == nil {
		return nil, ErrEmptyUpdate
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}

	service, org, err := s.authorize(ctx, actorID, serviceID)
	if err != nil {
		return nil, err
	}

	oldStatus := service.Status
	if input.Name != nil {
		service.Name = *input.Name
	}
	if input.Description != nil {
		service.Description = *input.Description
	}
	if input.Status != nil {
		service.Status = *input.Status
	}
	if err := s.repo.Update(ctx, service); err != nil {
		return nil, fmt.Errorf("update service: %w", err)
	}

	if service.Status != oldStatus {
		event := &domain.StatusEvent{
			ServiceID: service.ID,
			OldStatus: &oldStatus,
			NewStatus: service.Status,
			Timestamp: time.Now().UTC(),
		}
		if err := s.repo.AppendStatusEvent(ctx, event); err != nil {
			return nil, fmt.Errorf("append status event: %w", err)
		}
		s.notify(ctx, org.ID,
			fmt.Sprintf("[%s] %s status changed", org.Name, service.Name),
			fmt.Sprintf("%s changed from %s to %s.", service.Name, oldStatus, service.Status),
		)
	}

	s.broadcast(org.ID, realtime.EventServiceUpdated, service)
	return service, nil
}

// Delete removes a service and its status log.
func (s *Service) Delete(ctx context.Context, actorID, serviceID string) error {
	service, org, err := s.authorize(ctx, actorID, serviceID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, serviceID); err != nil {
		return err
	}
	s.broadcast(org.ID, realtime.EventServiceDeleted, map[string]string{"id": service.ID})
	return nil
}

const (
	defaultStatusLogLimit = 50
	maxStatusLogLimit     = 500
)

// StatusLog returns status events newest first; members only.
func (s *Service) StatusLog(ctx context.Context, actorID, serviceID string, limit, offset int) ([]domain.StatusEvent, error) {
	if _, _, err := s.authorize(ctx, actorID, serviceID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultStatusLogLimit
	}
	if limit > maxStatusLogLimit {
		limit = maxStatusLogLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListStatusEvents(ctx, serviceID, limit, offset)
}

func (s *Service) authorize(ctx context.Context, actorID, serviceID string) (*domain.Service, *domain.Organization, error) {
	service, err := s.repo.GetByID(ctx, serviceID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.orgs.GetByID(ctx, service.OrganizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load parent organization: %w", err)
	}
	if err := authz.Can(authz.ActionManageService, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, nil, err
	}
	return service, org, nil
}

func (s *Service) broadcast(orgID, event string, payload any) {
	if s.broadcaster != nil {
		s.broadcaster.Broadcast(orgID, event, payload)
	}
}

// notify enqueues a subscriber email. Delivery is best-effort; failures are
// logged and never fail the mutation.
func (s *Service) notify(ctx context.Context, orgID, subject, body string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Enqueue(ctx, orgID, subject, body); err != nil {
		ctxlog.FromContext(ctx).Error("enqueue notification", "organization_id", orgID, "error", err)
	}
}
