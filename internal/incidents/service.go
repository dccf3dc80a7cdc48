// Package incidents manages incident lifecycle, timeline updates and the
// notifications they trigger.
package incidents

import (
	"context"
	"fmt"
	"time"

	"github.com/statustrack/statustrack/internal/authz"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/pkg/ctxlog"
	"github.com/statustrack/statustrack/internal/realtime"
)

// Service implements incident business logic.
type Service struct {
	repo        Repository
	orgs        OrganizationGetter
	services    ServiceGetter
	broadcaster Broadcaster
	notifier    Notifier
}

// NewService creates a new incident service. broadcaster and notifier may be
// nil; change events and subscriber emails are then skipped.
func NewService(repo Repository, orgs OrganizationGetter, services ServiceGetter, broadcaster Broadcaster, notifier Notifier) *Service {
	return &Service{repo: repo, orgs: orgs, services: services, broadcaster: broadcaster, notifier: notifier}
}

// CreateInput contains incident creation data.
type CreateInput struct {
	Title            string
	Status           domain.IncidentStatus
	Severity         domain.IncidentSeverity
	AffectedServices []string
	Message          string
}

// Create opens an incident. Only organization owners and admins may create
// incidents; every affected service must belong to the organization.
func (s *Service) Create(ctx context.Context, actorID, orgID string, input CreateInput) (*domain.Incident, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionManageIncident, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}

	status := input.Status
	if status == "" {
		status = domain.IncidentInvestigating
	}
	if !status.IsValid() {
		return nil, ErrInvalidStatus
	}
	severity := input.Severity
	if severity == "" {
		severity = domain.SeverityMinor
	}
	if !severity.IsValid() {
		return nil, ErrInvalidSeverity
	}

	for _, serviceID := range input.AffectedServices {
		service, err := s.services.GetByID(ctx, serviceID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotInOrganization, serviceID)
		}
		if service.OrganizationID != orgID {
			return nil, fmt.Errorf("%w: %s", ErrServiceNotInOrganization, serviceID)
		}
	}

	incident := &domain.Incident{
		OrganizationID:   orgID,
		Title:            input.Title,
		Status:           status,
		Severity:         severity,
		AffectedServices: input.AffectedServices,
		CreatedBy:        actorID,
	}
	if status == domain.IncidentResolved {
		now := time.Now().UTC()
		incident.ResolvedAt = &now
	}
	if err := s.repo.Create(ctx, incident); err != nil {
		return nil, fmt.Errorf("create incident: %w", err)
	}

	if input.Message != "" {
		update := &domain.IncidentUpdate{Message: input.Message, CreatedBy: actorID}
		if err := s.repo.AddUpdate(ctx, incident.ID, update); err != nil {
			return nil, fmt.Errorf("add initial update: %w", err)
		}
		incident.Updates = []domain.IncidentUpdate{*update}
	}

	s.broadcast(orgID, realtime.EventIncidentNew, incident)
	s.notify(ctx, orgID,
		fmt.Sprintf("[%s] New incident: %s", org.Name, incident.Title),
		incidentBody(incident, input.Message),
	)
	return incident, nil
}

// List returns all incidents of an organization, newest first; members only.
func (s *Service) List(ctx context.Context, actorID, orgID string) ([]domain.Incident, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if err := authz.Can(authz.ActionViewIncidents, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return s.repo.ListByOrganization(ctx, orgID)
}

// Get returns an incident; members of its organization only.
func (s *Service) Get(ctx context.Context, actorID, incidentID string) (*domain.Incident, error) {
	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return nil, err
	}
	org, err := s.orgs.GetByID(ctx, incident.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("load parent organization: %w", err)
	}
	if err := authz.Can(authz.ActionViewIncidents, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, err
	}
	return incident, nil
}

// UpdateInput contains partial incident update data.
type UpdateInput struct {
	Title            *string
	Status           *domain.IncidentStatus
	Severity         *domain.IncidentSeverity
	AffectedServices *[]string
	Message          *string
}

func (in UpdateInput) empty() bool {
	return in.Title == nil && in.Status == nil && in.Severity == nil &&
		in.AffectedServices == nil && in.Message == nil
}

// Update applies a partial update. Transitioning to resolved stamps
// ResolvedAt; transitioning away clears it. A message appends a timeline
// update and notifies subscribers.
func (s *Service) Update(ctx context.Context, actorID, incidentID string, input UpdateInput) (*domain.Incident, error) {
	if input.empty() {
		return nil, ErrEmptyUpdate
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, ErrInvalidStatus
	}
	if input.Severity != nil && !input.Severity.IsValid() {
		return nil, ErrInvalidSeverity
	}

	incident, org, err := s.authorize(ctx, actorID, incidentID)
	if err != nil {
		return nil, err
	}

	if input.AffectedServices != nil {
		for _, serviceID := range *input.AffectedServices {
			service, err := s.services.GetByID(ctx, serviceID)
			if err != nil || service.OrganizationID != org.ID {
				return nil, fmt.Errorf("%w: %s", ErrServiceNotInOrganization, serviceID)
			}
		}
		incident.AffectedServices = *input.AffectedServices
	}
	if input.Title != nil {
		incident.Title = *input.Title
	}
	if input.Severity != nil {
		incident.Severity = *input.Severity
	}
	if input.Status != nil && *input.Status != incident.Status {
		incident.Status = *input.Status
		if incident.Status == domain.IncidentResolved {
			now := time.Now().UTC()
			incident.ResolvedAt = &now
		} else {
			incident.ResolvedAt = nil
		}
	}

	if err := s.repo.Update(ctx, incident); err != nil {
		return nil, fmt.Errorf("update incident: %w", err)
	}

	if input.Message != nil && *input.Message != "" {
		update := &domain.IncidentUpdate{Message: *input.Message, CreatedBy: actorID}
		if err := s.repo.AddUpdate(ctx, incident.ID, update); err != nil {
			return nil, fmt.Errorf("add update: %w", err)
		}
		incident.Updates = append([]domain.IncidentUpdate{*update}, incident.Updates...)
		s.notify(ctx, org.ID,
			fmt.Sprintf("[%s] Incident update: %s", org.Name, incident.Title),
			incidentBody(incident, *input.Message),
		)
	}

	s.broadcast(org.ID, realtime.EventIncidentUpdate, incident)
	return incident, nil
}

// Delete removes an incident and its timeline.
func (s *Service) Delete(ctx context.Context, actorID, incidentID string) error {
	incident, org, err := s.authorize(ctx, actorID, incidentID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, incidentID); err != nil {
		return err
	}
	s.broadcast(org.ID, realtime.EventIncidentDeleted, map[string]string{"id": incident.ID})
	return nil
}

func (s *Service) authorize(ctx context.Context, actorID, incidentID string) (*domain.Incident, *domain.Organization, error) {
	incident, err := s.repo.GetByID(ctx, incidentID)
	if err != nil {
		return nil, nil, err
	}
	org, err := s.orgs.GetByID(ctx, incident.OrganizationID)
	if err != nil {
		return nil, nil, fmt.Errorf("load parent organization: %w", err)
	}
	if err := authz.Can(authz.ActionManageIncident, authz.Input{ActorID: actorID, Organization: org}); err != nil {
		return nil, nil, err
	}
	return incident, org, nil
}

func incidentBody(incident *domain.Incident, message string) string {
	body := fmt.Sprintf("%s\nStatus: %s\nSeverity: %s", incident.Title, incident.Status, incident.Severity)
	if message != "" {
		body += "\n\n" + message
	}
	return body
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
