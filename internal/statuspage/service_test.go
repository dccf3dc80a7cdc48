package statuspage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/catalog"
	"github.com/statustrack/statustrack/internal/domain"
	"github.com/statustrack/statustrack/internal/orgs"
)

type mockRepository struct {
	subscribers map[string]bool // orgID + "/" + email
	events      []domain.StatusEvent
}

func newMockRepository() *mockRepository {
	return &mockRepository{subscribers: make(map[string]bool)}
}

func (m *mockRepository) CreateSubscriber(_ context.Context, subscriber *domain.Subscriber) error {
	key := subscriber.OrganizationID + "/" + subscriber.Email
	if m.subscribers[key] {
		return ErrAlreadySubscribed
	}
	m.subscribers[key] = true
	subscriber.ID = "sub-1"
	subscriber.CreatedAt = time.Now().UTC()
	return nil
}

func (m *mockRepository) DeleteSubscriber(_ context.Context, orgID, email string) error {
	delete(m.subscribers, orgID+"/"+email)
	return nil
}

func (m *mockRepository) ListStatusEventsForWindow(_ context.Context, serviceID string, windowStart, windowEnd time.Time) ([]domain.StatusEvent, error) {
	var result []domain.StatusEvent
	var carryIn *domain.StatusEvent
	for i, event := range m.events {
		if event.ServiceID != serviceID {
			continue
		}
		if event.Timestamp.Before(windowStart) {
			if carryIn == nil || event.Timestamp.After(carryIn.Timestamp) {
				carryIn = &m.events[i]
			}
			continue
		}
		if event.Timestamp.Before(windowEnd) {
			result = append(result, event)
		}
	}
	if carryIn != nil {
		result = append([]domain.StatusEvent{*carryIn}, result...)
	}
	return result, nil
}

type mockOrgSource struct {
	org *domain.Organization
}

func (m *mockOrgSource) GetBySlug(_ context.Context, slug string) (*domain.Organization, error) {
	if m.org == nil || m.org.Slug != slug {
		return nil, orgs.ErrOrganizationNotFound
	}
	clone := *m.org
	return &clone, nil
}

type mockServiceSource struct {
	services map[string]*domain.Service
}

func (m *mockServiceSource) GetByID(_ context.Context, id string) (*domain.Service, error) {
	service, ok := m.services[id]
	if !ok {
		return nil, catalog.ErrServiceNotFound
	}
	return service, nil
}

func (m *mockServiceSource) ListByOrganization(_ context.Context, orgID string) ([]domain.Service, error) {
	var result []domain.Service
	for _, service := range m.services {
		if service.OrganizationID == orgID {
			result = append(result, *service)
		}
	}
	return result, nil
}

type mockIncidentSource struct {
	incidents []domain.Incident
}

func (m *mockIncidentSource) ListUnresolvedByOrganization(_ context.Context, orgID string) ([]domain.Incident, error) {
	var result []domain.Incident
	for _, incident := range m.incidents {
		if incident.OrganizationID == orgID && incident.Status != domain.IncidentResolved {
			result = append(result, incident)
		}
	}
	return result, nil
}

type mockSender struct {
	sent []string
	fail bool
}

func (m *mockSender) Send(_ context.Context, to []string, _, _ string) error {
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.sent = append(m.sent, to...)
	return nil
}

type fixture struct {
	svc       *Service
	repo      *mockRepository
	incidents *mockIncidentSource
	sender    *mockSender
}

func newFixture() *fixture {
	repo := newMockRepository()
	sender := &mockSender{}
	incidents := &mockIncidentSource{}
	org := &domain.Organization{ID: "org-1", Name: "Acme", Slug: "acme", LogoURL: "https://acme.example/logo.png"}
	services := &mockServiceSource{services: map[string]*domain.Service{
		"svc-1": {ID: "svc-1", OrganizationID: "org-1", Name: "API", Status: domain.StatusOperational},
		"svc-x": {ID: "svc-x", OrganizationID: "org-other", Name: "Other", Status: domain.StatusOperational},
	}}
	svc := NewService(repo, &mockOrgSource{org: org}, services, incidents, sender, 0)
	return &fixture{svc: svc, repo: repo, incidents: incidents, sender: sender}
}

func TestStatusPage(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	f.incidents.incidents = []domain.Incident{
		{ID: "inc-1", OrganizationID: "org-1", Title: "Open", Status: domain.IncidentInvestigating},
		{ID: "inc-2", OrganizationID: "org-1", Title: "Done", Status: domain.IncidentResolved},
	}

	page, err := f.svc.Status(ctx, "acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme", page.Organization.Name)
	assert.Equal(t, "acme", page.Organization.Slug)
	require.Len(t, page.Services, 1)
	require.Len(t, page.Incidents, 1)
	assert.Equal(t, "Open", page.Incidents[0].Title)

	_, err = f.svc.Status(ctx, "ghost")
	assert.ErrorIs(t, err, orgs.ErrOrganizationNotFound)
}

func TestUptimeReport(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }
	windowStart := now.Add(-f.svc.uptimeWindow)

	prior := domain.StatusOperational
	f.repo.events = []domain.StatusEvent{
		{ServiceID: "svc-1", NewStatus: domain.StatusOperational, Timestamp: windowStart.Add(-24 * time.Hour)},
		{ServiceID: "svc-1", OldStatus: &prior, NewStatus: domain.StatusMajorOutage, Timestamp: windowStart.Add(45 * 24 * time.Hour)},
	}

	// The carry-in event keeps its pre-window timestamp, so the up interval
	// spans 46 of 91 accounted days.
	report, err := f.svc.Uptime(ctx, "acme", "svc-1")
	require.NoError(t, err)
	assert.InDelta(t, 50.5495, report.OverallUptimePercentage, 0.0001)
	assert.Len(t, report.DailyStatuses, 90)

	_, err = f.svc.Uptime(ctx, "acme", "svc-x")
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
	_, err = f.svc.Uptime(ctx, "acme", "svc-missing")
	assert.ErrorIs(t, err, catalog.ErrServiceNotFound)
}

func TestSubscribe(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	subscriber, err := f.svc.Subscribe(ctx, "acme", "reader@example.com")
	require.NoError(t, err)
	assert.Equal(t, "org-1", subscriber.OrganizationID)
	assert.Equal(t, []string{"reader@example.com"}, f.sender.sent)

	_, err = f.svc.Subscribe(ctx, "acme", "reader@example.com")
	assert.ErrorIs(t, err, ErrAlreadySubscribed)

	_, err = f.svc.Subscribe(ctx, "ghost", "reader@example.com")
	assert.ErrorIs(t, err, orgs.ErrOrganizationNotFound)
}

func TestSubscribeConfirmationFailureIsNotFatal(t *testing.T) {
	f := newFixture()
	f.sender.fail = true

	_, err := f.svc.Subscribe(context.Background(), "acme", "reader@example.com")
	assert.NoError(t, err)
}

func TestUnsubscribeNeverRevealsExistence(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Subscribe(ctx, "acme", "reader@example.com")
	require.NoError(t, err)

	require.NoError(t, f.svc.Unsubscribe(ctx, "acme", "reader@example.com"))
	require.NoError(t, f.svc.Unsubscribe(ctx, "acme", "stranger@example.com"))

	// An unknown page answers the same as a known one.
	assert.NoError(t, f.svc.Unsubscribe(ctx, "ghost", "reader@example.com"))
}

func TestIPLimiterBurst(t *testing.T) {
	limiter := newIPLimiter(1, 2)

	assert.True(t, limiter.allow("10.0.0.1"))
	assert.True(t, limiter.allow("10.0.0.1"))
	assert.False(t, limiter.allow("10.0.0.1"))

	// Separate IPs get separate buckets.
	assert.True(t, limiter.allow("10.0.0.2"))
}

func TestMockEventWindowHelper(t *testing.T) {
	// Guards the carry-in contract the real repository implements.
	repo := newMockRepository()
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.events = []domain.StatusEvent{
		{ServiceID: "svc-1", NewStatus: domain.StatusOperational, Timestamp: start.Add(-48 * time.Hour)},
		{ServiceID: "svc-1", NewStatus: domain.StatusMajorOutage, Timestamp: start.Add(-24 * time.Hour)},
		{ServiceID: "svc-1", NewStatus: domain.StatusOperational, Timestamp: start.Add(time.Hour)},
	}

	events, err := repo.ListStatusEventsForWindow(context.Background(), "svc-1", start, start.Add(90*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, domain.StatusMajorOutage, events[0].NewStatus)
	assert.Equal(t, fmt.Sprint(start.Add(-24*time.Hour)), fmt.Sprint(events[0].Timestamp))
}
