package notifications

import (
	"context"
	"fmt"

	"github.com/statustrack/statustrack/internal/pkg/metrics"
)

// Service accepts notifications into the queue. It satisfies the Notifier
// interfaces of the mutating modules.
type Service struct {
	repo Repository
}

// NewService creates a new notification service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Enqueue stores a pending notification for the organization's subscribers.
// Recipients are resolved later, when the worker picks the message up.
func (s *Service) Enqueue(ctx context.Context, orgID, subject, body string) error {
	notification := &Notification{
		OrganizationID: orgID,
		Subject:        subject,
		Body:           body,
	}
	if err := s.repo.Enqueue(ctx, notification); err != nil {
		return fmt.Errorf("enqueue notification: %w", err)
	}
	metrics.NotificationsEnqueued.Inc()
	return nil
}
