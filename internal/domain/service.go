package domain

import "time"

// ServiceStatus represents the operational state of a service.
type ServiceStatus string

const (
	StatusOperational         ServiceStatus = "operational"
	StatusMaintenance         ServiceStatus = "maintenance"
	StatusDegradedPerformance ServiceStatus = "degraded_performance"
	StatusMinorOutage         ServiceStatus = "minor_outage"
	StatusPartialOutage       ServiceStatus = "partial_outage"
	StatusMajorOutage         ServiceStatus = "major_outage"
)

// statusSeverity orders statuses from healthiest to most severe. Unknown
// statuses rank as operational.
var statusSeverity = map[ServiceStatus]int{
	StatusOperational:         0,
	StatusMaintenance:         1,
	StatusDegradedPerformance: 2,
	StatusMinorOutage:         3,
	StatusPartialOutage:       4,
	StatusMajorOutage:         5,
}

// IsValid checks if the status is a known status.
func (s ServiceStatus) IsValid() bool {
	_, ok := statusSeverity[s]
	return ok
}

// Severity returns the status rank used to pick the worst status of a day.
func (s ServiceStatus) Severity() int {
	return statusSeverity[s]
}

// IsUp reports whether the status counts as available time. Maintenance is
// neither up nor down; it is excluded from uptime accounting entirely.
func (s ServiceStatus) IsUp() bool {
	return s == StatusOperational || s == StatusDegradedPerformance
}

// WorseOf returns the more severe of two statuses.
func WorseOf(a, b ServiceStatus) ServiceStatus {
	if b.Severity() > a.Severity() {
		return b
	}
	return a
}

// Service represents a monitored component shown on the status page.
type Service struct {
	ID             string        `json:"id"`
	OrganizationID string        `json:"organization_id"`
	Name           string        `json:"name"`
	Description    string        `json:"description,omitempty"`
	Status         ServiceStatus `json:"status"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

// StatusEvent is one entry in a service's append-only status log. OldStatus
// is nil for the event written at service creation.
type StatusEvent struct {
	ID        string         `json:"id"`
	ServiceID string         `json:"service_id"`
	OldStatus *ServiceStatus `json:"old_status,omitempty"`
	NewStatus ServiceStatus  `json:"new_status"`
	Timestamp time.Time      `json:"timestamp"`
}
