package domain

import "time"

// IncidentStatus represents the lifecycle stage of an incident.
type IncidentStatus string

const (
	IncidentInvestigating IncidentStatus = "investigating"
	IncidentIdentified    IncidentStatus = "identified"
	IncidentMonitoring    IncidentStatus = "monitoring"
	IncidentResolved      IncidentStatus = "resolved"
)

// IsValid checks if the status is a known incident status.
func (s IncidentStatus) IsValid() bool {
	switch s {
	case IncidentInvestigating, IncidentIdentified, IncidentMonitoring, IncidentResolved:
		return true
	}
	return false
}

// IncidentSeverity represents the impact level of an incident.
type IncidentSeverity string

const (
	SeverityMinor    IncidentSeverity = "minor"
	SeverityMajor    IncidentSeverity = "major"
	SeverityCritical IncidentSeverity = "critical"
)

// IsValid checks if the severity is a known severity.
func (s IncidentSeverity) IsValid() bool {
	switch s {
	case SeverityMinor, SeverityMajor, SeverityCritical:
		return true
	}
	return false
}

// Incident represents a disruption affecting one or more services.
// ResolvedAt is set exactly when Status transitions to resolved and cleared
// when it transitions away again.
type Incident struct {
	ID               string           `json:"id"`
	OrganizationID   string           `json:"organization_id"`
	Title            string           `json:"title"`
	Status           IncidentStatus   `json:"status"`
	Severity         IncidentSeverity `json:"severity"`
	AffectedServices []string         `json:"affected_services"`
	Updates          []IncidentUpdate `json:"updates"`
	CreatedBy        string           `json:"created_by"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	ResolvedAt       *time.Time       `json:"resolved_at,omitempty"`
}

// IncidentUpdate is a timeline entry on an incident. Updates are returned
// newest first.
type IncidentUpdate struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}
