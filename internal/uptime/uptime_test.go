package uptime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statustrack/statustrack/internal/domain"
)

var base = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func evt(ts time.Time, status domain.ServiceStatus) domain.StatusEvent {
	return domain.StatusEvent{ServiceID: "svc-1", NewStatus: status, Timestamp: ts}
}

func days(n int) time.Duration { return time.Duration(n) * 24 * time.Hour }

func TestComputeFreshService(t *testing.T) {
	tests := []struct {
		name    string
		current domain.ServiceStatus
		want    float64
	}{
		{"operational", domain.StatusOperational, 100.0},
		{"degraded counts as up", domain.StatusDegradedPerformance, 100.0},
		{"major outage", domain.StatusMajorOutage, 0.0},
		{"partial outage", domain.StatusPartialOutage, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := Compute(nil, base, base.Add(days(90)), tt.current)
			assert.Equal(t, tt.want, report.OverallUptimePercentage)
			require.Len(t, report.DailyStatuses, 90)
			assert.Equal(t, tt.current, report.DailyStatuses[0].Status)
			assert.Equal(t, tt.current, report.DailyStatuses[89].Status)
		})
	}
}

func TestComputeHalfWindowOutage(t *testing.T) {
	// Service created operational, goes down 10 days later, queried 20 days
	// after creation over a trailing 90-day window.
	created := base
	end := created.Add(days(20))
	start := end.Add(-days(90))

	events := []domain.StatusEvent{
		evt(created, domain.StatusOperational),
		evt(created.Add(days(10)), domain.StatusMajorOutage),
	}

	report := Compute(events, start, end, domain.StatusMajorOutage)

	assert.Equal(t, 50.0, report.OverallUptimePercentage)
	require.Len(t, report.DailyStatuses, 90)
	assert.Equal(t, domain.StatusOperational, report.DailyStatuses[79].Status)
	assert.Equal(t, domain.StatusMajorOutage, report.DailyStatuses[80].Status)
	assert.Equal(t, domain.StatusMajorOutage, report.DailyStatuses[89].Status)
}

func TestComputeMaintenanceExcluded(t *testing.T) {
	end := base.Add(days(10))
	events := []domain.StatusEvent{
		evt(base, domain.StatusOperational),
		evt(base.Add(days(4)), domain.StatusMaintenance),
		evt(base.Add(days(6)), domain.StatusMajorOutage),
	}

	// 4 days up, 2 days maintenance (skipped), 4 days down.
	report := Compute(events, base, end, domain.StatusMajorOutage)
	assert.Equal(t, 50.0, report.OverallUptimePercentage)
}

func TestComputeMaintenanceOnlyHistoryFallsBackToLiveStatus(t *testing.T) {
	end := base.Add(days(5))
	events := []domain.StatusEvent{evt(base, domain.StatusMaintenance)}

	up := Compute(events, base, end, domain.StatusOperational)
	assert.Equal(t, 100.0, up.OverallUptimePercentage)

	down := Compute(events, base, end, domain.StatusMajorOutage)
	assert.Equal(t, 0.0, down.OverallUptimePercentage)
}

func TestComputeCarryInSeedsWindow(t *testing.T) {
	start := base
	end := base.Add(days(10))

	// The only event predates the window; its status governs every interval
	// even though the live status has since recovered.
	events := []domain.StatusEvent{evt(start.Add(-days(5)), domain.StatusMajorOutage)}

	report := Compute(events, start, end, domain.StatusOperational)
	assert.Equal(t, 0.0, report.OverallUptimePercentage)
	for _, d := range report.DailyStatuses {
		assert.Equal(t, domain.StatusMajorOutage, d.Status)
	}
}

func TestComputeLatestCarryInWins(t *testing.T) {
	start := base
	end := base.Add(days(10))
	events := []domain.StatusEvent{
		evt(start.Add(-days(9)), domain.StatusMajorOutage),
		evt(start.Add(-days(1)), domain.StatusOperational),
	}

	report := Compute(events, start, end, domain.StatusMajorOutage)
	// One interval from the carry-in through the window end, operational.
	assert.Equal(t, 100.0, report.OverallUptimePercentage)
}

func TestComputeUnknownStatusDegradesToOperational(t *testing.T) {
	end := base.Add(days(10))
	events := []domain.StatusEvent{evt(base, domain.ServiceStatus("bogus"))}

	report := Compute(events, base, end, domain.StatusMajorOutage)
	assert.Equal(t, 100.0, report.OverallUptimePercentage)
	assert.Equal(t, domain.StatusOperational, report.DailyStatuses[0].Status)
}

func TestComputeRoundsToFourDecimals(t *testing.T) {
	end := base.Add(days(3))
	events := []domain.StatusEvent{
		evt(base, domain.StatusOperational),
		evt(base.Add(days(1)), domain.StatusMajorOutage),
	}

	report := Compute(events, base, end, domain.StatusMajorOutage)
	assert.Equal(t, 33.3333, report.OverallUptimePercentage)
}

func TestComputePercentageBounds(t *testing.T) {
	end := base.Add(days(30))
	events := []domain.StatusEvent{
		evt(base, domain.StatusDegradedPerformance),
		evt(base.Add(days(7)), domain.StatusMinorOutage),
		evt(base.Add(days(9)), domain.StatusOperational),
		evt(base.Add(days(20)), domain.StatusPartialOutage),
	}

	report := Compute(events, base, end, domain.StatusPartialOutage)
	assert.GreaterOrEqual(t, report.OverallUptimePercentage, 0.0)
	assert.LessOrEqual(t, report.OverallUptimePercentage, 100.0)
	// 7 up + 11 up of 30 days.
	assert.Equal(t, 60.0, report.OverallUptimePercentage)
}

func TestDailyStatusesRunningMaximum(t *testing.T) {
	end := base.Add(days(90))
	events := []domain.StatusEvent{
		evt(base, domain.StatusOperational),
		evt(base.Add(days(30)), domain.StatusMinorOutage),
		evt(base.Add(days(45)), domain.StatusOperational),
		evt(base.Add(days(60)), domain.StatusMajorOutage),
	}

	report := Compute(events, base, end, domain.StatusMajorOutage)
	require.Len(t, report.DailyStatuses, 90)

	prev := 0
	for i, d := range report.DailyStatuses {
		sev := d.Status.Severity()
		assert.GreaterOrEqual(t, sev, prev, "day %d regressed below an earlier day", i)
		prev = sev
	}
	// The recovery on day 45 never lowers the reported status.
	assert.Equal(t, domain.StatusMinorOutage, report.DailyStatuses[45].Status)
	assert.Equal(t, domain.StatusMajorOutage, report.DailyStatuses[60].Status)
}

func TestDailyStatusesDatesAscending(t *testing.T) {
	report := Compute(nil, base, base.Add(days(90)), domain.StatusOperational)
	require.Len(t, report.DailyStatuses, 90)
	assert.Equal(t, "2025-01-01", report.DailyStatuses[0].Date)
	assert.Equal(t, "2025-01-02", report.DailyStatuses[1].Date)
	assert.Equal(t, "2025-03-31", report.DailyStatuses[89].Date)
}
