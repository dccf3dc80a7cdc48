// Package uptime turns a service's sparse status-change log into an
// aggregate availability percentage and a per-day worst-status summary.
package uptime

import (
	"math"
	"sort"
	"time"

	"github.com/statustrack/statustrack/internal/domain"
)

// DefaultWindow is the trailing window used by the public uptime endpoint.
const DefaultWindow = 90 * 24 * time.Hour

// DailyStatus is the worst status ever observed up to and including a day.
type DailyStatus struct {
	Date   string               `json:"date"`
	Status domain.ServiceStatus `json:"status"`
}

// Report is the result of an uptime computation over a trailing window.
type Report struct {
	OverallUptimePercentage float64       `json:"overall_uptime_percentage"`
	DailyStatuses           []DailyStatus `json:"daily_statuses"`
}

// Compute walks the status-event log of a single service and produces a
// Report for [windowStart, windowEnd].
//
// The events slice may contain events before windowStart; only the most
// recent of those is kept as the carry-in establishing the status active
// when the window opens. Events after windowEnd are ignored. If no events
// exist at all, the whole window is attributed to currentStatus.
//
// Maintenance intervals are excluded from both the up and the total
// accumulator, so scheduled maintenance never counts against availability.
// Unknown status values degrade to operational instead of failing the
// computation.
func Compute(events []domain.StatusEvent, windowStart, windowEnd time.Time, currentStatus domain.ServiceStatus) Report {
	timeline := buildTimeline(events, windowStart, windowEnd, currentStatus)

	// Close the final interval with a synthetic event at the window end.
	last := timeline[len(timeline)-1]
	closed := append(timeline, point{ts: windowEnd, status: last.status})

	var upDur, totalDur time.Duration
	for i := 0; i < len(closed)-1; i++ {
		status := closed[i].status
		if status == domain.StatusMaintenance {
			continue
		}
		d := closed[i+1].ts.Sub(closed[i].ts)
		totalDur += d
		if status.IsUp() {
			upDur += d
		}
	}

	var pct float64
	if totalDur > 0 {
		pct = 100 * float64(upDur) / float64(totalDur)
	} else if normalize(currentStatus).IsUp() {
		pct = 100.0
	}

	return Report{
		OverallUptimePercentage: round4(pct),
		DailyStatuses:           dailySummary(timeline, windowStart, windowEnd),
	}
}

// point is a normalized status transition on the timeline.
type point struct {
	ts     time.Time
	status domain.ServiceStatus
}

func buildTimeline(events []domain.StatusEvent, windowStart, windowEnd time.Time, currentStatus domain.ServiceStatus) []point {
	var carryIn *point
	var inWindow []point

	for _, ev := range events {
		p := point{ts: ev.Timestamp, status: normalize(ev.NewStatus)}
		switch {
		case ev.Timestamp.Before(windowStart):
			if carryIn == nil || ev.Timestamp.After(carryIn.ts) {
				c := p
				carryIn = &c
			}
		case !ev.Timestamp.After(windowEnd):
			inWindow = append(inWindow, p)
		}
	}

	// Ties keep insertion order, which is the append order of the log.
	sort.SliceStable(inWindow, func(i, j int) bool { return inWindow[i].ts.Before(inWindow[j].ts) })

	var timeline []point
	if carryIn != nil {
		timeline = append(timeline, *carryIn)
	}
	timeline = append(timeline, inWindow...)

	if len(timeline) == 0 {
		// Fresh service with no history: the live status covers the window.
		timeline = append(timeline, point{ts: windowStart, status: normalize(currentStatus)})
	}
	return timeline
}

// dailySummary reports, for each day bucket of the window, the worst status
// among all events observed up to and including that day. The summary is a
// running maximum over severity: a day never reads healthier than any day
// before it.
func dailySummary(timeline []point, windowStart, windowEnd time.Time) []DailyStatus {
	days := int(windowEnd.Sub(windowStart) / (24 * time.Hour))
	if days < 1 {
		days = 1
	}

	daily := make([]DailyStatus, 0, days)
	worst := domain.StatusOperational
	idx := 0
	for d := 0; d < days; d++ {
		dayStart := windowStart.Add(time.Duration(d) * 24 * time.Hour)
		dayEnd := dayStart.Add(24 * time.Hour)
		for idx < len(timeline) && timeline[idx].ts.Before(dayEnd) {
			worst = domain.WorseOf(worst, timeline[idx].status)
			idx++
		}
		daily = append(daily, DailyStatus{
			Date:   dayStart.UTC().Format("2006-01-02"),
			Status: worst,
		})
	}
	return daily
}

func normalize(s domain.ServiceStatus) domain.ServiceStatus {
	if !s.IsValid() {
		return domain.StatusOperational
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
