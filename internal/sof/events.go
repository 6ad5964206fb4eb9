package sof

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// durationTolerance is the acceptable rounding slack when comparing a
// reported duration_hours against the value computed from timestamps.
const durationTolerance = 0.05

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02 Jan 2006 15:04",
	"15:04:05",
	"15:04",
}

// parseTimestamp combines a date and a time string and parses them against
// the accepted layouts. Either part may be empty.
func parseTimestamp(date, clock string) (time.Time, error) {
	combined := strings.TrimSpace(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
	if combined == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, combined); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", combined)
}

// DurationHours computes the elapsed hours between a start and end timestamp.
func DurationHours(startDate, startTime, endDate, endTime string) (float64, error) {
	start, err := parseTimestamp(startDate, startTime)
	if err != nil {
		return 0, fmt.Errorf("start: %w", err)
	}
	// Events without an explicit end date end the same day they start.
	if strings.TrimSpace(endDate) == "" {
		endDate = startDate
	}
	end, err := parseTimestamp(endDate, endTime)
	if err != nil {
		return 0, fmt.Errorf("end: %w", err)
	}
	return end.Sub(start).Hours(), nil
}

// TimingIssues reports policy violations in a record's events: every event
// must carry both start_time and end_time (equal for instantaneous events),
// and duration_hours must match the computed elapsed time when the two
// timestamps differ. These are prompt-enforced guidelines, so violations are
// surfaced for logging rather than rejected.
func TimingIssues(rec *Record) []string {
	var issues []string
	for i, ev := range rec.Events {
		label := fmt.Sprintf("event %d", i)
		if ev.EventID != nil {
			label = fmt.Sprintf("event %d", *ev.EventID)
		}

		hasStart := ev.StartTime != nil && strings.TrimSpace(*ev.StartTime) != ""
		hasEnd := ev.EndTime != nil && strings.TrimSpace(*ev.EndTime) != ""
		if hasStart != hasEnd {
			issues = append(issues, fmt.Sprintf("%s: start_time and end_time must both be populated", label))
			continue
		}
		if !hasStart {
			issues = append(issues, fmt.Sprintf("%s: missing start_time and end_time", label))
			continue
		}

		computed, err := DurationHours(deref(ev.StartDate), *ev.StartTime, deref(ev.EndDate), *ev.EndTime)
		if err != nil {
			// Free-form timestamps the parser does not understand are not a
			// policy violation on their own.
			continue
		}
		if computed == 0 {
			continue // instantaneous event
		}
		if ev.DurationHours == nil {
			issues = append(issues, fmt.Sprintf("%s: duration_hours missing for a %.2fh interval", label, computed))
			continue
		}
		if math.Abs(*ev.DurationHours-computed) > durationTolerance {
			issues = append(issues, fmt.Sprintf("%s: duration_hours %.2f does not match computed %.2f", label, *ev.DurationHours, computed))
		}
	}
	return issues
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
