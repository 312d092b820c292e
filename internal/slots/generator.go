// Package slots turns a working window into the list of appointment start
// times it contains. Generation is pure: no clock, no store, no timezone.
package slots

import (
	"fmt"
	"strconv"
	"strings"
)

// Generate returns the ordered slot start times for a working window as
// "HH:MM" strings. The first slot starts at startTime and each following slot
// is durationMinutes later; a slot whose start would fall at or past endTime
// is excluded, regardless of where it would end.
//
// Degenerate input (duration <= 0, start >= end, unparseable times) yields an
// empty list rather than an error: a misconfigured day is a day with nothing
// bookable, not a failure.
func Generate(startTime, endTime string, durationMinutes int) []string {
	if durationMinutes <= 0 {
		return nil
	}

	start, err := parseMinutes(startTime)
	if err != nil {
		return nil
	}
	end, err := parseMinutes(endTime)
	if err != nil {
		return nil
	}
	if start >= end {
		return nil
	}

	var out []string
	for t := start; t < end; t += durationMinutes {
		out = append(out, formatMinutes(t))
	}
	return out
}

// ValidTime reports whether s is a parseable "HH:MM" wall-clock time.
func ValidTime(s string) bool {
	_, err := parseMinutes(s)
	return err == nil
}

// Minutes converts an "HH:MM" time to minutes since midnight.
func Minutes(s string) (int, error) {
	return parseMinutes(s)
}

// parseMinutes converts "HH:MM" to minutes since midnight.
func parseMinutes(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, fmt.Errorf("invalid time format: %s", s)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("invalid hour: %w", err)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("invalid minute: %w", err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("time out of range: %s", s)
	}
	return hour*60 + minute, nil
}

func formatMinutes(t int) string {
	return fmt.Sprintf("%02d:%02d", t/60, t%60)
}
