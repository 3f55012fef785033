// Package timeutil provides date and time formatting utilities for WalkPoints.
//
// Instants are stored as Unix nanoseconds (int64) and calendar days as
// "2006-01-02" strings in local time. This package converts between them
// and the human-readable forms used by the TUI and reports.
package timeutil

import (
	"fmt"
	"time"
)

// DayLayout is the storage format of a calendar day.
const DayLayout = "2006-01-02"

// FromNano converts a Unix nanosecond timestamp to time.Time.
func FromNano(ns int64) time.Time {
	return time.Unix(0, ns)
}

// NowNano returns the current time as Unix nanoseconds.
func NowNano() int64 {
	return time.Now().UnixNano()
}

// FormatDay returns the calendar day of t in its own location.
func FormatDay(t time.Time) string {
	return t.Format(DayLayout)
}

// ParseDay parses a stored calendar day in the local time zone.
func ParseDay(day string) (time.Time, error) {
	t, err := time.ParseInLocation(DayLayout, day, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing day %q: %w", day, err)
	}
	return t, nil
}

// DaysAgo returns the calendar day n days before t.
func DaysAgo(t time.Time, n int) string {
	return FormatDay(t.AddDate(0, 0, -n))
}

// FormatDate formats a Unix nanosecond timestamp as "Jan 2, 2006".
func FormatDate(ns int64) string {
	return FromNano(ns).Format("Jan 2, 2006")
}

// FormatMinutes formats active minutes. Examples: "45m", "1h 05m".
func FormatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh %02dm", minutes/60, minutes%60)
}

// FormatDistance formats meters as kilometers with one decimal.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// RelativeTime returns a human-readable relative time string measured
// from now. Examples: "just now", "5m ago", "2h ago", "yesterday", "3d ago".
func RelativeTime(ns int64, now time.Time) string {
	diff := now.Sub(FromNano(ns))

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
