// Package timeutil provides epoch-millisecond helpers and human-readable
// duration formatting for voice presence totals.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// Millis converts a time to epoch milliseconds. The zero time maps to 0.
func Millis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromMillis converts epoch milliseconds to a time. 0 maps to the zero time.
func FromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// DurationMillis returns a duration as whole milliseconds, clamped at zero.
func DurationMillis(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return d.Milliseconds()
}

// FormatVoiceTime renders an accumulated voice total for display.
// Granularity coarsens as the total grows:
//
//	< 1 hour    "42m"
//	< 1 day     "3h 12m"
//	otherwise   "2d 5h"
func FormatVoiceTime(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 1000 / 60
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours%24)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes%60)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}

// FormatRelative renders how long ago a timestamp was, for "last activity"
// hints. The zero time renders as "never".
func FormatRelative(t time.Time, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
