package util

import "time"

// UnixMs converts a time to milliseconds since the epoch.
func UnixMs(t time.Time) int64 {
	return t.UnixMilli()
}

// FromUnixMs converts milliseconds since the epoch to a time.
func FromUnixMs(ms int64) time.Time {
	return time.UnixMilli(ms)
}

// HoursBetween returns the elapsed hours from `from` (ms) to `to` (ms).
func HoursBetween(from, to int64) float64 {
	return float64(to-from) / float64(time.Hour/time.Millisecond)
}
