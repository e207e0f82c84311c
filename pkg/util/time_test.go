package util

import (
	"testing"
	"time"
)

func TestUnixMsRoundTrip(t *testing.T) {
	at := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC)
	if got := FromUnixMs(UnixMs(at)); !got.Equal(at) {
		t.Fatalf("round trip mismatch: %v != %v", got, at)
	}
}

func TestHoursBetween(t *testing.T) {
	from := time.Date(2024, 10, 10, 10, 0, 0, 0, time.UTC).UnixMilli()
	to := time.Date(2024, 10, 10, 13, 30, 0, 0, time.UTC).UnixMilli()
	if got := HoursBetween(from, to); got != 3.5 {
		t.Fatalf("unexpected hours %v", got)
	}
}
