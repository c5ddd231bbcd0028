package domain

import "time"

// Filter selects the time window of a leaderboard query.
type Filter string

const (
	FilterDaily   Filter = "daily"
	FilterWeekly  Filter = "weekly"
	FilterAllTime Filter = "alltime"
)

// allTimeEpoch bounds the alltime window. No record predates the service.
var allTimeEpoch = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// Valid reports whether f is a supported filter.
func (f Filter) Valid() bool {
	switch f {
	case FilterDaily, FilterWeekly, FilterAllTime:
		return true
	}
	return false
}

// WindowStart returns the inclusive lower bound of the filter window
// relative to now. Daily starts at local midnight; weekly starts at the most
// recent Monday 00:00 local time (ISO 8601 week).
func (f Filter) WindowStart(now time.Time) time.Time {
	switch f {
	case FilterDaily:
		return midnight(now)
	case FilterWeekly:
		day := midnight(now)
		offset := (int(day.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
		return day.AddDate(0, 0, -offset)
	default:
		return allTimeEpoch
	}
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
