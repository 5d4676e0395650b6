package util

import (
	"time"
)

// US equities extended-hours session, New York time.
const (
	sessionOpenHour  = 4
	sessionCloseHour = 20
)

// NewYork returns the America/New_York location, or UTC-5 if the zone
// database is unavailable.
func NewYork() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// EquitySession returns the extended-hours window (04:00-20:00 New York
// time) of the most recent weekday session that has opened at or before
// now. The end is capped at now. Exchange holidays are not modelled; a
// holiday window simply yields no bars.
func EquitySession(now time.Time, loc *time.Location) (start, end time.Time) {
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	if local.Hour() < sessionOpenHour {
		day = day.AddDate(0, 0, -1)
	}
	for day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
		day = day.AddDate(0, 0, -1)
	}

	start = day.Add(sessionOpenHour * time.Hour)
	end = day.Add(sessionCloseHour * time.Hour)
	if end.After(now) {
		end = now
	}
	return start, end
}

// RollingDay returns the 24 hours ending at now, the session of markets
// that never close.
func RollingDay(now time.Time) (start, end time.Time) {
	return now.Add(-24 * time.Hour), now
}
