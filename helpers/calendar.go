package helpers

import "time"

// All calendar math runs in IST (UTC+5:30). Streaks, daily/weekly mission
// boundaries and weekend checks are defined against IST wall-clock days no
// matter where the request came from.
var ISTLocation = time.FixedZone("IST", 5*3600+30*60)

// StartOfDayIST returns 00:00:00.000 IST of the calendar day containing t.
func StartOfDayIST(t time.Time) time.Time {
	local := t.In(ISTLocation)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, ISTLocation)
}

// StartOfWeekIST returns 00:00:00.000 IST of the Monday of the week
// containing t. Sunday counts as day 7, so the result is always the most
// recent Monday at or before t, never a future instant.
func StartOfWeekIST(t time.Time) time.Time {
	day := StartOfDayIST(t)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	return day.AddDate(0, 0, -(weekday - 1))
}

// StartOfMonthIST returns 00:00:00.000 IST of day 1 of the month containing t.
func StartOfMonthIST(t time.Time) time.Time {
	local := t.In(ISTLocation)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, ISTLocation)
}

// DayKeyIST buckets an instant into its IST calendar day, e.g. "2026-08-28".
func DayKeyIST(t time.Time) string {
	return t.In(ISTLocation).Format("2006-01-02")
}

// IsWeekendIST reports whether t falls on a Saturday or Sunday in IST.
func IsWeekendIST(t time.Time) bool {
	wd := t.In(ISTLocation).Weekday()
	return wd == time.Saturday || wd == time.Sunday
}
