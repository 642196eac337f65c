package domain

import "time"

// DailyRecord is the date-keyed set of movies served in daily challenge mode.
// Once stored for a date it is never modified.
type DailyRecord struct {
	Date      string
	Movies    []MovieSnapshot
	CreatedAt time.Time
}

// DateKeyLayout is the layout of the calendar date that keys a DailyRecord.
const DateKeyLayout = "2006-01-02"

// DateKey returns the UTC calendar date of t in DateKeyLayout.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateKeyLayout)
}
