package core

import "time"

type (
	// CalendarRow is one day-of-week bucket of a yearly heatmap grid.
	CalendarRow struct {
		Weekday time.Weekday
		Days    []time.Time
	}

	// Calendar is the full-week grid covering a year: seven rows keyed
	// Sunday through Saturday, spanning from the Sunday on or before
	// January 1st through the Saturday on or after December 31st.
	Calendar struct {
		Year int
		Rows []CalendarRow
	}
)

// BuildCalendar lays out the heatmap grid for a year. Every date in the
// covered range appears in exactly one row.
func BuildCalendar(year int) Calendar {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for start.Weekday() != time.Sunday {
		start = start.AddDate(0, 0, -1)
	}
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	for end.Weekday() != time.Saturday {
		end = end.AddDate(0, 0, 1)
	}

	cal := Calendar{Year: year, Rows: make([]CalendarRow, 7)}
	for i := range cal.Rows {
		cal.Rows[i].Weekday = time.Weekday(i)
	}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		row := &cal.Rows[int(d.Weekday())]
		row.Days = append(row.Days, d)
	}
	return cal
}

// DedupeEntries indexes entries by date. When several entries share a
// date the first one in slice order wins and the rest are ignored.
func DedupeEntries(entries []Entry) map[string]Entry {
	byDate := make(map[string]Entry, len(entries))
	for _, e := range entries {
		if _, taken := byDate[e.Date]; !taken {
			byDate[e.Date] = e
		}
	}
	return byDate
}
