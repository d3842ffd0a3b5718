package core

import (
	"strconv"
	"strings"
	"time"
)

// Month is one of the 12 fixed lowercase three-letter codes used in
// transaction rows and totals keys.
type Month string

const (
	Jan Month = "jan"
	Feb Month = "feb"
	Mar Month = "mar"
	Apr Month = "apr"
	May Month = "may"
	Jun Month = "jun"
	Jul Month = "jul"
	Aug Month = "aug"
	Sep Month = "sep"
	Oct Month = "oct"
	Nov Month = "nov"
	Dec Month = "dec"
)

// Months lists the codes in calendar order, for iteration and rendering.
var Months = [12]Month{Jan, Feb, Mar, Apr, May, Jun, Jul, Aug, Sep, Oct, Nov, Dec}

// Valid reports whether m is one of the 12 known codes.
func (m Month) Valid() bool {
	for _, known := range Months {
		if m == known {
			return true
		}
	}
	return false
}

// ParseMonth normalizes and validates a month code.
func ParseMonth(s string) (Month, error) {
	m := Month(strings.ToLower(strings.TrimSpace(s)))
	if !m.Valid() {
		return "", ErrInvalidMonth
	}
	return m, nil
}

// MonthOf returns the code for a calendar month.
func MonthOf(m time.Month) Month {
	return Months[int(m)-1]
}

// Time returns the time.Month for a valid code, or 0 otherwise.
func (m Month) Time() time.Month {
	for i, known := range Months {
		if m == known {
			return time.Month(i + 1)
		}
	}
	return 0
}

// Period identifies one month of one year. It is the composite key for
// category totals, replacing ad-hoc "month_year" string concatenation.
type Period struct {
	Month Month
	Year  int
}

// String renders the period in its wire form, e.g. "jan_2025".
func (p Period) String() string {
	return string(p.Month) + "_" + strconv.Itoa(p.Year)
}

// ParsePeriod parses the "month_year" wire form.
func ParsePeriod(s string) (Period, error) {
	idx := strings.LastIndexByte(s, '_')
	if idx < 0 {
		return Period{}, ErrInvalidMonth
	}
	m, err := ParseMonth(s[:idx])
	if err != nil {
		return Period{}, err
	}
	year, err := strconv.Atoi(s[idx+1:])
	if err != nil || year < 1 || year > 9999 {
		return Period{}, ErrInvalidYear
	}
	return Period{Month: m, Year: year}, nil
}

// Before orders periods chronologically, for stable rendering of totals
// columns.
func (p Period) Before(q Period) bool {
	if p.Year != q.Year {
		return p.Year < q.Year
	}
	return p.Month.Time() < q.Month.Time()
}
