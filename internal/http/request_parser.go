package http

import (
	"errors"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trackr/internal/core"
)

var errNonPositiveAmount = errors.New("amount must be positive")

// ParsePeriodParams extracts a period from month/year values, using the
// current period as the default.
func ParsePeriodParams(values url.Values) (core.Period, error) {
	now := time.Now()
	p := core.Period{Month: core.MonthOf(now.Month()), Year: now.Year()}

	if v := strings.TrimSpace(values.Get("month")); v != "" {
		m, err := core.ParseMonth(v)
		if err != nil {
			return core.Period{}, err
		}
		p.Month = m
	}
	if v := strings.TrimSpace(values.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1 || y > 9999 {
			return core.Period{}, core.ErrInvalidYear
		}
		p.Year = y
	}

	return p, nil
}

// ParseAmount converts a decimal form value into currency minor units.
// The form accepts only positive amounts; sign conventions for stored
// rows are left to the data layer.
func ParseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, core.ErrInvalidAmount
	}
	// Normalize decimal comma
	s = strings.ReplaceAll(s, ",", ".")

	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, core.ErrInvalidAmount
	}
	for len(frac) < 2 {
		frac += "0"
	}

	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil || units < 0 {
		return 0, core.ErrInvalidAmount
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, core.ErrInvalidAmount
	}

	total := units*100 + cents
	if total <= 0 {
		return 0, errNonPositiveAmount
	}
	return total, nil
}

// ParseID parses a positive int64 form value.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.ErrInvalidReference
	}
	return id, nil
}

// ParseEntryDate normalizes a form date to the canonical yyyy-mm-dd key.
// An empty value defaults to today.
func ParseEntryDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.NormalizeDate(time.Now()), nil
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return "", core.ErrInvalidDate
	}
	return core.NormalizeDate(t), nil
}

// RequireMethod checks if the request method matches the expected method(s).
// Returns an error response builder if the method doesn't match.
func RequireMethod(method string, methods ...string) *HTMXResponseBuilder {
	for _, m := range methods {
		if method == m {
			return nil
		}
	}
	return MethodNotAllowedError(strings.Join(methods, ", "))
}
