package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrDuplicateName    = errors.New("duplicate name")
	ErrInvalidReference = errors.New("invalid reference")
	ErrFetchFailed      = errors.New("fetch failed")
	ErrEmptyName        = errors.New("empty name")
	ErrNameTooLong      = errors.New("name too long (max 100 characters)")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidYear      = errors.New("invalid year")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
)

// DateLayout is the normalized storage format for entry dates.
const DateLayout = "2006-01-02"

type (
	// Expense is a top-level budget grouping owned by a user.
	Expense struct {
		ID         int64
		Name       string
		OwnerID    string
		Categories []Category
	}

	// Category is a named bucket of transactions within an expense.
	Category struct {
		ID           int64
		Name         string
		ExpenseID    int64
		Transactions []Transaction
	}

	// Transaction is a single dated monetary entry under a category.
	// Amounts are signed integers in currency minor units. Transactions
	// are immutable once created.
	Transaction struct {
		ID         int64
		Name       string
		Amount     int64
		Month      Month
		Year       int
		CategoryID int64
	}

	// Metric is a user-defined scoring dimension of an activity.
	Metric struct {
		Name  string `json:"name"`
		Score int64  `json:"score"`
	}

	// Activity is a tracked habit with user-defined metrics.
	Activity struct {
		ID      int64
		Name    string
		Color   string
		OwnerID string
		Metrics []Metric
	}

	// Entry is a single dated score record under an activity. Date is
	// always the normalized yyyy-mm-dd form.
	Entry struct {
		ID         int64
		ActivityID int64
		Date       string
		Score      int64
	}

	// ActivityWithEntries pairs an activity with its score entries.
	ActivityWithEntries struct {
		Activity
		Entries []Entry
	}
)

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}
	if len(name) > 100 {
		return ErrNameTooLong
	}
	return nil
}

func (e Expense) Validate() error {
	return validateName(e.Name)
}

func (c Category) Validate() error {
	return validateName(c.Name)
}

func (t Transaction) Validate() error {
	if err := validateName(t.Name); err != nil {
		return err
	}
	if !t.Month.Valid() {
		return ErrInvalidMonth
	}
	if t.Year < 1 || t.Year > 9999 {
		return ErrInvalidYear
	}
	return nil
}

func (a Activity) Validate() error {
	if err := validateName(a.Name); err != nil {
		return err
	}
	if strings.TrimSpace(a.Color) == "" {
		return errors.New("empty color")
	}
	for _, m := range a.Metrics {
		if strings.TrimSpace(m.Name) == "" {
			return errors.New("empty metric name")
		}
	}
	return nil
}

func (e Entry) Validate() error {
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return ErrInvalidDate
	}
	return nil
}

// NormalizeDate formats a timestamp as the canonical entry date key.
func NormalizeDate(t time.Time) string {
	return t.Format(DateLayout)
}
