package sheets

import "context"

// LedgerRow is one appended line of the external backup ledger.
type LedgerRow struct {
	Entity string
	ID     int64
	Name   string
	Detail string
	Amount int64
	Date   string
}

// LedgerAppender appends created rows to an external backup ledger.
type LedgerAppender interface {
	Append(ctx context.Context, row LedgerRow) (rowRef string, err error)
}
