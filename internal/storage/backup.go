package storage

import (
	"context"
	"fmt"

	"trackr/internal/core"
)

// Entities the backup pipeline knows how to describe.
const (
	EntityExpense     = "expense"
	EntityCategory    = "category"
	EntityTransaction = "transaction"
	EntityActivity    = "activity"
	EntityEntry       = "entry"
)

// DescribeRow flattens a created row into the ledger form appended to
// the backup spreadsheet by the worker.
func (r *SQLiteRepository) DescribeRow(ctx context.Context, entity string, id int64) (BackupRow, error) {
	row := BackupRow{Entity: entity, ID: id}

	switch entity {
	case EntityExpense:
		err := r.db.QueryRowContext(ctx,
			`SELECT name, owner_id FROM expenses WHERE id = ?`, id).
			Scan(&row.Name, &row.Detail)
		if err != nil {
			return BackupRow{}, fmt.Errorf("describe expense %d: %w", id, translateErr(err))
		}

	case EntityCategory:
		err := r.db.QueryRowContext(ctx,
			`SELECT c.name, e.name FROM categories c
			 INNER JOIN expenses e ON e.id = c.expense_id
			 WHERE c.id = ?`, id).
			Scan(&row.Name, &row.Detail)
		if err != nil {
			return BackupRow{}, fmt.Errorf("describe category %d: %w", id, translateErr(err))
		}

	case EntityTransaction:
		var month string
		var year int
		err := r.db.QueryRowContext(ctx,
			`SELECT t.name, t.amount, t.month, t.year, c.name
			 FROM transactions t
			 INNER JOIN categories c ON c.id = t.category_id
			 WHERE t.id = ?`, id).
			Scan(&row.Name, &row.Amount, &month, &year, &row.Detail)
		if err != nil {
			return BackupRow{}, fmt.Errorf("describe transaction %d: %w", id, translateErr(err))
		}
		row.Date = core.Period{Month: core.Month(month), Year: year}.String()

	case EntityActivity:
		err := r.db.QueryRowContext(ctx,
			`SELECT name, color FROM activities WHERE id = ?`, id).
			Scan(&row.Name, &row.Detail)
		if err != nil {
			return BackupRow{}, fmt.Errorf("describe activity %d: %w", id, translateErr(err))
		}

	case EntityEntry:
		err := r.db.QueryRowContext(ctx,
			`SELECT a.name, en.score, en.date
			 FROM entries en
			 INNER JOIN activities a ON a.id = en.activity_id
			 WHERE en.id = ?`, id).
			Scan(&row.Detail, &row.Amount, &row.Date)
		if err != nil {
			return BackupRow{}, fmt.Errorf("describe entry %d: %w", id, translateErr(err))
		}
		row.Name = "entry"

	default:
		return BackupRow{}, fmt.Errorf("unknown entity %q", entity)
	}

	return row, nil
}
