package worker

import (
	"context"
	"fmt"
	"log/slog"

	"trackr/internal/amqp"
	"trackr/internal/sheets"
	"trackr/internal/storage"
)

// RowDescriber flattens a created row for the ledger.
// *storage.SQLiteRepository satisfies it.
type RowDescriber interface {
	DescribeRow(ctx context.Context, entity string, id int64) (storage.BackupRow, error)
}

// BackupWorker consumes row-created events and appends each row to
// the external backup ledger.
type BackupWorker struct {
	store  RowDescriber
	ledger sheets.LedgerAppender
}

func NewBackupWorker(store RowDescriber, ledger sheets.LedgerAppender) *BackupWorker {
	return &BackupWorker{
		store:  store,
		ledger: ledger,
	}
}

// HandleRowMessage processes a single row-created event. Returning an
// error requeues the message.
func (w *BackupWorker) HandleRowMessage(ctx context.Context, msg *amqp.RowMessage) error {
	slog.InfoContext(ctx, "Processing row event",
		"entity", msg.Entity,
		"id", msg.ID)

	row, err := w.store.DescribeRow(ctx, msg.Entity, msg.ID)
	if err != nil {
		return fmt.Errorf("describe row: %w", err)
	}

	ref, err := w.ledger.Append(ctx, sheets.LedgerRow{
		Entity: row.Entity,
		ID:     row.ID,
		Name:   row.Name,
		Detail: row.Detail,
		Amount: row.Amount,
		Date:   row.Date,
	})
	if err != nil {
		return fmt.Errorf("append to ledger: %w", err)
	}

	slog.InfoContext(ctx, "Row backed up",
		"entity", msg.Entity,
		"id", msg.ID,
		"ledger_ref", ref)

	return nil
}
