package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"trackr/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// translateErr maps driver-level failures onto the domain sentinels so
// callers can branch with errors.Is.
func translateErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrInvalidReference
	}
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") {
		return core.ErrDuplicateName
	}
	if strings.Contains(msg, "FOREIGN KEY constraint failed") {
		return core.ErrInvalidReference
	}
	return err
}

// CreateExpense inserts a new expense for an owner. A same-named expense
// under the same owner yields core.ErrDuplicateName.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, ownerID, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (name, owner_id) VALUES (?, ?)`, name, ownerID)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved", "id", id, "name", name, "owner_id", ownerID)
	return id, nil
}

// CreateCategory inserts a category under an expense. Duplicates under
// the same expense yield core.ErrDuplicateName; a missing expense yields
// core.ErrInvalidReference via the foreign key.
func (r *SQLiteRepository) CreateCategory(ctx context.Context, expenseID int64, name string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, expense_id) VALUES (?, ?)`, name, expenseID)
	if err != nil {
		return 0, fmt.Errorf("insert category: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("category insert id: %w", err)
	}

	slog.InfoContext(ctx, "Category saved", "id", id, "name", name, "expense_id", expenseID)
	return id, nil
}

// GetCategory resolves a category by id. A missing row yields
// core.ErrInvalidReference.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, expense_id FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.ExpenseID)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %d: %w", id, translateErr(err))
	}
	return c, nil
}

// CreateTransaction inserts a transaction row.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (name, amount, month, year, category_id) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Amount, string(t.Month), t.Year, t.CategoryID)
	if err != nil {
		return 0, fmt.Errorf("insert transaction: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("transaction insert id: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved",
		"id", id,
		"name", t.Name,
		"amount", t.Amount,
		"period", core.Period{Month: t.Month, Year: t.Year}.String(),
		"category_id", t.CategoryID)
	return id, nil
}

// ListExpensesWithCategories loads an owner's expenses with the full
// category → transaction expansion, in insertion order at every level.
func (r *SQLiteRepository) ListExpensesWithCategories(ctx context.Context, ownerID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, owner_id FROM expenses WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	byExpense := make(map[int64]int)
	for rows.Next() {
		var e core.Expense
		if err := rows.Scan(&e.ID, &e.Name, &e.OwnerID); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		byExpense[e.ID] = len(expenses)
		expenses = append(expenses, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	catRows, err := r.db.QueryContext(ctx,
		`SELECT c.id, c.name, c.expense_id
		 FROM categories c
		 INNER JOIN expenses e ON e.id = c.expense_id
		 WHERE e.owner_id = ?
		 ORDER BY c.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()

	// Index pairs instead of pointers: appends below may reallocate the
	// Categories slices.
	byCategory := make(map[int64][2]int)
	for catRows.Next() {
		var c core.Category
		if err := catRows.Scan(&c.ID, &c.Name, &c.ExpenseID); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		idx := byExpense[c.ExpenseID]
		expenses[idx].Categories = append(expenses[idx].Categories, c)
		byCategory[c.ID] = [2]int{idx, len(expenses[idx].Categories) - 1}
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	txRows, err := r.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.amount, t.month, t.year, t.category_id
		 FROM transactions t
		 INNER JOIN categories c ON c.id = t.category_id
		 INNER JOIN expenses e ON e.id = c.expense_id
		 WHERE e.owner_id = ?
		 ORDER BY t.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer txRows.Close()

	for txRows.Next() {
		var t core.Transaction
		var month string
		if err := txRows.Scan(&t.ID, &t.Name, &t.Amount, &month, &t.Year, &t.CategoryID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Month = core.Month(month)
		if pos, ok := byCategory[t.CategoryID]; ok {
			cat := &expenses[pos[0]].Categories[pos[1]]
			cat.Transactions = append(cat.Transactions, t)
		}
	}
	if err := txRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	return expenses, nil
}

// ListCategoryTransactions returns a category's transactions for one
// period, in insertion order.
func (r *SQLiteRepository) ListCategoryTransactions(ctx context.Context, categoryID int64, p core.Period) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, month, year, category_id
		 FROM transactions
		 WHERE category_id = ? AND month = ? AND year = ?
		 ORDER BY id`, categoryID, string(p.Month), p.Year)
	if err != nil {
		return nil, fmt.Errorf("query category transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		var t core.Transaction
		var month string
		if err := rows.Scan(&t.ID, &t.Name, &t.Amount, &month, &t.Year, &t.CategoryID); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		t.Month = core.Month(month)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// PeriodTotals reads the precomputed transaction_totals view for an
// owner's categories.
func (r *SQLiteRepository) PeriodTotals(ctx context.Context, ownerID string) ([]core.PeriodTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT v.category_id, v.month, v.year, v.total_amount
		 FROM transaction_totals v
		 INNER JOIN categories c ON c.id = v.category_id
		 INNER JOIN expenses e ON e.id = c.expense_id
		 WHERE e.owner_id = ?`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query period totals: %w", err)
	}
	defer rows.Close()

	var out []core.PeriodTotal
	for rows.Next() {
		var pt core.PeriodTotal
		var month string
		if err := rows.Scan(&pt.CategoryID, &month, &pt.Period.Year, &pt.Amount); err != nil {
			return nil, fmt.Errorf("scan period total: %w", err)
		}
		pt.Period.Month = core.Month(month)
		out = append(out, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate period totals: %w", err)
	}
	return out, nil
}

// CreateActivity inserts an activity; metrics are stored as JSON text.
func (r *SQLiteRepository) CreateActivity(ctx context.Context, a core.Activity) (int64, error) {
	metrics := a.Metrics
	if metrics == nil {
		metrics = []core.Metric{}
	}
	blob, err := json.Marshal(metrics)
	if err != nil {
		return 0, fmt.Errorf("marshal metrics: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO activities (name, color, metrics, owner_id) VALUES (?, ?, ?, ?)`,
		a.Name, a.Color, string(blob), a.OwnerID)
	if err != nil {
		return 0, fmt.Errorf("insert activity: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("activity insert id: %w", err)
	}

	slog.InfoContext(ctx, "Activity saved", "id", id, "name", a.Name, "owner_id", a.OwnerID)
	return id, nil
}

// GetActivity resolves an activity by id.
func (r *SQLiteRepository) GetActivity(ctx context.Context, id int64) (core.Activity, error) {
	var a core.Activity
	var metrics string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, color, metrics, owner_id FROM activities WHERE id = ?`, id).
		Scan(&a.ID, &a.Name, &a.Color, &metrics, &a.OwnerID)
	if err != nil {
		return core.Activity{}, fmt.Errorf("get activity %d: %w", id, translateErr(err))
	}
	if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
		return core.Activity{}, fmt.Errorf("unmarshal metrics for activity %d: %w", id, err)
	}
	return a, nil
}

// CreateEntry inserts a score entry. The date must already be normalized
// to yyyy-mm-dd.
func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO entries (activity_id, date, score) VALUES (?, ?, ?)`,
		e.ActivityID, e.Date, e.Score)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", translateErr(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("entry insert id: %w", err)
	}

	slog.InfoContext(ctx, "Entry saved", "id", id, "activity_id", e.ActivityID, "date", e.Date, "score", e.Score)
	return id, nil
}

// ListActivitiesWithEntries loads an owner's activities with entries in
// insertion order, which fixes the first-wins winner when dates collide.
func (r *SQLiteRepository) ListActivitiesWithEntries(ctx context.Context, ownerID string) ([]core.ActivityWithEntries, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, color, metrics, owner_id FROM activities WHERE owner_id = ? ORDER BY id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query activities: %w", err)
	}
	defer rows.Close()

	var activities []core.ActivityWithEntries
	byActivity := make(map[int64]int)
	for rows.Next() {
		var a core.ActivityWithEntries
		var metrics string
		if err := rows.Scan(&a.ID, &a.Name, &a.Color, &metrics, &a.OwnerID); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &a.Metrics); err != nil {
			return nil, fmt.Errorf("unmarshal metrics for activity %d: %w", a.ID, err)
		}
		byActivity[a.ID] = len(activities)
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activities: %w", err)
	}
	if len(activities) == 0 {
		return activities, nil
	}

	entryRows, err := r.db.QueryContext(ctx,
		`SELECT en.id, en.activity_id, en.date, en.score
		 FROM entries en
		 INNER JOIN activities a ON a.id = en.activity_id
		 WHERE a.owner_id = ?
		 ORDER BY en.id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer entryRows.Close()

	for entryRows.Next() {
		var e core.Entry
		if err := entryRows.Scan(&e.ID, &e.ActivityID, &e.Date, &e.Score); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if idx, ok := byActivity[e.ActivityID]; ok {
			activities[idx].Entries = append(activities[idx].Entries, e)
		}
	}
	if err := entryRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return activities, nil
}
