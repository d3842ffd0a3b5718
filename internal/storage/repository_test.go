package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackr/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "trackr.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedUser(t *testing.T, repo *SQLiteRepository, id string) {
	t.Helper()
	require.NoError(t, repo.CreateUser(context.Background(), User{
		ID:           id,
		Email:        id + "@example.com",
		PasswordHash: "x",
	}))
}

func TestCreateExpenseDuplicateName(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")
	seedUser(t, repo, "u2")

	_, err := repo.CreateExpense(ctx, "u1", "Rent")
	require.NoError(t, err)

	_, err = repo.CreateExpense(ctx, "u1", "Rent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDuplicateName), "want ErrDuplicateName, got %v", err)

	// Same name under a different owner is fine.
	_, err = repo.CreateExpense(ctx, "u2", "Rent")
	assert.NoError(t, err)

	expenses, err := repo.ListExpensesWithCategories(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, expenses, 1, "duplicate insert must not add a second row")
}

func TestCreateCategoryConstraints(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	expID, err := repo.CreateExpense(ctx, "u1", "Household")
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, expID, "Utilities")
	require.NoError(t, err)

	_, err = repo.CreateCategory(ctx, expID, "Utilities")
	assert.True(t, errors.Is(err, core.ErrDuplicateName))

	_, err = repo.CreateCategory(ctx, 999999, "Orphan")
	assert.True(t, errors.Is(err, core.ErrInvalidReference), "missing expense must map to ErrInvalidReference, got %v", err)
}

func TestTransactionInsertAndNestedListing(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	expID, err := repo.CreateExpense(ctx, "u1", "Household")
	require.NoError(t, err)
	catID, err := repo.CreateCategory(ctx, expID, "Utilities")
	require.NoError(t, err)

	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Name: "power", Amount: 120, Month: core.Jan, Year: 2025, CategoryID: catID,
	})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Name: "water", Amount: 40, Month: core.Jan, Year: 2025, CategoryID: catID,
	})
	require.NoError(t, err)

	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Name: "ghost", Amount: 1, Month: core.Jan, Year: 2025, CategoryID: 999999,
	})
	assert.True(t, errors.Is(err, core.ErrInvalidReference))

	expenses, err := repo.ListExpensesWithCategories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Len(t, expenses[0].Categories, 1)
	require.Len(t, expenses[0].Categories[0].Transactions, 2)
	assert.Equal(t, "power", expenses[0].Categories[0].Transactions[0].Name)

	list, err := repo.ListCategoryTransactions(ctx, catID, core.Period{Month: core.Jan, Year: 2025})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestNestedListingMultipleCategories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	expID, err := repo.CreateExpense(ctx, "u1", "Household")
	require.NoError(t, err)
	utilID, err := repo.CreateCategory(ctx, expID, "Utilities")
	require.NoError(t, err)
	grocID, err := repo.CreateCategory(ctx, expID, "Groceries")
	require.NoError(t, err)

	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Name: "power", Amount: 50, Month: core.Jan, Year: 2025, CategoryID: utilID,
	})
	require.NoError(t, err)
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		Name: "market", Amount: 100, Month: core.Jan, Year: 2025, CategoryID: grocID,
	})
	require.NoError(t, err)

	expenses, err := repo.ListExpensesWithCategories(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	require.Len(t, expenses[0].Categories, 2)

	// Each category keeps its own transactions even after the Categories
	// slice has grown past one element.
	require.Len(t, expenses[0].Categories[0].Transactions, 1)
	require.Len(t, expenses[0].Categories[1].Transactions, 1)
	assert.Equal(t, "power", expenses[0].Categories[0].Transactions[0].Name)
	assert.Equal(t, "market", expenses[0].Categories[1].Transactions[0].Name)

	agg := core.AggregateExpenses(expenses)
	require.Len(t, agg, 1)
	total := agg[0].Categories[len(agg[0].Categories)-1]
	require.Equal(t, core.TotalCategoryName, total.Name)
	assert.Equal(t, int64(150), total.Totals[core.Period{Month: core.Jan, Year: 2025}])
}

func TestPeriodTotalsView(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	expID, err := repo.CreateExpense(ctx, "u1", "Household")
	require.NoError(t, err)
	catID, err := repo.CreateCategory(ctx, expID, "Utilities")
	require.NoError(t, err)

	for _, amount := range []int64{10, 20, 30} {
		_, err = repo.CreateTransaction(ctx, core.Transaction{
			Name: "t", Amount: amount, Month: core.Mar, Year: 2025, CategoryID: catID,
		})
		require.NoError(t, err)
	}

	totals, err := repo.PeriodTotals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.Equal(t, catID, totals[0].CategoryID)
	assert.Equal(t, core.Period{Month: core.Mar, Year: 2025}, totals[0].Period)
	assert.Equal(t, int64(60), totals[0].Amount)
}

func TestActivitiesAndEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	actID, err := repo.CreateActivity(ctx, core.Activity{
		Name:    "Running",
		Color:   "emerald",
		OwnerID: "u1",
		Metrics: []core.Metric{{Name: "km", Score: 5}},
	})
	require.NoError(t, err)

	_, err = repo.CreateEntry(ctx, core.Entry{ActivityID: actID, Date: "2025-03-01", Score: 4})
	require.NoError(t, err)
	_, err = repo.CreateEntry(ctx, core.Entry{ActivityID: actID, Date: "2025-03-01", Score: 9})
	require.NoError(t, err, "duplicate dates are allowed at the storage layer")

	_, err = repo.CreateEntry(ctx, core.Entry{ActivityID: 999999, Date: "2025-03-01", Score: 1})
	assert.True(t, errors.Is(err, core.ErrInvalidReference))

	activities, err := repo.ListActivitiesWithEntries(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, []core.Metric{{Name: "km", Score: 5}}, activities[0].Metrics)
	require.Len(t, activities[0].Entries, 2)
	assert.Equal(t, int64(4), activities[0].Entries[0].Score, "entries must come back in insertion order")
}

func TestSessions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	live := Session{Token: "tok-live", UserID: "u1", ExpiresAt: time.Now().Add(time.Hour)}
	stale := Session{Token: "tok-stale", UserID: "u1", ExpiresAt: time.Now().Add(-time.Hour)}
	require.NoError(t, repo.CreateSession(ctx, live))
	require.NoError(t, repo.CreateSession(ctx, stale))

	got, err := repo.GetSession(ctx, "tok-live")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)

	_, err = repo.GetSession(ctx, "tok-stale")
	assert.True(t, errors.Is(err, ErrNotFound), "expired session must read as missing")

	_, err = repo.GetSession(ctx, "tok-unknown")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestDescribeRow(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	seedUser(t, repo, "u1")

	expID, err := repo.CreateExpense(ctx, "u1", "Household")
	require.NoError(t, err)
	catID, err := repo.CreateCategory(ctx, expID, "Utilities")
	require.NoError(t, err)
	txID, err := repo.CreateTransaction(ctx, core.Transaction{
		Name: "power", Amount: 120, Month: core.Jan, Year: 2025, CategoryID: catID,
	})
	require.NoError(t, err)

	row, err := repo.DescribeRow(ctx, EntityTransaction, txID)
	require.NoError(t, err)
	assert.Equal(t, "power", row.Name)
	assert.Equal(t, int64(120), row.Amount)
	assert.Equal(t, "jan_2025", row.Date)
	assert.Equal(t, "Utilities", row.Detail)

	_, err = repo.DescribeRow(ctx, "widget", 1)
	assert.Error(t, err)
}
