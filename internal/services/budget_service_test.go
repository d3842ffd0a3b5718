package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trackr/internal/cache"
	"trackr/internal/core"
	"trackr/internal/storage"
)

type fakeBudgetStore struct {
	expenses  []core.Expense
	listCalls int
	listErr   error
	createErr error
	nextID    int64
}

func (f *fakeBudgetStore) CreateExpense(_ context.Context, ownerID, name string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	f.expenses = append(f.expenses, core.Expense{ID: f.nextID, Name: name, OwnerID: ownerID})
	return f.nextID, nil
}

func (f *fakeBudgetStore) CreateCategory(_ context.Context, expenseID int64, name string) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	for i := range f.expenses {
		if f.expenses[i].ID == expenseID {
			f.expenses[i].Categories = append(f.expenses[i].Categories,
				core.Category{ID: f.nextID, Name: name, ExpenseID: expenseID})
			return f.nextID, nil
		}
	}
	return 0, core.ErrInvalidReference
}

func (f *fakeBudgetStore) CreateTransaction(_ context.Context, t core.Transaction) (int64, error) {
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.nextID++
	for i := range f.expenses {
		for j := range f.expenses[i].Categories {
			if f.expenses[i].Categories[j].ID == t.CategoryID {
				t.ID = f.nextID
				f.expenses[i].Categories[j].Transactions =
					append(f.expenses[i].Categories[j].Transactions, t)
				return f.nextID, nil
			}
		}
	}
	return 0, core.ErrInvalidReference
}

func (f *fakeBudgetStore) GetCategory(_ context.Context, id int64) (core.Category, error) {
	for _, e := range f.expenses {
		for _, c := range e.Categories {
			if c.ID == id {
				return core.Category{ID: c.ID, Name: c.Name, ExpenseID: c.ExpenseID}, nil
			}
		}
	}
	return core.Category{}, core.ErrInvalidReference
}

func (f *fakeBudgetStore) ListExpensesWithCategories(_ context.Context, ownerID string) ([]core.Expense, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Expense
	for _, e := range f.expenses {
		if e.OwnerID == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeBudgetStore) ListCategoryTransactions(_ context.Context, categoryID int64, p core.Period) ([]core.Transaction, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []core.Transaction
	for _, e := range f.expenses {
		for _, c := range e.Categories {
			if c.ID != categoryID {
				continue
			}
			for _, t := range c.Transactions {
				if t.Month == p.Month && t.Year == p.Year {
					out = append(out, t)
				}
			}
		}
	}
	return out, nil
}

func (f *fakeBudgetStore) PeriodTotals(_ context.Context, ownerID string) ([]core.PeriodTotal, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return nil, nil
}

type fakePublisher struct {
	events []string
	err    error
}

func (f *fakePublisher) PublishRowCreated(_ context.Context, entity string, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, entity)
	return nil
}

func newBudgetService(store *fakeBudgetStore, pub RowPublisher) *BudgetService {
	return NewBudgetService(store, pub, cache.NewTagCache[[]core.ExpenseAggregate](time.Minute))
}

func TestGetAggregatedExpensesCachesResult(t *testing.T) {
	store := &fakeBudgetStore{expenses: []core.Expense{
		{ID: 1, Name: "Household", OwnerID: "u1", Categories: []core.Category{
			{ID: 10, Name: "Groceries", ExpenseID: 1, Transactions: []core.Transaction{
				{ID: 100, Name: "Market", Amount: 2500, Month: core.Jan, Year: 2025, CategoryID: 10},
			}},
		}},
	}}
	svc := newBudgetService(store, nil)

	first, err := svc.GetAggregatedExpenses(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, 1, store.listCalls)

	second, err := svc.GetAggregatedExpenses(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.listCalls, "second read must come from cache")

	// Total row is appended after the real categories.
	total := first[0].Categories[len(first[0].Categories)-1]
	assert.Equal(t, core.TotalCategoryName, total.Name)
	assert.Equal(t, int64(2500), total.Totals[core.Period{Month: core.Jan, Year: 2025}])
}

func TestGetAggregatedExpensesDoesNotCacheFailures(t *testing.T) {
	store := &fakeBudgetStore{listErr: errors.New("disk gone")}
	svc := newBudgetService(store, nil)

	_, err := svc.GetAggregatedExpenses(context.Background(), "u1")
	require.ErrorIs(t, err, core.ErrFetchFailed)
	assert.Equal(t, 1, store.listCalls)

	store.listErr = nil
	_, err = svc.GetAggregatedExpenses(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "failed read must not have been cached")
}

func TestCreateExpenseInvalidatesCache(t *testing.T) {
	store := &fakeBudgetStore{}
	svc := newBudgetService(store, nil)

	_, err := svc.GetAggregatedExpenses(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 1, store.listCalls)

	id, err := svc.CreateExpense(context.Background(), "u1", "Household")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	aggs, err := svc.GetAggregatedExpenses(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, store.listCalls, "write must invalidate the cached read")
	require.Len(t, aggs, 1)
	assert.Equal(t, "Household", aggs[0].Name)
}

func TestCreateExpenseRejectsInvalidName(t *testing.T) {
	store := &fakeBudgetStore{}
	svc := newBudgetService(store, nil)

	_, err := svc.CreateExpense(context.Background(), "u1", "   ")
	require.ErrorIs(t, err, core.ErrEmptyName)
	assert.Empty(t, store.expenses)
}

func TestCreateExpensePropagatesDuplicate(t *testing.T) {
	store := &fakeBudgetStore{createErr: core.ErrDuplicateName}
	svc := newBudgetService(store, nil)

	_, err := svc.CreateExpense(context.Background(), "u1", "Household")
	require.ErrorIs(t, err, core.ErrDuplicateName)
}

func TestCreateTransactionPropagatesInvalidReference(t *testing.T) {
	store := &fakeBudgetStore{}
	svc := newBudgetService(store, nil)

	_, err := svc.CreateTransaction(context.Background(), core.Transaction{
		Name: "Market", Amount: 100, Month: core.Jan, Year: 2025, CategoryID: 999,
	})
	require.ErrorIs(t, err, core.ErrInvalidReference)
}

func TestWritesPublishRowEvents(t *testing.T) {
	store := &fakeBudgetStore{}
	pub := &fakePublisher{}
	svc := newBudgetService(store, pub)

	expID, err := svc.CreateExpense(context.Background(), "u1", "Household")
	require.NoError(t, err)
	catID, err := svc.CreateCategory(context.Background(), expID, "Groceries")
	require.NoError(t, err)
	_, err = svc.CreateTransaction(context.Background(), core.Transaction{
		Name: "Market", Amount: 100, Month: core.Feb, Year: 2025, CategoryID: catID,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		storage.EntityExpense, storage.EntityCategory, storage.EntityTransaction,
	}, pub.events)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	store := &fakeBudgetStore{}
	pub := &fakePublisher{err: errors.New("broker down")}
	svc := newBudgetService(store, pub)

	id, err := svc.CreateExpense(context.Background(), "u1", "Household")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)
}

func TestGetCategoryTransactionsFiltersByPeriod(t *testing.T) {
	store := &fakeBudgetStore{expenses: []core.Expense{
		{ID: 1, Name: "Household", OwnerID: "u1", Categories: []core.Category{
			{ID: 10, Name: "Groceries", ExpenseID: 1, Transactions: []core.Transaction{
				{ID: 100, Name: "Jan buy", Amount: 100, Month: core.Jan, Year: 2025, CategoryID: 10},
				{ID: 101, Name: "Feb buy", Amount: 200, Month: core.Feb, Year: 2025, CategoryID: 10},
			}},
		}},
	}}
	svc := newBudgetService(store, nil)

	txs, err := svc.GetCategoryTransactions(context.Background(), 10, core.Period{Month: core.Feb, Year: 2025})
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "Feb buy", txs[0].Name)
}

func TestGetCategoryTransactionsUnknownCategory(t *testing.T) {
	svc := newBudgetService(&fakeBudgetStore{}, nil)

	_, err := svc.GetCategoryTransactions(context.Background(), 999, core.Period{Month: core.Feb, Year: 2025})
	require.ErrorIs(t, err, core.ErrInvalidReference)
}
