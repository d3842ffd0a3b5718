package services

import (
	"context"
	"fmt"
	"log/slog"

	"trackr/internal/cache"
	"trackr/internal/core"
	"trackr/internal/storage"
)

// Cache tags. A write to any row behind a tag drops every cached key
// carrying that tag, across all owners.
const (
	TagExpenses   = "expenses"
	TagActivities = "activities"
)

// BudgetStore is the persistence surface the budget service needs.
// *storage.SQLiteRepository satisfies it.
type BudgetStore interface {
	CreateExpense(ctx context.Context, ownerID, name string) (int64, error)
	CreateCategory(ctx context.Context, expenseID int64, name string) (int64, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	GetCategory(ctx context.Context, id int64) (core.Category, error)
	ListExpensesWithCategories(ctx context.Context, ownerID string) ([]core.Expense, error)
	ListCategoryTransactions(ctx context.Context, categoryID int64, p core.Period) ([]core.Transaction, error)
	PeriodTotals(ctx context.Context, ownerID string) ([]core.PeriodTotal, error)
}

// RowPublisher emits row-created events for the backup pipeline.
type RowPublisher interface {
	PublishRowCreated(ctx context.Context, entity string, id int64) error
}

// BudgetService orchestrates budget writes and the cached read path.
type BudgetService struct {
	store     BudgetStore
	publisher RowPublisher
	cache     *cache.TagCache[[]core.ExpenseAggregate]
}

func NewBudgetService(store BudgetStore, publisher RowPublisher, c *cache.TagCache[[]core.ExpenseAggregate]) *BudgetService {
	return &BudgetService{
		store:     store,
		publisher: publisher,
		cache:     c,
	}
}

func expensesCacheKey(ownerID string) string {
	return "expenses:" + ownerID
}

// GetAggregatedExpenses returns the owner's expenses with per-category
// period totals and the synthetic Total row, memoized under the
// expenses tag. Failed reads are surfaced and never cached.
func (s *BudgetService) GetAggregatedExpenses(ctx context.Context, ownerID string) ([]core.ExpenseAggregate, error) {
	key := expensesCacheKey(ownerID)
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}

	expenses, err := s.store.ListExpensesWithCategories(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: list expenses: %v", core.ErrFetchFailed, err)
	}

	aggregates := core.AggregateExpenses(expenses)
	s.cache.Set(key, TagExpenses, aggregates)
	return aggregates, nil
}

// CreateExpense inserts an expense, invalidates cached reads so the
// next fetch sees it, and publishes a row event for the backup worker.
func (s *BudgetService) CreateExpense(ctx context.Context, ownerID, name string) (int64, error) {
	e := core.Expense{Name: name, OwnerID: ownerID}
	if err := e.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateExpense(ctx, ownerID, name)
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}

	s.cache.InvalidateTag(TagExpenses)
	s.publishRowCreated(ctx, storage.EntityExpense, id)
	return id, nil
}

// CreateCategory inserts a category under an expense.
func (s *BudgetService) CreateCategory(ctx context.Context, expenseID int64, name string) (int64, error) {
	c := core.Category{Name: name, ExpenseID: expenseID}
	if err := c.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateCategory(ctx, expenseID, name)
	if err != nil {
		return 0, fmt.Errorf("create category: %w", err)
	}

	s.cache.InvalidateTag(TagExpenses)
	s.publishRowCreated(ctx, storage.EntityCategory, id)
	return id, nil
}

// CreateTransaction inserts a transaction under a category.
func (s *BudgetService) CreateTransaction(ctx context.Context, t core.Transaction) (int64, error) {
	if err := t.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.CreateTransaction(ctx, t)
	if err != nil {
		return 0, fmt.Errorf("create transaction: %w", err)
	}

	s.cache.InvalidateTag(TagExpenses)
	s.publishRowCreated(ctx, storage.EntityTransaction, id)
	return id, nil
}

// GetCategoryTransactions lists a category's transactions for one
// period. Unknown categories yield core.ErrInvalidReference rather than
// an empty list.
func (s *BudgetService) GetCategoryTransactions(ctx context.Context, categoryID int64, p core.Period) ([]core.Transaction, error) {
	if _, err := s.store.GetCategory(ctx, categoryID); err != nil {
		return nil, fmt.Errorf("resolve category: %w", err)
	}

	txs, err := s.store.ListCategoryTransactions(ctx, categoryID, p)
	if err != nil {
		return nil, fmt.Errorf("%w: list transactions: %v", core.ErrFetchFailed, err)
	}
	return txs, nil
}

// GetPeriodTotals returns per-category period sums straight from the
// totals view, uncached.
func (s *BudgetService) GetPeriodTotals(ctx context.Context, ownerID string) ([]core.PeriodTotal, error) {
	totals, err := s.store.PeriodTotals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("%w: period totals: %v", core.ErrFetchFailed, err)
	}
	return totals, nil
}

// publishRowCreated is best effort. The write already landed, a lost
// event only delays the backup.
func (s *BudgetService) publishRowCreated(ctx context.Context, entity string, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRowCreated(ctx, entity, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish row event",
			"entity", entity, "id", id, "error", err)
	}
}
