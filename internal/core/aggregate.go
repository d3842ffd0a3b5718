package core

import "sort"

// TotalCategoryID and TotalCategoryName identify the synthetic aggregate
// row appended to each expense's categories on read. It is never persisted.
const (
	TotalCategoryID   = 0
	TotalCategoryName = "Total"
)

type (
	// CategoryAggregate is a category enriched with per-period summed
	// transaction amounts.
	CategoryAggregate struct {
		Category
		Totals map[Period]int64
	}

	// ExpenseAggregate is an expense whose categories carry totals plus
	// the appended synthetic Total row.
	ExpenseAggregate struct {
		ID         int64
		Name       string
		OwnerID    string
		Categories []CategoryAggregate
	}
)

// AggregateExpense sums each category's transactions per period and appends
// the synthetic Total category whose totals are the key-wise sum across all
// real categories. A category without transactions keeps an empty totals
// map and contributes nothing. All arithmetic is exact integer addition.
func AggregateExpense(e Expense) ExpenseAggregate {
	agg := ExpenseAggregate{
		ID:         e.ID,
		Name:       e.Name,
		OwnerID:    e.OwnerID,
		Categories: make([]CategoryAggregate, 0, len(e.Categories)+1),
	}

	total := CategoryAggregate{
		Category: Category{ID: TotalCategoryID, Name: TotalCategoryName},
		Totals:   make(map[Period]int64),
	}

	for _, c := range e.Categories {
		ca := CategoryAggregate{
			Category: c,
			Totals:   make(map[Period]int64, len(c.Transactions)),
		}
		for _, t := range c.Transactions {
			key := Period{Month: t.Month, Year: t.Year}
			ca.Totals[key] += t.Amount
			total.Totals[key] += t.Amount
		}
		agg.Categories = append(agg.Categories, ca)
	}

	agg.Categories = append(agg.Categories, total)
	return agg
}

// AggregateExpenses aggregates a slice of expenses in order.
func AggregateExpenses(expenses []Expense) []ExpenseAggregate {
	out := make([]ExpenseAggregate, len(expenses))
	for i, e := range expenses {
		out[i] = AggregateExpense(e)
	}
	return out
}

// Periods returns every period present in any category of the aggregate,
// in chronological order. Render code uses this as the column set.
func (a ExpenseAggregate) Periods() []Period {
	seen := make(map[Period]struct{})
	for _, c := range a.Categories {
		for p := range c.Totals {
			seen[p] = struct{}{}
		}
	}
	out := make([]Period, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// PeriodTotal is one row of the precomputed per-category aggregate view.
type PeriodTotal struct {
	CategoryID int64
	Period     Period
	Amount     int64
}
