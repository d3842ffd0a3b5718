package core

import "testing"

func TestAggregateExpenseTotals(t *testing.T) {
	e := Expense{
		ID:   1,
		Name: "Household",
		Categories: []Category{
			{ID: 10, Name: "A", ExpenseID: 1, Transactions: []Transaction{
				{ID: 1, Name: "rent", Amount: 100, Month: Jan, Year: 2025, CategoryID: 10},
			}},
			{ID: 11, Name: "B", ExpenseID: 1, Transactions: []Transaction{
				{ID: 2, Name: "power", Amount: 50, Month: Jan, Year: 2025, CategoryID: 11},
				{ID: 3, Name: "water", Amount: 20, Month: Feb, Year: 2025, CategoryID: 11},
			}},
		},
	}

	agg := AggregateExpense(e)
	if len(agg.Categories) != 3 {
		t.Fatalf("expected 2 categories + Total, got %d", len(agg.Categories))
	}

	total := agg.Categories[len(agg.Categories)-1]
	if total.ID != TotalCategoryID || total.Name != TotalCategoryName {
		t.Fatalf("last category should be the synthetic Total row, got %+v", total.Category)
	}
	if len(total.Transactions) != 0 {
		t.Fatalf("Total row must not carry transactions")
	}

	jan := Period{Month: Jan, Year: 2025}
	feb := Period{Month: Feb, Year: 2025}
	if got := total.Totals[jan]; got != 150 {
		t.Errorf("Total[jan_2025] = %d, want 150", got)
	}
	if got := total.Totals[feb]; got != 20 {
		t.Errorf("Total[feb_2025] = %d, want 20", got)
	}
	if got := agg.Categories[0].Totals[jan]; got != 100 {
		t.Errorf("A[jan_2025] = %d, want 100", got)
	}
	if _, ok := agg.Categories[0].Totals[feb]; ok {
		t.Errorf("A must not have a feb_2025 key")
	}
}

func TestAggregateExpenseKeywiseSumProperty(t *testing.T) {
	// The Total row must equal the key-wise sum of all real categories'
	// totals, missing keys counting as zero.
	e := Expense{
		Categories: []Category{
			{ID: 1, Transactions: []Transaction{
				{Amount: 7, Month: Mar, Year: 2024},
				{Amount: -3, Month: Mar, Year: 2024},
				{Amount: 12, Month: Dec, Year: 2023},
			}},
			{ID: 2, Transactions: []Transaction{
				{Amount: 5, Month: Mar, Year: 2024},
			}},
			{ID: 3}, // no transactions
		},
	}

	agg := AggregateExpense(e)
	total := agg.Categories[len(agg.Categories)-1]

	want := make(map[Period]int64)
	for _, c := range agg.Categories[:len(agg.Categories)-1] {
		for p, v := range c.Totals {
			want[p] += v
		}
	}
	if len(total.Totals) != len(want) {
		t.Fatalf("Total has %d keys, want %d", len(total.Totals), len(want))
	}
	for p, v := range want {
		if total.Totals[p] != v {
			t.Errorf("Total[%s] = %d, want %d", p, total.Totals[p], v)
		}
	}
}

func TestAggregateEmptyCategory(t *testing.T) {
	e := Expense{Categories: []Category{{ID: 5, Name: "empty"}}}
	agg := AggregateExpense(e)

	ca := agg.Categories[0]
	if ca.Totals == nil || len(ca.Totals) != 0 {
		t.Fatalf("empty category must yield an empty (non-nil) totals map, got %v", ca.Totals)
	}
	total := agg.Categories[1]
	if len(total.Totals) != 0 {
		t.Fatalf("Total must stay empty when no category has transactions")
	}
}

func TestAggregateOrderIndependence(t *testing.T) {
	txs := []Transaction{
		{Amount: 1, Month: Jan, Year: 2025},
		{Amount: 2, Month: Jan, Year: 2025},
		{Amount: 3, Month: Jan, Year: 2025},
	}
	reversed := []Transaction{txs[2], txs[1], txs[0]}

	a := AggregateExpense(Expense{Categories: []Category{{Transactions: txs}}})
	b := AggregateExpense(Expense{Categories: []Category{{Transactions: reversed}}})

	key := Period{Month: Jan, Year: 2025}
	if a.Categories[0].Totals[key] != b.Categories[0].Totals[key] {
		t.Fatalf("aggregation must be insertion-order independent")
	}
	if a.Categories[0].Totals[key] != 6 {
		t.Fatalf("sum = %d, want 6", a.Categories[0].Totals[key])
	}
}

func TestExpenseAggregatePeriods(t *testing.T) {
	agg := AggregateExpense(Expense{Categories: []Category{
		{Transactions: []Transaction{
			{Amount: 1, Month: Feb, Year: 2025},
			{Amount: 1, Month: Dec, Year: 2024},
			{Amount: 1, Month: Jan, Year: 2025},
		}},
	}})

	periods := agg.Periods()
	want := []Period{{Dec, 2024}, {Jan, 2025}, {Feb, 2025}}
	if len(periods) != len(want) {
		t.Fatalf("got %d periods, want %d", len(periods), len(want))
	}
	for i := range want {
		if periods[i] != want[i] {
			t.Errorf("periods[%d] = %v, want %v", i, periods[i], want[i])
		}
	}
}
