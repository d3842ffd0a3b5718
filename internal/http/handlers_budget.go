package http

import (
	"log/slog"
	"net/http"
	"sort"

	"golang.org/x/sync/errgroup"

	"trackr/internal/core"
	"trackr/internal/storage"
)

type categoryView struct {
	ID      int64
	Name    string
	IsTotal bool
	Cells   []string
}

type expenseView struct {
	ID         int64
	Name       string
	Periods    []core.Period
	Labels     []string
	Categories []categoryView
}

type dashboardView struct {
	Expenses      []expenseView
	ActivityCount int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if resp := RequireMethod(r.Method, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	owner := ownerID(r.Context())

	var (
		aggregates []core.ExpenseAggregate
		activities []core.ActivityWithEntries
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		aggregates, err = s.budget.GetAggregatedExpenses(ctx, owner)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.activities.GetActivities(ctx, owner)
		return err
	})
	if err := g.Wait(); err != nil {
		slog.ErrorContext(r.Context(), "Dashboard load failed", "error", err, "owner_id", owner)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}

	view := dashboardView{ActivityCount: len(activities)}
	for _, agg := range aggregates {
		view.Expenses = append(view.Expenses, buildExpenseView(agg))
	}

	s.render(w, r, "dashboard.html", view)
}

// buildExpenseView flattens an aggregate into a period-column table.
// The synthetic Total row always renders last.
func buildExpenseView(agg core.ExpenseAggregate) expenseView {
	periods := agg.Periods()
	ev := expenseView{
		ID:      agg.ID,
		Name:    agg.Name,
		Periods: periods,
	}
	for _, p := range periods {
		ev.Labels = append(ev.Labels, periodLabel(p))
	}
	for _, cat := range agg.Categories {
		cv := categoryView{
			ID:      cat.ID,
			Name:    cat.Name,
			IsTotal: cat.ID == core.TotalCategoryID && cat.Name == core.TotalCategoryName,
		}
		for _, p := range periods {
			cv.Cells = append(cv.Cells, formatAmount(cat.Totals[p]))
		}
		ev.Categories = append(ev.Categories, cv)
	}
	return ev
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	id, err := s.budget.CreateExpense(r.Context(), ownerID(r.Context()), name)
	if err != nil {
		s.writeCreateError(w, r, err, "expense")
		return
	}

	NewHTMXResponse().
		TriggerRowCreated(storage.EntityExpense, id).
		TriggerFormReset().
		TriggerSuccessNotification("Expense created").
		Write(w)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	expenseID, err := ParseID(r.Form.Get("expense_id"))
	if err != nil {
		UnprocessableEntityError(errorMessage(err, "category")).Write(w)
		return
	}

	name := sanitizeInput(r.Form.Get("name"))
	id, err := s.budget.CreateCategory(r.Context(), expenseID, name)
	if err != nil {
		s.writeCreateError(w, r, err, "category")
		return
	}

	NewHTMXResponse().
		TriggerRowCreated(storage.EntityCategory, id).
		TriggerFormReset().
		TriggerSuccessNotification("Category created").
		Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodPost); resp != nil {
		resp.Write(w)
		return
	}
	if err := r.ParseForm(); err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	categoryID, err := ParseID(r.Form.Get("category_id"))
	if err != nil {
		UnprocessableEntityError(errorMessage(err, "transaction")).Write(w)
		return
	}
	amount, err := ParseAmount(r.Form.Get("amount"))
	if err != nil {
		UnprocessableEntityError("Amount must be a positive number").Write(w)
		return
	}
	period, err := ParsePeriodParams(r.Form)
	if err != nil {
		UnprocessableEntityError("Invalid month or year").Write(w)
		return
	}

	tx := core.Transaction{
		Name:       sanitizeInput(r.Form.Get("name")),
		Amount:     amount,
		Month:      period.Month,
		Year:       period.Year,
		CategoryID: categoryID,
	}

	id, err := s.budget.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.writeCreateError(w, r, err, "transaction")
		return
	}

	NewHTMXResponse().
		TriggerRowCreated(storage.EntityTransaction, id).
		TriggerFormReset().
		TriggerSuccessNotification("Transaction created").
		Write(w)
}

type transactionRowView struct {
	Name   string
	Amount string
}

type transactionListView struct {
	CategoryID int64
	Period     string
	Rows       []transactionRowView
}

// handleCategoryTransactions renders the per-period transaction list partial.
func (s *Server) handleCategoryTransactions(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	query := r.URL.Query()
	categoryID, err := ParseID(query.Get("category_id"))
	if err != nil {
		BadRequestError("Invalid category").Write(w)
		return
	}
	period, err := ParsePeriodParams(query)
	if err != nil {
		BadRequestError("Invalid month or year").Write(w)
		return
	}

	txs, err := s.budget.GetCategoryTransactions(r.Context(), categoryID, period)
	if err != nil {
		slog.ErrorContext(r.Context(), "Transaction list failed",
			"error", err, "category_id", categoryID, "period", period.String())
		InternalServerError("Failed to load transactions").Write(w)
		return
	}

	view := transactionListView{
		CategoryID: categoryID,
		Period:     periodLabel(period),
	}
	for _, t := range txs {
		view.Rows = append(view.Rows, transactionRowView{
			Name:   t.Name,
			Amount: formatAmount(t.Amount),
		})
	}

	s.render(w, r, "transaction_list.html", view)
}

type periodTotalView struct {
	Period string
	Amount string
}

type periodTotalsView struct {
	Rows []periodTotalView
}

// handlePeriodTotals renders the per-period spending summary partial,
// read straight from the totals view rather than the cached aggregates.
func (s *Server) handlePeriodTotals(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r.Method, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	totals, err := s.budget.GetPeriodTotals(r.Context(), ownerID(r.Context()))
	if err != nil {
		slog.ErrorContext(r.Context(), "Period totals failed", "error", err)
		InternalServerError("Failed to load totals").Write(w)
		return
	}

	// Collapse category rows into one amount per period.
	byPeriod := make(map[core.Period]int64)
	var order []core.Period
	for _, t := range totals {
		if _, seen := byPeriod[t.Period]; !seen {
			order = append(order, t.Period)
		}
		byPeriod[t.Period] += t.Amount
	}
	sort.Slice(order, func(i, j int) bool { return order[i].Before(order[j]) })

	var view periodTotalsView
	for _, p := range order {
		view.Rows = append(view.Rows, periodTotalView{
			Period: periodLabel(p),
			Amount: formatAmount(byPeriod[p]),
		})
	}

	s.render(w, r, "period_totals.html", view)
}

func (s *Server) writeCreateError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	msg := errorMessage(err, entity)
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "Create failed", "entity", entity, "error", err)
	}
	ErrorResponse(status, msg).
		TriggerErrorNotification(msg).
		Write(w)
}
