package http

import (
	"context"
	"errors"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"

	"trackr/internal/auth"
	"trackr/internal/core"
	"trackr/internal/middleware/ratelimit"
	"trackr/internal/middleware/security"
	"trackr/internal/middleware/trace"
	"trackr/internal/storage"
	appweb "trackr/web"
)

// BudgetService is the budget surface the handlers need.
type BudgetService interface {
	GetAggregatedExpenses(ctx context.Context, ownerID string) ([]core.ExpenseAggregate, error)
	CreateExpense(ctx context.Context, ownerID, name string) (int64, error)
	CreateCategory(ctx context.Context, expenseID int64, name string) (int64, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (int64, error)
	GetCategoryTransactions(ctx context.Context, categoryID int64, p core.Period) ([]core.Transaction, error)
	GetPeriodTotals(ctx context.Context, ownerID string) ([]core.PeriodTotal, error)
}

// ActivityService is the activity surface the handlers need.
type ActivityService interface {
	GetActivities(ctx context.Context, ownerID string) ([]core.ActivityWithEntries, error)
	CreateActivity(ctx context.Context, a core.Activity) (int64, error)
	CreateEntry(ctx context.Context, ownerID string, e core.Entry) (int64, error)
}

// AuthService is the session surface the handlers need.
type AuthService interface {
	Register(ctx context.Context, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (storage.Session, error)
	Authenticate(ctx context.Context, token string) (string, error)
	Logout(ctx context.Context, token string) error
}

type Server struct {
	http.Server
	templates *template.Template

	budget     BudgetService
	activities ActivityService
	auth       AuthService

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, budget BudgetService, activities ActivityService, authSvc AuthService) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		budget:      budget,
		activities:  activities,
		auth:        authSvc,
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	// Parse embedded templates at startup.
	t, err := template.New("").Funcs(templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/login", s.protect(s.handleLogin, false))
	mux.HandleFunc("/register", s.protect(s.handleRegister, false))
	mux.HandleFunc("/logout", s.protect(s.handleLogout, true))

	mux.HandleFunc("/", s.protect(s.handleDashboard, true))
	mux.HandleFunc("/expenses", s.protect(s.handleCreateExpense, true))
	mux.HandleFunc("/categories", s.protect(s.handleCreateCategory, true))
	mux.HandleFunc("/transactions", s.protect(s.handleCreateTransaction, true))
	mux.HandleFunc("/ui/category-transactions", s.protect(s.handleCategoryTransactions, true))
	mux.HandleFunc("/ui/period-totals", s.protect(s.handlePeriodTotals, true))

	mux.HandleFunc("/activities", s.protect(s.handleActivities, true))
	mux.HandleFunc("/activities/new", s.protect(s.handleCreateActivity, true))
	mux.HandleFunc("/entries", s.protect(s.handleCreateEntry, true))

	return s
}

type contextKey string

const ownerIDKey contextKey = "owner_id"

// protect applies the standard middleware chain and, when requireAuth
// is set, resolves the session cookie into an owner ID.
func (s *Server) protect(next http.HandlerFunc, requireAuth bool) http.HandlerFunc {
	traced := trace.NewMiddleware(clientIP)
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.rateLimiter.Middleware(clientIP, nil)

	handler := func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			limited(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				s.dispatch(w, r, next, requireAuth)
			})).ServeHTTP(w, r)
			return
		}
		s.dispatch(w, r, next, requireAuth)
	}

	wrapped := traced.Middleware(headers.Middleware(http.HandlerFunc(handler)))
	return wrapped.ServeHTTP
}

func (s *Server) dispatch(w http.ResponseWriter, r *http.Request, next http.HandlerFunc, requireAuth bool) {
	if !requireAuth {
		next(w, r)
		return
	}

	ownerID, err := s.authenticate(r)
	if err != nil {
		if isPartialRequest(r) {
			w.Header().Set("HX-Redirect", "/login")
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	ctx := context.WithValue(r.Context(), ownerIDKey, ownerID)
	next(w, r.WithContext(ctx))
}

func (s *Server) authenticate(r *http.Request) (string, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return "", err
	}
	return s.auth.Authenticate(r.Context(), cookie.Value)
}

// ownerID returns the authenticated owner from the request context.
func ownerID(ctx context.Context) string {
	if id, ok := ctx.Value(ownerIDKey).(string); ok {
		return id
	}
	return ""
}

// isPartialRequest reports whether the request came from HTMX.
func isPartialRequest(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

// Shutdown stops the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.ErrorContext(r.Context(), "Template execution failed", "error", err, "template", name)
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

// statusForError maps domain errors to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, core.ErrDuplicateName):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidReference),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrNameTooLong),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidYear),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidAmount):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// errorMessage maps domain errors to the messages shown in form partials.
func errorMessage(err error, entity string) string {
	switch {
	case errors.Is(err, core.ErrDuplicateName):
		switch entity {
		case "expense":
			return "An expense with this name already exists"
		case "category":
			return "A category with this name already exists under this expense"
		default:
			return "This name is already in use"
		}
	case errors.Is(err, core.ErrInvalidReference):
		return "Invalid category or expense combination"
	case errors.Is(err, core.ErrEmptyName):
		return "Name is required"
	case errors.Is(err, core.ErrNameTooLong):
		return "Name is too long (max 100 characters)"
	case errors.Is(err, core.ErrInvalidMonth), errors.Is(err, core.ErrInvalidYear):
		return "Invalid month or year"
	case errors.Is(err, core.ErrInvalidDate):
		return "Invalid date"
	case errors.Is(err, core.ErrInvalidAmount):
		return "Invalid amount"
	case errors.Is(err, auth.ErrEmailTaken):
		return "An account with this email already exists"
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid email or password"
	case errors.Is(err, auth.ErrWeakPassword):
		return "Password must be at least 8 characters"
	case errors.Is(err, auth.ErrInvalidEmail):
		return "Invalid email address"
	default:
		return "Something went wrong, please try again"
	}
}
