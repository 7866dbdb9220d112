// Package http exposes the ledger over a JSON API. Handlers stay
// thin: decode, call a service, map the error, encode.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"billetera/internal/ledger"
	"billetera/internal/stats"
)

// Services groups everything the handlers need. All fields are
// required except Stats, which only backs the dashboard endpoints.
type Services struct {
	Accounts  *ledger.AccountService
	Incomes   *ledger.IncomeService
	Expenses  *ledger.ExpenseService
	Debts     *ledger.DebtService
	Transfers *ledger.TransferService
	Savings   *ledger.SavingsService
	Payments  *ledger.PaymentService
	Stats     *stats.Service
}

type Server struct {
	http.Server
	svc          Services
	rateLimiter  *rateLimiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a
// ready-to-run http.Server.
func NewServer(addr string, svc Services) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		svc:         svc,
		rateLimiter: newRateLimiter(),
	}

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)

	mux.HandleFunc("/api/accounts", s.withAPI(s.handleAccounts))
	mux.HandleFunc("/api/accounts/reset", s.withAPI(s.handleAccountsReset))

	mux.HandleFunc("/api/incomes", s.withAPI(s.handleIncomes))
	mux.HandleFunc("/api/incomes/update", s.withAPI(s.handleIncomeUpdate))
	mux.HandleFunc("/api/incomes/delete", s.withAPI(s.handleIncomeDelete))
	mux.HandleFunc("/api/incomes/monthly-total", s.withAPI(s.handleIncomeMonthlyTotal))

	mux.HandleFunc("/api/expenses", s.withAPI(s.handleExpenses))
	mux.HandleFunc("/api/expenses/update", s.withAPI(s.handleExpenseUpdate))
	mux.HandleFunc("/api/expenses/delete", s.withAPI(s.handleExpenseDelete))

	mux.HandleFunc("/api/debts", s.withAPI(s.handleDebts))
	mux.HandleFunc("/api/debts/pending", s.withAPI(s.handleDebtsPending))
	mux.HandleFunc("/api/debts/pay", s.withAPI(s.handleDebtPay))
	mux.HandleFunc("/api/debts/unpay", s.withAPI(s.handleDebtUnpay))

	mux.HandleFunc("/api/transfers", s.withAPI(s.handleTransfer))

	mux.HandleFunc("/api/goals", s.withAPI(s.handleGoals))
	mux.HandleFunc("/api/goals/delete", s.withAPI(s.handleGoalDelete))
	mux.HandleFunc("/api/goals/deposit", s.withAPI(s.handleGoalDeposit))

	mux.HandleFunc("/api/recurring", s.withAPI(s.handleRecurring))
	mux.HandleFunc("/api/recurring/pay", s.withAPI(s.handleRecurringPay))
	mux.HandleFunc("/api/recurring/undo", s.withAPI(s.handleRecurringUndo))

	mux.HandleFunc("/api/stats/month", s.withAPI(s.handleStatsMonth))

	return s
}

// Shutdown stops the rate limiter sweep and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

// withAPI adds security headers, rate limiting on mutations, and
// request logging with a per-request ID.
func (s *Server) withAPI(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.Header.Get("X-Real-IP")
		}
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"client_ip", clientIP)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			"request_id", requestID,
			"method", r.Method,
			"url", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", time.Since(start).Milliseconds())
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
