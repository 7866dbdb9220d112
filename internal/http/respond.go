package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"billetera/internal/core"
	"billetera/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// writeError maps the service error taxonomy onto HTTP status codes.
// Version conflict exhaustion reads as contention, so it gets the
// same 409 as an insufficient-funds rejection.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsPartialFailure(err):
		slog.ErrorContext(r.Context(), "Partially applied operation", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "operation partially applied, manual reconciliation required"})
	case core.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: err.Error()})
	case errors.Is(err, core.ErrInsufficientFunds):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case errors.Is(err, store.ErrVersionConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: err.Error()})
	case core.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, errorBody{Error: err.Error()})
	default:
		slog.ErrorContext(r.Context(), "Request failed", "url", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}

// decodeJSON reads the request body into dst. A false return means
// the 400 response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return false
	}
	return true
}

// requireMethod writes a 405 and returns false when the request
// method does not match.
func requireMethod(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	w.WriteHeader(http.StatusMethodNotAllowed)
	return false
}

// parseYearMonth extracts year and month from query parameters,
// defaulting to the current month.
func parseYearMonth(r *http.Request) (year, month int) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())

	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil {
			year = y
		}
	}
	if v := strings.TrimSpace(r.URL.Query().Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil {
			month = m
		}
	}

	return year, month
}

func parseLimit(r *http.Request) int {
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// parseAmount converts a decimal amount string into Money, mapping
// parse failures to the validation taxonomy.
func parseAmount(s string) (core.Money, error) {
	m, err := core.ParseMoney(s)
	if err != nil {
		return core.Money{}, core.Validationf("invalid amount %q", s)
	}
	return m, nil
}

func parseDateField(s string) (core.Date, error) {
	if strings.TrimSpace(s) == "" {
		return core.DateFrom(time.Now()), nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, core.Validationf("invalid date %q, want YYYY-MM-DD", s)
	}
	return d, nil
}

// invalidateStats drops the cached summaries a mutation can touch:
// the posting's month and the current one.
func (s *Server) invalidateStats(dates ...core.Date) {
	if s.svc.Stats == nil {
		return
	}
	now := time.Now()
	s.svc.Stats.Invalidate(now.Year(), int(now.Month()))
	for _, d := range dates {
		s.svc.Stats.Invalidate(d.Year(), d.Month())
	}
}
