package http

import (
	"net/http"

	"billetera/internal/core"
)

type shareRequest struct {
	Debtor string `json:"debtor"`
	Amount string `json:"amount"`
}

type expenseRequest struct {
	ID          int64          `json:"id"`
	Amount      string         `json:"amount"`
	Bucket      string         `json:"bucket"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	AccountID   int64          `json:"account_id"`
	Date        string         `json:"date"`
	Shares      []shareRequest `json:"shares"`
}

func (r expenseRequest) toPosting() (core.ExpensePosting, []core.DebtShare, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return core.ExpensePosting{}, nil, err
	}
	date, err := parseDateField(r.Date)
	if err != nil {
		return core.ExpensePosting{}, nil, err
	}

	shares := make([]core.DebtShare, 0, len(r.Shares))
	for _, sh := range r.Shares {
		shareAmount, err := parseAmount(sh.Amount)
		if err != nil {
			return core.ExpensePosting{}, nil, err
		}
		shares = append(shares, core.DebtShare{
			Debtor: sh.Debtor,
			Amount: shareAmount,
		})
	}

	return core.ExpensePosting{
		ID:          r.ID,
		Amount:      amount,
		Bucket:      core.BudgetBucket(r.Bucket),
		Category:    r.Category,
		Description: r.Description,
		AccountID:   r.AccountID,
		Date:        date,
	}, shares, nil
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)

	case http.MethodPost:
		var req expenseRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		posting, shares, err := req.toPosting()
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, err := s.svc.Expenses.Record(r.Context(), posting, shares)
		if err != nil {
			writeError(w, r, err)
			return
		}
		s.invalidateStats(posting.Date)
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// listExpenses returns the month's postings when year or month is
// given, otherwise the most recent ones.
func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	var (
		postings []core.ExpensePosting
		err      error
	)
	q := r.URL.Query()
	if q.Get("year") != "" || q.Get("month") != "" {
		year, month := parseYearMonth(r)
		postings, err = s.svc.Expenses.ListMonth(r.Context(), year, month)
	} else {
		postings, err = s.svc.Expenses.List(r.Context(), parseLimit(r))
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	views := make([]expenseView, 0, len(postings))
	for _, p := range postings {
		views = append(views, toExpenseView(p))
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleExpenseUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req expenseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	posting, shares, err := req.toPosting()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if posting.ID == 0 {
		writeError(w, r, core.Validation("id is required"))
		return
	}

	if err := s.svc.Expenses.Update(r.Context(), posting, shares); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats(posting.Date)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleExpenseDelete(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID int64 `json:"id"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == 0 {
		writeError(w, r, core.Validation("id is required"))
		return
	}

	if err := s.svc.Expenses.Delete(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
