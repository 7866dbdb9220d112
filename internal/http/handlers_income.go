package http

import (
	"net/http"

	"billetera/internal/core"
)

type incomeRequest struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Amount         string `json:"amount"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	AccountID      int64  `json:"account_id"`
	Date           string `json:"date"`
	CountsInBudget *bool  `json:"counts_in_budget"`
}

func (r incomeRequest) toPosting() (core.IncomePosting, error) {
	amount, err := parseAmount(r.Amount)
	if err != nil {
		return core.IncomePosting{}, err
	}
	date, err := parseDateField(r.Date)
	if err != nil {
		return core.IncomePosting{}, err
	}

	// Unspecified counts_in_budget means ordinary income.
	countsInBudget := true
	if r.CountsInBudget != nil {
		countsInBudget = *r.CountsInBudget
	}

	return core.IncomePosting{
		ID:             r.ID,
		Name:           r.Name,
		Amount:         amount,
		Category:       r.Category,
		Description:    r.Description,
		AccountID:      r.AccountID,
		Date:           date,
		CountsInBudget: countsInBudget,
	}, nil
}

func (s *Server) handleIncomes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		postings, err := s.svc.Incomes.List(r.Context(), parseLimit(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]incomeView, 0, len(postings))
		for _, p := range postings {
			views = append(views, toIncomeView(p))
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req incomeRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		posting, err := req.toPosting()
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, err := s.svc.Incomes.Record(r.Context(), posting)
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

func (s *Server) handleIncomeUpdate(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req incomeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	posting, err := req.toPosting()
	if err != nil {
		writeError(w, r, err)
		return
	}
	if posting.ID == 0 {
		writeError(w, r, core.Validation("id is required"))
		return
	}

	if err := s.svc.Incomes.Update(r.Context(), posting); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats(posting.Date)
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleIncomeDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Incomes.Delete(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleIncomeMonthlyTotal(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	year, month := parseYearMonth(r)

	total, err := s.svc.Incomes.MonthlyBudgetTotal(r.Context(), year, month)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":        year,
		"month":       month,
		"total_cents": total.Cents,
		"total":       total.String(),
	})
}
