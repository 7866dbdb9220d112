package http

import (
	"net/http"

	"billetera/internal/core"
)

type createGoalRequest struct {
	Name   string `json:"name"`
	Target string `json:"target"`
	Color  string `json:"color"`
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		goals, err := s.svc.Savings.ListGoals(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]goalView, 0, len(goals))
		for _, g := range goals {
			views = append(views, toGoalView(g))
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req createGoalRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		target, err := parseAmount(req.Target)
		if err != nil {
			writeError(w, r, err)
			return
		}

		id, err := s.svc.Savings.CreateGoal(r.Context(), core.SavingsGoal{
			Name:   req.Name,
			Target: target,
			Color:  req.Color,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]int64{"id": id})

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGoalDelete(w http.ResponseWriter, r *http.Request) {
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

	if err := s.svc.Savings.DeleteGoal(r.Context(), req.ID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "deleted",
		"warning": "contributed funds are not returned to any account",
	})
}

type depositRequest struct {
	GoalID    int64  `json:"goal_id"`
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
	Date      string `json:"date"`
}

func (s *Server) handleGoalDeposit(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req depositRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	date, err := parseDateField(req.Date)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := s.svc.Savings.Contribute(r.Context(), req.GoalID, req.AccountID, amount, date); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats(date)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deposited"})
}
