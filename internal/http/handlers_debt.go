package http

import (
	"net/http"
	"strconv"
	"strings"

	"billetera/internal/core"
)

func (s *Server) handleDebts(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	v := strings.TrimSpace(r.URL.Query().Get("expense_id"))
	expenseID, err := strconv.ParseInt(v, 10, 64)
	if err != nil || expenseID <= 0 {
		writeError(w, r, core.Validation("expense_id is required"))
		return
	}

	shares, err := s.svc.Debts.ListForExpense(r.Context(), expenseID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShareViews(shares))
}

func (s *Server) handleDebtsPending(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet) {
		return
	}
	shares, err := s.svc.Debts.ListPending(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toShareViews(shares))
}

type settleRequest struct {
	ShareID   int64 `json:"share_id"`
	AccountID int64 `json:"account_id"`
}

func (s *Server) handleDebtPay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req settleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.Debts.MarkPaid(r.Context(), req.ShareID, req.AccountID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (s *Server) handleDebtUnpay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req settleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.svc.Debts.MarkUnpaid(r.Context(), req.ShareID, req.AccountID); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reopened"})
}

func toShareViews(shares []core.DebtShare) []shareView {
	views := make([]shareView, 0, len(shares))
	for _, sh := range shares {
		views = append(views, toShareView(sh))
	}
	return views
}
