package http

import (
	"net/http"

	"billetera/internal/ledger"
)

type transferRequest struct {
	FromAccountID   int64  `json:"from_account_id"`
	ToAccountID     int64  `json:"to_account_id"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	CountsAsSavings bool   `json:"counts_as_savings"`
}

func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req transferRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}

	res, err := s.svc.Transfers.Apply(r.Context(), ledger.Transfer{
		FromAccountID:   req.FromAccountID,
		ToAccountID:     req.ToAccountID,
		Amount:          amount,
		Description:     req.Description,
		CountsAsSavings: req.CountsAsSavings,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, toTransferView(res))
}
