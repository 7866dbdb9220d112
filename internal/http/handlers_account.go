package http

import (
	"net/http"

	"billetera/internal/core"
)

type createAccountRequest struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Balance string `json:"balance"`
	Color   string `json:"color"`
}

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		accounts, err := s.svc.Accounts.List(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		views := make([]accountView, 0, len(accounts))
		for _, a := range accounts {
			views = append(views, toAccountView(a))
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		var req createAccountRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		balance := core.Money{}
		if req.Balance != "" {
			var err error
			if balance, err = core.ParseSignedMoney(req.Balance); err != nil {
				writeError(w, r, core.Validationf("invalid balance %q", req.Balance))
				return
			}
		}

		id, err := s.svc.Accounts.Create(r.Context(), core.Account{
			Name:    req.Name,
			Kind:    core.AccountKind(req.Kind),
			Balance: balance,
			Color:   req.Color,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		created, err := s.svc.Accounts.Get(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAccountView(created))

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleAccountsReset wipes history and zeroes balances. Account and
// recurring item definitions survive.
func (s *Server) handleAccountsReset(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if err := s.svc.Accounts.Reset(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
