package http

import (
	"net/http"
	"strings"
	"time"

	"billetera/internal/core"
	"billetera/internal/schedule"
)

type createRecurringRequest struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Amount    string `json:"amount"`
	Frequency string `json:"frequency"`
	Active    *bool  `json:"active"`
}

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRecurring(w, r)

	case http.MethodPost:
		var req createRecurringRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		amount, err := parseAmount(req.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}

		// New items default to active.
		active := true
		if req.Active != nil {
			active = *req.Active
		}

		id, err := s.svc.Payments.CreateItem(r.Context(), core.RecurringItem{
			Kind:      core.RecurringKind(req.Kind),
			Name:      req.Name,
			Amount:    amount,
			Frequency: core.Frequency(req.Frequency),
			Active:    active,
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

// listRecurring returns items of the requested kind, or both kinds
// when none is given, each with its schedule evaluation.
func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	kinds := []core.RecurringKind{core.Service, core.Subscription}
	if v := strings.TrimSpace(r.URL.Query().Get("kind")); v != "" {
		kinds = []core.RecurringKind{core.RecurringKind(v)}
	}

	now := time.Now()
	views := make([]recurringView, 0)
	for _, kind := range kinds {
		items, err := s.svc.Payments.ListItems(r.Context(), kind)
		if err != nil {
			writeError(w, r, err)
			return
		}
		for _, it := range items {
			ev, err := schedule.Evaluate(it, now)
			if err != nil {
				writeError(w, r, err)
				return
			}
			views = append(views, toRecurringView(it, ev))
		}
	}
	writeJSON(w, http.StatusOK, views)
}

type payRequest struct {
	Kind      string `json:"kind"`
	ItemID    int64  `json:"item_id"`
	AccountID int64  `json:"account_id"`
}

func (s *Server) handleRecurringPay(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req payRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.svc.Payments.MarkPaid(r.Context(), core.RecurringKind(req.Kind), req.ItemID, req.AccountID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "paid"})
}

func (s *Server) handleRecurringUndo(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	var req payRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.svc.Payments.Undo(r.Context(), core.RecurringKind(req.Kind), req.ItemID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateStats()
	writeJSON(w, http.StatusOK, map[string]string{"status": "undone"})
}
