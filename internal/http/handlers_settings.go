package http

import (
	"net/http"

	"debtplan/internal/core"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.plans.GetSettings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// handleUpdateSettings applies a partial update: absent fields keep
// their current values.
func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		BalanceDate   *core.Date     `json:"balanceDate"`
		MonthlyBudget *core.Money    `json:"monthlyBudget"`
		Strategy      *core.Strategy `json:"strategy"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	settings, err := s.plans.GetSettings(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.BalanceDate != nil {
		settings.BalanceDate = *req.BalanceDate
	}
	if req.MonthlyBudget != nil {
		settings.MonthlyBudget = *req.MonthlyBudget
	}
	if req.Strategy != nil {
		settings.Strategy = *req.Strategy
	}
	if err := settings.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.plans.UpdateSettings(r.Context(), settings)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	writeJSON(w, http.StatusOK, updated)
}
