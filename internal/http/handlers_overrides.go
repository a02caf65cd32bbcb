package http

import (
	"net/http"
	"strconv"
	"strings"

	"debtplan/internal/core"
)

func (s *Server) handleListScheduleOverrides(w http.ResponseWriter, r *http.Request) {
	overrides, err := s.plans.ListScheduleOverrides(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overrides)
}

// handleSetScheduleOverride stores extra funds for one month. A zero
// amount removes the override.
func (s *Server) handleSetScheduleOverride(w http.ResponseWriter, r *http.Request) {
	monthIndex, err := pathInt(r, "monthIndex")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req struct {
		AdditionalAmount core.Money `json:"additionalAmount"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	o := core.ScheduleOverride{MonthIndex: monthIndex, AdditionalAmount: req.AdditionalAmount}
	if err := o.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.plans.SetScheduleOverride(r.Context(), o); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPaymentOverrides(w http.ResponseWriter, r *http.Request) {
	monthIndex := 0
	if v := strings.TrimSpace(r.URL.Query().Get("monthIndex")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid monthIndex")
			return
		}
		monthIndex = n
	}

	overrides, err := s.plans.ListPaymentOverrides(r.Context(), monthIndex)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, overrides)
}

// handleReplacePaymentOverrides swaps one month's pinned payments for
// the posted set. An empty set clears the month.
func (s *Server) handleReplacePaymentOverrides(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MonthIndex int `json:"monthIndex"`
		Overrides  []struct {
			DebtID int64      `json:"debtId"`
			Amount core.Money `json:"amount"`
			Note   string     `json:"note"`
		} `json:"overrides"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.MonthIndex < 1 {
		writeError(w, http.StatusBadRequest, core.ErrInvalidMonth.Error())
		return
	}

	pins := make([]core.PaymentOverride, 0, len(req.Overrides))
	for _, o := range req.Overrides {
		pin := core.PaymentOverride{
			MonthIndex: req.MonthIndex,
			DebtID:     o.DebtID,
			Amount:     o.Amount,
			Note:       o.Note,
		}
		if err := pin.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		pins = append(pins, pin)
	}

	stored, err := s.plans.ReplacePaymentOverrides(r.Context(), req.MonthIndex, pins)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeletePaymentOverride(w http.ResponseWriter, r *http.Request) {
	monthIndex, err := pathInt(r, "monthIndex")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	debtID, err := pathInt64(r, "debtId")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.plans.DeletePaymentOverride(r.Context(), monthIndex, debtID); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	w.WriteHeader(http.StatusNoContent)
}
