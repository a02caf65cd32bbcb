package http

import (
	"net/http"

	"debtplan/internal/core"
)

func (s *Server) handleListDebts(w http.ResponseWriter, r *http.Request) {
	debts, err := s.plans.ListDebts(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, debts)
}

func (s *Server) handleCreateDebt(w http.ResponseWriter, r *http.Request) {
	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	// Identity comes from the store, never from the client.
	d.ID = 0
	d.Position = 0
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := s.plans.CreateDebt(r.Context(), d)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var d core.Debt
	if err := decodeJSON(w, r, &d); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	d.ID = id
	if err := d.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	updated, err := s.plans.UpdateDebt(r.Context(), d)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteDebt(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.plans.DeleteDebt(r.Context(), id); err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReorderDebts(w http.ResponseWriter, r *http.Request) {
	var req struct {
		IDsInOrder []int64 `json:"idsInOrder"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.IDsInOrder) == 0 {
		writeError(w, http.StatusBadRequest, "idsInOrder is required")
		return
	}

	debts, err := s.plans.ReorderDebts(r.Context(), req.IDsInOrder)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.invalidateSimulation()
	writeJSON(w, http.StatusOK, debts)
}
