package http

import (
	"log/slog"
	"net/http"
)

// handleSimulation runs the engine over the stored plan. Results are
// cached until the next mutation or TTL expiry.
func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	if result, found := s.simCache.Get(simulationCacheKey); found {
		slog.DebugContext(r.Context(), "Simulation cache hit")
		writeJSON(w, http.StatusOK, result)
		return
	}

	result, err := s.plans.Simulate(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.simCache.Set(simulationCacheKey, result)
	writeJSON(w, http.StatusOK, result)
}
