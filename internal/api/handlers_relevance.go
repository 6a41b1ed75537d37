package api

import (
	"encoding/json"
	"net/http"

	"github.com/ppb-analytics/ppbtree/internal/relevance"
)

// handleRelevance scores entity/mandate pairs against the configured
// model. The caller supplies pre-flattened narratives and mandate
// paragraphs; results come back keyed by symbol then entity.
func (s *Server) handleRelevance(w http.ResponseWriter, r *http.Request) {
	if s.scorer == nil {
		jsonError(w, "relevance scoring is not configured", http.StatusServiceUnavailable)
		return
	}

	var req struct {
		Pairs []relevance.Pair `json:"pairs"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if len(req.Pairs) == 0 {
		jsonError(w, "at least one pair is required", http.StatusBadRequest)
		return
	}
	for _, p := range req.Pairs {
		if p.Entity == "" || p.Symbol == "" {
			jsonError(w, "pairs require entity and symbol", http.StatusBadRequest)
			return
		}
	}

	result, err := s.scorer.Run(r.Context(), req.Pairs)
	if err != nil {
		// Partial results still count; report the failures alongside.
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusMultiStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"results": result,
			"error":   err.Error(),
		})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"results": result})
}
