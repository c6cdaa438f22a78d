package api

import (
	"encoding/json"
	"net/http"

	"github.com/vgebrev/leagr/internal/response"
)

// handleGetSettings returns the league's current settings document (spec
// §4.I; falls back to domain.DefaultSettings when none has been written).
func (s *APIServer) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	settings, err := s.store.LoadSettings(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, settings)
}

// handleUpdateSettings overwrites the league's settings document and
// invalidates the cached copy so the next read picks up the change
// immediately (spec §4.I invalidation rule).
func (s *APIServer) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())

	current, err := s.store.LoadSettings(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	if err := json.NewDecoder(r.Body).Decode(&current); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := s.store.SaveSettings(leagueID, current); err != nil {
		response.WriteAppError(w, err)
		return
	}
	s.settingsCache.InvalidateLeague(leagueID)
	response.WriteSuccess(w, current)
}
