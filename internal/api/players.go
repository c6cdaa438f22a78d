package api

import (
	"encoding/json"
	"net/http"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/discipline"
	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/response"
	"github.com/vgebrev/leagr/internal/session"
	"github.com/vgebrev/leagr/internal/validation"
)

func dateParam(r *http.Request) (string, error) {
	date := r.URL.Query().Get("date")
	if date == "" {
		return "", apperr.Validation("date query parameter is required")
	}
	return date, nil
}

// sessionYear extracts the calendar year a session date belongs to, which
// is also the rankings document that session's results roll up into.
func sessionYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for _, r := range date[:4] {
		if r < '0' || r > '9' {
			return 0
		}
		year = year*10 + int(r-'0')
	}
	return year
}

// handleGetPlayers returns the session's available/waiting-list state.
func (s *APIServer) handleGetPlayers(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	sd, err := s.store.LoadSessionDoc(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, sd.Players)
}

type addPlayerRequest struct {
	Name   string `json:"name"`
	Target string `json:"target,omitempty"`
}

// handleAddPlayer registers a player for the session, applying the
// discipline-ledger suspension check first (spec §4.F
// evaluateSuspensionOnSignup runs ahead of the signup itself).
func (s *APIServer) handleAddPlayer(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req addPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := validation.ValidatePlayerName(req.Name); err != nil {
		response.WriteBadRequest(w, err.Error())
		return
	}

	settings, err := s.settingsCache.Get(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var result domain.Players
	disc, err := s.store.LoadDiscipline(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	rec := disc.Players[req.Name]
	outcome := discipline.EvaluateSuspensionOnSignup(rec, settings.Discipline, date)
	if outcome.Suspended {
		if outcome.NewSuspension {
			disc.Players[req.Name] = outcome.Record
			if err := s.store.SaveDiscipline(leagueID, disc); err != nil {
				response.WriteAppError(w, err)
				return
			}
		}
		response.WriteAppError(w, apperr.AccessDenied("player is suspended due to accumulated no-shows"))
		return
	}

	target := session.Target(req.Target)
	if target == "" {
		target = session.Auto
	}
	sessErr := s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		next, err := session.AddPlayer(sd, req.Name, target, settings.PlayerLimit)
		if err != nil {
			return sd, err
		}
		if err := session.Validate(next, settings.PlayerLimit, false); err != nil {
			return sd, err
		}
		result = next.Players
		return next, nil
	})
	if sessErr != nil {
		response.WriteAppError(w, sessErr)
		return
	}

	cleared := discipline.ClearNoShowsIfAppeared(rec, date, date)
	disc.Players[req.Name] = cleared
	if err := s.store.SaveDiscipline(leagueID, disc); err != nil {
		response.WriteAppError(w, err)
		return
	}

	response.WriteSuccess(w, result)
}

// handleRemovePlayer removes a player from whichever list holds them.
func (s *APIServer) handleRemovePlayer(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		response.WriteBadRequest(w, "name query parameter is required")
		return
	}

	var result domain.Players
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		next, err := session.RemovePlayer(sd, name)
		if err != nil {
			return sd, err
		}
		result = next.Players
		return next, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

type movePlayerRequest struct {
	Name string `json:"name"`
	From string `json:"from"`
	To   string `json:"to"`
}

// handleMovePlayer moves a player between available and waitingList.
func (s *APIServer) handleMovePlayer(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req movePlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}

	settings, err := s.settingsCache.Get(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var result domain.SessionDoc
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		next, err := session.MovePlayer(sd, req.Name, session.Target(req.From), session.Target(req.To), settings.PlayerLimit)
		if err != nil {
			return sd, err
		}
		result = next
		return next, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, map[string]any{"players": result.Players, "teams": result.Teams})
}
