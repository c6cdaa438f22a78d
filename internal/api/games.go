package api

import (
	"encoding/json"
	"net/http"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/rankings"
	"github.com/vgebrev/leagr/internal/response"
	"github.com/vgebrev/leagr/internal/schedule"
)

// handleGetGames returns the session's fixtures.
func (s *APIServer) handleGetGames(w http.ResponseWriter, r *http.Request) {
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
	response.WriteSuccess(w, sd.Games)
}

// handleGenerateGames builds a round-robin schedule from the session's
// current team names, overwriting any existing rounds (spec §4.D).
func (s *APIServer) handleGenerateGames(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var result domain.SessionGames
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		if len(sd.Teams) < 2 {
			return sd, apperr.Validation("at least two teams are required to generate a schedule")
		}
		names := make([]string, 0, len(sd.Teams))
		for name := range sd.Teams {
			names = append(names, name)
		}
		sd.Games.Rounds = schedule.GenerateRoundRobin(names)
		result = sd.Games
		return sd, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	if err := s.recomputeRankings(leagueID, date); err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

type scoreRequest struct {
	Round  int    `json:"round"`
	Match  int    `json:"match"`
	Side   string `json:"side"`
	Score  *int   `json:"score"`
	Player string `json:"player,omitempty"`
	Delta  int    `json:"delta,omitempty"`
}

// handleSetScore records a match score or a ±1 scorer delta (spec §4.D
// setScore / applyScorerDelta), keyed by round/match index.
func (s *APIServer) handleSetScore(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}

	var result domain.Match
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		if req.Round < 0 || req.Round >= len(sd.Games.Rounds) || req.Match < 0 || req.Match >= len(sd.Games.Rounds[req.Round]) {
			return sd, apperr.NotFound("round/match index out of range")
		}
		m := sd.Games.Rounds[req.Round][req.Match]
		var merr error
		if req.Player != "" {
			m, merr = schedule.ApplyScorerDelta(m, req.Side, req.Player, req.Delta)
		} else {
			m, merr = schedule.SetScore(m, req.Side, req.Score)
		}
		if merr != nil {
			return sd, merr
		}
		sd.Games.Rounds[req.Round][req.Match] = m
		result = m
		return sd, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	if err := s.recomputeRankings(leagueID, date); err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

// handleGetKnockout returns the session's knockout bracket, if any.
func (s *APIServer) handleGetKnockout(w http.ResponseWriter, r *http.Request) {
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
	response.WriteSuccess(w, sd.Games.Knockout)
}

// handleGenerateKnockout seeds a single-elimination bracket from the
// session's league-phase standings (spec §4.D seedBracket).
func (s *APIServer) handleGenerateKnockout(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var result domain.Knockout
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		standings := schedule.Standings(sd.Games.Rounds)
		bracket, berr := schedule.SeedBracket(standings)
		if berr != nil {
			return sd, berr
		}
		sd.Games.Knockout = &domain.Knockout{Bracket: bracket}
		result = *sd.Games.Knockout
		return sd, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

// handleSetKnockoutScore records a bracket match score and propagates
// winners forward through the round (spec §4.D propagateWinners).
func (s *APIServer) handleSetKnockoutScore(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}

	var result domain.Knockout
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		if sd.Games.Knockout == nil || req.Match < 0 || req.Match >= len(sd.Games.Knockout.Bracket) {
			return sd, apperr.NotFound("bracket match index out of range")
		}
		bm := sd.Games.Knockout.Bracket[req.Match]
		m, merr := schedule.SetScore(bm.Match, req.Side, req.Score)
		if merr != nil {
			return sd, merr
		}
		bm.Match = m
		sd.Games.Knockout.Bracket[req.Match] = bm
		sd.Games.Knockout.Bracket = schedule.PropagateWinners(sd.Games.Knockout.Bracket)
		result = *sd.Games.Knockout
		return sd, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	if err := s.recomputeRankings(leagueID, date); err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, result)
}

// recomputeRankings rebuilds the year containing date from every session
// document on record, the same recompute path leagrctl's "rankings
// rebuild" command drives (spec §4.E: rankings are a pure function of the
// session history, never incrementally patched).
func (s *APIServer) recomputeRankings(leagueID, date string) error {
	year := sessionYear(date)
	dates, err := s.store.ListSessionDates(leagueID)
	if err != nil {
		return err
	}
	inputs := make([]rankings.SessionInput, 0, len(dates))
	for _, d := range dates {
		if sessionYear(d) != year {
			continue
		}
		sd, lerr := s.store.LoadSessionDoc(leagueID, d)
		if lerr != nil {
			return lerr
		}
		settings, serr := s.settingsCache.Get(leagueID, d)
		if serr != nil {
			return serr
		}
		inputs = append(inputs, rankings.SessionInput{Date: d, Teams: sd.Teams, Games: sd.Games, Settings: settings})
	}

	var prior *domain.RankingsYear
	if py, perr := s.store.LoadRankingsYear(leagueID, year-1); perr == nil && len(py.Players) > 0 {
		prior = &py
	}
	rebuilt := rankings.RebuildYear(year, inputs, prior)
	return s.store.SaveRankingsYear(leagueID, year, rebuilt)
}
