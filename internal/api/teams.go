package api

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/response"
	"github.com/vgebrev/leagr/internal/session"
	"github.com/vgebrev/leagr/internal/teamgen"
)

const pairHistorySessions = 12

// buildPairHistory scans the most recent pairHistorySessions session
// documents before date and counts, for every pair of players, how many of
// those sessions placed them on the same team (spec §4.C pair history).
func (s *APIServer) buildPairHistory(leagueID, date string) (teamgen.PairCounts, error) {
	dates, err := s.store.ListSessionDates(leagueID)
	if err != nil {
		return nil, err
	}
	var prior []string
	for _, d := range dates {
		if d < date {
			prior = append(prior, d)
		}
	}
	if len(prior) > pairHistorySessions {
		prior = prior[len(prior)-pairHistorySessions:]
	}

	counts := teamgen.PairCounts{}
	for _, d := range prior {
		sd, err := s.store.LoadSessionDoc(leagueID, d)
		if err != nil {
			continue
		}
		for _, roster := range sd.Teams {
			for i := 0; i < len(roster); i++ {
				for j := i + 1; j < len(roster); j++ {
					if roster[i] == "" || roster[j] == "" {
						continue
					}
					counts.Add(roster[i], roster[j])
				}
			}
		}
	}
	return counts, nil
}

// buildPlayerInputs reads each available player's carried-forward rating
// state from the current rankings year, defaulting players with no record
// in that year to a zero record (teamgen.resolveEffective treats GamesPlayed==0 as
// fully provisional).
func (s *APIServer) buildPlayerInputs(leagueID string, names []string, year int) ([]teamgen.PlayerInput, error) {
	ry, err := s.store.LoadRankingsYear(leagueID, year)
	if err != nil {
		return nil, err
	}
	inputs := make([]teamgen.PlayerInput, 0, len(names))
	for _, name := range names {
		rec := ry.Players[name]
		input := teamgen.PlayerInput{Name: name}
		if rec != nil {
			input.Elo = rec.Elo.Rating
			input.GamesPlayed = rec.Elo.GamesPlayed
			input.AttackingRating = rec.AttackingRating
			input.ControlRating = rec.ControlRating
			input.RankingPoints = rec.RankingPoints
			input.Appearances = rec.Appearances
		}
		inputs = append(inputs, input)
	}
	return inputs, nil
}

// handleGetTeams returns the session's current team assignments.
func (s *APIServer) handleGetTeams(w http.ResponseWriter, r *http.Request) {
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
	response.WriteSuccess(w, sd.Teams)
}

type teamConfigRequest struct {
	TeamNames []string `json:"teamNames"`
	TeamSizes []int    `json:"teamSizes"`
}

type generateTeamsRequest struct {
	Method     string            `json:"method"`
	TeamConfig teamConfigRequest `json:"teamConfig"`
}

// handleGenerateTeams builds a fresh set of team rosters from the
// session's available players: "random" shuffles players into slots
// directly, "seeded" runs the full balanced generator (spec §4.C).
func (s *APIServer) handleGenerateTeams(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req generateTeamsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if len(req.TeamConfig.TeamNames) == 0 || len(req.TeamConfig.TeamNames) != len(req.TeamConfig.TeamSizes) {
		response.WriteBadRequest(w, "teamConfig.teamNames and teamSizes must be equal-length and non-empty")
		return
	}

	sd, err := s.store.LoadSessionDoc(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	settings, err := s.settingsCache.Get(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var teams domain.Teams
	switch req.Method {
	case "random":
		teams = randomTeams(sd.Players.Available, req.TeamConfig.TeamNames, req.TeamConfig.TeamSizes)
	case "seeded", "":
		year := sessionYear(date)
		inputs, ierr := s.buildPlayerInputs(leagueID, sd.Players.Available, year)
		if ierr != nil {
			response.WriteAppError(w, ierr)
			return
		}
		history, herr := s.buildPairHistory(leagueID, date)
		if herr != nil {
			response.WriteAppError(w, herr)
			return
		}
		cfg := teamgen.Config{
			TeamNames:      req.TeamConfig.TeamNames,
			TeamSizes:      req.TeamConfig.TeamSizes,
			GamesThreshold: settings.Elo.GamesThreshold,
		}
		result, gerr := teamgen.Generate(r.Context(), inputs, cfg, history, rand.New(rand.NewSource(time.Now().UnixNano())))
		if gerr != nil {
			response.WriteAppError(w, gerr)
			return
		}
		teams = result.Teams
	default:
		response.WriteBadRequest(w, "method must be \"random\" or \"seeded\"")
		return
	}

	err = s.store.TransactSession(leagueID, date, func(current domain.SessionDoc) (domain.SessionDoc, error) {
		current.Teams = teams
		if err := session.Validate(current, settings.PlayerLimit, false); err != nil {
			return current, err
		}
		return current, nil
	})
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, teams)
}

// randomTeams shuffles the available players and fills each team's
// fixed-size slots in turn, one team after another, without any
// balancing, matching the "random" method's plain-shuffle contract.
func randomTeams(available []string, teamNames []string, teamSizes []int) domain.Teams {
	shuffled := append([]string{}, available...)
	rand.New(rand.NewSource(time.Now().UnixNano())).Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	teams := make(domain.Teams, len(teamNames))
	idx := 0
	for i, name := range teamNames {
		roster := make([]string, teamSizes[i])
		for slot := range roster {
			if idx < len(shuffled) {
				roster[slot] = shuffled[idx]
				idx++
			}
		}
		teams[name] = roster
	}
	return teams
}

// handleTeamConfigurations returns the set of {teams, teamSizes}
// combinations permissible for the current available-player count under
// the league's teamGeneration bounds (spec §6 GET /api/teams/configurations).
func (s *APIServer) handleTeamConfigurations(w http.ResponseWriter, r *http.Request) {
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
	settings, err := s.settingsCache.Get(leagueID, date)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	playerCount := len(sd.Players.Available)
	tg := settings.TeamGeneration
	type configuration struct {
		Teams     int `json:"teams"`
		TeamSizes []int `json:"teamSizes"`
	}
	var configurations []configuration
	for numTeams := tg.MinTeams; numTeams <= tg.MaxTeams; numTeams++ {
		base := playerCount / numTeams
		remainder := playerCount % numTeams
		largest := base
		if remainder > 0 {
			largest = base + 1
		}
		if base < tg.MinPlayersPerTeam || largest > tg.MaxPlayersPerTeam {
			continue
		}
		sizes := make([]int, numTeams)
		for i := range sizes {
			sizes[i] = base
			if i < remainder {
				sizes[i]++
			}
		}
		configurations = append(configurations, configuration{Teams: numTeams, TeamSizes: sizes})
	}
	response.WriteSuccess(w, configurations)
}

type teamPlayerRequest struct {
	PlayerName string `json:"playerName"`
	TeamName   string `json:"teamName"`
	Action     string `json:"action,omitempty"`
}

// handleAssignPlayerToTeam places a player into the first open slot of a
// team, promoting them from the waiting list if needed.
func (s *APIServer) handleAssignPlayerToTeam(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req teamPlayerRequest
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
		next, err := session.MovePlayerToTeam(sd, req.PlayerName, req.TeamName, settings.PlayerLimit)
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

// handleUnassignPlayerFromTeam removes a player from their team slot,
// routing them to the waiting list or fully out of the session depending
// on the requested action (spec §6 DELETE /api/teams/players).
func (s *APIServer) handleUnassignPlayerFromTeam(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	date, err := dateParam(r)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var req teamPlayerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}

	var result domain.SessionDoc
	err = s.store.TransactSession(leagueID, date, func(sd domain.SessionDoc) (domain.SessionDoc, error) {
		next, err := session.MovePlayerToWaiting(sd, req.PlayerName)
		if err != nil {
			return sd, err
		}
		if req.Action == "remove" {
			next, err = session.RemovePlayer(next, req.PlayerName)
			if err != nil {
				return sd, err
			}
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

