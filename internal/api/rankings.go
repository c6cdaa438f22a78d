package api

import (
	"net/http"
	"sort"
	"strconv"

	"github.com/vgebrev/leagr/internal/aggregate"
	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/response"
	"github.com/vgebrev/leagr/internal/schedule"
)

// yearParam reads the year query parameter, defaulting to fallback when
// absent.
func yearParam(r *http.Request, fallback int) (int, error) {
	raw := r.URL.Query().Get("year")
	if raw == "" {
		return fallback, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validation("year must be a 4-digit number")
	}
	return year, nil
}

// handleGetRankings returns the full player table for a year, sorted by
// rank (spec §4.E, §6 GET /api/rankings).
func (s *APIServer) handleGetRankings(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	year, err := yearParam(r, currentRankingsYear(s, leagueID))
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	ry, err := s.store.LoadRankingsYear(leagueID, year)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	response.WriteSuccess(w, ry)
}

// handleGetPlayerRanking returns one player's rank row and recent
// per-session detail (spec §6 GET /api/rankings/:player).
func (s *APIServer) handleGetPlayerRanking(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	player := r.PathValue("player")
	year, err := yearParam(r, currentRankingsYear(s, leagueID))
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if v, lerr := strconv.Atoi(raw); lerr == nil && v > 0 {
			limit = v
		}
	}

	ry, err := s.store.LoadRankingsYear(leagueID, year)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	rec, ok := ry.Players[player]
	if !ok {
		response.WriteAppError(w, apperr.NotFound("no rankings record for "+player+" in "+strconv.Itoa(year)))
		return
	}

	dates := make([]string, 0, len(rec.RankingDetail))
	for d := range rec.RankingDetail {
		dates = append(dates, d)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(dates)))
	if len(dates) > limit {
		dates = dates[:limit]
	}
	detail := make(map[string]domain.RankingDetail, len(dates))
	for _, d := range dates {
		detail[d] = rec.RankingDetail[d]
	}

	response.WriteSuccess(w, map[string]any{
		"record": rec,
		"recent": detail,
	})
}

// handleGetPlayerChampionships returns the dates a player was flagged as a
// league or cup winner across the seasons on record (spec §6 GET
// /api/champions/:player).
func (s *APIServer) handleGetPlayerChampionships(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	player := r.PathValue("player")
	trophyType := r.URL.Query().Get("trophyType")

	years, err := s.rankingsYears(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var wins []string
	for _, year := range years {
		ry, lerr := s.store.LoadRankingsYear(leagueID, year)
		if lerr != nil {
			continue
		}
		rec, ok := ry.Players[player]
		if !ok {
			continue
		}
		for date, detail := range rec.RankingDetail {
			won := detail.LeagueWinner
			if trophyType == "cup" {
				won = detail.CupWinner
			}
			if won {
				wins = append(wins, date)
			}
		}
	}
	sort.Strings(wins)
	response.WriteSuccess(w, map[string]any{"player": player, "dates": wins})
}

// handleGoldenBoot returns the top scorers across a year's (or all years')
// matches (spec §6 GET /api/golden-boot).
func (s *APIServer) handleGoldenBoot(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	yearParamRaw := r.URL.Query().Get("year")

	dates, err := s.store.ListSessionDates(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	var matches []domain.Match
	for _, d := range dates {
		if yearParamRaw != "" && yearParamRaw != "all" && strconv.Itoa(sessionYear(d)) != yearParamRaw {
			continue
		}
		sd, lerr := s.store.LoadSessionDoc(leagueID, d)
		if lerr != nil {
			continue
		}
		for _, round := range sd.Games.Rounds {
			matches = append(matches, round...)
		}
		if sd.Games.Knockout != nil {
			for _, bm := range sd.Games.Knockout.Bracket {
				matches = append(matches, bm.Match)
			}
		}
	}
	response.WriteSuccess(w, aggregate.GoldenBoot(matches))
}

// handleYearRecap returns the full year-end summary (spec §4.G + SPEC_FULL
// §6 GET /api/year-recap/:year).
func (s *APIServer) handleYearRecap(w http.ResponseWriter, r *http.Request) {
	leagueID := LeagueIDFromContext(r.Context())
	yearStr := r.PathValue("year")
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		response.WriteAppError(w, apperr.Validation("year must be a 4-digit number"))
		return
	}

	ry, err := s.store.LoadRankingsYear(leagueID, year)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}

	dates, err := s.store.ListSessionDates(leagueID)
	if err != nil {
		response.WriteAppError(w, err)
		return
	}
	var sessions []aggregate.SessionSummary
	for _, d := range dates {
		if sessionYear(d) != year {
			continue
		}
		sd, lerr := s.store.LoadSessionDoc(leagueID, d)
		if lerr != nil {
			continue
		}
		var matches []domain.Match
		for _, round := range sd.Games.Rounds {
			matches = append(matches, round...)
		}
		sessions = append(sessions, aggregate.SessionSummary{
			Date:      d,
			Standings: schedule.Standings(sd.Games.Rounds),
			Matches:   matches,
		})
	}

	response.WriteSuccess(w, aggregate.BuildYearInReview(ry, sessions))
}

// currentRankingsYear finds the most recent year with at least one session
// document (0 when there is none), used whenever a handler's year query
// parameter is omitted.
func currentRankingsYear(s *APIServer, leagueID string) int {
	years, err := s.rankingsYears(leagueID)
	if err != nil || len(years) == 0 {
		return 0
	}
	return years[len(years)-1]
}

// rankingsYears derives the distinct years with at least one session
// document, ascending, since rankings documents are keyed by year rather
// than enumerable from the filesystem directly.
func (s *APIServer) rankingsYears(leagueID string) ([]int, error) {
	dates, err := s.store.ListSessionDates(leagueID)
	if err != nil {
		return nil, err
	}
	seen := map[int]bool{}
	var years []int
	for _, d := range dates {
		y := sessionYear(d)
		if y != 0 && !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}
	sort.Ints(years)
	return years, nil
}
