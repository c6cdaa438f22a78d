// Package aggregate implements the cross-session rollups of spec §4.G:
// champions, golden boot, and the year-in-review summary. Everything here
// reads already-computed rankings and schedule data; it never recomputes
// ratings or standings itself.
package aggregate

import (
	"sort"

	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/schedule"
)

// ChampionEntry names the team that won a league or cup on a given date.
type ChampionEntry struct {
	Date string
	Team string
}

// LeagueChampions reads every player's per-session ranking detail and
// returns the distinct (date, team) pairs flagged as the league winner.
func LeagueChampions(year domain.RankingsYear) []ChampionEntry {
	return championsBy(year, func(d domain.RankingDetail) bool { return d.LeagueWinner })
}

// CupChampions is LeagueChampions' cup-winner counterpart.
func CupChampions(year domain.RankingsYear) []ChampionEntry {
	return championsBy(year, func(d domain.RankingDetail) bool { return d.CupWinner })
}

func championsBy(year domain.RankingsYear, match func(domain.RankingDetail) bool) []ChampionEntry {
	byDate := map[string]string{}
	for _, rec := range year.Players {
		for date, detail := range rec.RankingDetail {
			if match(detail) {
				byDate[date] = detail.Team
			}
		}
	}
	out := make([]ChampionEntry, 0, len(byDate))
	for date, team := range byDate {
		out = append(out, ChampionEntry{Date: date, Team: team})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// GoldenBootRow is one scorer's cumulative tally.
type GoldenBootRow struct {
	Player string
	Goals  int
}

var reservedScorerKeys = map[string]bool{
	domain.ReservedOwnGoalKey:    true,
	domain.ReservedUnassignedKey: true,
}

// GoldenBoot sums every scorer map across the supplied matches, excluding
// the reserved own-goal/unassigned keys, and returns rows sorted by goals
// descending then name (spec §4.G golden boot).
func GoldenBoot(matches []domain.Match) []GoldenBootRow {
	totals := map[string]int{}
	for _, m := range matches {
		for player, count := range m.HomeScorers {
			if !reservedScorerKeys[player] {
				totals[player] += count
			}
		}
		for player, count := range m.AwayScorers {
			if !reservedScorerKeys[player] {
				totals[player] += count
			}
		}
	}
	rows := make([]GoldenBootRow, 0, len(totals))
	for player, goals := range totals {
		rows = append(rows, GoldenBootRow{Player: player, Goals: goals})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Goals != rows[j].Goals {
			return rows[i].Goals > rows[j].Goals
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

// SessionSummary is the per-date slice of data the year-in-review rollup
// needs beyond what the rankings document already carries.
type SessionSummary struct {
	Date      string
	Standings []schedule.StandingsRow
	Matches   []domain.Match
}

// TeamSessionRecord names a team's result in a single session.
type TeamSessionRecord struct {
	Date     string
	Team     string
	Points   int
	GoalDiff int
}

// MatchRecord names a single match within a session, for the highest-
// scoring and biggest-margin rollups.
type MatchRecord struct {
	Date         string
	Home, Away   string
	HomeScore    int
	AwayScore    int
}

// SessionGoals names a session's total goals, for the most/fewest goals
// rollup.
type SessionGoals struct {
	Date  string
	Goals int
}

// YearInReview is the full year-end summary (spec §4.G + SPEC_FULL.md
// supplemented rollups).
type YearInReview struct {
	IronMan            []string
	MostImproved       string
	MostImprovedDelta  int
	KingOfKings        []TrophyRow
	PlayerOfYear        string
	TeamOfYear          []string
	BestSessionTeam     TeamSessionRecord
	WorstSessionTeam    TeamSessionRecord
	HighestScoringMatch MatchRecord
	BiggestMarginMatch  MatchRecord
	MostGoalsSession    SessionGoals
	FewestGoalsSession  SessionGoals
}

// TrophyRow is one player's combined league+cup win count.
type TrophyRow struct {
	Player   string
	Trophies int
}

// ironMan returns the top 3 players by appearances (spec §4.G
// year-in-review "iron-man").
func ironMan(year domain.RankingsYear) []string {
	type row struct {
		name        string
		appearances int
	}
	var rows []row
	for name, rec := range year.Players {
		rows = append(rows, row{name, rec.Appearances})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].appearances != rows[j].appearances {
			return rows[i].appearances > rows[j].appearances
		}
		return rows[i].name < rows[j].name
	})
	limit := 3
	if len(rows) < limit {
		limit = len(rows)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = rows[i].name
	}
	return out
}

func mostImproved(year domain.RankingsYear) (string, int) {
	best := ""
	bestDelta := 0
	first := true
	for name, rec := range year.Players {
		if rec.IsNew {
			continue
		}
		if first || rec.RankMovement > bestDelta {
			best, bestDelta, first = name, rec.RankMovement, false
		}
	}
	return best, bestDelta
}

func kingOfKings(year domain.RankingsYear) []TrophyRow {
	var rows []TrophyRow
	for name, rec := range year.Players {
		trophies := rec.LeagueWins + rec.CupWins
		if trophies > 0 {
			rows = append(rows, TrophyRow{Player: name, Trophies: trophies})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Trophies != rows[j].Trophies {
			return rows[i].Trophies > rows[j].Trophies
		}
		return rows[i].Player < rows[j].Player
	})
	return rows
}

func playerOfYear(year domain.RankingsYear) string {
	best := ""
	bestPoints := -1.0
	for name, rec := range year.Players {
		if rec.RankingPoints > bestPoints {
			best, bestPoints = name, rec.RankingPoints
		}
	}
	return best
}

// teamOfYear returns the top 6 players by rankingPoints (SPEC_FULL.md §9
// Open Question decision: pinned to rankingPoints, not ELO).
func teamOfYear(year domain.RankingsYear) []string {
	type row struct {
		name   string
		points float64
	}
	var rows []row
	for name, rec := range year.Players {
		rows = append(rows, row{name, rec.RankingPoints})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].points != rows[j].points {
			return rows[i].points > rows[j].points
		}
		return rows[i].name < rows[j].name
	})
	limit := 6
	if len(rows) < limit {
		limit = len(rows)
	}
	out := make([]string, limit)
	for i := 0; i < limit; i++ {
		out[i] = rows[i].name
	}
	return out
}

func bestWorstSessionTeam(sessions []SessionSummary) (TeamSessionRecord, TeamSessionRecord) {
	var best, worst TeamSessionRecord
	first := true
	for _, s := range sessions {
		for _, row := range s.Standings {
			rec := TeamSessionRecord{Date: s.Date, Team: row.Team, Points: row.Points, GoalDiff: row.GoalDiff}
			if first {
				best, worst = rec, rec
				first = false
				continue
			}
			if rec.Points > best.Points || (rec.Points == best.Points && rec.GoalDiff > best.GoalDiff) {
				best = rec
			}
			if rec.Points < worst.Points || (rec.Points == worst.Points && rec.GoalDiff < worst.GoalDiff) {
				worst = rec
			}
		}
	}
	return best, worst
}

func highestScoringAndBiggestMargin(sessions []SessionSummary) (MatchRecord, MatchRecord) {
	var highest, margin MatchRecord
	first := true
	for _, s := range sessions {
		for _, m := range s.Matches {
			if !m.Completed() {
				continue
			}
			rec := MatchRecord{Date: s.Date, Home: m.Home, Away: m.Away, HomeScore: *m.HomeScore, AwayScore: *m.AwayScore}
			total := rec.HomeScore + rec.AwayScore
			diff := rec.HomeScore - rec.AwayScore
			if diff < 0 {
				diff = -diff
			}
			if first {
				highest, margin = rec, rec
				first = false
				continue
			}
			highestTotal := highest.HomeScore + highest.AwayScore
			if total > highestTotal {
				highest = rec
			}
			marginDiff := margin.HomeScore - margin.AwayScore
			if marginDiff < 0 {
				marginDiff = -marginDiff
			}
			if diff > marginDiff {
				margin = rec
			}
		}
	}
	return highest, margin
}

func mostFewestGoalsSession(sessions []SessionSummary) (SessionGoals, SessionGoals) {
	var most, fewest SessionGoals
	first := true
	for _, s := range sessions {
		total := 0
		for _, m := range s.Matches {
			if !m.Completed() {
				continue
			}
			total += *m.HomeScore + *m.AwayScore
		}
		g := SessionGoals{Date: s.Date, Goals: total}
		if first {
			most, fewest = g, g
			first = false
			continue
		}
		if g.Goals > most.Goals {
			most = g
		}
		if g.Goals < fewest.Goals {
			fewest = g
		}
	}
	return most, fewest
}

// BuildYearInReview assembles the full year-end rollup from a rankings
// document and the raw per-session standings/matches it was built from.
func BuildYearInReview(year domain.RankingsYear, sessions []SessionSummary) YearInReview {
	improvedName, improvedDelta := mostImproved(year)
	best, worst := bestWorstSessionTeam(sessions)
	highest, margin := highestScoringAndBiggestMargin(sessions)
	mostGoals, fewestGoals := mostFewestGoalsSession(sessions)

	return YearInReview{
		IronMan:             ironMan(year),
		MostImproved:        improvedName,
		MostImprovedDelta:   improvedDelta,
		KingOfKings:         kingOfKings(year),
		PlayerOfYear:        playerOfYear(year),
		TeamOfYear:          teamOfYear(year),
		BestSessionTeam:     best,
		WorstSessionTeam:    worst,
		HighestScoringMatch: highest,
		BiggestMarginMatch:  margin,
		MostGoalsSession:    mostGoals,
		FewestGoalsSession:  fewestGoals,
	}
}
