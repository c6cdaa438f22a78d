// Package schedule implements spec §4.D: round-robin fixture generation by
// the circle method, score/scorer updates with the §4.B auto-zero rules,
// league standings, seeded knockout bracket construction, and winner
// propagation.
package schedule

import (
	"fmt"
	"sort"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
)

// GenerateRoundRobin builds the canonical circle-method schedule over
// teams. An odd team count is padded with a bye slot, so the result always
// has len(teams)-1 rounds when even, or len(teams) rounds when a bye was
// inserted (spec §4.D).
func GenerateRoundRobin(teams []string) [][]domain.Match {
	arr := append([]string{}, teams...)
	if len(arr)%2 != 0 {
		arr = append(arr, "")
	}
	n := len(arr)
	if n < 2 {
		return nil
	}

	rounds := make([][]domain.Match, n-1)
	for r := 0; r < n-1; r++ {
		round := make([]domain.Match, 0, n/2)
		for i := 0; i < n/2; i++ {
			home, away := arr[i], arr[n-1-i]
			switch {
			case home == "":
				round = append(round, domain.Match{Bye: away})
			case away == "":
				round = append(round, domain.Match{Bye: home})
			default:
				if r%2 == 1 {
					home, away = away, home
				}
				round = append(round, domain.Match{Home: home, Away: away})
			}
		}
		rounds[r] = round

		// Rotate, keeping arr[0] fixed.
		last := arr[n-1]
		copy(arr[2:], arr[1:n-1])
		arr[1] = last
	}
	return rounds
}

// SetScore applies a manual score edit under the auto-zero rule (spec
// §4.B): setting one null score initializes the other to 0; clearing a
// score clears both.
func SetScore(m domain.Match, side string, value *int) (domain.Match, error) {
	if err := validateScore(value); err != nil {
		return m, apperr.Validation(err.Error())
	}
	if value == nil {
		m.HomeScore = nil
		m.AwayScore = nil
		return m, nil
	}
	if m.HomeScore == nil && m.AwayScore == nil {
		zero := 0
		switch side {
		case "home":
			m.AwayScore = &zero
		case "away":
			m.HomeScore = &zero
		default:
			return m, apperr.Validation("unknown side " + side)
		}
	}
	switch side {
	case "home":
		m.HomeScore = value
	case "away":
		m.AwayScore = value
	default:
		return m, apperr.Validation("unknown side " + side)
	}
	return m, nil
}

// ApplyScorerDelta records a +1/-1 scorer change (spec §4.D score update):
// negative resulting counts are rejected, own-goal entries are capped at
// domain.MaxOwnGoalsPerTeam, and if both scores were null before the delta
// the opposite score is initialized to 0.
func ApplyScorerDelta(m domain.Match, side, player string, delta int) (domain.Match, error) {
	if delta != 1 && delta != -1 {
		return m, apperr.Validation("scorer delta must be +1 or -1")
	}

	var scorers map[string]int
	switch side {
	case "home":
		scorers = m.HomeScorers
	case "away":
		scorers = m.AwayScorers
	default:
		return m, apperr.Validation("unknown side " + side)
	}

	next := scorers[player] + delta
	if next < 0 {
		return m, apperr.Validation(fmt.Sprintf("scorer count for %q cannot go negative", player))
	}
	if player == domain.ReservedOwnGoalKey && next > domain.MaxOwnGoalsPerTeam {
		return m, apperr.Validation(fmt.Sprintf("own-goal count cannot exceed %d per team per match", domain.MaxOwnGoalsPerTeam))
	}

	updated := make(map[string]int, len(scorers)+1)
	for k, v := range scorers {
		updated[k] = v
	}
	if next == 0 {
		delete(updated, player)
	} else {
		updated[player] = next
	}

	if m.HomeScore == nil && m.AwayScore == nil {
		zero := 0
		m.HomeScore = &zero
		m.AwayScore = &zero
	}

	switch side {
	case "home":
		m.HomeScorers = updated
	case "away":
		m.AwayScorers = updated
	}
	return m, nil
}

// validateScore mirrors validation.ValidateScore's range check (kept local
// rather than imported to avoid a cross-package dependency for one rule).
func validateScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 99 {
		return fmt.Errorf("score must be between 0 and 99, got %d", *score)
	}
	return nil
}

// StandingsRow is one team's row in a single-session league table.
type StandingsRow struct {
	Team         string
	Played       int
	Wins         int
	Draws        int
	Losses       int
	GoalsFor     int
	GoalsAgainst int
	GoalDiff     int
	Points       int
}

// Standings computes the single-session league table (spec §4.D): 3 points
// per win, 1 per draw, sorted by points desc, goal difference desc, goals
// for desc.
func Standings(rounds [][]domain.Match) []StandingsRow {
	table := map[string]*StandingsRow{}
	order := []string{}
	ensure := func(team string) *StandingsRow {
		if table[team] == nil {
			table[team] = &StandingsRow{Team: team}
			order = append(order, team)
		}
		return table[team]
	}

	for _, round := range rounds {
		for _, m := range round {
			if m.Bye != "" {
				ensure(m.Bye)
				continue
			}
			home, away := ensure(m.Home), ensure(m.Away)
			if !m.Completed() {
				continue
			}
			hs, as := *m.HomeScore, *m.AwayScore
			home.Played++
			away.Played++
			home.GoalsFor += hs
			home.GoalsAgainst += as
			away.GoalsFor += as
			away.GoalsAgainst += hs
			switch {
			case hs > as:
				home.Wins++
				home.Points += 3
				away.Losses++
			case as > hs:
				away.Wins++
				away.Points += 3
				home.Losses++
			default:
				home.Draws++
				away.Draws++
				home.Points++
				away.Points++
			}
		}
	}

	rows := make([]StandingsRow, 0, len(order))
	for _, team := range order {
		r := table[team]
		r.GoalDiff = r.GoalsFor - r.GoalsAgainst
		rows = append(rows, *r)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Points != rows[j].Points {
			return rows[i].Points > rows[j].Points
		}
		if rows[i].GoalDiff != rows[j].GoalDiff {
			return rows[i].GoalDiff > rows[j].GoalDiff
		}
		return rows[i].GoalsFor > rows[j].GoalsFor
	})
	return rows
}

var bracketSizeToRound = map[int]domain.BracketRound{
	32: domain.RoundOf32,
	16: domain.RoundOf16,
	8:  domain.Quarter,
	4:  domain.Semi,
	2:  domain.Final,
}

var roundOrder = []domain.BracketRound{
	domain.RoundOf32, domain.RoundOf16, domain.Quarter, domain.Semi, domain.Final,
}

func nextRound(r domain.BracketRound) domain.BracketRound {
	for i, v := range roundOrder {
		if v == r && i+1 < len(roundOrder) {
			return roundOrder[i+1]
		}
	}
	return ""
}

// SeedBracket lays out a standard knockout bracket (1 v k, 2 v k-1, ...)
// from final league standings (spec §4.D Knockout seeding). len(standings)
// must be a power of two between 2 and 32.
func SeedBracket(standings []StandingsRow) ([]domain.BracketMatch, error) {
	n := len(standings)
	round, ok := bracketSizeToRound[n]
	if !ok {
		return nil, apperr.Team(fmt.Sprintf("unsupported knockout size %d (need 2, 4, 8, 16, or 32 teams)", n))
	}

	teams := make([]string, n)
	for i, s := range standings {
		teams[i] = s.Team
	}

	bracket := make([]domain.BracketMatch, 0, n-1)
	for i := 0; i < n/2; i++ {
		bracket = append(bracket, domain.BracketMatch{
			Match: domain.Match{Home: teams[i], Away: teams[n-1-i]},
			Round: round,
			Index: i,
		})
	}

	for r, count := nextRound(round), n/4; r != "" && count >= 1; r, count = nextRound(r), count/2 {
		for i := 0; i < count; i++ {
			bracket = append(bracket, domain.BracketMatch{Round: r, Index: i})
		}
	}
	return bracket, nil
}

// PropagateWinners recomputes the bracket forward: for every completed
// match the winner populates the downstream slot; draws or incomplete
// matches leave the downstream home/away empty (spec §4.D Winner
// propagation — draws are tolerated, never rejected, per SPEC_FULL.md §9
// Open-Question pin).
func PropagateWinners(bracket []domain.BracketMatch) []domain.BracketMatch {
	next := make([]domain.BracketMatch, len(bracket))
	copy(next, bracket)

	byRound := map[domain.BracketRound][]*domain.BracketMatch{}
	for i := range next {
		byRound[next[i].Round] = append(byRound[next[i].Round], &next[i])
	}
	for _, matches := range byRound {
		sort.Slice(matches, func(i, j int) bool { return matches[i].Index < matches[j].Index })
	}

	for ri, round := range roundOrder[:len(roundOrder)-1] {
		matches := byRound[round]
		downstream := byRound[roundOrder[ri+1]]
		if matches == nil || downstream == nil {
			continue
		}
		for i, m := range matches {
			slot := i / 2
			if slot >= len(downstream) {
				continue
			}
			winner := m.Winner()
			if i%2 == 0 {
				downstream[slot].Home = winner
			} else {
				downstream[slot].Away = winner
			}
		}
	}
	return next
}

// CupWinner returns the final round's winning team, or "" if the final has
// not been decided.
func CupWinner(bracket []domain.BracketMatch) string {
	for _, m := range bracket {
		if m.Round == domain.Final {
			return m.Winner()
		}
	}
	return ""
}
