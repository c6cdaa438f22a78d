// Package rankings implements spec §4.E: the per-session scoring pass,
// the ELO rating update with decay and margin scaling, attacking/control
// rating normalization, and the yearly rank/movement computation that
// store.SaveRankingsYear persists. RebuildYear is a pure function of its
// inputs so a failed write upstream never leaves a half-built document —
// the caller simply discards the result and the previous rankings-YYYY.json
// stays intact (store.writeAtomic's guarantee).
package rankings

import (
	"math"
	"sort"
	"time"

	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/schedule"
)

// Gamma is the pinned appearance-weighting exponent for rankingPoints
// (SPEC_FULL.md §9 Open Question decision: γ = 0.5).
const Gamma = 0.5

const defaultGamesThreshold = 35

// Now is overridable in tests.
var Now = time.Now

// SessionInput is the decoded view of one date's session document that the
// rankings build consumes.
type SessionInput struct {
	Date     string
	Teams    domain.Teams
	Games    domain.SessionGames
	Settings domain.Settings
}

func marginMultiplier(goalDiff int) float64 {
	switch {
	case goalDiff >= 4:
		return 1.30
	case goalDiff == 3:
		return 1.25
	case goalDiff == 2:
		return 1.15
	default:
		return 1.0
	}
}

func expectedScore(teamAvg, opponentAvg float64) float64 {
	return 1 / (1 + math.Pow(10, (opponentAvg-teamAvg)/400))
}

type playerAccum struct {
	name               string
	appearances        int
	rawPoints          int
	leagueWins         int
	cupWins            int
	goalsForTotal      int
	goalsAgainstTotal  int
	elo                float64
	gamesPlayed        int
	lastDecayAt        time.Time
	detail             map[string]domain.RankingDetail
}

// dateSnapshot is a player's cumulative state immediately after one
// session date's matches were scored, used to compute the running
// rankingDetail[d].rank every active player gets for that date (spec
// §4.E item 8: "every player, participants and non-participants, from
// their first appearance onward").
type dateSnapshot struct {
	rawPoints   int
	appearances int
	elo         float64
	eloGames    int
}

func parseDate(date string) time.Time {
	t, _ := time.Parse("2006-01-02", date)
	return t
}

// applyDecay folds in the rating decay owed since the player's last
// recorded match, then advances lastDecayAt to now (spec §4.E: "missed
// session decay only applies on next match, not retroactively").
func applyDecay(p *playerAccum, now time.Time, baseline, decayRate float64) {
	if p.lastDecayAt.IsZero() {
		p.lastDecayAt = now
		return
	}
	weeks := now.Sub(p.lastDecayAt).Hours() / (24 * 7)
	if weeks > 0 {
		p.elo = baseline + (p.elo-baseline)*math.Pow(1-decayRate, weeks)
	}
	p.lastDecayAt = now
}

func ensurePlayer(accums map[string]*playerAccum, name string, prior *domain.RankingsYear, sessionDate time.Time, settings domain.Settings) *playerAccum {
	if p, ok := accums[name]; ok {
		return p
	}
	p := &playerAccum{name: name, elo: settings.Elo.Baseline, detail: map[string]domain.RankingDetail{}}
	if settings.Elo.Baseline == 0 {
		p.elo = 1000
	}
	if prior != nil {
		if rec, ok := prior.Players[name]; ok {
			p.elo = rec.Elo.Rating
			p.gamesPlayed = rec.Elo.GamesPlayed
			p.lastDecayAt = rec.Elo.LastDecayAt
			applyDecay(p, sessionDate, settings.Elo.Baseline, settings.Elo.DecayRatePerWeek)
		}
	}
	accums[name] = p
	return p
}

func rosterOf(teams domain.Teams, team string) []string {
	roster := teams[team]
	out := make([]string, 0, len(roster))
	for _, name := range roster {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

func teamEloAverage(accums map[string]*playerAccum, roster []string) float64 {
	if len(roster) == 0 {
		return 0
	}
	sum := 0.0
	for _, name := range roster {
		sum += accums[name].elo
	}
	return sum / float64(len(roster))
}

// updateEloForMatch applies the §4.E ELO update to every player on both
// rosters for one completed match: the margin-scaled expected-score update.
// It applies no decay itself; RebuildYear decays each participant once at
// the session date before any of that session's matches are scored.
func updateEloForMatch(accums map[string]*playerAccum, homeRoster, awayRoster []string, homeScore, awayScore int, k float64) {
	homeAvg := teamEloAverage(accums, homeRoster)
	awayAvg := teamEloAverage(accums, awayRoster)

	goalDiff := homeScore - awayScore
	if goalDiff < 0 {
		goalDiff = -goalDiff
	}
	m := marginMultiplier(goalDiff)
	effectiveK := k * m

	var homeActual, awayActual float64
	switch {
	case homeScore > awayScore:
		homeActual, awayActual = 1, 0
	case awayScore > homeScore:
		homeActual, awayActual = 0, 1
	default:
		homeActual, awayActual = 0.5, 0.5
	}

	eHome := expectedScore(homeAvg, awayAvg)
	eAway := expectedScore(awayAvg, homeAvg)

	for _, name := range homeRoster {
		p := accums[name]
		p.elo += effectiveK * (homeActual - eHome)
		p.gamesPlayed++
	}
	for _, name := range awayRoster {
		p := accums[name]
		p.elo += effectiveK * (awayActual - eAway)
		p.gamesPlayed++
	}
}

// RebuildYear recomputes the full rankings document for year from every
// session played in it, optionally carrying ELO state forward from the
// prior year (spec §4.E cross-year carry-over).
func RebuildYear(year int, sessions []SessionInput, prior *domain.RankingsYear) domain.RankingsYear {
	ordered := append([]SessionInput{}, sessions...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Date < ordered[j].Date })

	accums := map[string]*playerAccum{}
	dateSnapshots := map[string]map[string]dateSnapshot{}
	gamesThreshold := defaultGamesThreshold

	for _, session := range ordered {
		if session.Settings.Elo.GamesThreshold > 0 {
			gamesThreshold = session.Settings.Elo.GamesThreshold
		}
		sessionDate := parseDate(session.Date)
		baseline := session.Settings.Elo.Baseline
		if baseline == 0 {
			baseline = 1000
		}
		decayRate := session.Settings.Elo.DecayRatePerWeek

		participants := map[string]bool{}
		for team := range session.Teams {
			for _, name := range rosterOf(session.Teams, team) {
				participants[name] = true
			}
		}
		for name := range participants {
			p := ensurePlayer(accums, name, prior, sessionDate, session.Settings)
			applyDecay(p, sessionDate, baseline, decayRate)
			p.appearances++
		}

		matchPoints := map[string]int{}
		goalsFor := map[string]int{}
		goalsAgainst := map[string]int{}

		kLeague := session.Settings.Elo.KLeague
		if kLeague == 0 {
			kLeague = 24
		}
		kCup := session.Settings.Elo.KCup
		if kCup == 0 {
			kCup = 15
		}

		for _, round := range session.Games.Rounds {
			for _, m := range round {
				if m.Bye != "" || !m.Completed() {
					continue
				}
				homeRoster := rosterOf(session.Teams, m.Home)
				awayRoster := rosterOf(session.Teams, m.Away)
				hs, as := *m.HomeScore, *m.AwayScore

				for _, name := range homeRoster {
					goalsFor[name] += hs
					goalsAgainst[name] += as
				}
				for _, name := range awayRoster {
					goalsFor[name] += as
					goalsAgainst[name] += hs
				}

				switch {
				case hs > as:
					for _, name := range homeRoster {
						matchPoints[name] += 3
					}
				case as > hs:
					for _, name := range awayRoster {
						matchPoints[name] += 3
					}
				default:
					for _, name := range append(append([]string{}, homeRoster...), awayRoster...) {
						matchPoints[name] += 1
					}
				}

				updateEloForMatch(accums, homeRoster, awayRoster, hs, as, kLeague)
			}
		}

		bonusPoints := map[string]int{}
		var standings []schedule.StandingsRow
		if len(session.Games.Rounds) > 0 {
			standings = schedule.Standings(session.Games.Rounds)
			if len(standings) > 0 {
				for _, name := range rosterOf(session.Teams, standings[0].Team) {
					bonusPoints[name] += 2
				}
			}
			if len(standings) > 1 {
				for _, name := range rosterOf(session.Teams, standings[1].Team) {
					bonusPoints[name] += 1
				}
			}
		}

		knockoutPoints := map[string]int{}
		cupWinnerTeam := ""
		if session.Games.Knockout != nil {
			sortedBracket := append([]domain.BracketMatch{}, session.Games.Knockout.Bracket...)
			sort.SliceStable(sortedBracket, func(i, j int) bool {
				return bracketOrder(sortedBracket[i].Round) < bracketOrder(sortedBracket[j].Round) ||
					(sortedBracket[i].Round == sortedBracket[j].Round && sortedBracket[i].Index < sortedBracket[j].Index)
			})
			for _, bm := range sortedBracket {
				if !bm.Completed() {
					continue
				}
				homeRoster := rosterOf(session.Teams, bm.Home)
				awayRoster := rosterOf(session.Teams, bm.Away)
				updateEloForMatch(accums, homeRoster, awayRoster, *bm.HomeScore, *bm.AwayScore, kCup)

				winner := bm.Winner()
				if winner == "" {
					continue
				}
				for _, name := range rosterOf(session.Teams, winner) {
					knockoutPoints[name] += 4
				}
				if bm.Round == domain.Final {
					cupWinnerTeam = winner
				}
			}
		}

		type row struct {
			name  string
			total int
		}
		var rows []row
		for name := range participants {
			total := 1 + matchPoints[name] + bonusPoints[name] + knockoutPoints[name]
			rows = append(rows, row{name, total})
			accums[name].rawPoints += total
			accums[name].goalsForTotal += goalsFor[name]
			accums[name].goalsAgainstTotal += goalsAgainst[name]
		}

		leagueWinnerTeam := ""
		if len(standings) > 0 {
			leagueWinnerTeam = standings[0].Team
		}
		leagueWinners := map[string]bool{}
		for _, name := range rosterOf(session.Teams, leagueWinnerTeam) {
			leagueWinners[name] = true
		}
		cupWinners := map[string]bool{}
		for _, name := range rosterOf(session.Teams, cupWinnerTeam) {
			cupWinners[name] = true
		}
		if leagueWinnerTeam != "" {
			for name := range leagueWinners {
				accums[name].leagueWins++
			}
		}
		if cupWinnerTeam != "" {
			for name := range cupWinners {
				accums[name].cupWins++
			}
		}

		var leaguePosition map[string]int
		if len(standings) > 0 {
			leaguePosition = map[string]int{}
			for pos, row := range standings {
				for _, name := range rosterOf(session.Teams, row.Team) {
					leaguePosition[name] = pos + 1
				}
			}
		}

		for _, r := range rows {
			p := accums[r.name]
			detail := domain.RankingDetail{
				AppearancePoints: 1,
				MatchPoints:      matchPoints[r.name],
				BonusPoints:      bonusPoints[r.name],
				KnockoutPoints:   knockoutPoints[r.name],
				TotalPoints:      r.total,
				EloRating:        p.elo,
				EloGames:         p.gamesPlayed,
				LeagueWinner:     leagueWinners[r.name],
				CupWinner:        cupWinners[r.name],
			}
			for team := range session.Teams {
				if contains(rosterOf(session.Teams, team), r.name) {
					detail.Team = team
					break
				}
			}
			if pos, ok := leaguePosition[r.name]; ok {
				v := pos
				detail.LeaguePosition = &v
			}
			if cupWinners[r.name] {
				v := domain.CupProgressWinner
				detail.CupProgress = &v
			}
			p.detail[session.Date] = detail
		}

		snapshot := make(map[string]dateSnapshot, len(accums))
		for name, p := range accums {
			snapshot[name] = dateSnapshot{rawPoints: p.rawPoints, appearances: p.appearances, elo: p.elo, eloGames: p.gamesPlayed}
		}
		dateSnapshots[session.Date] = snapshot
	}

	applyRunningRanks(ordered, accums, dateSnapshots)

	return finalize(year, accums, prior, gamesThreshold)
}

// applyRunningRanks gives rankingDetail[d].rank to every player active as of
// date d — participants and non-participants alike, per spec §4.E item 8
// ("sort all players with any activity in year y by rankingPoints desc...
// record rankingDetail[d].rank for every player from their first appearance
// onward"). A player absent from dateSnapshots[d] hasn't appeared yet and is
// correctly excluded; one present but missing a rankingDetail[d] entry sat
// out that date and gets a carried-forward non-participant row.
func applyRunningRanks(ordered []SessionInput, accums map[string]*playerAccum, dateSnapshots map[string]map[string]dateSnapshot) {
	maxAppearances := 0
	for _, p := range accums {
		if p.appearances > maxAppearances {
			maxAppearances = p.appearances
		}
	}

	type rankableRow struct {
		name string
		rp   float64
		elo  float64
	}

	for _, session := range ordered {
		snapshot := dateSnapshots[session.Date]
		rows := make([]rankableRow, 0, len(snapshot))
		for name, s := range snapshot {
			rp := 0.0
			if maxAppearances > 0 {
				rp = float64(s.rawPoints) * math.Pow(float64(s.appearances)/float64(maxAppearances), Gamma)
			}
			rows = append(rows, rankableRow{name, rp, s.elo})
		}
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].rp != rows[j].rp {
				return rows[i].rp > rows[j].rp
			}
			return rows[i].elo > rows[j].elo
		})

		totalActive := len(rows)
		for rank, r := range rows {
			p := accums[r.name]
			if detail, ok := p.detail[session.Date]; ok {
				detail.Rank = rank + 1
				detail.TotalPlayers = totalActive
				p.detail[session.Date] = detail
				continue
			}
			s := snapshot[r.name]
			p.detail[session.Date] = domain.RankingDetail{
				Rank:         rank + 1,
				TotalPlayers: totalActive,
				EloRating:    s.elo,
				EloGames:     s.eloGames,
			}
		}
	}
}

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func bracketOrder(r domain.BracketRound) int {
	switch r {
	case domain.RoundOf32:
		return 0
	case domain.RoundOf16:
		return 1
	case domain.Quarter:
		return 2
	case domain.Semi:
		return 3
	case domain.Final:
		return 4
	default:
		return 5
	}
}

func normalize(value, min, max float64) float64 {
	if max == min {
		return 0.5
	}
	v := (value - min) / (max - min)
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// finalize computes rankingPoints, attacking/control ratings, rank order
// and movement against the prior year, and assembles the yearly document.
func finalize(year int, accums map[string]*playerAccum, prior *domain.RankingsYear, gamesThreshold int) domain.RankingsYear {
	maxAppearances := 0
	for _, p := range accums {
		if p.appearances > maxAppearances {
			maxAppearances = p.appearances
		}
	}

	type normInput struct {
		name       string
		established bool
		goalsFor   float64
		goalsAgainst float64
	}
	var normInputs []normInput
	minForEst, maxForEst := math.Inf(1), math.Inf(-1)
	minAgainstEst, maxAgainstEst := math.Inf(1), math.Inf(-1)

	for name, p := range accums {
		gf, ga := 0.0, 0.0
		if p.appearances > 0 {
			gf = float64(p.goalsForTotal) / float64(p.appearances)
			ga = float64(p.goalsAgainstTotal) / float64(p.appearances)
		}
		established := p.gamesPlayed >= gamesThreshold
		normInputs = append(normInputs, normInput{name, established, gf, ga})
		if established {
			minForEst = math.Min(minForEst, gf)
			maxForEst = math.Max(maxForEst, gf)
			minAgainstEst = math.Min(minAgainstEst, ga)
			maxAgainstEst = math.Max(maxAgainstEst, ga)
		}
	}
	if math.IsInf(minForEst, 1) {
		minForEst, maxForEst = 0, 0
		minAgainstEst, maxAgainstEst = 0, 0
	}

	attacking := map[string]float64{}
	control := map[string]float64{}
	for _, ni := range normInputs {
		attackNorm := normalize(ni.goalsFor, minForEst, maxForEst)
		controlNorm := 1 - normalize(ni.goalsAgainst, minAgainstEst, maxAgainstEst)
		if ni.established {
			attacking[ni.name] = attackNorm
			control[ni.name] = controlNorm
		} else {
			p := accums[ni.name]
			anchorA := anchorFactor * normalize(minForEst, minForEst, maxForEst)
			anchorC := anchorFactor * (1 - normalize(minAgainstEst, minAgainstEst, maxAgainstEst))
			factor := float64(p.gamesPlayed) / float64(defaultGamesThreshold)
			if factor > 1 {
				factor = 1
			}
			attacking[ni.name] = anchorA + (attackNorm-anchorA)*factor
			control[ni.name] = anchorC + (controlNorm-anchorC)*factor
		}
	}

	players := map[string]*domain.PlayerYearRecord{}
	type rankable struct {
		name          string
		rankingPoints float64
		elo           float64
	}
	var rankables []rankable

	for name, p := range accums {
		rankingPoints := 0.0
		if maxAppearances > 0 {
			rankingPoints = float64(p.rawPoints) * math.Pow(float64(p.appearances)/float64(maxAppearances), Gamma)
		}
		rec := &domain.PlayerYearRecord{
			Points:        p.rawPoints,
			Appearances:   p.appearances,
			RankingPoints: rankingPoints,
			LeagueWins:    p.leagueWins,
			CupWins:       p.cupWins,
			AttackingRating: attacking[name],
			ControlRating:   control[name],
			GoalsForPerSession: divOrZero(p.goalsForTotal, p.appearances),
			GoalsAgainstPerSession: divOrZero(p.goalsAgainstTotal, p.appearances),
			Elo: domain.EloState{
				Rating: p.elo, GamesPlayed: p.gamesPlayed, LastDecayAt: p.lastDecayAt,
			},
			RankingDetail: p.detail,
		}
		for date, d := range rec.RankingDetail {
			d.AttackingRating = attacking[name]
			d.ControlRating = control[name]
			rec.RankingDetail[date] = d
		}
		players[name] = rec
		rankables = append(rankables, rankable{name, rankingPoints, p.elo})
	}

	sort.SliceStable(rankables, func(i, j int) bool {
		if rankables[i].rankingPoints != rankables[j].rankingPoints {
			return rankables[i].rankingPoints > rankables[j].rankingPoints
		}
		return rankables[i].elo > rankables[j].elo
	})

	globalSum, globalCount := 0.0, 0
	for rank, r := range rankables {
		rec := players[r.name]
		rec.Rank = rank + 1

		// previousRank/rankMovement/isNew come from this year's own
		// rankingDetail history (spec §4.E item 9: "previousRank = rank at
		// the immediately previous date in rankingDetail"), never from the
		// cross-year prior document — ELO is the only thing that carries
		// across years.
		dates := make([]string, 0, len(rec.RankingDetail))
		for date := range rec.RankingDetail {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		if len(dates) >= 2 {
			rec.PreviousRank = rec.RankingDetail[dates[len(dates)-2]].Rank
			rec.RankMovement = rec.PreviousRank - rec.Rank
			rec.IsNew = false
		} else {
			rec.IsNew = true
		}
		if rec.Appearances > 0 {
			globalSum += rec.RankingPoints
			globalCount++
		}
	}

	globalAverage := 0.0
	if globalCount > 0 {
		globalAverage = globalSum / float64(globalCount)
	}

	return domain.RankingsYear{
		Year:    year,
		Players: players,
		Metadata: domain.RankingMetadata{
			Gamma:         Gamma,
			GlobalAverage: globalAverage,
			ComputedAt:    Now(),
		},
	}
}

func divOrZero(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

const anchorFactor = 0.99
