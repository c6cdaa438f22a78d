// Package teamgen implements the balanced team generator of spec §4.C:
// effective-rating resolution for provisional players, a pot/snake draft
// seed, iterative constraint-respecting optimization, and color
// assignment. The shape follows the same formula-in-small-functions style
// as a handicap/rating calculator: each phase is a pure function over its
// inputs so it can be tested in isolation.
package teamgen

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/vgebrev/leagr/internal/apperr"
)

const (
	gamesThresholdDefault = 35
	anchorFactor          = 0.99
	maxIterations         = 5000
	earlyExitAfter        = 2000
	earlyExitThreshold    = 0.25

	weightELOMulti  = 1.0
	weightELOTwo    = 2.0
	weightSpread    = 0.7
	weightPair      = 1.3

	pairHistoryWindow = 12
	pairHistoryLimit  = 4
)

// PlayerInput is one pool member's carried-forward rating state, read from
// the rankings document for the relevant year.
type PlayerInput struct {
	Name            string
	Elo             float64
	GamesPlayed     int
	AttackingRating float64
	ControlRating   float64
	RankingPoints   float64
	Appearances     int
}

// Config bounds the shape of the generated teams.
type Config struct {
	TeamNames     []string
	TeamSizes     []int // len(TeamSizes) == len(TeamNames)
	GamesThreshold int  // 0 defaults to gamesThresholdDefault
}

// PairCounts reports how many of the last pairHistoryWindow sessions placed
// two given players on the same team, keyed by an order-independent pair.
type PairCounts map[[2]string]int

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}

// Add records one more session in which a and b were placed on the same
// team, for callers building history from prior session documents.
func (p PairCounts) Add(a, b string) {
	p[pairKey(a, b)]++
}

// Result is the generator's output: the assigned rosters, a color per team,
// and the pairings formed (for the caller to fold into draw history).
type Result struct {
	Teams      map[string][]string
	Colors     map[string]string
	Pairings   []Pairing
	Iterations int
	Score      float64
}

// Pairing is one teammate-pair formed by a draw, for §4.C Phase 5 history
// recording.
type Pairing struct {
	A, B string
}

type effective struct {
	name       string
	elo        float64
	attacking  float64
	control    float64
	ranking    float64
	appearance int
}

// resolveEffective implements §4.C Phase 1: established players (at or
// above gamesThreshold games) use their actual ratings; provisional
// players are pulled toward an anchor set at 0.99 of the weakest
// established rating, interpolated by gamesPlayed/gamesThreshold.
func resolveEffective(players []PlayerInput, gamesThreshold int) []effective {
	minEloEstablished := math.Inf(1)
	minAttackEstablished := math.Inf(1)
	minControlEstablished := math.Inf(1)
	for _, p := range players {
		if p.GamesPlayed < gamesThreshold {
			continue
		}
		minEloEstablished = math.Min(minEloEstablished, p.Elo)
		minAttackEstablished = math.Min(minAttackEstablished, p.AttackingRating)
		minControlEstablished = math.Min(minControlEstablished, p.ControlRating)
	}
	// No established players in the pool: every player is pulled toward
	// their own actual rating, i.e. no pull at all.
	if math.IsInf(minEloEstablished, 1) {
		out := make([]effective, len(players))
		for i, p := range players {
			out[i] = effective{
				name: p.Name, elo: p.Elo, attacking: p.AttackingRating,
				control: p.ControlRating, ranking: p.RankingPoints, appearance: p.Appearances,
			}
		}
		return out
	}

	pull := func(actual, minEstablished float64, gamesPlayed int) float64 {
		anchor := anchorFactor * minEstablished
		factor := float64(gamesPlayed) / float64(gamesThreshold)
		if factor > 1 {
			factor = 1
		}
		return anchor + (actual-anchor)*factor
	}

	out := make([]effective, len(players))
	for i, p := range players {
		e := effective{name: p.Name, ranking: p.RankingPoints, appearance: p.Appearances}
		if p.GamesPlayed >= gamesThreshold {
			e.elo, e.attacking, e.control = p.Elo, p.AttackingRating, p.ControlRating
		} else {
			e.elo = pull(p.Elo, minEloEstablished, p.GamesPlayed)
			e.attacking = pull(p.AttackingRating, minAttackEstablished, p.GamesPlayed)
			e.control = pull(p.ControlRating, minControlEstablished, p.GamesPlayed)
		}
		out[i] = e
	}
	return out
}

// seedOrder implements §4.C Phase 2's sort/pot/shuffle/snake-draft seed.
// Players are sorted by effective ELO descending (tiebreak ranking points,
// appearances, name), partitioned into pots of 2*numTeams, shuffled within
// each pot, then assigned to teams in snake order.
func seedOrder(players []effective, numTeams int, rng *rand.Rand) []effective {
	sorted := append([]effective{}, players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.elo != b.elo {
			return a.elo > b.elo
		}
		if a.ranking != b.ranking {
			return a.ranking > b.ranking
		}
		if a.appearance != b.appearance {
			return a.appearance > b.appearance
		}
		return a.name < b.name
	})

	potSize := 2 * numTeams
	if potSize < 1 {
		potSize = 1
	}
	for start := 0; start < len(sorted); start += potSize {
		end := start + potSize
		if end > len(sorted) {
			end = len(sorted)
		}
		pot := sorted[start:end]
		rng.Shuffle(len(pot), func(i, j int) { pot[i], pot[j] = pot[j], pot[i] })
	}
	return sorted
}

// draft assigns a seeded draft order to teams via snake draft, respecting
// each team's target size; teams at capacity are skipped.
func draft(order []effective, teamNames []string, teamSizes []int) map[string][]string {
	rosters := make(map[string][]string, len(teamNames))
	for _, name := range teamNames {
		rosters[name] = nil
	}
	capacity := make(map[string]int, len(teamNames))
	for i, name := range teamNames {
		capacity[name] = teamSizes[i]
	}

	n := len(teamNames)
	forward := true
	idx := 0
	pos := 0
	for _, p := range order {
		for attempts := 0; attempts < n; attempts++ {
			team := teamNames[idx]
			if len(rosters[team]) < capacity[team] {
				rosters[team] = append(rosters[team], p.name)
				break
			}
			idx = advance(idx, n, &forward, &pos)
		}
		idx = advance(idx, n, &forward, &pos)
	}
	return rosters
}

func advance(idx, n int, forward *bool, pos *int) int {
	*pos++
	if *forward {
		idx++
		if idx == n {
			idx = n - 1
			*forward = false
		}
	} else {
		idx--
		if idx < 0 {
			idx = 0
			*forward = true
		}
	}
	return idx
}

type poolStats struct {
	min, max, spread float64
}

func computeRange(players []effective) poolStats {
	if len(players) == 0 {
		return poolStats{}
	}
	min, max := players[0].elo, players[0].elo
	for _, p := range players[1:] {
		min = math.Min(min, p.elo)
		max = math.Max(max, p.elo)
	}
	return poolStats{min: min, max: max, spread: max - min}
}

func teamAverage(rosters map[string][]string, byName map[string]effective, team string) float64 {
	roster := rosters[team]
	if len(roster) == 0 {
		return 0
	}
	sum := 0.0
	for _, name := range roster {
		sum += byName[name].elo
	}
	return sum / float64(len(roster))
}

// violatesHardConstraints checks §4.C Phase 3's two hard rejection rules:
// repeated pairing at or above pairHistoryLimit within the lookback window,
// and a gap between the highest and lowest team ELO averages that exceeds
// the pool-scaled cap.
func violatesHardConstraints(rosters map[string][]string, byName map[string]effective, history PairCounts, stats poolStats) bool {
	maxDelta := math.Max(60, 0.15*stats.spread)
	minAvg, maxAvg := math.Inf(1), math.Inf(-1)
	for team, roster := range rosters {
		for i := 0; i < len(roster); i++ {
			for j := i + 1; j < len(roster); j++ {
				if history[pairKey(roster[i], roster[j])] >= pairHistoryLimit {
					return true
				}
			}
		}
		avg := teamAverage(rosters, byName, team)
		minAvg = math.Min(minAvg, avg)
		maxAvg = math.Max(maxAvg, avg)
	}
	return maxAvg-minAvg > maxDelta
}

// medianOf returns the median of a sorted slice of ELOs.
func medianOf(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// teamComposite is §4.C Phase 3's per-team distribution value:
// 1.0*median + 0.6*max + 0.4*min over the team's player ELOs.
func teamComposite(roster []string, byName map[string]effective) float64 {
	if len(roster) == 0 {
		return 0
	}
	elos := make([]float64, len(roster))
	for i, name := range roster {
		elos[i] = byName[name].elo
	}
	sort.Float64s(elos)
	return medianOf(elos) + 0.6*elos[len(elos)-1] + 0.4*elos[0]
}

// score computes the normalized multi-objective score §4.C Phase 3
// minimizes: ELO spread across team averages (N_elo), spread of each
// team's median/max/min composite (N_spread), and a pairing-history
// penalty (N_pair) weighted down relative to the hard-rejected pairs
// above pairHistoryLimit.
func score(rosters map[string][]string, teamNames []string, byName map[string]effective, history PairCounts, stats poolStats, eloWeight float64) float64 {
	avgs := make([]float64, len(teamNames))
	for i, name := range teamNames {
		avgs[i] = teamAverage(rosters, byName, name)
	}
	minAvg, maxAvg := avgs[0], avgs[0]
	for _, a := range avgs[1:] {
		minAvg = math.Min(minAvg, a)
		maxAvg = math.Max(maxAvg, a)
	}
	eloSpread := maxAvg - minAvg
	normElo := 0.0
	if stats.spread > 0 {
		normElo = eloSpread / stats.spread
	}

	composites := make([]float64, len(teamNames))
	for i, name := range teamNames {
		composites[i] = teamComposite(rosters[name], byName)
	}
	minComposite, maxComposite := composites[0], composites[0]
	for _, c := range composites[1:] {
		minComposite = math.Min(minComposite, c)
		maxComposite = math.Max(maxComposite, c)
	}
	normSpread := 0.0
	if stats.spread > 0 {
		lower := stats.spread * 0.5
		upper := stats.spread * 1.5
		normSpread = (maxComposite - minComposite - lower) / (upper - lower)
		normSpread = math.Max(0, math.Min(1, normSpread))
	}

	pairPenalty := 0
	pairCount := 0
	for _, roster := range rosters {
		for i := 0; i < len(roster); i++ {
			for j := i + 1; j < len(roster); j++ {
				pairPenalty += history[pairKey(roster[i], roster[j])] + 1
				pairCount++
			}
		}
	}
	normPair := 0.0
	if pairCount > 0 {
		normPair = float64(pairPenalty) / float64(pairCount*pairHistoryLimit)
	}

	return eloWeight*normElo + weightSpread*normSpread + weightPair*normPair
}

func cloneRosters(rosters map[string][]string) map[string][]string {
	out := make(map[string][]string, len(rosters))
	for k, v := range rosters {
		out[k] = append([]string{}, v...)
	}
	return out
}

// optimize implements §4.C Phase 3: repeated random cross-team swaps,
// keeping any swap that respects the hard constraints and does not worsen
// the objective score, stopping at maxIterations or early once the score
// has settled below earlyExitThreshold past earlyExitAfter iterations.
func optimize(ctx context.Context, rosters map[string][]string, teamNames []string, byName map[string]effective, history PairCounts, stats poolStats, eloWeight float64, rng *rand.Rand) (map[string][]string, int, float64) {
	best := cloneRosters(rosters)
	bestScore := score(best, teamNames, byName, history, stats, eloWeight)
	current := cloneRosters(rosters)
	currentScore := bestScore
	// A seeded draft can itself violate a hard constraint (e.g. a shuffled
	// pot lands two over-paired players together); treat that starting
	// point as worse than any valid configuration so the first constraint-
	// respecting swap is always accepted.
	if violatesHardConstraints(current, byName, history, stats) {
		bestScore = math.Inf(1)
		currentScore = math.Inf(1)
	}

	iter := 0
	for ; iter < maxIterations; iter++ {
		select {
		case <-ctx.Done():
			return best, iter, bestScore
		default:
		}
		if iter > earlyExitAfter && bestScore <= earlyExitThreshold {
			break
		}

		ta := teamNames[rng.Intn(len(teamNames))]
		tb := teamNames[rng.Intn(len(teamNames))]
		if ta == tb || len(current[ta]) == 0 || len(current[tb]) == 0 {
			continue
		}
		ia := rng.Intn(len(current[ta]))
		ib := rng.Intn(len(current[tb]))

		trial := cloneRosters(current)
		trial[ta][ia], trial[tb][ib] = trial[tb][ib], trial[ta][ia]

		if violatesHardConstraints(trial, byName, history, stats) {
			continue
		}
		trialScore := score(trial, teamNames, byName, history, stats, eloWeight)
		if trialScore <= currentScore {
			current = trial
			currentScore = trialScore
			if currentScore < bestScore {
				best = cloneRosters(current)
				bestScore = currentScore
			}
		}
	}
	return best, iter, bestScore
}

var defaultPalette = []string{"Red", "Blue", "Green", "Yellow", "Orange", "Purple", "Black", "White"}

// assignColors implements §4.C Phase 4: a random permutation of the color
// palette assigned to teams in seed order, so that repeated generation
// over many sessions equi-distributes colors across team slots rather than
// always giving the top seed the same color.
func assignColors(teamNames []string, rng *rand.Rand) map[string]string {
	palette := append([]string{}, defaultPalette...)
	rng.Shuffle(len(palette), func(i, j int) { palette[i], palette[j] = palette[j], palette[i] })
	out := make(map[string]string, len(teamNames))
	for i, name := range teamNames {
		out[name] = palette[i%len(palette)]
	}
	return out
}

func pairings(rosters map[string][]string) []Pairing {
	var out []Pairing
	for _, roster := range rosters {
		for i := 0; i < len(roster); i++ {
			for j := i + 1; j < len(roster); j++ {
				out = append(out, Pairing{A: roster[i], B: roster[j]})
			}
		}
	}
	return out
}

// Generate runs all five phases of §4.C over the given pool and returns
// the balanced rosters, assigned colors, and the pairings formed.
func Generate(ctx context.Context, players []PlayerInput, cfg Config, history PairCounts, rng *rand.Rand) (Result, error) {
	if len(cfg.TeamNames) == 0 || len(cfg.TeamNames) != len(cfg.TeamSizes) {
		return Result{}, apperr.Team("team names and team sizes must be non-empty and equal length")
	}
	capacity := 0
	for _, s := range cfg.TeamSizes {
		capacity += s
	}
	if len(players) > capacity {
		return Result{}, apperr.Team(fmt.Sprintf("pool of %d players exceeds total team capacity %d", len(players), capacity))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	threshold := cfg.GamesThreshold
	if threshold == 0 {
		threshold = gamesThresholdDefault
	}

	resolved := resolveEffective(players, threshold)
	byName := make(map[string]effective, len(resolved))
	for _, e := range resolved {
		byName[e.name] = e
	}
	stats := computeRange(resolved)

	order := seedOrder(resolved, len(cfg.TeamNames), rng)
	seeded := draft(order, cfg.TeamNames, cfg.TeamSizes)

	eloWeight := weightELOMulti
	if len(cfg.TeamNames) == 2 {
		eloWeight = weightELOTwo
	}

	finalRosters, iterations, finalScore := optimize(ctx, seeded, cfg.TeamNames, byName, history, stats, eloWeight, rng)
	colors := assignColors(cfg.TeamNames, rng)

	return Result{
		Teams:      finalRosters,
		Colors:     colors,
		Pairings:   pairings(finalRosters),
		Iterations: iterations,
		Score:      finalScore,
	}, nil
}
