package teamgen

import (
	"context"
	"math"
	"math/rand"
	"testing"
)

// TestResolveEffectiveEstablishedUsesActualRating exercises spec §8
// scenario 1's pool: all established players keep their actual ELO.
func TestResolveEffectiveEstablishedUsesActualRating(t *testing.T) {
	players := []PlayerInput{
		{Name: "A", Elo: 1300, GamesPlayed: 50},
		{Name: "B", Elo: 950, GamesPlayed: 50},
	}
	resolved := resolveEffective(players, 35)
	byName := map[string]effective{}
	for _, e := range resolved {
		byName[e.name] = e
	}
	if byName["A"].elo != 1300 || byName["B"].elo != 950 {
		t.Fatalf("expected established ratings unchanged, got %+v", byName)
	}
}

// TestResolveEffectiveProvisionalPull reproduces spec §8 scenario 2:
// weakest established ELO 900 -> anchor 891; a provisional player at
// actual ELO 1100 with 14 games played resolves to 975.
func TestResolveEffectiveProvisionalPull(t *testing.T) {
	players := []PlayerInput{
		{Name: "Established", Elo: 900, GamesPlayed: 40},
		{Name: "New", Elo: 1100, GamesPlayed: 14},
	}
	resolved := resolveEffective(players, 35)
	var got float64
	for _, e := range resolved {
		if e.name == "New" {
			got = e.elo
		}
	}
	want := 975.0
	if math.Abs(got-want) > 0.001 {
		t.Fatalf("expected effective ELO %.3f, got %.3f", want, got)
	}
}

// TestResolveEffectiveUsesConfiguredThreshold reproduces the anchor pull
// with a non-default gamesThreshold: a provisional player's pullFactor must
// divide by the threshold passed in, not the package default.
func TestResolveEffectiveUsesConfiguredThreshold(t *testing.T) {
	players := []PlayerInput{
		{Name: "Established", Elo: 900, GamesPlayed: 10},
		{Name: "New", Elo: 1100, GamesPlayed: 5},
	}
	resolved := resolveEffective(players, 10)
	var got float64
	for _, e := range resolved {
		if e.name == "New" {
			got = e.elo
		}
	}
	anchor := anchorFactor * 900
	want := anchor + (1100-anchor)*0.5
	if math.Abs(got-want) > 0.001 {
		t.Fatalf("expected effective ELO %.3f using threshold=10, got %.3f", want, got)
	}
}

// TestScoreDetectsUnequalEloDistributionWithEqualRosterSizes ensures
// N_spread penalizes a lopsided per-team ELO distribution even when every
// roster is the same size (the dimension the old, broken roster-size term
// could never see, since a capacity-respecting draft always keeps roster
// sizes equal). eloWeight is zeroed out so the result isolates N_spread
// from N_elo: both splits below have the same per-team pair counts (so
// N_pair is identical too), leaving N_spread as the only thing that can
// move the score.
func TestScoreDetectsUnequalEloDistributionWithEqualRosterSizes(t *testing.T) {
	byName := map[string]effective{
		"A": {name: "A", elo: 1400}, "B": {name: "B", elo: 1350},
		"C": {name: "C", elo: 1300}, "D": {name: "D", elo: 1250},
		"E": {name: "E", elo: 1100}, "F": {name: "F", elo: 1050},
		"G": {name: "G", elo: 1000}, "H": {name: "H", elo: 950},
	}
	stats := poolStats{min: 950, max: 1400, spread: 450}
	teamNames := []string{"Team A", "Team B"}

	evenDistribution := map[string][]string{
		"Team A": {"A", "D", "F", "G"},
		"Team B": {"B", "C", "E", "H"},
	}
	lopsidedDistribution := map[string][]string{
		"Team A": {"A", "B", "C", "D"},
		"Team B": {"E", "F", "G", "H"},
	}

	evenScore := score(evenDistribution, teamNames, byName, PairCounts{}, stats, 0)
	lopsidedScore := score(lopsidedDistribution, teamNames, byName, PairCounts{}, stats, 0)

	if lopsidedScore <= evenScore {
		t.Fatalf("expected the lopsided ELO distribution to score worse than the even one: even=%.4f lopsided=%.4f", evenScore, lopsidedScore)
	}
}

// TestGenerateBalancesEightPlayerPool reproduces spec §8 scenario 1: 8
// established players split 4/4 across two teams stay within the 50-point
// average gap and the 60-point hard delta cap on team averages
// (max(60, 0.15*350) = 60).
func TestGenerateBalancesEightPlayerPool(t *testing.T) {
	elos := []float64{1300, 1250, 1200, 1150, 1100, 1050, 1000, 950}
	players := make([]PlayerInput, len(elos))
	for i, e := range elos {
		players[i] = PlayerInput{Name: string(rune('A' + i)), Elo: e, GamesPlayed: 50}
	}
	cfg := Config{TeamNames: []string{"Team A", "Team B"}, TeamSizes: []int{4, 4}}

	rng := rand.New(rand.NewSource(42))
	result, err := Generate(context.Background(), players, cfg, PairCounts{}, rng)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	byName := map[string]float64{}
	for i, e := range elos {
		byName[string(rune('A'+i))] = e
	}
	avg := func(team string) float64 {
		sum := 0.0
		for _, name := range result.Teams[team] {
			sum += byName[name]
		}
		return sum / float64(len(result.Teams[team]))
	}
	avgA, avgB := avg("Team A"), avg("Team B")
	if diff := math.Abs(avgA - avgB); diff > 50 {
		t.Fatalf("expected team average gap <= 50, got %.2f (A=%.2f B=%.2f)", diff, avgA, avgB)
	}

	deltaCap := math.Max(60, 0.15*350)
	if delta := math.Abs(avgA - avgB); delta > deltaCap {
		t.Fatalf("team average gap %.2f exceeds hard ELO delta cap %.0f", delta, deltaCap)
	}

	if len(result.Teams["Team A"]) != 4 || len(result.Teams["Team B"]) != 4 {
		t.Fatalf("expected 4/4 split, got %v", result.Teams)
	}
}

// TestGenerateRejectsHardPairingHistory ensures a pairing repeated at or
// above the lookback limit is never placed on the same team even if it
// would otherwise improve the score.
func TestGenerateRejectsHardPairingHistory(t *testing.T) {
	players := []PlayerInput{
		{Name: "A", Elo: 1000, GamesPlayed: 50},
		{Name: "B", Elo: 1000, GamesPlayed: 50},
		{Name: "C", Elo: 1000, GamesPlayed: 50},
		{Name: "D", Elo: 1000, GamesPlayed: 50},
	}
	cfg := Config{TeamNames: []string{"Team A", "Team B"}, TeamSizes: []int{2, 2}}
	history := PairCounts{pairKey("A", "B"): pairHistoryLimit}

	rng := rand.New(rand.NewSource(7))
	result, err := Generate(context.Background(), players, cfg, history, rng)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	for _, roster := range result.Teams {
		if contains(roster, "A") && contains(roster, "B") {
			t.Fatalf("expected A/B kept apart by pairing history, got %v", roster)
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

func TestGenerateRejectsMismatchedConfig(t *testing.T) {
	_, err := Generate(context.Background(), nil, Config{TeamNames: []string{"A"}, TeamSizes: []int{1, 2}}, nil, nil)
	if err == nil {
		t.Fatal("expected error for mismatched team names/sizes")
	}
}
