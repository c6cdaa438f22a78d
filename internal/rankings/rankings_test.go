package rankings

import (
	"math"
	"testing"
	"time"

	"github.com/vgebrev/leagr/internal/domain"
)

func ptr(v int) *int { return &v }

// TestEloUpdateMarginMultiplier reproduces spec §8 scenario 3: a 1050-rated
// team beats a 1000-rated team 3-0 under league K=24, expecting roughly a
// 12.87-point swing each way.
func TestEloUpdateMarginMultiplier(t *testing.T) {
	date := "2026-02-01"
	prior := &domain.RankingsYear{
		Players: map[string]*domain.PlayerYearRecord{
			"Alice": {Elo: domain.EloState{Rating: 1050, GamesPlayed: 50, LastDecayAt: parseDate(date)}},
			"Bob":   {Elo: domain.EloState{Rating: 1000, GamesPlayed: 50, LastDecayAt: parseDate(date)}},
		},
	}

	session := SessionInput{
		Date:  date,
		Teams: domain.Teams{"Team A": {"Alice"}, "Team B": {"Bob"}},
		Games: domain.SessionGames{
			Rounds: [][]domain.Match{
				{{Home: "Team A", Away: "Team B", HomeScore: ptr(3), AwayScore: ptr(0)}},
			},
		},
		Settings: domain.Settings{Elo: domain.EloSettings{KLeague: 24, KCup: 15, Baseline: 1000}},
	}

	year := RebuildYear(2026, []SessionInput{session}, prior)

	alice := year.Players["Alice"]
	bob := year.Players["Bob"]
	if math.Abs(alice.Elo.Rating-1062.87) > 0.5 {
		t.Fatalf("expected Alice ~1062.87, got %.3f", alice.Elo.Rating)
	}
	if math.Abs(bob.Elo.Rating-987.13) > 0.5 {
		t.Fatalf("expected Bob ~987.13, got %.3f", bob.Elo.Rating)
	}
}

// TestApplyDecayFiveWeeks reproduces spec §8 scenario 4: rating 1200 last
// decayed 2025-12-21, next match 2026-01-25 (35 days = 5 weeks), rate 0.02,
// baseline 1000 -> roughly 1180.8.
func TestApplyDecayFiveWeeks(t *testing.T) {
	p := &playerAccum{elo: 1200, lastDecayAt: time.Date(2025, 12, 21, 0, 0, 0, 0, time.UTC)}
	applyDecay(p, time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC), 1000, 0.02)
	if math.Abs(p.elo-1180.8) > 0.1 {
		t.Fatalf("expected decayed rating ~1180.8, got %.3f", p.elo)
	}
}

// TestKnockoutPropagationAwardsPoints reproduces spec §8 scenario 6: Red
// wins the cup final after winning a semi, earning 4 points per win (8
// total) for every roster member.
func TestKnockoutPropagationAwardsPoints(t *testing.T) {
	session := SessionInput{
		Date: "2026-03-01",
		Teams: domain.Teams{
			"Red": {"Ray", "Rae"}, "Blue": {"Bo"}, "Green": {"Gia"}, "Yellow": {"Yas"},
		},
		Games: domain.SessionGames{
			Knockout: &domain.Knockout{Bracket: []domain.BracketMatch{
				{Match: domain.Match{Home: "Red", Away: "Blue", HomeScore: ptr(2), AwayScore: ptr(1)}, Round: domain.Semi, Index: 0},
				{Match: domain.Match{Home: "Green", Away: "Yellow", HomeScore: ptr(1), AwayScore: ptr(3)}, Round: domain.Semi, Index: 1},
				{Match: domain.Match{Home: "Red", Away: "Yellow", HomeScore: ptr(2), AwayScore: ptr(0)}, Round: domain.Final, Index: 0},
			}},
		},
		Settings: domain.Settings{Elo: domain.EloSettings{KLeague: 24, KCup: 15, Baseline: 1000}},
	}

	year := RebuildYear(2026, []SessionInput{session}, nil)

	for _, name := range []string{"Ray", "Rae"} {
		rec := year.Players[name]
		if rec.RankingDetail["2026-03-01"].KnockoutPoints != 8 {
			t.Fatalf("expected %s to have 8 knockout points, got %+v", name, rec.RankingDetail["2026-03-01"])
		}
		if !rec.RankingDetail["2026-03-01"].CupWinner {
			t.Fatalf("expected %s flagged as cup winner", name)
		}
	}
}

func TestRankingPointsWeightedByAppearances(t *testing.T) {
	sessions := []SessionInput{
		{
			Date:  "2026-01-05",
			Teams: domain.Teams{"A": {"Frequent"}, "B": {"Rare"}},
			Games: domain.SessionGames{Rounds: [][]domain.Match{
				{{Home: "A", Away: "B", HomeScore: ptr(1), AwayScore: ptr(1)}},
			}},
			Settings: domain.Settings{Elo: domain.EloSettings{KLeague: 24, Baseline: 1000}},
		},
		{
			Date:  "2026-01-12",
			Teams: domain.Teams{"A": {"Frequent"}},
			Games: domain.SessionGames{},
			Settings: domain.Settings{Elo: domain.EloSettings{KLeague: 24, Baseline: 1000}},
		},
	}
	year := RebuildYear(2026, sessions, nil)
	frequent := year.Players["Frequent"]
	rare := year.Players["Rare"]
	if frequent.Appearances != 2 || rare.Appearances != 1 {
		t.Fatalf("unexpected appearance counts: frequent=%d rare=%d", frequent.Appearances, rare.Appearances)
	}
	if frequent.RankingPoints <= rare.RankingPoints {
		t.Fatalf("expected frequent attendee to outrank rare attendee: %+v vs %+v", frequent, rare)
	}
}

// TestRankingDetailCarriesForwardForNonParticipant reproduces spec §4.E
// invariant "rankingDetail[d].rank is defined for every d from the player's
// first appearance to the last calculated date in that year": a player who
// sits out the middle session of three still gets a rankingDetail row for
// that date, ranked alongside everyone else active by then, with no team
// and no cup progress.
func TestRankingDetailCarriesForwardForNonParticipant(t *testing.T) {
	base := domain.Settings{Elo: domain.EloSettings{KLeague: 24, Baseline: 1000}}
	sessions := []SessionInput{
		{
			Date:  "2026-01-05",
			Teams: domain.Teams{"A": {"Sam"}, "B": {"Ray"}},
			Games: domain.SessionGames{Rounds: [][]domain.Match{
				{{Home: "A", Away: "B", HomeScore: ptr(1), AwayScore: ptr(0)}},
			}},
			Settings: base,
		},
		{
			Date:     "2026-01-12",
			Teams:    domain.Teams{"A": {"Ray"}},
			Games:    domain.SessionGames{},
			Settings: base,
		},
		{
			Date:  "2026-01-19",
			Teams: domain.Teams{"A": {"Sam"}, "B": {"Ray"}},
			Games: domain.SessionGames{Rounds: [][]domain.Match{
				{{Home: "A", Away: "B", HomeScore: ptr(2), AwayScore: ptr(2)}},
			}},
			Settings: base,
		},
	}

	year := RebuildYear(2026, sessions, nil)
	sam := year.Players["Sam"]

	detail, ok := sam.RankingDetail["2026-01-12"]
	if !ok {
		t.Fatalf("expected a carried-forward rankingDetail entry for Sam on 2026-01-12, got none: %+v", sam.RankingDetail)
	}
	if detail.Team != "" {
		t.Errorf("expected no team recorded for a non-participant date, got %q", detail.Team)
	}
	if detail.CupProgress != nil {
		t.Errorf("expected nil cupProgress for a non-participant date, got %v", *detail.CupProgress)
	}
	if detail.Rank == 0 || detail.TotalPlayers == 0 {
		t.Errorf("expected a running rank/totalPlayers for the non-participant date, got %+v", detail)
	}
	if sam.Appearances != 2 {
		t.Errorf("expected Sam's appearances to stay 2 (carried-forward dates don't count), got %d", sam.Appearances)
	}
}

// TestRankMovementTracksWithinYearHistory reproduces spec §4.E item 9:
// previousRank/rankMovement come from the immediately previous date in this
// year's own rankingDetail, not from a separate cross-year prior document.
func TestRankMovementTracksWithinYearHistory(t *testing.T) {
	base := domain.Settings{Elo: domain.EloSettings{KLeague: 24, Baseline: 1000}}
	sessions := []SessionInput{
		{
			Date:  "2026-02-01",
			Teams: domain.Teams{"A": {"Underdog"}, "B": {"Champ"}},
			Games: domain.SessionGames{Rounds: [][]domain.Match{
				{{Home: "A", Away: "B", HomeScore: ptr(0), AwayScore: ptr(3)}},
			}},
			Settings: base,
		},
		{
			Date:  "2026-02-08",
			Teams: domain.Teams{"A": {"Underdog"}, "B": {"Champ"}},
			Games: domain.SessionGames{Rounds: [][]domain.Match{
				{{Home: "A", Away: "B", HomeScore: ptr(4), AwayScore: ptr(0)}},
			}},
			Settings: base,
		},
	}

	year := RebuildYear(2026, sessions, nil)
	underdog := year.Players["Underdog"]

	firstRank := underdog.RankingDetail["2026-02-01"].Rank
	if underdog.PreviousRank != firstRank {
		t.Fatalf("expected previousRank %d to match the prior date's rank, got %d", firstRank, underdog.PreviousRank)
	}
	if underdog.RankMovement != underdog.PreviousRank-underdog.Rank {
		t.Fatalf("rankMovement %d does not equal previousRank-rank (%d-%d)", underdog.RankMovement, underdog.PreviousRank, underdog.Rank)
	}
	if underdog.IsNew {
		t.Fatal("expected isNew false once a player has two dated entries")
	}
}
