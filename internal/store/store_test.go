package store

import (
	"os"
	"testing"

	"github.com/vgebrev/leagr/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir, err := os.MkdirTemp("", "leagr-store-*")
	if err != nil {
		t.Fatalf("MkdirTemp: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return New(dir)
}

func TestGetSetPath(t *testing.T) {
	body := map[string]any{
		"players": map[string]any{
			"available": []any{"Alice", "Bob"},
		},
	}

	v, ok, err := getPath(body, "players.available")
	if err != nil || !ok {
		t.Fatalf("getPath: ok=%v err=%v", ok, err)
	}
	if list, ok := v.([]any); !ok || len(list) != 2 {
		t.Fatalf("expected 2-element list, got %#v", v)
	}

	if err := setPath(body, "players.available", "Carol", []any{}, false); err != nil {
		t.Fatalf("setPath append: %v", err)
	}
	v, _, _ = getPath(body, "players.available")
	list := v.([]any)
	if len(list) != 3 || list[2] != "Carol" {
		t.Fatalf("expected append, got %#v", list)
	}

	if err := setPath(body, "players.available", []any{"Dave"}, nil, true); err != nil {
		t.Fatalf("setPath overwrite: %v", err)
	}
	v, _, _ = getPath(body, "players.available")
	list = v.([]any)
	if len(list) != 1 || list[0] != "Dave" {
		t.Fatalf("expected overwrite, got %#v", list)
	}
}

func TestSetPathCreatesMissingKey(t *testing.T) {
	body := map[string]any{}
	if err := setPath(body, "settings.playerLimit", 24, nil, true); err != nil {
		t.Fatalf("setPath: %v", err)
	}
	v, ok, _ := getPath(body, "settings.playerLimit")
	if !ok || v != 24 {
		t.Fatalf("expected 24, got %#v ok=%v", v, ok)
	}
}

func TestSetPathMergeObject(t *testing.T) {
	body := map[string]any{
		"settings": map[string]any{"playerLimit": float64(24), "foo": "bar"},
	}
	if err := setPath(body, "settings", map[string]any{"playerLimit": float64(30)}, map[string]any{}, false); err != nil {
		t.Fatalf("setPath merge: %v", err)
	}
	v, _, _ := getPath(body, "settings")
	merged := v.(map[string]any)
	if merged["playerLimit"] != float64(30) || merged["foo"] != "bar" {
		t.Fatalf("expected shallow merge keeping foo, got %#v", merged)
	}
}

func TestSetManyAtomicRejectsOnBadPath(t *testing.T) {
	s := newTestStore(t)
	league := "test-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}

	if err := s.SetMany(league, "settings", []Op{
		{Key: "playerLimit", Value: 24, Overwrite: true},
	}); err != nil {
		t.Fatalf("seed SetMany: %v", err)
	}

	err := s.SetMany(league, "settings", []Op{
		{Key: "playerLimit.nested", Value: 1, Overwrite: true},
	})
	if err == nil {
		t.Fatal("expected error writing through a scalar path segment")
	}

	v, ok, err := s.Get(league, "settings", "playerLimit")
	if err != nil || !ok || v != float64(24) {
		t.Fatalf("original document should be untouched, got v=%#v ok=%v err=%v", v, ok, err)
	}
}

func TestSessionDocRoundTrip(t *testing.T) {
	s := newTestStore(t)
	league := "round-trip-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}

	home, away := 2, 1
	sd := domain.SessionDoc{
		Players: domain.Players{Available: []string{"Alice", "Bob"}},
		Teams:   domain.Teams{"Red Foxes": {"Alice", "Bob"}},
		Games: domain.SessionGames{
			Rounds: [][]domain.Match{{{Home: "Red Foxes", Away: "Blue Jays", HomeScore: &home, AwayScore: &away}}},
		},
	}

	if err := s.SaveSessionDoc(league, "2026-01-15", sd); err != nil {
		t.Fatalf("SaveSessionDoc: %v", err)
	}

	loaded, err := s.LoadSessionDoc(league, "2026-01-15")
	if err != nil {
		t.Fatalf("LoadSessionDoc: %v", err)
	}
	if len(loaded.Players.Available) != 2 || loaded.Players.Available[1] != "Bob" {
		t.Fatalf("players did not round-trip: %#v", loaded.Players)
	}
	if *loaded.Games.Rounds[0][0].HomeScore != 2 {
		t.Fatalf("score did not round-trip: %#v", loaded.Games.Rounds[0][0])
	}
}

func TestSessionDocRejectsMalformedDate(t *testing.T) {
	s := newTestStore(t)
	if _, err := SessionDoc("15-01-2026"); err == nil {
		t.Fatal("expected error for malformed date")
	}
	if err := s.SaveSessionDoc("league", "not-a-date", domain.SessionDoc{}); err == nil {
		t.Fatal("expected error for malformed date")
	}
}

func TestSettingsUnknownKeysRoundTrip(t *testing.T) {
	s := newTestStore(t)
	league := "extra-keys-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}

	settings := domain.DefaultSettings()
	settings.Extra = map[string]any{"futureFeatureFlag": true}

	if err := s.SaveSettings(league, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	loaded, err := s.LoadSettings(league)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if loaded.Extra["futureFeatureFlag"] != true {
		t.Fatalf("expected unknown key to round-trip, got %#v", loaded.Extra)
	}
	if loaded.PlayerLimit != 24 {
		t.Fatalf("expected default player limit 24, got %d", loaded.PlayerLimit)
	}
}

func TestLoadSettingsDefaultsWhenAbsent(t *testing.T) {
	s := newTestStore(t)
	league := "no-settings-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}
	settings, err := s.LoadSettings(league)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if settings.PlayerLimit != 24 || settings.Elo.GamesThreshold != 35 {
		t.Fatalf("expected spec defaults, got %#v", settings)
	}
}

func TestConcurrentSetManySerializedPerDocument(t *testing.T) {
	s := newTestStore(t)
	league := "concurrent-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}
	if err := s.SetMany(league, "settings", []Op{{Key: "playerLimit", Value: 0, Overwrite: true}}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	const n = 50
	done := make(chan error, n)
	for i := 0; i < n; i++ {
		go func() {
			done <- s.SetMany(league, "settings", []Op{
				{Key: "bumped", Value: 1, Default: []any{}, Overwrite: false},
			})
		}()
	}
	for i := 0; i < n; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent SetMany: %v", err)
		}
	}

	v, ok, err := s.Get(league, "settings", "bumped")
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if list, ok := v.([]any); !ok || len(list) != n {
		t.Fatalf("expected %d appended entries with no lost updates, got %#v", n, v)
	}
}

func TestListSessionDatesSortsAscendingAndIgnoresStableDocs(t *testing.T) {
	s := newTestStore(t)
	league := "dates-league"
	if err := s.EnsureLeague(league); err != nil {
		t.Fatalf("EnsureLeague: %v", err)
	}
	for _, date := range []string{"2025-03-01", "2025-01-15", "2025-02-10"} {
		if err := s.SaveSessionDoc(league, date, domain.SessionDoc{Teams: domain.Teams{}}); err != nil {
			t.Fatalf("SaveSessionDoc(%s): %v", date, err)
		}
	}
	if err := s.SaveSettings(league, domain.DefaultSettings()); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	dates, err := s.ListSessionDates(league)
	if err != nil {
		t.Fatalf("ListSessionDates: %v", err)
	}
	want := []string{"2025-01-15", "2025-02-10", "2025-03-01"}
	if len(dates) != len(want) {
		t.Fatalf("expected %v, got %v", want, dates)
	}
	for i, d := range want {
		if dates[i] != d {
			t.Fatalf("expected %v, got %v", want, dates)
		}
	}
}
