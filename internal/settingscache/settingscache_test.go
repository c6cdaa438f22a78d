package settingscache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vgebrev/leagr/internal/domain"
)

func TestGetCachesUntilTTLExpires(t *testing.T) {
	calls := 0
	cache := New(50*time.Millisecond, func(leagueID, date string) (domain.Settings, error) {
		calls++
		s := domain.DefaultSettings()
		s.PlayerLimit = 24 + calls
		return s, nil
	})

	first, err := cache.Get("acme", "2026-01-05")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	second, err := cache.Get("acme", "2026-01-05")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected loader called once before expiry, got %d calls", calls)
	}
	if first.PlayerLimit != second.PlayerLimit {
		t.Fatalf("expected identical cached value, got %d vs %d", first.PlayerLimit, second.PlayerLimit)
	}

	time.Sleep(75 * time.Millisecond)
	if _, err := cache.Get("acme", "2026-01-05"); err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected loader called again after expiry, got %d calls", calls)
	}
}

func TestGetReturnsDeepCloneNotSharedState(t *testing.T) {
	cache := New(time.Minute, func(leagueID, date string) (domain.Settings, error) {
		s := domain.DefaultSettings()
		s.Extra = map[string]any{"note": "original"}
		return s, nil
	})

	first, err := cache.Get("acme", "2026-01-05")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	first.Extra["note"] = "mutated"

	second, err := cache.Get("acme", "2026-01-05")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if second.Extra["note"] != "original" {
		t.Fatalf("expected cache unaffected by caller mutation, got %v", second.Extra["note"])
	}
}

func TestInvalidateForcesReload(t *testing.T) {
	calls := 0
	cache := New(time.Minute, func(leagueID, date string) (domain.Settings, error) {
		calls++
		return domain.DefaultSettings(), nil
	})

	if _, err := cache.Get("acme", "2026-01-05"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	cache.Invalidate("acme", "2026-01-05")
	if _, err := cache.Get("acme", "2026-01-05"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected reload after invalidate, got %d calls", calls)
	}
}

func TestInvalidateLeagueDropsAllDates(t *testing.T) {
	calls := 0
	cache := New(time.Minute, func(leagueID, date string) (domain.Settings, error) {
		calls++
		return domain.DefaultSettings(), nil
	})

	cache.Get("acme", "2026-01-05")
	cache.Get("acme", "2026-01-12")
	cache.InvalidateLeague("acme")
	cache.Get("acme", "2026-01-05")
	cache.Get("acme", "2026-01-12")

	if calls != 4 {
		t.Fatalf("expected both dates reloaded after league-wide invalidation, got %d calls", calls)
	}
}

// TestWatcherInvalidatesOnSettingsWrite exercises the fsnotify-backed
// Watcher end to end: a raw write to settings.json on disk, with no call
// to Invalidate/InvalidateLeague, still forces the next Get to reload.
func TestWatcherInvalidatesOnSettingsWrite(t *testing.T) {
	dir := t.TempDir()
	settingsPath := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(settingsPath, []byte(`{}`), 0o644); err != nil {
		t.Fatalf("seed settings.json: %v", err)
	}

	calls := 0
	cache := New(time.Hour, func(leagueID, date string) (domain.Settings, error) {
		calls++
		return domain.DefaultSettings(), nil
	})

	if _, err := cache.Get("acme", "2026-01-05"); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one load before any write, got %d", calls)
	}

	w, err := NewWatcher(settingsPath, "acme", cache)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(settingsPath, []byte(`{"playerLimit":30}`), 0o644); err != nil {
		t.Fatalf("rewrite settings.json: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		cache.mu.Lock()
		_, cached := cache.entries[cacheKey{"acme", "2026-01-05"}]
		cache.mu.Unlock()
		if !cached {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if _, err := cache.Get("acme", "2026-01-05"); err != nil {
		t.Fatalf("Get after write: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected the fsnotify write to force a reload, got %d calls", calls)
	}
}
