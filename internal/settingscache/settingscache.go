// Package settingscache implements spec §4.I: a short-TTL cache of
// resolved per-(league,date) settings, returning deep clones so callers
// can never mutate a cached value out from under another request, and
// invalidated either by a targeted write or a league-wide fsnotify event
// on that league's settings.json.
package settingscache

import (
	"encoding/json"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/logger"
)

const defaultTTL = 5 * time.Minute

type cacheKey struct {
	leagueID string
	date     string
}

type cacheEntry struct {
	value     domain.Settings
	expiresAt time.Time
}

// Loader resolves the effective settings for a (league, date) pair on a
// cache miss.
type Loader func(leagueID, date string) (domain.Settings, error)

// Cache is the per-(league,date) settings cache. The zero value is not
// usable; construct with New.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[cacheKey]cacheEntry
	load    Loader
}

// New builds a Cache with the spec-documented 5 minute TTL. Pass ttl <= 0
// to use the default.
func New(ttl time.Duration, load Loader) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{ttl: ttl, entries: map[cacheKey]cacheEntry{}, load: load}
}

func cloneSettings(s domain.Settings) domain.Settings {
	// Deep-clone via a JSON round trip: Settings already defines the
	// canonical (un)marshaling, including the Extra side-channel, so this
	// is the one place guaranteed to stay in sync with that contract.
	raw, err := json.Marshal(s)
	if err != nil {
		return s
	}
	var clone domain.Settings
	if err := json.Unmarshal(raw, &clone); err != nil {
		return s
	}
	return clone
}

// Get returns a deep clone of the cached settings for (leagueID, date),
// loading and caching them on a miss or expiry.
func (c *Cache) Get(leagueID, date string) (domain.Settings, error) {
	key := cacheKey{leagueID, date}

	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && time.Now().Before(entry.expiresAt) {
		return cloneSettings(entry.value), nil
	}

	value, err := c.load(leagueID, date)
	if err != nil {
		return domain.Settings{}, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()
	return cloneSettings(value), nil
}

// Invalidate drops the cached entry for one (league, date) pair, for use
// after a setMany touching settings (spec §4.I invalidation rule).
func (c *Cache) Invalidate(leagueID, date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cacheKey{leagueID, date})
}

// InvalidateLeague drops every cached entry for a league, regardless of
// date.
func (c *Cache) InvalidateLeague(leagueID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.leagueID == leagueID {
			delete(c.entries, key)
		}
	}
}

// Watcher bridges filesystem writes to settings.json (e.g. an operator
// editing the file directly, or a sibling process instance) to league-wide
// cache invalidation.
type Watcher struct {
	fsw *fsnotify.Watcher
}

// NewWatcher starts an fsnotify watch loop that invalidates cache on
// behalf of the given leagueID whenever settingsPath changes. It watches
// settingsPath's containing directory rather than the file itself, since
// settings.json may not exist yet the first time a league is created
// (LoadSettings falls back to defaults until the first write) — the
// league directory, by contrast, is guaranteed to exist once the league
// is created (store.EnsureLeague runs before a watcher is ever attached).
func NewWatcher(settingsPath, leagueID string, cache *Cache) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(filepath.Dir(settingsPath)); err != nil {
		fsw.Close()
		return nil, err
	}

	w := &Watcher{fsw: fsw}
	go w.run(leagueID, settingsPath, cache)
	return w, nil
}

func (w *Watcher) run(leagueID, settingsPath string, cache *Cache) {
	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != settingsPath {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
				cache.InvalidateLeague(leagueID)
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			logger.Error("settings watcher error", "league", leagueID, "error", err)
		}
	}
}

// Close stops the underlying fsnotify watch.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
