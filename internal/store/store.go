// Package store implements the per-league keyed JSON persistence layer
// (spec §4.A): one JSON document per session date plus a handful of stable
// documents, written through temp-file + rename so a reader only ever sees
// a fully-written document, and mutated through a single atomic
// read-modify-write primitive (SetMany) serialized per (league, document)
// by a keyed mutex table.
//
// The document body itself is kept deliberately untyped (map[string]any)
// at this layer — spec §9's design note calls this out explicitly for
// forward compatibility — with typed projections layered on top in
// internal/domain and the Load/Save helpers in typed.go.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/logger"
)

var (
	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	leagueRe  = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
	rankingRe = regexp.MustCompile(`^rankings-(\d{4})$`)
)

// Stable document names (spec §6 persisted state layout).
const (
	DocLeagues      = "leagues"
	DocSettings     = "settings"
	DocPlayerOwners = "playerOwners"
	DocDiscipline   = "discipline"
)

// RankingsDoc returns the document name for a year's rankings document.
func RankingsDoc(year int) string { return fmt.Sprintf("rankings-%d", year) }

// SessionDoc returns the document name for a session date.
func SessionDoc(date string) (string, error) {
	if !dateRe.MatchString(date) {
		return "", apperr.Store(fmt.Sprintf("malformed date %q, expected YYYY-MM-DD", date), nil)
	}
	return date, nil
}

// Store is the per-league JSON document store.
type Store struct {
	dataDir string
	locks   sync.Map // (leagueID, doc) -> *sync.Mutex
}

// New creates a Store rooted at dataDir (spec §6 env: DATA_DIR).
func New(dataDir string) *Store {
	return &Store{dataDir: dataDir}
}

// ValidateLeagueID checks the DNS-safe-slug format spec §4.H requires.
func ValidateLeagueID(leagueID string) error {
	if !leagueRe.MatchString(leagueID) {
		return apperr.Validation(fmt.Sprintf("invalid league id %q", leagueID))
	}
	return nil
}

func (s *Store) leagueDir(leagueID string) (string, error) {
	if err := ValidateLeagueID(leagueID); err != nil {
		return "", err
	}
	return filepath.Join(s.dataDir, leagueID), nil
}

func (s *Store) docPath(leagueID, doc string) (string, error) {
	dir, err := s.leagueDir(leagueID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, doc+".json"), nil
}

// SettingsPath returns the on-disk path of a league's settings document,
// for callers (the fsnotify-backed settingscache.Watcher) that need to
// watch it directly rather than go through Get/SetMany.
func (s *Store) SettingsPath(leagueID string) (string, error) {
	return s.docPath(leagueID, DocSettings)
}

func (s *Store) lockFor(leagueID, doc string) *sync.Mutex {
	key := leagueID + "/" + doc
	v, _ := s.locks.LoadOrStore(key, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// LeagueExists reports whether a league directory has been created.
func (s *Store) LeagueExists(leagueID string) bool {
	dir, err := s.leagueDir(leagueID)
	if err != nil {
		return false
	}
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// EnsureLeague creates the league's storage directory if absent.
func (s *Store) EnsureLeague(leagueID string) error {
	dir, err := s.leagueDir(leagueID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return apperr.Store("failed to create league directory", err)
	}
	return nil
}

// ListSessionDates returns every session date (YYYY-MM-DD) with a document
// in the league directory, ascending. Used by team generation (pair
// history) and rankings rebuilds, which both need to walk prior sessions.
func (s *Store) ListSessionDates(leagueID string) ([]string, error) {
	dir, err := s.leagueDir(leagueID)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, apperr.Store("failed to list league directory", err)
	}
	var dates []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(e.Name(), ".json")
		if dateRe.MatchString(name) {
			dates = append(dates, name)
		}
	}
	sort.Strings(dates)
	return dates, nil
}

// loadRaw reads a document as a generic map. A missing document yields an
// empty map and no error, so callers can write-through on first use.
func (s *Store) loadRaw(leagueID, doc string) (map[string]any, error) {
	path, err := s.docPath(leagueID, doc)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, apperr.Store("failed to read document", err)
	}
	if len(data) == 0 {
		return map[string]any{}, nil
	}
	var body map[string]any
	if err := json.Unmarshal(data, &body); err != nil {
		return nil, apperr.Store(fmt.Sprintf("corrupt JSON in %s/%s", leagueID, doc), err)
	}
	return body, nil
}

// writeAtomic serializes body and writes it via temp-file + rename so a
// reader never observes a partial document (spec §5 Atomicity).
func (s *Store) writeAtomic(leagueID, doc string, body map[string]any) error {
	path, err := s.docPath(leagueID, doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return apperr.Store("failed to create league directory", err)
	}
	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return apperr.Store("failed to encode document", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+doc+"-*")
	if err != nil {
		return apperr.Store("failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	removeTempOnFail := true
	defer func() {
		if removeTempOnFail {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return apperr.Store("failed to write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apperr.Store("failed to sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return apperr.Store("failed to close temp file", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return apperr.Store("failed to rename temp file into place", err)
	}
	removeTempOnFail = false
	return nil
}

// Op is one mutation applied within a SetMany transaction.
type Op struct {
	// Key is a dotted path into the document, e.g. "players.available".
	Key string
	// Value is the value to write, append, or merge in.
	Value any
	// Default seeds Key when absent, prior to an append/merge (ignored
	// when Overwrite is set).
	Default any
	// Overwrite replaces Key outright; otherwise the existing value's
	// type decides append-to-array vs shallow-merge-object semantics.
	Overwrite bool
}

// Get reads a single dotted-path key from a document. ok is false when the
// path (or the document) does not exist.
func (s *Store) Get(leagueID, doc, key string) (any, bool, error) {
	lock := s.lockFor(leagueID, doc)
	lock.Lock()
	defer lock.Unlock()

	body, err := s.loadRaw(leagueID, doc)
	if err != nil {
		return nil, false, err
	}
	if key == "" {
		return body, true, nil
	}
	return getPath(body, key)
}

// Set applies a single Op as its own transaction. It is sugar over SetMany
// for the common single-key case (spec §4.A `set`).
func (s *Store) Set(leagueID, doc string, op Op) error {
	return s.SetMany(leagueID, doc, []Op{op})
}

// SetMany is the atomic primitive (spec §4.A): it loads the target document
// once, applies each op in order against the in-memory copy, and writes the
// result through a temp-file + rename. On any validation or I/O error the
// original document is left untouched.
func (s *Store) SetMany(leagueID, doc string, ops []Op) error {
	lock := s.lockFor(leagueID, doc)
	lock.Lock()
	defer lock.Unlock()

	body, err := s.loadRaw(leagueID, doc)
	if err != nil {
		return err
	}

	working := deepCopyMap(body)
	for _, op := range ops {
		if op.Key == "" {
			return apperr.Validation("setMany op missing key")
		}
		if err := setPath(working, op.Key, op.Value, op.Default, op.Overwrite); err != nil {
			return err
		}
	}

	if err := s.writeAtomic(leagueID, doc, working); err != nil {
		return err
	}
	logger.Debug("store: committed document", "league", leagueID, "doc", doc, "ops", len(ops))
	return nil
}

// Transact runs a caller-supplied function against a mutable copy of the
// document under the same per-document lock SetMany uses, then persists the
// result if fn returns no error. It exists for callers (session, rankings,
// discipline) that need read-then-decide logic richer than a fixed Op list
// but still want the single-writer-per-document guarantee.
func (s *Store) Transact(leagueID, doc string, fn func(body map[string]any) (map[string]any, error)) error {
	lock := s.lockFor(leagueID, doc)
	lock.Lock()
	defer lock.Unlock()

	body, err := s.loadRaw(leagueID, doc)
	if err != nil {
		return err
	}
	next, err := fn(deepCopyMap(body))
	if err != nil {
		return err
	}
	return s.writeAtomic(leagueID, doc, next)
}

// Read runs fn against a read-only snapshot of the document without
// blocking writers any longer than the copy takes.
func (s *Store) Read(leagueID, doc string, fn func(body map[string]any) error) error {
	lock := s.lockFor(leagueID, doc)
	lock.Lock()
	body, err := s.loadRaw(leagueID, doc)
	lock.Unlock()
	if err != nil {
		return err
	}
	return fn(body)
}

func deepCopyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = deepCopyValue(v)
	}
	return out
}

func deepCopyValue(v any) any {
	switch x := v.(type) {
	case map[string]any:
		return deepCopyMap(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = deepCopyValue(item)
		}
		return out
	default:
		return x
	}
}

// Now is overridable in tests; production code always uses time.Now.
var Now = time.Now
