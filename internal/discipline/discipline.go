// Package discipline implements the no-show ledger of spec §4.F: recording
// no-shows, clearing them on the player's next appearance, and the
// signup-time suspension check.
package discipline

import (
	"sort"

	"github.com/vgebrev/leagr/internal/domain"
)

func cloneRecord(r *domain.DisciplineRecord) *domain.DisciplineRecord {
	if r == nil {
		return &domain.DisciplineRecord{}
	}
	return &domain.DisciplineRecord{
		ActiveNoShows:    append([]string{}, r.ActiveNoShows...),
		ClearedNoShows:   append([]domain.NoShowClear{}, r.ClearedNoShows...),
		Suspensions:      append([]domain.Suspension{}, r.Suspensions...),
		TotalSuspensions: r.TotalSuspensions,
	}
}

func containsDate(dates []string, date string) bool {
	for _, d := range dates {
		if d == date {
			return true
		}
	}
	return false
}

// RecordNoShow appends date to the player's active no-show list if it is
// not already present (spec §4.F recordNoShow is idempotent per date).
func RecordNoShow(rec *domain.DisciplineRecord, date string) *domain.DisciplineRecord {
	next := cloneRecord(rec)
	if !containsDate(next.ActiveNoShows, date) {
		next.ActiveNoShows = append(next.ActiveNoShows, date)
		sort.Strings(next.ActiveNoShows)
	}
	return next
}

func maxDate(dates []string) string {
	max := ""
	for _, d := range dates {
		if d > max {
			max = d
		}
	}
	return max
}

// ClearNoShowsIfAppeared moves every active no-show to cleared once the
// player appears on a later date than the most recent recorded no-show
// (spec §4.F clearNoShowsIfAppeared).
func ClearNoShowsIfAppeared(rec *domain.DisciplineRecord, appearanceDate, clearedOn string) *domain.DisciplineRecord {
	next := cloneRecord(rec)
	if len(next.ActiveNoShows) == 0 {
		return next
	}
	if appearanceDate <= maxDate(next.ActiveNoShows) {
		return next
	}
	for _, d := range next.ActiveNoShows {
		next.ClearedNoShows = append(next.ClearedNoShows, domain.NoShowClear{Date: d, ClearedOn: clearedOn})
	}
	next.ActiveNoShows = []string{}
	return next
}

// ShouldSuspend reports whether a player's active no-show count has
// reached the configured threshold (spec §4.F shouldSuspend); discipline
// tracking can be switched off entirely in settings.
func ShouldSuspend(rec *domain.DisciplineRecord, settings domain.DisciplineSettings) bool {
	if !settings.Enabled || rec == nil {
		return false
	}
	return len(rec.ActiveNoShows) >= settings.NoShowThreshold
}

// ApplySuspension atomically records the suspension, clears the active
// no-shows that triggered it, and increments the lifetime counter (spec
// §4.F applySuspension).
func ApplySuspension(rec *domain.DisciplineRecord, date, reason, clearedOn string) *domain.DisciplineRecord {
	next := cloneRecord(rec)
	next.Suspensions = append(next.Suspensions, domain.Suspension{Date: date, Reason: reason})
	next.TotalSuspensions++
	for _, d := range next.ActiveNoShows {
		next.ClearedNoShows = append(next.ClearedNoShows, domain.NoShowClear{Date: d, ClearedOn: clearedOn})
	}
	next.ActiveNoShows = []string{}
	return next
}

// SignupResult reports the outcome of evaluating a signup attempt against
// the discipline ledger.
type SignupResult struct {
	Suspended    bool
	NewSuspension bool
	Record       *domain.DisciplineRecord
}

func hasSuspensionFor(rec *domain.DisciplineRecord, date string) bool {
	if rec == nil {
		return false
	}
	for _, s := range rec.Suspensions {
		if s.Date == date {
			return true
		}
	}
	return false
}

// EvaluateSuspensionOnSignup is the idempotent signup-blocking check (spec
// §4.F evaluateSuspensionOnSignup): a signup is blocked if the player
// already has a suspension recorded for signupDate — re-evaluating the same
// signup attempt must keep reporting Suspended without re-applying one — or,
// failing that, if the player is newly at or past the no-show threshold, in
// which case the active no-shows are cleared and a suspension recorded.
func EvaluateSuspensionOnSignup(rec *domain.DisciplineRecord, settings domain.DisciplineSettings, signupDate string) SignupResult {
	if hasSuspensionFor(rec, signupDate) {
		return SignupResult{Suspended: true, Record: cloneRecord(rec)}
	}
	if !ShouldSuspend(rec, settings) {
		return SignupResult{Record: cloneRecord(rec)}
	}
	next := ApplySuspension(rec, signupDate, "no-show threshold reached", signupDate)
	return SignupResult{Suspended: true, NewSuspension: true, Record: next}
}
