package discipline

import (
	"testing"

	"github.com/vgebrev/leagr/internal/domain"
)

// TestNoShowToSuspension reproduces spec §8 scenario 5: two no-shows then
// a signup attempt that trips the threshold.
func TestNoShowToSuspension(t *testing.T) {
	var rec *domain.DisciplineRecord
	rec = RecordNoShow(rec, "2025-01-13")
	rec = RecordNoShow(rec, "2025-01-14")

	settings := domain.DisciplineSettings{Enabled: true, NoShowThreshold: 2}
	result := EvaluateSuspensionOnSignup(rec, settings, "2025-01-15")

	if !result.Suspended || !result.NewSuspension {
		t.Fatalf("expected suspended+new, got %+v", result)
	}
	if len(result.Record.ActiveNoShows) != 0 {
		t.Fatalf("expected active no-shows cleared, got %v", result.Record.ActiveNoShows)
	}
	if len(result.Record.ClearedNoShows) != 2 {
		t.Fatalf("expected both no-shows cleared, got %v", result.Record.ClearedNoShows)
	}
	if result.Record.TotalSuspensions != 1 {
		t.Fatalf("expected 1 total suspension, got %d", result.Record.TotalSuspensions)
	}
}

func TestRecordNoShowIsIdempotentPerDate(t *testing.T) {
	var rec *domain.DisciplineRecord
	rec = RecordNoShow(rec, "2025-01-13")
	rec = RecordNoShow(rec, "2025-01-13")
	if len(rec.ActiveNoShows) != 1 {
		t.Fatalf("expected single entry for repeated date, got %v", rec.ActiveNoShows)
	}
}

func TestClearNoShowsIfAppearedRequiresLaterDate(t *testing.T) {
	rec := &domain.DisciplineRecord{ActiveNoShows: []string{"2025-01-13"}}

	unchanged := ClearNoShowsIfAppeared(rec, "2025-01-10", "2025-01-10")
	if len(unchanged.ActiveNoShows) != 1 {
		t.Fatalf("expected no clear for an earlier appearance date, got %v", unchanged.ActiveNoShows)
	}

	cleared := ClearNoShowsIfAppeared(rec, "2025-01-20", "2025-01-20")
	if len(cleared.ActiveNoShows) != 0 || len(cleared.ClearedNoShows) != 1 {
		t.Fatalf("expected clear for a later appearance date, got %+v", cleared)
	}
}

func TestShouldSuspendRespectsEnabledFlag(t *testing.T) {
	rec := &domain.DisciplineRecord{ActiveNoShows: []string{"a", "b"}}
	if ShouldSuspend(rec, domain.DisciplineSettings{Enabled: false, NoShowThreshold: 2}) {
		t.Fatal("expected disabled discipline to never suspend")
	}
	if !ShouldSuspend(rec, domain.DisciplineSettings{Enabled: true, NoShowThreshold: 2}) {
		t.Fatal("expected threshold reached to suspend")
	}
}

func TestEvaluateSuspensionOnSignupBelowThreshold(t *testing.T) {
	rec := &domain.DisciplineRecord{ActiveNoShows: []string{"2025-01-13"}}
	result := EvaluateSuspensionOnSignup(rec, domain.DisciplineSettings{Enabled: true, NoShowThreshold: 2}, "2025-01-15")
	if result.Suspended {
		t.Fatal("expected no suspension below threshold")
	}
}

// TestEvaluateSuspensionOnSignupIsIdempotentForSameDate reproduces the retry
// case: a second evaluation for the same signupDate must still report
// Suspended even though ApplySuspension already cleared ActiveNoShows down
// to zero (which would make ShouldSuspend alone report false).
func TestEvaluateSuspensionOnSignupIsIdempotentForSameDate(t *testing.T) {
	var rec *domain.DisciplineRecord
	rec = RecordNoShow(rec, "2025-01-13")
	rec = RecordNoShow(rec, "2025-01-14")
	settings := domain.DisciplineSettings{Enabled: true, NoShowThreshold: 2}

	first := EvaluateSuspensionOnSignup(rec, settings, "2025-01-15")
	if !first.Suspended || !first.NewSuspension {
		t.Fatalf("expected first evaluation to suspend and be new, got %+v", first)
	}

	second := EvaluateSuspensionOnSignup(first.Record, settings, "2025-01-15")
	if !second.Suspended {
		t.Fatalf("expected repeated evaluation for the same signup date to still report suspended, got %+v", second)
	}
	if second.NewSuspension {
		t.Fatal("expected the repeated evaluation to not apply a second suspension")
	}
	if second.Record.TotalSuspensions != 1 {
		t.Fatalf("expected total suspensions to stay at 1, got %d", second.Record.TotalSuspensions)
	}
}
