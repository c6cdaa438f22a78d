// Package validation implements the input-validation rules of spec §4.H:
// subdomain format, player-name rules, score ranges, and scorer-map
// consistency. Helpers here return plain errors; callers at the store/
// session/schedule boundary wrap them as apperr.Validation where an HTTP
// status needs to be attached.
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/vgebrev/leagr/internal/domain"
)

var (
	subdomainRe = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?$`)
)

const (
	maxPlayerNameLength = 40
	reservedPrefix      = "__"
)

// ValidateEmail validates an optional league owner email address.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	return nil
}

// ValidateSubdomain checks the DNS-safe-slug format leagues are keyed by.
func ValidateSubdomain(subdomain string) error {
	if !subdomainRe.MatchString(subdomain) {
		return fmt.Errorf("invalid subdomain %q", subdomain)
	}
	return nil
}

// ValidatePlayerName enforces spec §4.H: trimmed, 1-40 visible characters,
// no control characters, no reserved "__" prefix.
func ValidatePlayerName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return fmt.Errorf("player name is required")
	}
	if len([]rune(trimmed)) > maxPlayerNameLength {
		return fmt.Errorf("player name must be at most %d characters", maxPlayerNameLength)
	}
	for _, r := range trimmed {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("player name must not contain control characters")
		}
	}
	if strings.HasPrefix(trimmed, reservedPrefix) {
		return fmt.Errorf("player name must not use the reserved %q prefix", reservedPrefix)
	}
	if trimmed != name {
		return fmt.Errorf("player name must not have leading or trailing whitespace")
	}
	return nil
}

// ValidateScore checks a match score is an integer in [0,99] or nil.
func ValidateScore(score *int) error {
	if score == nil {
		return nil
	}
	if *score < 0 || *score > 99 {
		return fmt.Errorf("score must be between 0 and 99, got %d", *score)
	}
	return nil
}

// ValidateScorers checks spec §3's scorer-map rules against a recorded team
// score: keys are either a roster player or one of the two reserved keys,
// values are positive integers, the own-goal count is capped, and the
// total of non-own-goal counts does not exceed the team's score
// (invariant 6).
func ValidateScorers(score *int, scorers map[string]int, roster []string) error {
	if len(scorers) == 0 {
		return nil
	}
	if score == nil {
		return fmt.Errorf("cannot record scorers against a null score")
	}
	onRoster := make(map[string]bool, len(roster))
	for _, p := range roster {
		onRoster[p] = true
	}

	total := 0
	for player, count := range scorers {
		if count <= 0 {
			return fmt.Errorf("scorer count for %q must be positive", player)
		}
		switch player {
		case domain.ReservedOwnGoalKey:
			if count > domain.MaxOwnGoalsPerTeam {
				return fmt.Errorf("own-goal count cannot exceed %d per team per match", domain.MaxOwnGoalsPerTeam)
			}
		case domain.ReservedUnassignedKey:
			total += count
		default:
			if !onRoster[player] {
				return fmt.Errorf("scorer %q is not on the team roster", player)
			}
			total += count
		}
	}
	if total > *score {
		return fmt.Errorf("scorer total %d exceeds recorded score %d", total, *score)
	}
	return nil
}
