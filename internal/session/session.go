// Package session implements the player-list and team-assignment state
// transitions of spec §4.B. A domain.SessionDoc's Players/Teams fields are
// treated as immutable by convention: every mutator here returns a new
// value built from the input, and Validate is expected to run before the
// caller commits the result through the store.
package session

import (
	"fmt"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
)

// Target names one of the two signup lists, or "auto" for capacity-aware
// routing (spec §4.B addPlayer).
type Target string

const (
	Available Target = "available"
	Waiting   Target = "waitingList"
	Auto      Target = "auto"
)

func contains(list []string, name string) bool {
	for _, v := range list {
		if v == name {
			return true
		}
	}
	return false
}

func without(list []string, name string) []string {
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v != name {
			out = append(out, v)
		}
	}
	return out
}

func clonePlayers(p domain.Players) domain.Players {
	return domain.Players{
		Available:   append([]string{}, p.Available...),
		WaitingList: append([]string{}, p.WaitingList...),
	}
}

func cloneTeams(t domain.Teams) domain.Teams {
	out := make(domain.Teams, len(t))
	for name, roster := range t {
		out[name] = append([]string{}, roster...)
	}
	return out
}

// Validate checks the universal invariants from spec §3/§8:
//  1. available ∩ waitingList = ∅
//  2. every non-null team slot's name appears in available
//  3. |available| ≤ playerLimit (skipped when allowOverLimit is set, for
//     documents loaded before a limit decrease)
func Validate(sd domain.SessionDoc, playerLimit int, allowOverLimit bool) error {
	seen := map[string]string{}
	for _, name := range sd.Players.Available {
		if prior, ok := seen[name]; ok {
			return apperr.Conflict(fmt.Sprintf("player %q duplicated across %s and available", name, prior))
		}
		seen[name] = "available"
	}
	for _, name := range sd.Players.WaitingList {
		if prior, ok := seen[name]; ok {
			return apperr.Conflict(fmt.Sprintf("player %q duplicated across %s and waitingList", name, prior))
		}
		seen[name] = "waitingList"
	}

	if !allowOverLimit && len(sd.Players.Available) > playerLimit {
		return apperr.Conflict(fmt.Sprintf("available list exceeds playerLimit %d", playerLimit))
	}

	for teamName, roster := range sd.Teams {
		for _, slot := range roster {
			if slot == "" {
				continue
			}
			if _, ok := seen[slot]; !ok || seen[slot] != "available" {
				return apperr.Conflict(fmt.Sprintf("team %q slot holds %q which is not in available", teamName, slot))
			}
		}
	}
	return nil
}

// AddPlayer rejects exact-case duplicates; with Auto or Available when
// available is already at playerLimit, the player is routed to the waiting
// list instead (spec §4.B addPlayer, invariant 2 / boundary behavior §8).
func AddPlayer(sd domain.SessionDoc, name string, target Target, playerLimit int) (domain.SessionDoc, error) {
	if contains(sd.Players.Available, name) || contains(sd.Players.WaitingList, name) {
		return sd, apperr.Conflict(fmt.Sprintf("player %q already registered", name))
	}

	next := sd
	next.Players = clonePlayers(sd.Players)

	switch target {
	case Waiting:
		next.Players.WaitingList = append(next.Players.WaitingList, name)
	case Available, Auto, "":
		if len(next.Players.Available) >= playerLimit {
			next.Players.WaitingList = append(next.Players.WaitingList, name)
		} else {
			next.Players.Available = append(next.Players.Available, name)
		}
	default:
		return sd, apperr.Validation("unknown target " + string(target))
	}
	return next, nil
}

// RemovePlayer removes name from whichever list holds it and nulls any team
// slot holding that name. It fails if the player is not present.
func RemovePlayer(sd domain.SessionDoc, name string) (domain.SessionDoc, error) {
	inAvailable := contains(sd.Players.Available, name)
	inWaiting := contains(sd.Players.WaitingList, name)
	if !inAvailable && !inWaiting {
		return sd, apperr.NotFound(fmt.Sprintf("player %q not found", name))
	}

	next := sd
	next.Players = clonePlayers(sd.Players)
	if inAvailable {
		next.Players.Available = without(next.Players.Available, name)
	} else {
		next.Players.WaitingList = without(next.Players.WaitingList, name)
	}

	next.Teams = cloneTeams(sd.Teams)
	for teamName, roster := range next.Teams {
		for i, slot := range roster {
			if slot == name {
				roster[i] = ""
			}
		}
		next.Teams[teamName] = roster
	}
	return next, nil
}

// MovePlayer moves a player between available and waitingList.
// waitingList -> available requires capacity; available -> waitingList
// additionally clears the player's team assignment (spec §4.B movePlayer).
func MovePlayer(sd domain.SessionDoc, name string, from, to Target, playerLimit int) (domain.SessionDoc, error) {
	next := sd
	next.Players = clonePlayers(sd.Players)
	next.Teams = cloneTeams(sd.Teams)

	switch {
	case from == Waiting && to == Available:
		if !contains(next.Players.WaitingList, name) {
			return sd, apperr.NotFound(fmt.Sprintf("player %q not in waiting list", name))
		}
		if len(next.Players.Available) >= playerLimit {
			return sd, apperr.Conflict("available list is at capacity")
		}
		next.Players.WaitingList = without(next.Players.WaitingList, name)
		next.Players.Available = append(next.Players.Available, name)

	case from == Available && to == Waiting:
		if !contains(next.Players.Available, name) {
			return sd, apperr.NotFound(fmt.Sprintf("player %q not in available list", name))
		}
		next.Players.Available = without(next.Players.Available, name)
		next.Players.WaitingList = append(next.Players.WaitingList, name)
		for teamName, roster := range next.Teams {
			for i, slot := range roster {
				if slot == name {
					roster[i] = ""
				}
			}
			next.Teams[teamName] = roster
		}

	default:
		return sd, apperr.Validation(fmt.Sprintf("unsupported move %s -> %s", from, to))
	}
	return next, nil
}

// MovePlayerToTeam assigns name to the first null slot of teamName. If the
// player is currently waitlisted, they are first promoted to available
// (capacity-checked) per spec §4.B movePlayerToTeam.
func MovePlayerToTeam(sd domain.SessionDoc, name, teamName string, playerLimit int) (domain.SessionDoc, error) {
	roster, ok := sd.Teams[teamName]
	if !ok {
		return sd, apperr.NotFound(fmt.Sprintf("team %q not found", teamName))
	}

	slot := -1
	for i, v := range roster {
		if v == "" {
			slot = i
			break
		}
	}
	if slot == -1 {
		return sd, apperr.Conflict(fmt.Sprintf("team %q has no open slot", teamName))
	}
	for _, v := range roster {
		if v == name {
			return sd, apperr.Conflict(fmt.Sprintf("player %q already on team %q", name, teamName))
		}
	}

	working := sd
	if contains(sd.Players.WaitingList, name) {
		promoted, err := MovePlayer(working, name, Waiting, Available, playerLimit)
		if err != nil {
			return sd, err
		}
		working = promoted
	} else if !contains(sd.Players.Available, name) {
		return sd, apperr.NotFound(fmt.Sprintf("player %q not registered for this session", name))
	}

	next := working
	next.Teams = cloneTeams(working.Teams)
	r := append([]string{}, next.Teams[teamName]...)
	r[slot] = name
	next.Teams[teamName] = r
	return next, nil
}

// MovePlayerToWaiting is the inverse of MovePlayerToTeam: it clears the
// player's team slot and moves them to the waiting list.
func MovePlayerToWaiting(sd domain.SessionDoc, name string) (domain.SessionDoc, error) {
	if !contains(sd.Players.Available, name) {
		return sd, apperr.NotFound(fmt.Sprintf("player %q not in available list", name))
	}
	next := sd
	next.Players = clonePlayers(sd.Players)
	next.Teams = cloneTeams(sd.Teams)

	next.Players.Available = without(next.Players.Available, name)
	next.Players.WaitingList = append(next.Players.WaitingList, name)
	for teamName, roster := range next.Teams {
		for i, v := range roster {
			if v == name {
				roster[i] = ""
			}
		}
		next.Teams[teamName] = roster
	}
	return next, nil
}

// RenamePlayer remaps every reference to old across Players, Teams and the
// separate playerOwners map (committed by the caller in the same
// transaction, per spec §4.B renamePlayer).
func RenamePlayer(sd domain.SessionDoc, owners map[string]string, oldName, newName string) (domain.SessionDoc, map[string]string, error) {
	if oldName == newName {
		return sd, owners, nil
	}
	if contains(sd.Players.Available, newName) || contains(sd.Players.WaitingList, newName) {
		return sd, owners, apperr.Conflict(fmt.Sprintf("player %q already exists", newName))
	}
	if !contains(sd.Players.Available, oldName) && !contains(sd.Players.WaitingList, oldName) {
		return sd, owners, apperr.NotFound(fmt.Sprintf("player %q not found", oldName))
	}

	next := sd
	next.Players = clonePlayers(sd.Players)
	for i, v := range next.Players.Available {
		if v == oldName {
			next.Players.Available[i] = newName
		}
	}
	for i, v := range next.Players.WaitingList {
		if v == oldName {
			next.Players.WaitingList[i] = newName
		}
	}

	next.Teams = cloneTeams(sd.Teams)
	for teamName, roster := range next.Teams {
		for i, v := range roster {
			if v == oldName {
				roster[i] = newName
			}
		}
		next.Teams[teamName] = roster
	}

	nextOwners := make(map[string]string, len(owners))
	for k, v := range owners {
		if k == oldName {
			k = newName
		}
		nextOwners[k] = v
	}

	return next, nextOwners, nil
}
