package store

import (
	"encoding/json"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
)

// toMap round-trips a typed value through JSON into a generic map, so it
// can be merged into a document the way SetMany/writeAtomic expect.
func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, apperr.Store("failed to encode value", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperr.Store("failed to encode value", err)
	}
	return m, nil
}

func fromMap(m map[string]any, out any) error {
	data, err := json.Marshal(m)
	if err != nil {
		return apperr.Store("failed to decode value", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Store("failed to decode value", err)
	}
	return nil
}

// LoadLeague reads the stable leagues.json document for a league.
func (s *Store) LoadLeague(leagueID string) (domain.League, error) {
	var league domain.League
	err := s.Read(leagueID, DocLeagues, func(body map[string]any) error {
		if len(body) == 0 {
			return apperr.NotFound("league " + leagueID + " not found")
		}
		return fromMap(body, &league)
	})
	return league, err
}

// SaveLeague writes the stable leagues.json document, overwriting it
// wholesale (league metadata is write-once per spec §3).
func (s *Store) SaveLeague(leagueID string, league domain.League) error {
	m, err := toMap(league)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, DocLeagues, func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}

// LoadSettings reads league-wide settings, falling back to spec defaults
// when no settings document has been written yet.
func (s *Store) LoadSettings(leagueID string) (domain.Settings, error) {
	var settings domain.Settings
	err := s.Read(leagueID, DocSettings, func(body map[string]any) error {
		if len(body) == 0 {
			settings = domain.DefaultSettings()
			return nil
		}
		return fromMap(body, &settings)
	})
	return settings, err
}

// SaveSettings overwrites the league-wide settings document.
func (s *Store) SaveSettings(leagueID string, settings domain.Settings) error {
	m, err := toMap(settings)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, DocSettings, func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}

// LoadPlayerOwners reads the name -> owner-token map.
func (s *Store) LoadPlayerOwners(leagueID string) (map[string]string, error) {
	owners := map[string]string{}
	err := s.Read(leagueID, DocPlayerOwners, func(body map[string]any) error {
		if len(body) == 0 {
			return nil
		}
		return fromMap(body, &owners)
	})
	return owners, err
}

// SavePlayerOwners overwrites the name -> owner-token map.
func (s *Store) SavePlayerOwners(leagueID string, owners map[string]string) error {
	m, err := toMap(owners)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, DocPlayerOwners, func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}

// LoadDiscipline reads the per-league discipline ledger.
func (s *Store) LoadDiscipline(leagueID string) (domain.Discipline, error) {
	d := domain.Discipline{Players: map[string]*domain.DisciplineRecord{}}
	err := s.Read(leagueID, DocDiscipline, func(body map[string]any) error {
		if len(body) == 0 {
			return nil
		}
		return fromMap(body, &d)
	})
	if d.Players == nil {
		d.Players = map[string]*domain.DisciplineRecord{}
	}
	return d, err
}

// SaveDiscipline overwrites the per-league discipline ledger.
func (s *Store) SaveDiscipline(leagueID string, d domain.Discipline) error {
	m, err := toMap(d)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, DocDiscipline, func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}

// LoadSessionDoc reads one session date's document.
func (s *Store) LoadSessionDoc(leagueID, date string) (domain.SessionDoc, error) {
	doc, err := SessionDoc(date)
	if err != nil {
		return domain.SessionDoc{}, err
	}
	sd := domain.SessionDoc{Teams: domain.Teams{}}
	rerr := s.Read(leagueID, doc, func(body map[string]any) error {
		if len(body) == 0 {
			return nil
		}
		return fromMap(body, &sd)
	})
	if sd.Teams == nil {
		sd.Teams = domain.Teams{}
	}
	return sd, rerr
}

// SaveSessionDoc overwrites one session date's document wholesale. Callers
// needing a read-modify-write transaction should use TransactSession.
func (s *Store) SaveSessionDoc(leagueID, date string, sd domain.SessionDoc) error {
	doc, err := SessionDoc(date)
	if err != nil {
		return err
	}
	m, err := toMap(sd)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, doc, func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}

// TransactSession runs fn against the decoded session document under the
// document's lock and persists whatever fn returns.
func (s *Store) TransactSession(leagueID, date string, fn func(domain.SessionDoc) (domain.SessionDoc, error)) error {
	doc, err := SessionDoc(date)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, doc, func(body map[string]any) (map[string]any, error) {
		sd := domain.SessionDoc{Teams: domain.Teams{}}
		if len(body) > 0 {
			if err := fromMap(body, &sd); err != nil {
				return nil, err
			}
		}
		if sd.Teams == nil {
			sd.Teams = domain.Teams{}
		}
		next, err := fn(sd)
		if err != nil {
			return nil, err
		}
		return toMap(next)
	})
}

// LoadRankingsYear reads a yearly rankings document.
func (s *Store) LoadRankingsYear(leagueID string, year int) (domain.RankingsYear, error) {
	ry := domain.RankingsYear{Year: year, Players: map[string]*domain.PlayerYearRecord{}}
	err := s.Read(leagueID, RankingsDoc(year), func(body map[string]any) error {
		if len(body) == 0 {
			return nil
		}
		return fromMap(body, &ry)
	})
	if ry.Players == nil {
		ry.Players = map[string]*domain.PlayerYearRecord{}
	}
	ry.Year = year
	return ry, err
}

// SaveRankingsYear overwrites a yearly rankings document. A failed write
// leaves the previous document intact (spec §4.E failure model) because
// writeAtomic never touches the original file until the new one is ready.
func (s *Store) SaveRankingsYear(leagueID string, year int, ry domain.RankingsYear) error {
	m, err := toMap(ry)
	if err != nil {
		return err
	}
	return s.Transact(leagueID, RankingsDoc(year), func(map[string]any) (map[string]any, error) {
		return m, nil
	})
}
