package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"time"

	"github.com/vgebrev/leagr/internal/apperr"
	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/response"
	"github.com/vgebrev/leagr/internal/store"
	"github.com/vgebrev/leagr/internal/validation"
)

// hashCode hashes an access code for storage/comparison. A real deployment
// would use bcrypt; sha256 is enough here since the Non-goal is "build an
// identity system", not "defend against an offline dictionary attack".
func hashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

type createLeagueRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Icon        string `json:"icon,omitempty"`
	AccessCode  string `json:"accessCode"`
	OwnerEmail  string `json:"ownerEmail,omitempty"`
}

// handleCreateLeague provisions a new league's storage directory and
// stable leagues.json document (spec §4.A, write-once league metadata).
func (s *APIServer) handleCreateLeague(w http.ResponseWriter, r *http.Request) {
	var req createLeagueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteBadRequest(w, "invalid request body")
		return
	}
	if err := store.ValidateLeagueID(req.ID); err != nil {
		response.WriteAppError(w, err)
		return
	}
	if req.AccessCode == "" {
		response.WriteBadRequest(w, "accessCode is required")
		return
	}
	if req.OwnerEmail != "" {
		if err := validation.ValidateEmail(req.OwnerEmail); err != nil {
			response.WriteBadRequest(w, err.Error())
			return
		}
	}
	if s.store.LeagueExists(req.ID) {
		response.WriteAppError(w, apperr.Conflict("league "+req.ID+" already exists"))
		return
	}

	if err := s.store.EnsureLeague(req.ID); err != nil {
		response.WriteAppError(w, err)
		return
	}
	league := domain.League{
		ID:             req.ID,
		DisplayName:    req.DisplayName,
		Icon:           req.Icon,
		AccessCodeHash: hashCode(req.AccessCode),
		OwnerEmail:     req.OwnerEmail,
		CreatedAt:      time.Now(),
	}
	if err := s.store.SaveLeague(req.ID, league); err != nil {
		response.WriteAppError(w, err)
		return
	}
	if err := s.store.SaveSettings(req.ID, domain.DefaultSettings()); err != nil {
		response.WriteAppError(w, err)
		return
	}
	s.ensureSettingsWatcher(req.ID)
	response.WriteCreated(w, league)
}
