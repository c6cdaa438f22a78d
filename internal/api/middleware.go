package api

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/vgebrev/leagr/internal/store"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const leagueIDContextKey contextKey = "leagueID"

// LeagueIDFromContext returns the league ID injected by SubdomainRouting,
// or "" if the middleware chain was not applied.
func LeagueIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(leagueIDContextKey).(string)
	return id
}

// SubdomainRouting resolves the league ID from the leading label of
// r.Host (spec §6 "subdomain routing") and injects it into the request
// context ahead of the league-scoped handlers. "."+baseHost is stripped
// from the end of the host so "acme.leagr.example.com" resolves to league
// "acme" against baseHost "leagr.example.com"; a host without that suffix
// (including the bare baseHost) resolves to "". An X-League-Id header
// overrides the host entirely, which keeps local development and
// curl-based testing workable without real DNS.
func SubdomainRouting(baseHost string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			leagueID := r.Header.Get("X-League-Id")
			if leagueID == "" {
				host := r.Host
				if i := strings.IndexByte(host, ':'); i != -1 {
					host = host[:i]
				}
				if baseHost != "" && strings.HasSuffix(host, "."+baseHost) {
					leagueID = strings.TrimSuffix(host, "."+baseHost)
				}
			}
			ctx := context.WithValue(r.Context(), leagueIDContextKey, leagueID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AccessCode replaces the teacher's Clerk JWT check (spec.md §1 Non-goal:
// no real identity system) with a constant-time compare of the
// X-Access-Code request header against the resolved league's stored hash.
// It runs after SubdomainRouting, so it can look the league up by ID.
func AccessCode(st *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			leagueID := LeagueIDFromContext(r.Context())
			if leagueID == "" {
				writeError(w, http.StatusBadRequest, "league could not be resolved from host")
				return
			}
			league, err := st.LoadLeague(leagueID)
			if err != nil {
				writeError(w, http.StatusNotFound, "league not found")
				return
			}
			supplied := r.Header.Get("X-Access-Code")
			if subtle.ConstantTimeCompare([]byte(hashCode(supplied)), []byte(league.AccessCodeHash)) != 1 {
				writeError(w, http.StatusForbidden, "invalid access code")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// chainMiddleware applies middlewares in reverse order so they execute in
// the order provided, matching the teacher's helper of the same name.
func chainMiddleware(handler http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return handler
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"success":false,"error":{"message":"` + message + `"}}`))
}
