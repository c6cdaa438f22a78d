package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/vgebrev/leagr/internal/config"
	"github.com/vgebrev/leagr/internal/domain"
	"github.com/vgebrev/leagr/internal/logger"
	"github.com/vgebrev/leagr/internal/middleware"
	"github.com/vgebrev/leagr/internal/settingscache"
	"github.com/vgebrev/leagr/internal/store"
)

// APIServer wires the domain packages (store, settingscache) to the HTTP
// surface: one mux, one middleware chain, and the handlers in this
// package.
type APIServer struct {
	store         *store.Store
	settingsCache *settingscache.Cache
	league        func(http.HandlerFunc) http.Handler
	mux           *http.ServeMux
	handler       http.Handler

	usePolling bool

	watchersMu sync.Mutex
	watchers   map[string]*settingscache.Watcher
}

// NewAPIServer builds an APIServer with the full middleware stack applied
// (spec §9 Recovery -> Logging -> RequestID -> CORS -> RateLimit ->
// Timeout globally; SubdomainRouting -> AccessCode on every route but
// league creation and the health check, which have no league to resolve).
func NewAPIServer(st *store.Store, cfg *config.Config) *APIServer {
	cache := settingscache.New(time.Duration(cfg.SettingsCacheTTLSeconds)*time.Second, func(leagueID, date string) (domain.Settings, error) {
		return st.LoadSettings(leagueID)
	})

	subdomainRouting := SubdomainRouting(cfg.BaseHost)
	accessCode := AccessCode(st)

	server := &APIServer{
		store:         st,
		settingsCache: cache,
		mux:           http.NewServeMux(),
		usePolling:    cfg.UsePolling,
		watchers:      map[string]*settingscache.Watcher{},
	}
	server.league = func(h http.HandlerFunc) http.Handler {
		return chainMiddleware(h, subdomainRouting, accessCode, server.watchSettings)
	}
	server.registerRoutes()

	rateLimiter := middleware.NewRateLimiter(float64(cfg.RateLimitPerMinute)/60.0, cfg.RateLimitPerMinute)

	var handler http.Handler = server.mux
	handler = middleware.Timeout(time.Duration(cfg.RequestTimeoutSeconds) * time.Second)(handler)
	handler = rateLimiter.Handler()(handler)
	handler = middleware.CORS(cfg.CORSOrigins)(handler)
	handler = middleware.RequestID()(handler)
	handler = middleware.Logging()(handler)
	handler = middleware.Recovery()(handler)

	server.handler = handler
	return server
}

// ServeHTTP implements http.Handler.
func (s *APIServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// registerRoutes maps the representative route list (spec §6) to their
// handlers. League creation and the health check are the only routes with
// no league to resolve, so they skip the league-scoped wrapper.
func (s *APIServer) registerRoutes() {
	s.mux.HandleFunc("POST /api/leagues", s.handleCreateLeague)
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.Handle("GET /api/players", s.league(s.handleGetPlayers))
	s.mux.Handle("POST /api/players", s.league(s.handleAddPlayer))
	s.mux.Handle("DELETE /api/players", s.league(s.handleRemovePlayer))
	s.mux.Handle("POST /api/players/move", s.league(s.handleMovePlayer))

	s.mux.Handle("GET /api/teams", s.league(s.handleGetTeams))
	s.mux.Handle("POST /api/teams", s.league(s.handleGenerateTeams))
	s.mux.Handle("GET /api/teams/configurations", s.league(s.handleTeamConfigurations))
	s.mux.Handle("POST /api/teams/players", s.league(s.handleAssignPlayerToTeam))
	s.mux.Handle("DELETE /api/teams/players", s.league(s.handleUnassignPlayerFromTeam))

	s.mux.Handle("GET /api/games", s.league(s.handleGetGames))
	s.mux.Handle("POST /api/games", s.league(s.handleGenerateGames))
	s.mux.Handle("PUT /api/games", s.league(s.handleSetScore))
	s.mux.Handle("GET /api/games/knockout", s.league(s.handleGetKnockout))
	s.mux.Handle("POST /api/games/knockout", s.league(s.handleGenerateKnockout))
	s.mux.Handle("PUT /api/games/knockout", s.league(s.handleSetKnockoutScore))

	s.mux.Handle("GET /api/rankings", s.league(s.handleGetRankings))
	s.mux.Handle("GET /api/rankings/{player}", s.league(s.handleGetPlayerRanking))
	s.mux.Handle("GET /api/champions/{player}", s.league(s.handleGetPlayerChampionships))
	s.mux.Handle("GET /api/golden-boot", s.league(s.handleGoldenBoot))
	s.mux.Handle("GET /api/year-recap/{year}", s.league(s.handleYearRecap))

	s.mux.Handle("GET /api/settings", s.league(s.handleGetSettings))
	s.mux.Handle("PUT /api/settings", s.league(s.handleUpdateSettings))
}

// watchSettings lazily attaches an fsnotify watcher for the resolved
// league's settings.json (spec.md USE_POLLING toggle) the first time that
// league is touched by an authenticated request, so a league created by an
// earlier process instance still gets picked up. It runs after AccessCode,
// so only requests that already proved they hold the league's access code
// ever cause an fsnotify.Add.
func (s *APIServer) watchSettings(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.ensureSettingsWatcher(LeagueIDFromContext(r.Context()))
		next.ServeHTTP(w, r)
	})
}

func (s *APIServer) ensureSettingsWatcher(leagueID string) {
	if s.usePolling || leagueID == "" {
		return
	}
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()
	if _, ok := s.watchers[leagueID]; ok {
		return
	}
	path, err := s.store.SettingsPath(leagueID)
	if err != nil {
		return
	}
	w, err := settingscache.NewWatcher(path, leagueID, s.settingsCache)
	if err != nil {
		logger.Error("failed to start settings watcher", "league", leagueID, "error", err)
		return
	}
	s.watchers[leagueID] = w
}

// Close stops every league's settings watcher. Safe to call even when
// UsePolling disabled them all (the map is simply empty).
func (s *APIServer) Close() {
	s.watchersMu.Lock()
	defer s.watchersMu.Unlock()
	for leagueID, w := range s.watchers {
		if err := w.Close(); err != nil {
			logger.Error("failed to close settings watcher", "league", leagueID, "error", err)
		}
	}
}

func (s *APIServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// ServerComponents holds the running server for graceful shutdown.
type ServerComponents struct {
	HTTPServer *http.Server
	Store      *store.Store
	APIServer  *APIServer
}

// StartServer builds the store and API server from cfg and starts
// listening in a background goroutine.
func StartServer(ctx context.Context, cfg *config.Config) (*ServerComponents, error) {
	st := store.New(cfg.DataDir)
	apiServer := NewAPIServer(st, cfg)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: apiServer,
	}

	go func() {
		logger.Info("starting server", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	return &ServerComponents{HTTPServer: httpServer, Store: st, APIServer: apiServer}, nil
}
