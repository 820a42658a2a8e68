// Grouphub - Realtime Group Workspace Sync Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/grouphub

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tomtom215/grouphub/internal/api"
	"github.com/tomtom215/grouphub/internal/auth"
	"github.com/tomtom215/grouphub/internal/authz"
	"github.com/tomtom215/grouphub/internal/cache"
	"github.com/tomtom215/grouphub/internal/chatfeed"
	"github.com/tomtom215/grouphub/internal/config"
	"github.com/tomtom215/grouphub/internal/customdomain"
	"github.com/tomtom215/grouphub/internal/gallery"
	"github.com/tomtom215/grouphub/internal/logging"
	"github.com/tomtom215/grouphub/internal/models"
	"github.com/tomtom215/grouphub/internal/notify"
	"github.com/tomtom215/grouphub/internal/presence"
	"github.com/tomtom215/grouphub/internal/session"
	"github.com/tomtom215/grouphub/internal/settings"
	"github.com/tomtom215/grouphub/internal/store"
	"github.com/tomtom215/grouphub/internal/supervisor"
	"github.com/tomtom215/grouphub/internal/supervisor/services"
	ws "github.com/tomtom215/grouphub/internal/websocket"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

//nolint:gocyclo // sequential startup wiring
func main() {
	// A missing .env is normal outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logging.Warn().Err(err).Msg("Failed to read .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("backend_mode", cfg.Backend.Mode).
		Str("realtime_transport", cfg.Realtime.Transport).
		Str("store_driver", cfg.Store.Driver).
		Msg("Starting Grouphub")

	if cfg.Security.JWTSecret == "" {
		secret, err := auth.RandomSecret()
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to generate JWT secret")
		}
		cfg.Security.JWTSecret = secret
		logging.Warn().Msg("JWT_SECRET is not set; using a random secret. Tokens will not survive a restart.")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" && cfg.IsProduction() {
			logging.Warn().Msg("CORS_ORIGINS=* in production allows any site to open websocket sessions")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// === TRANSPORT ===
	rt, err := InitRealtime(cfg)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize realtime transport")
	}
	rt.AddToSupervisor(tree, cfg)
	changes := rt.Bus.Changes(cfg.Realtime.ChangesChannel)

	backendComponents, err := InitBackend(ctx, cfg, changes)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize backend")
	}
	defer func() {
		if err := backendComponents.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing standalone database")
		}
	}()

	var stores store.Factory = store.MemoryFactory{}
	if cfg.Store.Driver == "badger" {
		badgerStores, err := store.OpenBadger(cfg.Store.Path)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to open session store")
		}
		stores = badgerStores
	}

	// === MESSAGING ===
	hub := ws.NewHub()
	notifier := notify.Scoped{Fallback: notify.Multi{notify.LogNotifier{}, hub.Notifier()}}

	queryCache := cache.New(cfg.Cache.TTL)
	defer queryCache.Close()

	// Presence of the whole tracking channel, for the members endpoint.
	online := store.NewMemoryStore()
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddMessagingService(services.NewComponentService("presence-observer", func() services.Component {
		return presence.NewObserver(rt.Bus.Presence(cfg.Realtime.PresenceChannel, cfg.Realtime.Heartbeat), online)
	}))

	sessions := session.NewManager(session.Deps{
		Actions: backendComponents.Actions,
		Presence: func() presence.Channel {
			return rt.Bus.Presence(cfg.Realtime.PresenceChannel, cfg.Realtime.Heartbeat)
		},
		Changes:     changes,
		Stores:      stores,
		SearchKind:  models.SearchKind(cfg.Search.Kind),
		SearchDelay: cfg.Search.Debounce,
		Chat: chatfeed.Options{
			FilterParticipants: cfg.Chat.FilterParticipants,
			Dedupe:             cfg.Chat.Dedupe,
		},
	})
	tree.AddMessagingService(services.NewTeardownService("sessions", cfg.Server.ShutdownTimeout, func(context.Context) error {
		sessions.CloseAll()
		return stores.Close()
	}))

	// === AUTH ===
	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}
	enforcer, err := authz.NewEnforcer(&authz.EnforcerConfig{
		ModelPath:  cfg.Security.CasbinModelPath,
		PolicyPath: cfg.Security.CasbinPolicyPath,
		CacheTTL:   time.Minute,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize authorization")
	}
	defer enforcer.Close()
	authzService := authz.NewService(enforcer, backendComponents.Actions, authz.DefaultRoleTTL)

	// === API ===
	handler := api.NewHandler(api.Deps{
		Config:   cfg,
		Actions:  backendComponents.Actions,
		Settings: settings.NewSynchronizer(backendComponents.Actions, backendComponents.Uploader, queryCache, notifier, api.Navigator(), cfg.Settings),
		Gallery:  gallery.NewMutator(backendComponents.Actions, backendComponents.Uploader, queryCache, notifier),
		Domains:  customdomain.NewManager(backendComponents.Actions, queryCache, notifier),
		Roster:   presence.NewRoster(backendComponents.Actions),
		Online:   online,
		Sessions: sessions,
		Hub:      hub,
		JWT:      jwtManager,
		Realtime: rt.Bus,
		Breaker:  backendComponents.Breaker,
		Cache:    queryCache,
		Version:  version,
	})

	devTokens := cfg.Backend.Mode == config.BackendModeStandalone && !cfg.IsProduction()
	if devTokens {
		logging.Warn().Msg("Development token endpoint enabled at POST /api/v1/auth/token")
	}
	router := api.NewRouter(handler,
		auth.NewMiddleware(jwtManager),
		authz.NewMiddleware(authzService),
		api.NewChiMiddlewareFromConfig(cfg.Security),
		devTokens,
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// === RUN ===
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}
	logging.Info().Msg("Grouphub stopped")
}
