package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"

	clientsgithub "ghdash/clients/github"
	"ghdash/config"
	"ghdash/db"
	"ghdash/handlers"
	"ghdash/logger"
	"ghdash/metrics"
	"ghdash/middleware"
	"ghdash/services/installations"
	"ghdash/services/sessions"
)

func main() {
	bootLogger := logger.New(os.Stdout, slog.LevelInfo, "text")
	if err := run(bootLogger); err != nil {
		bootLogger.Error("❌ Fatal error", "error", err.Error())
		os.Exit(1)
	}
}

func run(bootLogger *slog.Logger) error {
	cfg, err := config.LoadConfig(bootLogger)
	if err != nil {
		return err
	}
	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	// Initialize error alert middleware
	alertMiddleware := middleware.NewErrorAlertMiddleware(middleware.SlackAlertConfig{
		WebhookURL:  cfg.SlackAlertWebhookURL,
		Environment: cfg.Environment,
		AppName:     "ghdash",
		LogsURL:     cfg.ServerLogsURL,
	}, log, collector)
	defer alertMiddleware.Wait()

	// Initialize database connection
	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer dbConn.Close()

	if err := db.RunMigrations(context.Background(), dbConn, cfg.DatabaseURL, cfg.DatabaseSchema); err != nil {
		return err
	}
	log.Info("✅ Database migrations applied", "schema", cfg.DatabaseSchema)

	sessionsRepo := db.NewPostgresSessionsRepository(dbConn, cfg.DatabaseSchema)
	sessionsService := sessions.NewSessionsService(sessionsRepo, cfg.SessionConfig.MaxAge, log)

	clientFactory := clientsgithub.NewClientFactory(
		cfg.GitHubConfig.AppID,
		cfg.GitHubConfig.AppPrivateKey,
		log,
		clientsgithub.WithMetrics(collector),
	)
	githubClient := clientsgithub.NewGitHubClient(clientsgithub.OAuthConfig{
		ClientID:     cfg.GitHubConfig.ClientID,
		ClientSecret: cfg.GitHubConfig.ClientSecret,
		RedirectURL:  cfg.GitHubConfig.RedirectURL,
		Scopes:       cfg.GitHubConfig.OAuthScopes,
	}, clientFactory, cfg.GitHubConfig.AppIDNumber(), log)

	resolverOpts := installations.DefaultOptions()
	resolverOpts.FallbackInstallationID = cfg.GitHubConfig.DefaultInstallationID
	resolver := installations.NewResolver(log, collector)

	authMiddleware := middleware.NewSessionAuthMiddleware(sessionsService, cfg.SessionConfig.CookieName, log, collector)
	authHTTPHandler := handlers.NewAuthHTTPHandler(githubClient, sessionsService, handlers.SessionCookieSettings{
		Name:                   cfg.SessionConfig.CookieName,
		InstallationCookieName: resolverOpts.CookieName,
		MaxAge:                 cfg.SessionConfig.MaxAge,
		Secure:                 cfg.SessionConfig.Secure,
	}, cfg.DashboardURL, log, collector)
	dashboardHandler := handlers.NewDashboardAPIHandler(githubClient, resolver, resolverOpts, log)
	dashboardHTTPHandler := handlers.NewDashboardHTTPHandler(dashboardHandler, handlers.CookieSettings{
		InstallationCookieName: resolverOpts.CookieName,
		MaxAge:                 cfg.SessionConfig.MaxAge,
		Secure:                 cfg.SessionConfig.Secure,
	}, log, collector)

	// Create a new router
	router := mux.NewRouter()
	authHTTPHandler.SetupEndpoints(router)
	dashboardHTTPHandler.SetupEndpoints(router, authMiddleware)

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			log.Error("❌ Failed to write health check response", "error", err.Error())
		}
	}).Methods("GET")
	router.Handle("/metrics", metrics.Handler(registry)).Methods("GET")

	// Periodically drop expired sessions
	purgeTicker := time.NewTicker(1 * time.Hour)
	go func() {
		for range purgeTicker.C {
			_ = alertMiddleware.WrapBackgroundTask("PurgeExpiredSessions", func() error {
				_, err := sessionsService.PurgeExpiredSessions(context.Background())
				return err
			})()
		}
	}()
	defer purgeTicker.Stop()

	// Setup CORS middleware
	allowedOrigins := strings.Split(cfg.CORSAllowedOrigins, ",")
	for i, origin := range allowedOrigins {
		allowedOrigins[i] = strings.TrimSpace(origin)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	// Setup and handle graceful shutdown
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           alertMiddleware.HTTPMiddleware(c.Handler(router)),
		ReadHeaderTimeout: 30 * time.Second,
	}

	return handleGracefulShutdown(server, log)
}

func handleGracefulShutdown(server *http.Server, log *slog.Logger) error {
	// Channel to listen for interrupt signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Info("✅ Listening", "addr", "http://localhost"+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("❌ Server error", "error", err.Error())
		}
	}()

	// Wait for interrupt signal
	<-stop
	log.Info("🛑 Shutdown signal received, cleaning up...")

	// Create a deadline for shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// Shutdown server gracefully
	if err := server.Shutdown(ctx); err != nil {
		log.Error("❌ Server shutdown error", "error", err.Error())
		return err
	}

	log.Info("✅ Server stopped gracefully")
	return nil
}
