package main

import (
	"context"
	"os"

	"ghdash/config"
	"ghdash/db"
	"ghdash/logger"
	"ghdash/services/sessions"
)

func main() {
	log := logger.New(os.Stdout, 0, "text")
	log.Info("🧹 Starting expired session purge...")

	cfg, err := config.LoadConfig(log)
	if err != nil {
		log.Error("❌ Failed to load configuration", "error", err.Error())
		os.Exit(1)
	}

	dbConn, err := db.NewConnection(cfg.DatabaseURL)
	if err != nil {
		log.Error("❌ Failed to connect to database", "error", err.Error())
		os.Exit(1)
	}
	defer dbConn.Close()

	sessionsRepo := db.NewPostgresSessionsRepository(dbConn, cfg.DatabaseSchema)
	sessionsService := sessions.NewSessionsService(sessionsRepo, cfg.SessionConfig.MaxAge, log)

	removed, err := sessionsService.PurgeExpiredSessions(context.Background())
	if err != nil {
		log.Error("❌ Failed to purge expired sessions", "error", err.Error())
		os.Exit(1)
	}

	log.Info("✅ Session purge completed", "removed", removed)
}
