package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/database"
	"github.com/screenpro/account-server/internal/model"
	"github.com/screenpro/account-server/internal/repository"
)

var (
	dryRun        = flag.Bool("dry-run", true, "Report what would be deleted without deleting")
	sessionGrace  = flag.Int("session-grace", 7, "Days to keep expired or revoked sessions")
	webhookExpire = flag.Int("webhook-expire", 30, "Days to keep applied webhook events")
)

func main() {
	flag.Parse()

	log.Println("Starting cleanup task...")
	log.Printf("Mode: dry-run=%v", *dryRun)

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sessionRepo := repository.NewSessionRepository(db)
	eventRepo := repository.NewWebhookEventRepository(db)

	sessionCutoff := time.Now().AddDate(0, 0, -*sessionGrace)
	webhookCutoff := time.Now().AddDate(0, 0, -*webhookExpire)

	if *dryRun {
		var sessions, events int64
		db.Model(&model.Session{}).
			Where("expires_at < ? OR (revoked_at IS NOT NULL AND revoked_at < ?)", sessionCutoff, sessionCutoff).
			Count(&sessions)
		db.Model(&model.WebhookEvent{}).
			Where("status = ? AND processed_at < ?", model.WebhookStatusApplied, webhookCutoff).
			Count(&events)

		log.Printf("Would delete %d sessions older than %s", sessions, sessionCutoff.Format(time.RFC3339))
		log.Printf("Would delete %d applied webhook events older than %s", events, webhookCutoff.Format(time.RFC3339))
		log.Println("DRY RUN MODE - nothing was deleted. Run with -dry-run=false to delete.")
		return
	}

	deletedSessions, err := sessionRepo.DeleteExpired(sessionCutoff)
	if err != nil {
		log.Printf("Failed to delete sessions: %v", err)
	} else {
		log.Printf("Deleted %d expired sessions", deletedSessions)
	}

	// Failed events are kept for inspection; only applied ones age out
	deletedEvents, err := eventRepo.DeleteProcessedBefore(webhookCutoff)
	if err != nil {
		log.Printf("Failed to delete webhook events: %v", err)
	} else {
		log.Printf("Deleted %d applied webhook events", deletedEvents)
	}

	log.Println("Cleanup completed")
}
