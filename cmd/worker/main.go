package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/screenpro/account-server/config"
	"github.com/screenpro/account-server/internal/database"
	"github.com/screenpro/account-server/internal/pkg/notify"
	"github.com/screenpro/account-server/internal/pkg/pubsub"
	"github.com/screenpro/account-server/internal/pkg/queue"
	"github.com/screenpro/account-server/internal/repository"
	"github.com/screenpro/account-server/internal/worker"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect database: %v", err)
	}
	log.Println("Database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatalf("Failed to connect redis: %v", err)
	}
	log.Println("Redis connected")

	webhookQueue := queue.NewQueue(rdb, cfg.Queue.WebhookQueue)
	publisher := pubsub.NewPublisher(rdb)
	notifier := notify.NewService(cfg.Notify.SlackWebhookURL)

	processor := worker.NewProcessor(
		repository.NewWebhookEventRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewUserRepository(db),
		publisher,
		notifier,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Println("Received shutdown signal")
		cancel()
	}()

	maxWorkers := cfg.Queue.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	log.Printf("Worker started, max workers: %d", maxWorkers)

	for i := 0; i < maxWorkers; i++ {
		go func(workerID int) {
			for {
				select {
				case <-ctx.Done():
					log.Printf("Worker %d shutting down", workerID)
					return
				default:
					msg, err := webhookQueue.Pop(ctx, 5*time.Second)
					if err != nil {
						if ctx.Err() != nil {
							return
						}
						log.Printf("Worker %d: failed to pop event: %v", workerID, err)
						continue
					}

					if msg == nil {
						continue // timeout, keep waiting
					}

					log.Printf("Worker %d: processing event %s (%s)", workerID, msg.EventID, msg.EventType)
					if err := processor.Process(ctx, msg); err != nil {
						log.Printf("Worker %d: event %s failed: %v", workerID, msg.EventID, err)
					}
				}
			}
		}(i)
	}

	<-ctx.Done()
	log.Println("Worker shutdown complete")
}
