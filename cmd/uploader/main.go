package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/smukkama/weathercloud-bridge/internal/derive"
	"github.com/smukkama/weathercloud-bridge/internal/ingest"
	"github.com/smukkama/weathercloud-bridge/internal/notify"
	"github.com/smukkama/weathercloud-bridge/internal/state"
	"github.com/smukkama/weathercloud-bridge/internal/store"
	"github.com/smukkama/weathercloud-bridge/internal/uploader"
	"github.com/smukkama/weathercloud-bridge/pkg/config"
)

const version = "0.12"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Printf("Starting WeatherCloud Bridge v%s...\n", version)

	archive, err := store.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to archive database: %v", err)
	}
	defer archive.Close()
	fmt.Println("Connected to archive database")

	queue := uploader.NewQueue()
	enricher := derive.NewEnricher(archive, derive.DefaultWindow)

	worker, err := uploader.NewWorker(uploader.Config{
		ID:              cfg.WeatherCloud.ID,
		Key:             cfg.WeatherCloud.Key,
		ServerURL:       cfg.WeatherCloud.ServerURL,
		SoftwareVersion: version,
		SkipUpload:      cfg.WeatherCloud.SkipUpload,
		PostInterval:    cfg.WeatherCloud.PostInterval,
		MaxBacklog:      cfg.WeatherCloud.MaxBacklog,
		Stale:           cfg.WeatherCloud.Stale,
		Timeout:         cfg.WeatherCloud.Timeout,
		MaxTries:        cfg.WeatherCloud.MaxTries,
		RetryWait:       cfg.WeatherCloud.RetryWait,
		LogSuccess:      cfg.WeatherCloud.LogSuccess,
		LogFailure:      cfg.WeatherCloud.LogFailure,
		AlertAfter:      cfg.WeatherCloud.AlertAfter,
	}, queue, enricher)
	if err != nil {
		log.Fatalf("Failed to create upload worker: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			fmt.Printf("Note: Redis unavailable, last-post tracking is in-memory only: %v\n", err)
		} else {
			worker.SetTracker(state.NewTracker(redisClient, cfg.WeatherCloud.ID))
			fmt.Println("Last-post tracker connected to Redis")
		}
	}

	if cfg.WeatherCloud.AlertAfter > 0 {
		worker.SetNotifier(notify.NewEmailNotifier(&cfg.SMTP))
		fmt.Printf("Failure alerting enabled after %d consecutive failures\n",
			cfg.WeatherCloud.AlertAfter)
	}

	worker.Start(ctx)
	fmt.Println("Upload worker started")

	consumer := ingest.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicArchive, cfg.Kafka.GroupID)
	defer consumer.Close()

	consumerDone := make(chan error, 1)
	go func() {
		consumerDone <- consumer.Run(ctx, queue.Push)
	}()
	fmt.Printf("Consuming archive records from %s\n", cfg.Kafka.TopicArchive)

	// Print queue statistics periodically
	go func() {
		ticker := time.NewTicker(60 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			stats := consumer.Stats()
			fmt.Printf("Bridge stats: queued=%d, consumed=%d, errors=%d\n",
				queue.Len(), stats.Messages, stats.Errors)
		}
	}()

	fmt.Println("\n✓ WeatherCloud Bridge is running")
	fmt.Printf("✓ Uploading for id=%s every %s\n",
		cfg.WeatherCloud.ID, cfg.WeatherCloud.PostInterval)
	fmt.Println("✓ Press Ctrl+C to stop")

	// Wait for interrupt signal or consumer failure
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		fmt.Println("\nShutting down gracefully...")
	case err := <-consumerDone:
		if err != nil {
			fmt.Printf("\nArchive consumer stopped: %v\n", err)
		}
	}

	cancel()
	worker.Stop()
	fmt.Println("WeatherCloud Bridge stopped")
}
