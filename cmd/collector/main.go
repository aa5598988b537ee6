package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/lisanmuaddib/collector-go/pkg/collector"
	"github.com/lisanmuaddib/collector-go/pkg/db"
	"github.com/lisanmuaddib/collector-go/pkg/interfaces/vk"
	"github.com/lisanmuaddib/collector-go/pkg/logging"
	"github.com/lisanmuaddib/collector-go/pkg/storage"
	"github.com/lisanmuaddib/collector-go/pkg/worker"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		// Only log warning since .env is optional
		logrus.WithError(err).Warn("Error loading .env file")
	}

	// Initialize logger
	log := logrus.New()
	log.SetFormatter(logging.NewColoredJSONFormatter())

	// Get log level from environment
	logLevel := os.Getenv("LOG_LEVEL")
	if level, err := logrus.ParseLevel(logLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithFields(logrus.Fields{
			"attempted_level": logLevel,
			"default_level":   "INFO",
		}).Warn("Invalid log level specified, defaulting to INFO")
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database (migrations included)
	database, err := db.SetupDatabase(log)
	if err != nil {
		log.WithError(err).Fatal("Failed to set up database")
	}

	store, err := storage.NewStore(log, database)
	if err != nil {
		log.WithError(err).Fatal("Failed to create result store")
	}

	// Initialize VK client
	vkConfig, err := vk.NewConfig()
	if err != nil {
		log.WithError(err).Fatal("Failed to create VK config")
	}
	// Override logger to use our main logger
	vkConfig.Logger = log

	vkClient, err := vk.NewClient(vkConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed to create VK client")
	}

	// The rate limiter sits above the client and is shared by every lane
	callsPerMinute := 180
	limiter := worker.NewCallsPerMinuteLimiter(callsPerMinute)
	api := worker.NewRateLimitedAPI(vkClient, limiter)

	service, err := collector.NewService(api, store, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create collection service")
	}

	queue := worker.NewQueue(64, log)
	pool, err := worker.NewPool(worker.Config{
		Concurrency: 1,
		Backoff:     worker.DefaultBackoffPolicy(),
		Logger:      log,
	}, queue, service)
	if err != nil {
		log.WithError(err).Fatal("Failed to create worker pool")
	}

	// Optional operator convenience: submit one task from the environment
	if sources := os.Getenv("COLLECTOR_SOURCES"); sources != "" {
		task, err := store.CreateTask(ctx, strings.Split(sources, ","))
		if err != nil {
			log.WithError(err).Fatal("Failed to create task from COLLECTOR_SOURCES")
		}
		if _, err := queue.Enqueue(task.ID); err != nil {
			log.WithError(err).Fatal("Failed to enqueue task")
		}
	}

	// Handle graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		log.Info("Received shutdown signal")
		pool.Stop()
		queue.Close()
		cancel()
	}()

	log.Info("Starting collection worker pool")

	// Run the pool
	if err := pool.Run(ctx); err != nil && err != context.Canceled {
		log.WithError(err).Fatal("Worker pool stopped with error")
	}

	log.Info("Collector shutdown complete")
}
