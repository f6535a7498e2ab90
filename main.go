// package main provides the entry point for the posture-backend microservice,
// wiring the scoring aggregators, job lifecycle machine, scheduler, and
// notification pipeline behind the REST and GraphQL APIs.
package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/postureops/posture-backend/database"
	"github.com/postureops/posture-backend/events/modules/notifications"
	"github.com/postureops/posture-backend/internal/aggregate"
	"github.com/postureops/posture-backend/internal/api"
	"github.com/postureops/posture-backend/internal/kafka"
	"github.com/postureops/posture-backend/internal/lifecycle"
	"github.com/postureops/posture-backend/internal/notify"
	"github.com/postureops/posture-backend/internal/scheduler"
	"github.com/postureops/posture-backend/internal/store"
	"github.com/postureops/posture-backend/restapi"
)

func main() {
	// Initialize database connection
	db := database.InitializeDatabase()
	logger := database.InitLogger()
	defer logger.Sync() //nolint:errcheck

	st := store.New(db)

	// Notification pipeline
	thresholds, err := notify.LoadThresholds(os.Getenv("THRESHOLD_CONFIG_PATH"))
	if err != nil {
		log.Fatalf("Failed to load threshold config: %v", err)
	}
	brokers := strings.Split(database.GetEnvDefault("KAFKA_BROKERS", "localhost:9092"), ",")
	producer := notifications.NewProducer(brokers, database.GetEnvDefault("NOTIFICATION_TOPIC", "posture-notifications"))
	defer producer.Close() //nolint:errcheck
	notifier := notify.NewNotifier(thresholds, producer, logger)

	// Aggregators and job lifecycle
	assets := aggregate.NewAssetAggregator(st, st, logger)
	compliance := aggregate.NewComplianceAggregator(st, st, st, logger)
	machine := lifecycle.NewMachine(st, assets, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume job lifecycle events from the worker fleet
	go func() {
		if err := kafka.RunEventProcessor(ctx, machine); err != nil {
			logger.Sugar().Errorf("Kafka event processor exited: %v", err)
		}
	}()

	// Fire recurring scan and report jobs
	sched := scheduler.New(st, logger)
	go sched.Run(ctx, time.Minute)

	app := api.NewFiberApp(db, restapi.Services{
		Store:      st,
		Machine:    machine,
		Assets:     assets,
		Compliance: compliance,
		Notifier:   notifier,
	})

	// Get port from environment or default to 3000
	port := database.GetEnvDefault("MS_PORT", "3000")

	// Start server
	log.Printf("Starting server on port %s", port)
	log.Printf("GraphQL endpoint available at /api/v1/graphql")
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
