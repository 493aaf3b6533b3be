package main

import (
	"context"
	"log"
	"os"

	"github.com/gofiber/fiber/v2"

	"classnexy/config"
	controller "classnexy/controllers"
	"classnexy/middleware"
	"classnexy/observability"
	"classnexy/routes"
	"classnexy/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry error reporting
	flushSentry, err := observability.InitSentry(config.AppConfig.SentryDSN, config.AppConfig.Environment)
	if err != nil {
		logger.Printf("Sentry init failed: %v", err)
	}
	defer flushSentry()

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Live announcement feed registry, shared between the websocket
	// handler, the send endpoint, and the scheduler worker
	feed := controller.NewFeedRegistry(log.New(os.Stdout, "FEED: ", log.LstdFlags))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start the scheduled-announcement publisher
	schedulerWorker := worker.NewSchedulerWorker(config.DB, feed, log.New(os.Stdout, "SCHEDULER: ", log.LstdFlags))
	go schedulerWorker.Start(ctx)

	// Start the expired-code and activity-retention cleaner
	cleanupWorker := worker.NewCleanupWorker(config.DB, log.New(os.Stdout, "CLEANUP: ", log.LstdFlags))
	go cleanupWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, feed)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
