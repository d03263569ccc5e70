package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"performance_review_service/internal/app"
	"performance_review_service/internal/infra/config"
	idb "performance_review_service/internal/infra/database"
	"performance_review_service/internal/infra/httpapi"
	"performance_review_service/internal/infra/logger"
	"performance_review_service/internal/infra/mailer"
	"performance_review_service/internal/infra/outbox"
	"performance_review_service/internal/infra/scheduler"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger configuration needs the config, so fall back to stderr here.
		panic("could not load application configuration: " + err.Error())
	}

	log := logger.New(cfg)
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s", cfg.LogLevel, cfg.Environment)

	// Database connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Repositories
	employeeRepo := idb.NewPostgresEmployeeRepository(db)
	cycleRepo := idb.NewPostgresCycleRepository(db)
	reviewRepo := idb.NewPostgresReviewRepository(db)
	templateRepo := idb.NewPostgresTemplateRepository(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)
	log.Info("Repositories initialized.")

	// Outbound email + best-effort task queue
	mailClient := mailer.NewSendGridAdapter(cfg.SendGridAPIKey, cfg.EmailFrom, cfg.EmailFromName)
	taskQueue := outbox.New(log, 2*time.Minute)
	defer taskQueue.Close()

	// Application services
	notifier := app.NewNotifier(notificationRepo, mailClient, cfg.AppBaseURL, log)
	cycleService := app.NewCycleService(cycleRepo, reviewRepo, employeeRepo, notifier, taskQueue, log, time.Now)
	reviewService := app.NewReviewService(reviewRepo, employeeRepo, templateRepo, notifier, taskQueue, log, time.Now)
	reminderService := app.NewReminderService(reviewRepo, cycleRepo, employeeRepo, notificationRepo, notifier, log)
	log.Info("Application services initialized.")

	// Periodic jobs
	reviewScheduler := scheduler.NewReviewScheduler(
		cycleService,
		reminderService,
		log,
		cfg.CronSpecCycleSweep,
		cfg.CronSpecDeadlineSweep,
		cfg.CronSpecRetention,
	)
	reviewScheduler.Start()

	// REST API
	handler := httpapi.NewHandler(cycleService, reviewService, reminderService, notificationRepo, log)
	go func() {
		log.Infof("HTTP API listening on :%s", cfg.HTTPPort)
		if err := httpapi.ListenAndServe(cfg.HTTPPort, handler); err != nil {
			log.Fatalf("HTTP server stopped: %v", err)
		}
	}()

	log.Info("Application setup complete. Scheduler and API are running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down application...")
	reviewScheduler.Stop()
	log.Info("Application shut down gracefully.")
}
