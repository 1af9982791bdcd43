package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"expiry_reminder_service/internal/app"
	"expiry_reminder_service/internal/domain/notify"
	"expiry_reminder_service/internal/infra/config"
	idb "expiry_reminder_service/internal/infra/database"
	"expiry_reminder_service/internal/infra/email"
	"expiry_reminder_service/internal/infra/logger"
	"expiry_reminder_service/internal/infra/metrics"
	"expiry_reminder_service/internal/infra/scheduler"
	"expiry_reminder_service/internal/infra/telegram"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}

	logger.Init(cfg)
	log := logger.Get()
	log.Infof("Configuration loaded. LogLevel: %s, Environment: %s, Channel: %s", cfg.LogLevel, cfg.Environment, cfg.NotifyChannel)

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Info("Database connection established successfully.")

	// Initialize Repositories
	recordRepo := idb.NewPostgresRecordRepository(db)
	log.Info("Record repository initialized.")

	// Initialize Notification Sender
	var sender notify.Sender
	switch cfg.NotifyChannel {
	case config.ChannelTelegram:
		sender, err = telegram.NewSender(cfg.TelegramToken, log)
		if err != nil {
			log.Fatalf("FATAL: Could not create Telegram sender: %v", err)
		}
	default:
		sender = email.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom, cfg.SMTPUsername, cfg.SMTPPassword)
	}

	// Initialize Metrics
	registry := prometheus.NewRegistry()
	engineMetrics := metrics.New(registry)

	// Initialize Notification Service
	clock := app.NewSystemClock()
	notifService := app.NewNotificationService(recordRepo, sender, clock, log, engineMetrics, cfg.DispatchConcurrency, cfg.SendTimeout)
	log.Info("Notification service initialized.")

	// Initialize SchedulingDriver
	driver := scheduler.NewDriver(notifService, log, engineMetrics, cfg.CronSpecDispatch, cfg.PassTimeout)
	if err := driver.Start(); err != nil {
		log.Fatalf("FATAL: Could not start scheduling driver: %v", err)
	}

	// Expose metrics for scraping
	metricsServer := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metrics.Handler(registry),
	}
	go func() {
		log.Infof("Metrics listener starting on %s", cfg.MetricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("Metrics listener failed: %v", err)
		}
	}()

	log.Info("Application setup complete. Scheduling driver is running.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit // Block until a signal is received

	log.Info("Shutting down application...")
	driver.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Metrics listener shutdown failed: %v", err)
	}
	log.Info("Application shut down gracefully.")
}
