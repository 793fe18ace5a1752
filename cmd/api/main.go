package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"tally/internal/config"
	"tally/internal/database"
	"tally/internal/logger"
	"tally/internal/notify"
	"tally/internal/router"
)

// @title           Tally API
// @version         1.0
// @description     Tally is a personal budget tracker. Budget changes are applied only after the owner confirms them from an emailed link.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

const shutdownTimeout = 10 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// The notifier outlives the server so emails queued by in-flight
	// requests during shutdown are still handed to the mailer.
	notifier, closeNotifier, err := newNotifier(appConfig)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeNotifier(); err != nil {
			log.Warnf("notifier close error: %v", err)
		}
	}()

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router.New(ctx, router.NewServices(dbManager.DB(), notifier, appConfig.PublicBaseURL)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g.Go(func() error {
		log.Infof("Starting Tally backend server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// newNotifier returns the configured email backend and a func releasing it.
// The AMQP client publishes for cmd/notifier to deliver.
func newNotifier(cfg *config.Config) (notify.Notifier, func() error, error) {
	switch cfg.NotifyBackend {
	case config.NotifyBackendAMQP:
		client, err := notify.NewAMQPClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to message broker: %w", err)
		}
		logger.Get().Infow("email notifications published to broker", "exchange", cfg.AMQPExchange)
		return client, client.Close, nil

	default:
		queue, stop := startQueue(newMailer(cfg), cfg)
		return queue, stop, nil
	}
}

// startQueue runs an in-process queue on its own context. The returned stop
// func cancels the workers and waits for them to exit.
func startQueue(mailer notify.Mailer, cfg *config.Config) (*notify.Queue, func() error) {
	queue := notify.NewQueue(mailer, notify.QueueOptions{
		Workers:     cfg.NotifyWorkers,
		Buffer:      cfg.NotifyBuffer,
		MaxAttempts: cfg.NotifyMaxAttempts,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- queue.Run(ctx) }()

	return queue, func() error {
		cancel()
		return <-done
	}
}

func newMailer(cfg *config.Config) notify.Mailer {
	if !cfg.SMTPEnabled {
		return notify.LogMailer{}
	}
	return notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
}
