package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oremusapp/oremus-backend/api/routes"
	"github.com/oremusapp/oremus-backend/internal/calendar"
	"github.com/oremusapp/oremus-backend/internal/intentions"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/internal/payments"
	stripewebhook "github.com/oremusapp/oremus-backend/internal/webhooks/stripe"
	"github.com/oremusapp/oremus-backend/pkg/config"
	"github.com/oremusapp/oremus-backend/pkg/db"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/migrate"
	"github.com/oremusapp/oremus-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	intentionsRepo := intentions.NewRepository(dbClient.DB())
	paymentsRepo := payments.NewRepository(dbClient.DB())
	notificationsRepo := notifications.NewRepository(dbClient.DB())

	paymentsService, err := payments.NewService(paymentsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create payments service", err)
		os.Exit(1)
	}

	scheduler, err := notifications.NewScheduler(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification scheduler", err)
		os.Exit(1)
	}

	calendarService, err := calendar.NewService(calendar.NewRepository(dbClient.DB()), logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create calendar service", err)
		os.Exit(1)
	}

	machine, err := intentions.NewMachine(intentions.MachineParams{
		Repo:              intentionsRepo,
		PaymentsRepo:      paymentsRepo,
		PaymentsService:   paymentsService,
		NotificationsRepo: notificationsRepo,
		Scheduler:         scheduler,
		Calendar:          calendarService,
		TransactionRunner: dbClient,
		Logger:            logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create state machine", err)
		os.Exit(1)
	}

	guard, err := stripewebhook.NewIdempotencyGuard(redisClient, cfg.Stripe.EventTTL, "stripe")
	if err != nil {
		logg.Error(context.Background(), "failed to create idempotency guard", err)
		os.Exit(1)
	}

	webhookService, err := stripewebhook.NewService(stripewebhook.ServiceParams{
		Machine:     machine,
		Guard:       guard,
		Scheduler:   scheduler,
		Logger:      logg,
		AlertUserID: cfg.Dispatcher.AlertUserID,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create webhook service", err)
		os.Exit(1)
	}

	intentionsService, err := intentions.NewService(intentionsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create intentions service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.RouterParams{
			Config:         cfg,
			Logger:         logg,
			DB:             dbClient,
			Redis:          redisClient,
			Intentions:     intentionsService,
			StripeWebhooks: webhookService,
			Metrics:        prometheus.DefaultGatherer,
		}),
	}

	serveCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-serveCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
	}
}
