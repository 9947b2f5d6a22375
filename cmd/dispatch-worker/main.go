package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oremusapp/oremus-backend/internal/cron"
	"github.com/oremusapp/oremus-backend/internal/intentions"
	"github.com/oremusapp/oremus-backend/internal/notifications"
	"github.com/oremusapp/oremus-backend/internal/users"
	"github.com/oremusapp/oremus-backend/pkg/config"
	"github.com/oremusapp/oremus-backend/pkg/db"
	"github.com/oremusapp/oremus-backend/pkg/logger"
	"github.com/oremusapp/oremus-backend/pkg/mailer"
	"github.com/oremusapp/oremus-backend/pkg/metrics"
	"github.com/oremusapp/oremus-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "dispatch-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "dispatch-worker",
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

	sender, err := mailer.New(cfg.Sendgrid)
	if err != nil {
		logg.Error(context.Background(), "failed to create mail transport", err)
		os.Exit(1)
	}

	notificationsRepo := notifications.NewRepository(dbClient.DB())
	intentionsRepo := intentions.NewRepository(dbClient.DB())
	usersRepo := users.NewRepository(dbClient.DB())

	scheduler, err := notifications.NewScheduler(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification scheduler", err)
		os.Exit(1)
	}

	var alertUserID uuid.UUID
	if cfg.Dispatcher.AlertUserID != "" {
		alertUserID, err = uuid.Parse(cfg.Dispatcher.AlertUserID)
		if err != nil {
			logg.Warn(context.Background(), "invalid alert user id, delivery alerts disabled")
			alertUserID = uuid.Nil
		}
	}

	dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
		Repo:        notificationsRepo,
		Users:       usersRepo,
		Sender:      sender,
		Logger:      logg,
		Metrics:     metrics.NewNotificationMetrics(prometheus.DefaultRegisterer),
		Alerts:      scheduler,
		AlertUserID: alertUserID,
		BatchSize:   cfg.Dispatcher.BatchSize,
		SendTimeout: cfg.Sendgrid.SendTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatcher", err)
		os.Exit(1)
	}

	dispatchJob, err := cron.NewDispatchJob(cron.DispatchJobParams{
		Logger:     logg,
		Dispatcher: dispatcher,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dispatch job", err)
		os.Exit(1)
	}

	reminderJob, err := cron.NewReminderJob(cron.ReminderJobParams{
		Logger:     logg,
		Intentions: intentionsRepo,
		Scheduler:  scheduler,
		Window:     cfg.Reminders.Window,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reminder job", err)
		os.Exit(1)
	}

	retentionJob, err := cron.NewRetentionJob(cron.RetentionJobParams{
		Logger:        logg,
		Notifications: notificationsRepo,
		RetentionDays: cfg.Dispatcher.RetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retention job", err)
		os.Exit(1)
	}

	retryJob, err := cron.NewRetryJob(cron.RetryJobParams{
		Logger:        logg,
		Notifications: notificationsRepo,
		MaxAttempts:   cfg.Dispatcher.MaxAttempts,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create retry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redis.LockKey("dispatch-worker", cfg.App.Env), 2*cfg.Dispatcher.Interval)
	if err != nil {
		logg.Error(context.Background(), "failed to create worker lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(dispatchJob, reminderJob, retentionJob, retryJob),
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Dispatcher.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env})
	logg.Info(ctx, "starting dispatch worker")

	if err := service.Run(ctx); err != nil && err != context.Canceled {
		logg.Error(ctx, "dispatch worker stopped unexpectedly", err)
		os.Exit(1)
	}
}
