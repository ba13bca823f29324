package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/selvamresidency/hotel-backend/internal/bookings"
	"github.com/selvamresidency/hotel-backend/internal/cron"
	"github.com/selvamresidency/hotel-backend/internal/inventory"
	"github.com/selvamresidency/hotel-backend/internal/notifications"
	"github.com/selvamresidency/hotel-backend/pkg/config"
	"github.com/selvamresidency/hotel-backend/pkg/db"
	"github.com/selvamresidency/hotel-backend/pkg/docstore/backend"
	"github.com/selvamresidency/hotel-backend/pkg/instance"
	"github.com/selvamresidency/hotel-backend/pkg/logger"
	"github.com/selvamresidency/hotel-backend/pkg/metrics"
	"github.com/selvamresidency/hotel-backend/pkg/migrate"
	"github.com/selvamresidency/hotel-backend/pkg/redis"
	"github.com/selvamresidency/hotel-backend/pkg/sendgrid"
)

const jobTimeout = 45 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	if os.Getenv(config.EnvServiceKind) == "" {
		_ = os.Setenv(config.EnvServiceKind, config.ServiceKindCron)
	}
	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	loc, err := cfg.App.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load hotel timezone", err)
		os.Exit(1)
	}

	dbClient, err := db.Open(context.Background(), cfg, logg)
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	opened, err := backend.Open(context.Background(), cfg, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to open document store", err)
		os.Exit(1)
	}
	defer func() {
		if err := opened.Close(); err != nil {
			logg.Error(context.Background(), "error closing document store", err)
		}
	}()

	hotelMetrics := metrics.NewHotelMetrics(prometheus.DefaultRegisterer)
	cronMetrics := metrics.NewCronJobMetrics(prometheus.DefaultRegisterer)

	notificationRepo := notifications.NewRepository(dbClient.DB())
	renderer, err := notifications.NewRenderer(cfg.Notifications.HotelName)
	if err != nil {
		logg.Error(context.Background(), "failed to build notification templates", err)
		os.Exit(1)
	}
	outbox, err := notifications.NewOutbox(notifications.OutboxParams{
		Repo:    notificationRepo,
		Logger:  logg,
		Metrics: hotelMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notification outbox", err)
		os.Exit(1)
	}

	bookingService, err := buildBookings(cfg, opened, outbox, loc, logg, hotelMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	registry := cron.NewRegistry()

	if cfg.Sendgrid.APIKey == "" {
		logg.Warn(context.Background(), "sendgrid api key missing, notification dispatch disabled")
	} else {
		sender, err := sendgrid.New(cfg.Sendgrid)
		if err != nil {
			logg.Error(context.Background(), "failed to create sendgrid client", err)
			os.Exit(1)
		}
		dispatcher, err := notifications.NewDispatcher(notifications.DispatcherParams{
			DB:          dbClient,
			Repo:        notificationRepo,
			Renderer:    renderer,
			Sender:      sender,
			Logger:      logg,
			Metrics:     hotelMetrics,
			BatchSize:   cfg.Notifications.DispatchBatchSize,
			MaxAttempts: cfg.Notifications.MaxAttempts,
		})
		if err != nil {
			logg.Error(context.Background(), "failed to create notification dispatcher", err)
			os.Exit(1)
		}
		registerJob(logg, registry, "notification-dispatch", func() (cron.Job, error) {
			return cron.NewNotificationDispatchJob(cron.NotificationDispatchJobParams{
				Logger:     logg,
				Dispatcher: dispatcher,
			})
		})
	}

	registerJob(logg, registry, "notification-retention", func() (cron.Job, error) {
		return cron.NewNotificationRetentionJob(cron.NotificationRetentionJobParams{
			Logger:    logg,
			Repo:      notificationRepo,
			Retention: time.Duration(cfg.Notifications.RetentionDays) * 24 * time.Hour,
		})
	})

	registerJob(logg, registry, "pending-booking-reminder", func() (cron.Job, error) {
		return cron.NewPendingReminderJob(cron.PendingReminderJobParams{
			Logger:     logg,
			Bookings:   bookingService,
			Notifier:   outbox,
			Markers:    redisClient,
			HotelEmail: cfg.Notifications.HotelEmail,
			Age:        cfg.Notifications.PendingReminder,
			Location:   loc,
		})
	})

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), 0)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   registry,
		Lock:       lock,
		Metrics:    cronMetrics,
		Interval:   cfg.Cron.Interval,
		JobTimeout: jobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": cfg.Service.Kind,
		"jobs":        registry.Names(),
		"instance":    instance.GetID(),
	})
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

func registerJob(logg *logger.Logger, registry *cron.Registry, name string, build func() (cron.Job, error)) {
	job, err := build()
	if err != nil {
		logg.Error(logg.WithJob(context.Background(), name), "failed to create cron job", err)
		os.Exit(1)
	}
	if err := registry.Register(job); err != nil {
		logg.Error(logg.WithJob(context.Background(), name), "failed to register cron job", err)
		os.Exit(1)
	}
}

func buildBookings(cfg *config.Config, opened *backend.Opened, notifier notifications.Notifier, loc *time.Location, logg *logger.Logger, m *metrics.HotelMetrics) (bookings.Service, error) {
	records, err := inventory.NewRepository(opened.Store)
	if err != nil {
		return nil, err
	}
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Records: records,
		Bulk: inventory.BulkOptions{
			Concurrency:  cfg.Inventory.BulkConcurrency,
			MaxRangeDays: cfg.Inventory.MaxRangeDays,
		},
		Logger:  logg,
		Metrics: m,
	})
	if err != nil {
		return nil, err
	}
	repo, err := bookings.NewRepository(opened.Store)
	if err != nil {
		return nil, err
	}
	return bookings.NewService(bookings.ServiceParams{
		Repo:       repo,
		Inventory:  inventoryService,
		Notifier:   notifier,
		HotelEmail: cfg.Notifications.HotelEmail,
		Location:   loc,
		Logger:     logg,
		Metrics:    m,
	})
}
