package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/selvamresidency/hotel-backend/api/controllers"
	"github.com/selvamresidency/hotel-backend/api/routes"
	"github.com/selvamresidency/hotel-backend/internal/bookings"
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

const shutdownTimeout = 15 * time.Second

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

	health := map[string]controllers.Pinger{
		"database": dbClient,
		"redis":    redisClient,
	}

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
	if opened.Pinger != nil {
		health["store"] = opened.Pinger
	}
	store := opened.Store

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hotelMetrics := metrics.NewHotelMetrics(registry)

	notifier, err := buildNotifier(cfg, dbClient, logg, hotelMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifier", err)
		os.Exit(1)
	}

	dayRecords, err := inventory.NewRepository(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create daily record repository", err)
		os.Exit(1)
	}
	inventoryService, err := inventory.NewService(inventory.ServiceParams{
		Records: dayRecords,
		Bulk: inventory.BulkOptions{
			Concurrency:  cfg.Inventory.BulkConcurrency,
			MaxRangeDays: cfg.Inventory.MaxRangeDays,
		},
		Logger:  logg,
		Metrics: hotelMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create inventory service", err)
		os.Exit(1)
	}

	bookingRepo, err := bookings.NewRepository(store)
	if err != nil {
		logg.Error(context.Background(), "failed to create booking repository", err)
		os.Exit(1)
	}
	bookingService, err := bookings.NewService(bookings.ServiceParams{
		Repo:       bookingRepo,
		Inventory:  inventoryService,
		Notifier:   notifier,
		HotelEmail: cfg.Notifications.HotelEmail,
		Location:   loc,
		Logger:     logg,
		Metrics:    hotelMetrics,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create booking service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"store":    cfg.Store.Backend,
		"timezone": loc.String(),
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:    cfg,
			Logger:    logg,
			Inventory: inventoryService,
			Bookings:  bookingService,
			Redis:     redisClient,
			Health:    health,
			Gatherer:  registry,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

// buildNotifier queues into the outbox when enabled, otherwise sends inline
// through SendGrid, otherwise only logs.
func buildNotifier(cfg *config.Config, dbClient *db.Client, logg *logger.Logger, m *metrics.HotelMetrics) (notifications.Notifier, error) {
	if cfg.Notifications.Queue {
		return notifications.NewOutbox(notifications.OutboxParams{
			Repo:    notifications.NewRepository(dbClient.DB()),
			Logger:  logg,
			Metrics: m,
		})
	}
	if cfg.Sendgrid.APIKey == "" {
		logg.Warn(context.Background(), "sendgrid api key missing, notifications are discarded")
		return notifications.NewDiscard(logg), nil
	}
	renderer, err := notifications.NewRenderer(cfg.Notifications.HotelName)
	if err != nil {
		return nil, err
	}
	sender, err := sendgrid.New(cfg.Sendgrid)
	if err != nil {
		return nil, err
	}
	return notifications.NewDirect(renderer, sender, logg, m)
}
