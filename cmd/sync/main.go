package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carebridge/availability-sync/internal/adapters/database"
	"github.com/carebridge/availability-sync/internal/adapters/lock"
	"github.com/carebridge/availability-sync/internal/adapters/providers/scheduling"
	"github.com/carebridge/availability-sync/internal/application/services"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/postgres"
	"github.com/carebridge/availability-sync/internal/infrastructure/clients/redis"
	"github.com/carebridge/availability-sync/internal/infrastructure/observability"
	"github.com/carebridge/availability-sync/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize structured logging
	observability.InitLogger(cfg.OTEL.ServiceName, cfg.Env)
	logger := observability.GetLogger()

	// Set up context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry if enabled
	if cfg.OTEL.Enabled && cfg.OTEL.Endpoint != "" {
		shutdown, err := observability.Setup(
			ctx,
			cfg.OTEL.ServiceName,
			cfg.OTEL.ServiceVersion,
			cfg.OTEL.Endpoint,
		)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to set up OpenTelemetry")
		} else {
			defer func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := shutdown(ctx); err != nil {
					logger.Warn().Err(err).Msg("Error shutting down OpenTelemetry")
				}
			}()
			logger.Info().Msg("OpenTelemetry initialized")
		}
	}

	// Initialize metrics
	metrics, err := observability.InitMetrics()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize metrics")
	}

	// Initialize database client
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()
	logger.Info().Msg("PostgreSQL client initialized")

	// Initialize Redis client. The advisory lock lives there, so the engine
	// cannot run without it.
	redisClient, err := redis.NewClient(&cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize Redis client")
	}
	defer redisClient.Close()
	logger.Info().Msg("Redis client initialized")

	// Initialize adapters
	institutionAdapter := database.NewInstitutionAdapter(pgClient)
	providerAdapter := database.NewProviderAdapter(pgClient)
	appointmentTypeAdapter := database.NewAppointmentTypeAdapter(pgClient)
	departmentAdapter := database.NewDepartmentAdapter(pgClient)
	availabilityAdapter := database.NewAvailabilityAdapter(pgClient)
	scheduleCacheAdapter := database.NewScheduleCacheAdapter(pgClient)

	slotSource := scheduling.NewSlotSource(scheduling.SlotSourceConfig{
		BaseURL: cfg.Ehr.BaseURL,
		APIKey:  cfg.Ehr.APIKey,
		Timeout: cfg.Ehr.Timeout,
	})

	// Initialize services
	builder := services.NewAvailabilityBuilder(slotSource, appointmentTypeAdapter, departmentAdapter)
	reconciler := services.NewAvailabilityReconciler(availabilityAdapter)
	availabilitySync := services.NewAvailabilitySyncService(
		institutionAdapter,
		providerAdapter,
		builder,
		reconciler,
		cfg.ProviderSync.DaysAhead,
		metrics,
	)
	scheduleCacheSync := services.NewScheduleCacheSyncService(
		institutionAdapter,
		scheduleCacheAdapter,
		slotSource,
		cfg.ScheduleSync.DaysAhead,
		cfg.ScheduleSync.Workers,
		cfg.ScheduleSync.Timeout,
		metrics,
	)

	availabilityScheduler := services.NewSyncScheduler(
		"availability",
		"availability-sync",
		cfg.ProviderSync.InitialDelay,
		cfg.ProviderSync.Interval,
		lock.NewRedisLocker(redisClient.Client(), cfg.ProviderSync.LockTTL),
		availabilitySync.SyncAll,
		metrics,
	)
	scheduleCacheScheduler := services.NewSyncScheduler(
		"schedule-cache",
		"schedule-cache-sync",
		cfg.ScheduleSync.InitialDelay,
		cfg.ScheduleSync.Interval,
		lock.NewRedisLocker(redisClient.Client(), cfg.ScheduleSync.LockTTL),
		scheduleCacheSync.SyncAll,
		metrics,
	)

	availabilityScheduler.Start()
	scheduleCacheScheduler.Start()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutting down...")

	scheduleCacheScheduler.Stop()
	availabilityScheduler.Stop()

	logger.Info().Msg("Stopped")
}
