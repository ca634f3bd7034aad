package main

import (
	"context"
	"time"

	"github.com/shipdesk/shipdesk/internal/cache"
	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/repository"
	"github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/shipdesk/shipdesk/internal/service"
	"github.com/shipdesk/shipdesk/internal/validator"
	"go.uber.org/fx"
)

func init() {
	// Set UTC timezone for the entire application
	time.Local = time.UTC
}

func main() {
	var opts []fx.Option

	// Core dependencies
	opts = append(opts,
		fx.Provide(
			// Validator
			validator.NewValidator,

			// Config
			config.NewConfig,

			// Logger
			logger.NewLogger,

			// Cache
			fx.Annotate(cache.NewInMemoryCache, fx.As(new(cache.Cache))),

			// Postgres
			postgres.NewDB,
			provideDBClient,

			// Repositories
			repository.NewSequenceRepository,
			repository.NewPlanRepository,
			repository.NewSetupFeeRepository,
			repository.NewChargesRepository,
		),
	)

	// Monitoring
	opts = append(opts, sentry.Module())

	// Service layer
	opts = append(opts,
		fx.Provide(
			service.NewServiceParams,

			service.NewSequenceService,
			service.NewPlanService,
			service.NewBillingService,
		),
	)

	opts = append(opts,
		fx.Invoke(
			startServer,
		),
	)

	app := fx.New(opts...)
	app.Run()
}

func provideDBClient(db *postgres.DB) postgres.IClient {
	return db
}

// startServer requests the services so fx builds them before the lifecycle starts
func startServer(
	lc fx.Lifecycle,
	cfg *config.Configuration,
	db *postgres.DB,
	log *logger.Logger,
	_ service.SequenceService,
	_ service.PlanService,
	_ service.BillingService,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := db.PingContext(ctx); err != nil {
				log.Errorw("postgres is not reachable", "error", err)
				return err
			}

			log.Infow("shipdesk services started",
				"mode", cfg.Deployment.Mode,
				"sequence_counter_enabled", cfg.Sequence.CounterEnabled,
				"lock_closed_periods", cfg.Billing.LockClosedPeriods,
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down shipdesk services")
			db.Close()
			log.Sync()
			return nil
		},
	})
}
