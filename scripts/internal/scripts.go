package internal

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/shipdesk/shipdesk/internal/cache"
	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/repository"
	"github.com/shipdesk/shipdesk/internal/sentry"
	"github.com/shipdesk/shipdesk/internal/service"
)

// runtime is what every ops script needs to call the services
type runtime struct {
	cfg    *config.Configuration
	logger *logger.Logger
	db     *postgres.DB
	params service.ServiceParams
}

func newRuntime() (*runtime, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.NewLogger(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := postgres.NewDB(cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	params := service.NewServiceParams(
		log,
		cfg,
		db,
		cache.NewInMemoryCache(cfg, log),
		sentry.NewSentryService(cfg, log),
		repository.NewSequenceRepository(db, log),
		repository.NewPlanRepository(db, log),
		repository.NewSetupFeeRepository(db, log),
		repository.NewChargesRepository(db, log),
	)

	return &runtime{cfg: cfg, logger: log, db: db, params: params}, nil
}

func (r *runtime) close() {
	r.db.Close()
	r.logger.Sync()
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func envInt(name string) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, raw)
	}
	return v, nil
}
