package service

import (
	"github.com/shipdesk/shipdesk/internal/cache"
	"github.com/shipdesk/shipdesk/internal/config"
	"github.com/shipdesk/shipdesk/internal/domain/charges"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	"github.com/shipdesk/shipdesk/internal/sentry"
)

// ServiceParams holds common dependencies for services
type ServiceParams struct {
	Logger *logger.Logger
	Config *config.Configuration
	DB     postgres.IClient
	Cache  cache.Cache
	Sentry *sentry.Service

	SequenceRepo sequence.Repository
	PlanRepo     plan.Repository
	SetupFeeRepo setupfee.Repository
	ChargesRepo  charges.Repository
}

// NewServiceParams creates a new ServiceParams, used by the fx graph
func NewServiceParams(
	logger *logger.Logger,
	config *config.Configuration,
	db postgres.IClient,
	cache cache.Cache,
	sentry *sentry.Service,
	sequenceRepo sequence.Repository,
	planRepo plan.Repository,
	setupFeeRepo setupfee.Repository,
	chargesRepo charges.Repository,
) ServiceParams {
	return ServiceParams{
		Logger:       logger,
		Config:       config,
		DB:           db,
		Cache:        cache,
		Sentry:       sentry,
		SequenceRepo: sequenceRepo,
		PlanRepo:     planRepo,
		SetupFeeRepo: setupFeeRepo,
		ChargesRepo:  chargesRepo,
	}
}
