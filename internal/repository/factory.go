package repository

import (
	"github.com/shipdesk/shipdesk/internal/domain/charges"
	"github.com/shipdesk/shipdesk/internal/domain/plan"
	"github.com/shipdesk/shipdesk/internal/domain/sequence"
	"github.com/shipdesk/shipdesk/internal/domain/setupfee"
	"github.com/shipdesk/shipdesk/internal/logger"
	"github.com/shipdesk/shipdesk/internal/postgres"
	postgresRepo "github.com/shipdesk/shipdesk/internal/repository/postgres"
)

func NewSequenceRepository(db *postgres.DB, logger *logger.Logger) sequence.Repository {
	return postgresRepo.NewSequenceRepository(db, logger)
}

func NewPlanRepository(db *postgres.DB, logger *logger.Logger) plan.Repository {
	return postgresRepo.NewPlanRepository(db, logger)
}

func NewSetupFeeRepository(db *postgres.DB, logger *logger.Logger) setupfee.Repository {
	return postgresRepo.NewSetupFeeRepository(db, logger)
}

func NewChargesRepository(db *postgres.DB, logger *logger.Logger) charges.Repository {
	return postgresRepo.NewChargesRepository(db, logger)
}
