package service

import (
	"context"
	"fmt"

	"zhigulbot/models"

	log "github.com/sirupsen/logrus"
)

type seedService struct {
	uowFactory UnitOfWorkFactory
}

// NewSeedService creates a new seed service
func NewSeedService(uowFactory UnitOfWorkFactory) SeedService {
	return &seedService{uowFactory: uowFactory}
}

// Seed stores the initial state and history once, and always appends the
// future prices. Re-running it against a seeded database only extends the queue.
func (s *seedService) Seed(ctx context.Context, data *models.SeedData) (*models.SeedResult, error) {
	if data == nil || data.State == nil {
		return nil, fmt.Errorf("seed data must include an initial state")
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	result := &models.SeedResult{}

	created, err := uow.PriceStateRepository().Initialize(ctx, data.State)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize price state: %w", err)
	}
	result.StateCreated = created

	if created {
		result.HistoryRows, err = uow.PriceHistoryRepository().AppendBatch(ctx, data.History)
		if err != nil {
			return nil, fmt.Errorf("failed to seed price history: %w", err)
		}
	} else {
		log.Info("Initial state already present, skipping state and history")
	}

	result.FutureRows, err = uow.FuturePriceRepository().Append(ctx, data.Future)
	if err != nil {
		return nil, fmt.Errorf("failed to seed future prices: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"stateCreated": result.StateCreated,
		"historyRows":  result.HistoryRows,
		"futureRows":   result.FutureRows,
	}).Info("Seed completed")
	return result, nil
}
