package service

import (
	"context"
	"fmt"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type priceService struct {
	uowFactory UnitOfWorkFactory
}

// NewPriceService creates a new price service
func NewPriceService(uowFactory UnitOfWorkFactory) PriceService {
	return &priceService{uowFactory: uowFactory}
}

func (s *priceService) GetState(ctx context.Context) (*models.PriceState, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	state, err := uow.PriceStateRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get price state: %w", err)
	}
	if state == nil {
		return nil, ErrPriceStateMissing
	}
	return state, nil
}

// GetHistory returns up to limit snapshots, oldest first; limit <= 0 returns everything
func (s *priceService) GetHistory(ctx context.Context, limit int) ([]*models.PriceSnapshot, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	history, err := uow.PriceHistoryRepository().GetRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	return history, nil
}

func (s *priceService) GetLatestCycle(ctx context.Context) (*models.SettlementCycle, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	cycle, err := uow.SettlementCycleRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get latest cycle: %w", err)
	}
	return cycle, nil
}

func (s *priceService) QueueLength(ctx context.Context) (int64, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	count, err := uow.FuturePriceRepository().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count future prices: %w", err)
	}
	return count, nil
}

// ReplenishQueue appends prices to the tail of the future price queue and
// returns the new queue length
func (s *priceService) ReplenishQueue(ctx context.Context, prices []decimal.Decimal) (int64, error) {
	if len(prices) == 0 {
		return 0, ErrEmptyReplenish
	}
	for i, p := range prices {
		if !p.IsPositive() {
			return 0, fmt.Errorf("%w: price %d is %s", ErrInvalidPrice, i, p)
		}
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if _, err := uow.FuturePriceRepository().Append(ctx, prices); err != nil {
		return 0, fmt.Errorf("failed to enqueue prices: %w", err)
	}
	count, err := uow.FuturePriceRepository().Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count future prices: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"added":     len(prices),
		"queueSize": count,
	}).Info("Future price queue replenished")
	return count, nil
}
