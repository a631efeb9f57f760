package service

import (
	"context"
	"fmt"

	"zhigulbot/config"
	"zhigulbot/models"
)

// MaxHistoryLimit caps how many resolved wagers one query returns
const MaxHistoryLimit = 50

type accountService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewAccountService creates a new account service
func NewAccountService(uowFactory UnitOfWorkFactory, cfg *config.Config) AccountService {
	return &accountService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// Register returns the player's account, creating it on first contact.
// Registering twice is not an error.
func (s *accountService) Register(ctx context.Context, discordID int64, username string) (*models.Account, bool, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, created, err := ensureAccount(ctx, uow, discordID, username, s.cfg.StartingBalance)
	if err != nil {
		return nil, false, err
	}
	if !created {
		return account, false, nil
	}

	if err := uow.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return account, true, nil
}

// GetAccount returns the account or nil. Reads never wait on settlement.
func (s *accountService) GetAccount(ctx context.Context, discordID int64) (*models.Account, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// GetWagerHistory returns the player's latest resolved wagers, newest first
func (s *accountService) GetWagerHistory(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error) {
	if limit <= 0 || limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	records, err := uow.WagerHistoryRepository().GetByDiscordID(ctx, discordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager history: %w", err)
	}
	return records, nil
}
