package service

import (
	"context"
	"fmt"

	"zhigulbot/events"
	"zhigulbot/models"
)

// ensureAccount returns the player's account inside uow, creating it with
// the starting balance on first contact
func ensureAccount(ctx context.Context, uow UnitOfWork, discordID int64, username string, startingBalance int64) (*models.Account, bool, error) {
	account, err := uow.AccountRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to check existing account: %w", err)
	}
	if account != nil {
		return account, false, nil
	}

	account, created, err := uow.AccountRepository().Create(ctx, discordID, username, startingBalance)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	if created {
		uow.EventBus().Publish(events.AccountCreatedEvent{
			DiscordID:      discordID,
			Username:       username,
			InitialBalance: account.Balance,
		})
	}
	return account, created, nil
}
