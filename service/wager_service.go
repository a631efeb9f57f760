package service

import (
	"context"
	"errors"
	"fmt"

	"zhigulbot/config"
	"zhigulbot/events"
	"zhigulbot/metrics"
	"zhigulbot/models"

	log "github.com/sirupsen/logrus"
)

type wagerService struct {
	uowFactory UnitOfWorkFactory
	cfg        *config.Config
}

// NewWagerService creates a new wager intake service
func NewWagerService(uowFactory UnitOfWorkFactory, cfg *config.Config) WagerService {
	return &wagerService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// PlaceWager records the player's wager for the next cycle. The balance is
// only checked here; it changes when the cycle settles.
func (s *wagerService) PlaceWager(ctx context.Context, discordID int64, username string, choice models.Choice) (*models.PlacedWager, error) {
	placed, err := s.placeWager(ctx, discordID, username, choice)
	metrics.WagerIntake.WithLabelValues(intakeOutcome(err)).Inc()
	return placed, err
}

func (s *wagerService) placeWager(ctx context.Context, discordID int64, username string, choice models.Choice) (*models.PlacedWager, error) {
	if _, ok := models.ParseChoice(string(choice)); !ok {
		return nil, ErrInvalidChoice
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.LockForIntake(ctx, s.cfg.IntakeLockTimeout); err != nil {
		return nil, err
	}

	account, _, err := ensureAccount(ctx, uow, discordID, username, s.cfg.StartingBalance)
	if err != nil {
		return nil, err
	}

	existing, err := uow.PendingWagerRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to check pending wager: %w", err)
	}
	if existing != nil {
		return nil, ErrDuplicateWager
	}

	if account.Balance < s.cfg.WagerStake {
		return nil, ErrInsufficientBalance
	}

	direction, origin, err := s.resolveDirection(ctx, uow, choice)
	if err != nil {
		return nil, err
	}

	wager := &models.PendingWager{
		DiscordID: discordID,
		Direction: direction,
		Origin:    origin,
		Stake:     s.cfg.WagerStake,
	}
	if err := uow.PendingWagerRepository().Create(ctx, wager); err != nil {
		if errors.Is(err, ErrDuplicateWager) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create wager: %w", err)
	}

	uow.EventBus().Publish(events.WagerPlacedEvent{
		WagerID:   wager.ID,
		DiscordID: discordID,
		Direction: string(direction),
		Origin:    string(origin),
		Stake:     wager.Stake,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"discordID": discordID,
		"direction": direction,
		"origin":    origin,
	}).Debug("Wager placed")

	return &models.PlacedWager{Wager: wager, Balance: account.Balance}, nil
}

// resolveDirection maps the choice to a direction. The oracle bets down when
// the forecast does not exceed the current price.
func (s *wagerService) resolveDirection(ctx context.Context, uow UnitOfWork, choice models.Choice) (models.Direction, models.Origin, error) {
	switch choice {
	case models.ChoiceUp:
		return models.DirectionUp, models.OriginUser, nil
	case models.ChoiceDown:
		return models.DirectionDown, models.OriginUser, nil
	}

	state, err := uow.PriceStateRepository().Get(ctx)
	if err != nil {
		return "", "", fmt.Errorf("failed to read price state: %w", err)
	}
	if state == nil {
		return "", "", ErrPriceStateMissing
	}
	return state.OracleDirection(), models.OriginOracle, nil
}

// GetPendingWager returns the player's open wager, if any
func (s *wagerService) GetPendingWager(ctx context.Context, discordID int64) (*models.PendingWager, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	wager, err := uow.PendingWagerRepository().GetByDiscordID(ctx, discordID)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wager: %w", err)
	}
	return wager, nil
}

func intakeOutcome(err error) string {
	switch {
	case err == nil:
		return "accepted"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrDuplicateWager):
		return "duplicate"
	case errors.Is(err, ErrStateLocked):
		return "locked"
	case errors.Is(err, ErrInvalidChoice):
		return "invalid"
	default:
		return "error"
	}
}
