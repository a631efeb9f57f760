package service

import (
	"context"
	"errors"
	"testing"

	"zhigulbot/config"
	"zhigulbot/events"
	"zhigulbot/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupWagerService(t *testing.T) (WagerService, *MockUnitOfWork, *config.Config) {
	t.Helper()
	cfg := config.NewTestConfig()
	uow := NewMockUnitOfWork()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	uow.On("Rollback").Return(nil)
	return NewWagerService(factory, cfg), uow, cfg
}

func expectIntake(uow *MockUnitOfWork, ctx context.Context, cfg *config.Config) {
	uow.On("Begin", ctx).Return(nil)
	uow.On("LockForIntake", ctx, cfg.IntakeLockTimeout).Return(nil)
}

func TestWagerService_PlaceWager(t *testing.T) {
	ctx := context.Background()
	const discordID = int64(12345)

	t.Run("accepts up wager from existing account", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PendingWagers.On("Create", ctx, mock.MatchedBy(func(w *models.PendingWager) bool {
			return w.DiscordID == discordID &&
				w.Direction == models.DirectionUp &&
				w.Origin == models.OriginUser &&
				w.Stake == cfg.WagerStake
		})).Run(func(args mock.Arguments) {
			args.Get(1).(*models.PendingWager).ID = 99
		}).Return(nil)
		uow.On("Commit").Return(nil)

		placed, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		require.NoError(t, err)
		assert.Equal(t, int64(99), placed.Wager.ID)
		assert.Equal(t, int64(3000), placed.Balance)

		published := uow.Publisher.OfType(events.EventTypeWagerPlaced)
		require.Len(t, published, 1)
		assert.Equal(t, "up", published[0].(events.WagerPlacedEvent).Direction)
		uow.AssertExpectations(t)
		uow.AssertRepositoryExpectations(t)
	})

	t.Run("creates account on first wager", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.Accounts.On("Create", ctx, discordID, "newcomer", cfg.StartingBalance).
			Return(&models.Account{DiscordID: discordID, Balance: cfg.StartingBalance}, true, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PendingWagers.On("Create", ctx, mock.Anything).Return(nil)
		uow.On("Commit").Return(nil)

		_, err := service.PlaceWager(ctx, discordID, "newcomer", models.ChoiceDown)

		require.NoError(t, err)
		assert.Len(t, uow.Publisher.OfType(events.EventTypeAccountCreated), 1)
		assert.Len(t, uow.Publisher.OfType(events.EventTypeWagerPlaced), 1)
	})

	t.Run("oracle bets down when forecast is not above current", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PriceStates.On("Get", ctx).Return(priceState("99", "100", "100"), nil)
		uow.PendingWagers.On("Create", ctx, mock.MatchedBy(func(w *models.PendingWager) bool {
			return w.Direction == models.DirectionDown && w.Origin == models.OriginOracle
		})).Return(nil)
		uow.On("Commit").Return(nil)

		placed, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceOracle)

		require.NoError(t, err)
		assert.Equal(t, models.DirectionDown, placed.Wager.Direction)
		uow.AssertRepositoryExpectations(t)
	})

	t.Run("oracle bets up when forecast is above current", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PriceStates.On("Get", ctx).Return(priceState("99", "100", "100.01"), nil)
		uow.PendingWagers.On("Create", ctx, mock.Anything).Return(nil)
		uow.On("Commit").Return(nil)

		placed, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceOracle)

		require.NoError(t, err)
		assert.Equal(t, models.DirectionUp, placed.Wager.Direction)
		assert.Equal(t, models.OriginOracle, placed.Wager.Origin)
	})

	t.Run("rejects second wager in the same cycle", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(&models.PendingWager{ID: 1, DiscordID: discordID}, nil)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		assert.ErrorIs(t, err, ErrDuplicateWager)
		uow.AssertNotCalled(t, "Commit")
		uow.PendingWagers.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, uow.Publisher.Events)
	})

	t.Run("concurrent duplicate caught by unique index", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PendingWagers.On("Create", ctx, mock.Anything).Return(ErrDuplicateWager)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		assert.ErrorIs(t, err, ErrDuplicateWager)
		uow.AssertNotCalled(t, "Commit")
	})

	t.Run("rejects wager when balance is below stake", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: cfg.WagerStake - 1}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		assert.ErrorIs(t, err, ErrInsufficientBalance)
		uow.AssertNotCalled(t, "Commit")
	})

	t.Run("balance equal to stake is enough", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: cfg.WagerStake}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PendingWagers.On("Create", ctx, mock.Anything).Return(nil)
		uow.On("Commit").Return(nil)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceDown)

		assert.NoError(t, err)
	})

	t.Run("rejected while settlement holds the lock", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		uow.On("Begin", ctx).Return(nil)
		uow.On("LockForIntake", ctx, cfg.IntakeLockTimeout).Return(ErrStateLocked)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		assert.ErrorIs(t, err, ErrStateLocked)
		uow.Accounts.AssertNotCalled(t, "GetByDiscordID", mock.Anything, mock.Anything)
	})

	t.Run("rejects unknown choice before touching storage", func(t *testing.T) {
		service, uow, _ := setupWagerService(t)

		_, err := service.PlaceWager(ctx, discordID, "player", models.Choice("sideways"))

		assert.ErrorIs(t, err, ErrInvalidChoice)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("oracle without seeded state", func(t *testing.T) {
		service, uow, cfg := setupWagerService(t)
		expectIntake(uow, ctx, cfg)
		uow.Accounts.On("GetByDiscordID", ctx, discordID).Return(&models.Account{DiscordID: discordID, Balance: 3000}, nil)
		uow.PendingWagers.On("GetByDiscordID", ctx, discordID).Return(nil, nil)
		uow.PriceStates.On("Get", ctx).Return(nil, nil)

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceOracle)

		assert.ErrorIs(t, err, ErrPriceStateMissing)
	})

	t.Run("begin failure", func(t *testing.T) {
		service, uow, _ := setupWagerService(t)
		uow.On("Begin", ctx).Return(errors.New("pool closed"))

		_, err := service.PlaceWager(ctx, discordID, "player", models.ChoiceUp)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to begin transaction")
	})
}

func TestWagerService_GetPendingWager(t *testing.T) {
	ctx := context.Background()
	service, uow, _ := setupWagerService(t)
	uow.On("Begin", ctx).Return(nil)
	uow.PendingWagers.On("GetByDiscordID", ctx, int64(5)).Return(&models.PendingWager{ID: 3, DiscordID: 5}, nil)

	wager, err := service.GetPendingWager(ctx, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(3), wager.ID)
	uow.AssertNotCalled(t, "LockForIntake", mock.Anything, mock.Anything)
}
