package service

import (
	"context"
	"testing"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupPriceService(t *testing.T) (PriceService, *MockUnitOfWork) {
	t.Helper()
	uow := NewMockUnitOfWork()
	factory := new(MockUnitOfWorkFactory)
	factory.On("Create").Return(uow)
	uow.On("Begin", context.Background()).Return(nil)
	uow.On("Rollback").Return(nil)
	return NewPriceService(factory), uow
}

func TestPriceService_GetState(t *testing.T) {
	ctx := context.Background()

	t.Run("returns current state", func(t *testing.T) {
		service, uow := setupPriceService(t)
		uow.PriceStates.On("Get", ctx).Return(priceState("1", "2", "3"), nil)

		state, err := service.GetState(ctx)

		require.NoError(t, err)
		assert.True(t, state.CurrentPrice.Equal(dec("2")))
	})

	t.Run("unseeded database", func(t *testing.T) {
		service, uow := setupPriceService(t)
		uow.PriceStates.On("Get", ctx).Return(nil, nil)

		_, err := service.GetState(ctx)

		assert.ErrorIs(t, err, ErrPriceStateMissing)
	})
}

func TestPriceService_ReplenishQueue(t *testing.T) {
	ctx := context.Background()

	t.Run("appends and reports queue length", func(t *testing.T) {
		service, uow := setupPriceService(t)
		prices := []decimal.Decimal{dec("101.5"), dec("102")}
		uow.FuturePrices.On("Append", ctx, prices).Return(int64(2), nil)
		uow.FuturePrices.On("Count", ctx).Return(int64(12), nil)
		uow.On("Commit").Return(nil)

		count, err := service.ReplenishQueue(ctx, prices)

		require.NoError(t, err)
		assert.Equal(t, int64(12), count)
		uow.AssertExpectations(t)
	})

	t.Run("rejects empty batch", func(t *testing.T) {
		service, uow := setupPriceService(t)

		_, err := service.ReplenishQueue(ctx, nil)

		assert.ErrorIs(t, err, ErrEmptyReplenish)
		uow.AssertNotCalled(t, "Begin", mock.Anything)
	})

	t.Run("rejects non-positive price", func(t *testing.T) {
		service, uow := setupPriceService(t)

		_, err := service.ReplenishQueue(ctx, []decimal.Decimal{dec("5"), dec("0")})

		assert.ErrorIs(t, err, ErrInvalidPrice)
		uow.FuturePrices.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	})
}

func TestPriceService_GetHistory(t *testing.T) {
	ctx := context.Background()
	service, uow := setupPriceService(t)
	uow.PriceHistory.On("GetRecent", ctx, 14).Return([]*models.PriceSnapshot{
		{CurrentPrice: dec("1")},
		{CurrentPrice: dec("2")},
	}, nil)

	history, err := service.GetHistory(ctx, 14)

	require.NoError(t, err)
	assert.Len(t, history, 2)
}
