package service

import (
	"context"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountService is a mock implementation of AccountService
type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) Register(ctx context.Context, discordID int64, username string) (*models.Account, bool, error) {
	args := m.Called(ctx, discordID, username)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountService) GetAccount(ctx context.Context, discordID int64) (*models.Account, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountService) GetWagerHistory(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WagerRecord), args.Error(1)
}

// MockWagerService is a mock implementation of WagerService
type MockWagerService struct {
	mock.Mock
}

func (m *MockWagerService) PlaceWager(ctx context.Context, discordID int64, username string, choice models.Choice) (*models.PlacedWager, error) {
	args := m.Called(ctx, discordID, username, choice)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlacedWager), args.Error(1)
}

func (m *MockWagerService) GetPendingWager(ctx context.Context, discordID int64) (*models.PendingWager, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingWager), args.Error(1)
}

// MockSettlementService is a mock implementation of SettlementService
type MockSettlementService struct {
	mock.Mock
}

func (m *MockSettlementService) RunCycle(ctx context.Context) (*models.CycleResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CycleResult), args.Error(1)
}

// MockPriceService is a mock implementation of PriceService
type MockPriceService struct {
	mock.Mock
}

func (m *MockPriceService) GetState(ctx context.Context) (*models.PriceState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceState), args.Error(1)
}

func (m *MockPriceService) GetHistory(ctx context.Context, limit int) ([]*models.PriceSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PriceSnapshot), args.Error(1)
}

func (m *MockPriceService) GetLatestCycle(ctx context.Context) (*models.SettlementCycle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementCycle), args.Error(1)
}

func (m *MockPriceService) QueueLength(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPriceService) ReplenishQueue(ctx context.Context, prices []decimal.Decimal) (int64, error) {
	args := m.Called(ctx, prices)
	return args.Get(0).(int64), args.Error(1)
}
