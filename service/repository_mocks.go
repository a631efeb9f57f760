package service

import (
	"context"
	"sync"
	"time"

	"zhigulbot/events"
	"zhigulbot/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockAccountRepository is a mock implementation of AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAccountRepository) Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.Account, bool, error) {
	args := m.Called(ctx, discordID, username, initialBalance)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.Account), args.Bool(1), args.Error(2)
}

func (m *MockAccountRepository) AddBalance(ctx context.Context, discordID int64, delta int64) (int64, error) {
	args := m.Called(ctx, discordID, delta)
	return args.Get(0).(int64), args.Error(1)
}

// MockPendingWagerRepository is a mock implementation of PendingWagerRepository
type MockPendingWagerRepository struct {
	mock.Mock
}

func (m *MockPendingWagerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.PendingWager, error) {
	args := m.Called(ctx, discordID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PendingWager), args.Error(1)
}

func (m *MockPendingWagerRepository) Create(ctx context.Context, wager *models.PendingWager) error {
	args := m.Called(ctx, wager)
	return args.Error(0)
}

func (m *MockPendingWagerRepository) ListAll(ctx context.Context) ([]*models.PendingWager, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PendingWager), args.Error(1)
}

func (m *MockPendingWagerRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPendingWagerRepository) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockWagerHistoryRepository is a mock implementation of WagerHistoryRepository
type MockWagerHistoryRepository struct {
	mock.Mock
}

func (m *MockWagerHistoryRepository) Create(ctx context.Context, record *models.WagerRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockWagerHistoryRepository) GetByDiscordID(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error) {
	args := m.Called(ctx, discordID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WagerRecord), args.Error(1)
}

func (m *MockWagerHistoryRepository) GetByCycle(ctx context.Context, cycleID uuid.UUID) ([]*models.WagerRecord, error) {
	args := m.Called(ctx, cycleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.WagerRecord), args.Error(1)
}

// MockPriceStateRepository is a mock implementation of PriceStateRepository
type MockPriceStateRepository struct {
	mock.Mock
}

func (m *MockPriceStateRepository) Get(ctx context.Context) (*models.PriceState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceState), args.Error(1)
}

func (m *MockPriceStateRepository) Update(ctx context.Context, state *models.PriceState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockPriceStateRepository) Initialize(ctx context.Context, state *models.PriceState) (bool, error) {
	args := m.Called(ctx, state)
	return args.Bool(0), args.Error(1)
}

// MockPriceHistoryRepository is a mock implementation of PriceHistoryRepository
type MockPriceHistoryRepository struct {
	mock.Mock
}

func (m *MockPriceHistoryRepository) Append(ctx context.Context, current, predicted decimal.Decimal) error {
	args := m.Called(ctx, current, predicted)
	return args.Error(0)
}

func (m *MockPriceHistoryRepository) AppendBatch(ctx context.Context, snapshots []*models.PriceSnapshot) (int64, error) {
	args := m.Called(ctx, snapshots)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPriceHistoryRepository) GetRecent(ctx context.Context, limit int) ([]*models.PriceSnapshot, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.PriceSnapshot), args.Error(1)
}

// MockFuturePriceRepository is a mock implementation of FuturePriceRepository
type MockFuturePriceRepository struct {
	mock.Mock
}

func (m *MockFuturePriceRepository) PopNext(ctx context.Context) (*models.FuturePrice, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.FuturePrice), args.Error(1)
}

func (m *MockFuturePriceRepository) Append(ctx context.Context, prices []decimal.Decimal) (int64, error) {
	args := m.Called(ctx, prices)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFuturePriceRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettlementCycleRepository is a mock implementation of SettlementCycleRepository
type MockSettlementCycleRepository struct {
	mock.Mock
}

func (m *MockSettlementCycleRepository) Create(ctx context.Context, cycle *models.SettlementCycle) error {
	args := m.Called(ctx, cycle)
	return args.Error(0)
}

func (m *MockSettlementCycleRepository) GetLatest(ctx context.Context) (*models.SettlementCycle, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SettlementCycle), args.Error(1)
}

// RecordingEventPublisher collects published events for assertions
type RecordingEventPublisher struct {
	mu     sync.Mutex
	Events []events.Event
}

func (p *RecordingEventPublisher) Publish(event events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Events = append(p.Events, event)
}

// OfType returns the recorded events of a given type
func (p *RecordingEventPublisher) OfType(eventType events.EventType) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, e := range p.Events {
		if e.Type() == eventType {
			out = append(out, e)
		}
	}
	return out
}

// MockUnitOfWork is a mock implementation of UnitOfWork. Transaction calls
// go through testify; repositories are plain fields set by the test.
type MockUnitOfWork struct {
	mock.Mock

	Accounts         *MockAccountRepository
	PendingWagers    *MockPendingWagerRepository
	WagerHistory     *MockWagerHistoryRepository
	PriceStates      *MockPriceStateRepository
	PriceHistory     *MockPriceHistoryRepository
	FuturePrices     *MockFuturePriceRepository
	SettlementCycles *MockSettlementCycleRepository
	Publisher        *RecordingEventPublisher
}

// NewMockUnitOfWork creates a unit of work with fresh repository mocks
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Accounts:         new(MockAccountRepository),
		PendingWagers:    new(MockPendingWagerRepository),
		WagerHistory:     new(MockWagerHistoryRepository),
		PriceStates:      new(MockPriceStateRepository),
		PriceHistory:     new(MockPriceHistoryRepository),
		FuturePrices:     new(MockFuturePriceRepository),
		SettlementCycles: new(MockSettlementCycleRepository),
		Publisher:        new(RecordingEventPublisher),
	}
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) LockForSettlement(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

func (m *MockUnitOfWork) LockForIntake(ctx context.Context, timeout time.Duration) error {
	args := m.Called(ctx, timeout)
	return args.Error(0)
}

func (m *MockUnitOfWork) AccountRepository() AccountRepository { return m.Accounts }

func (m *MockUnitOfWork) PendingWagerRepository() PendingWagerRepository { return m.PendingWagers }

func (m *MockUnitOfWork) WagerHistoryRepository() WagerHistoryRepository { return m.WagerHistory }

func (m *MockUnitOfWork) PriceStateRepository() PriceStateRepository { return m.PriceStates }

func (m *MockUnitOfWork) PriceHistoryRepository() PriceHistoryRepository { return m.PriceHistory }

func (m *MockUnitOfWork) FuturePriceRepository() FuturePriceRepository { return m.FuturePrices }

func (m *MockUnitOfWork) SettlementCycleRepository() SettlementCycleRepository {
	return m.SettlementCycles
}

func (m *MockUnitOfWork) EventBus() EventPublisher { return m.Publisher }

// AssertRepositoryExpectations checks every repository mock
func (m *MockUnitOfWork) AssertRepositoryExpectations(t mock.TestingT) {
	m.Accounts.AssertExpectations(t)
	m.PendingWagers.AssertExpectations(t)
	m.WagerHistory.AssertExpectations(t)
	m.PriceStates.AssertExpectations(t)
	m.PriceHistory.AssertExpectations(t)
	m.FuturePrices.AssertExpectations(t)
	m.SettlementCycles.AssertExpectations(t)
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// MockForecaster is a mock implementation of Forecaster
type MockForecaster struct {
	mock.Mock
}

func (m *MockForecaster) Forecast(ctx context.Context, prices []float64) (float64, error) {
	args := m.Called(ctx, prices)
	return args.Get(0).(float64), args.Error(1)
}

// MockChartRefresher is a mock implementation of ChartRefresher
type MockChartRefresher struct {
	mock.Mock
}

func (m *MockChartRefresher) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
