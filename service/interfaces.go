package service

import (
	"context"
	"time"

	"zhigulbot/events"
	"zhigulbot/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// GetByDiscordID retrieves an account, returning nil when it does not exist
	GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error)

	// Create inserts an account unless one already exists and returns the stored row
	Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.Account, bool, error)

	// AddBalance applies a signed delta and returns the new balance
	AddBalance(ctx context.Context, discordID int64, delta int64) (int64, error)
}

// PendingWagerRepository defines the interface for the open wager pool
type PendingWagerRepository interface {
	GetByDiscordID(ctx context.Context, discordID int64) (*models.PendingWager, error)

	// Create inserts a wager, failing with ErrDuplicateWager if the account already has one
	Create(ctx context.Context, wager *models.PendingWager) error

	ListAll(ctx context.Context) ([]*models.PendingWager, error)
	Delete(ctx context.Context, id int64) error

	// DeleteAll clears the pool and returns the number of rows removed
	DeleteAll(ctx context.Context) (int64, error)
}

// WagerHistoryRepository defines the interface for resolved wager records
type WagerHistoryRepository interface {
	Create(ctx context.Context, record *models.WagerRecord) error
	GetByDiscordID(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error)
	GetByCycle(ctx context.Context, cycleID uuid.UUID) ([]*models.WagerRecord, error)
}

// PriceStateRepository defines the interface for the singleton price state
type PriceStateRepository interface {
	// Get returns the state, or nil before the system has been seeded
	Get(ctx context.Context) (*models.PriceState, error)
	Update(ctx context.Context, state *models.PriceState) error

	// Initialize stores the first state and reports false if one already exists
	Initialize(ctx context.Context, state *models.PriceState) (bool, error)
}

// PriceHistoryRepository defines the interface for the price history ledger
type PriceHistoryRepository interface {
	Append(ctx context.Context, current, predicted decimal.Decimal) error
	AppendBatch(ctx context.Context, snapshots []*models.PriceSnapshot) (int64, error)

	// GetRecent returns up to limit snapshots ordered oldest first.
	// A limit of zero or less returns the full history.
	GetRecent(ctx context.Context, limit int) ([]*models.PriceSnapshot, error)
}

// FuturePriceRepository defines the interface for the future price queue
type FuturePriceRepository interface {
	// PopNext removes and returns the head of the queue, or nil when empty
	PopNext(ctx context.Context) (*models.FuturePrice, error)
	Append(ctx context.Context, prices []decimal.Decimal) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// SettlementCycleRepository defines the interface for the cycle audit trail
type SettlementCycleRepository interface {
	Create(ctx context.Context, cycle *models.SettlementCycle) error
	GetLatest(ctx context.Context) (*models.SettlementCycle, error)
}

// EventPublisher publishes domain events once the surrounding transaction commits
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork manages a database transaction and the repositories bound to it
type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	// LockForSettlement takes exclusive ownership of the wager pool and price
	// state for the rest of the transaction
	LockForSettlement(ctx context.Context, timeout time.Duration) error

	// LockForIntake waits at most timeout for a running settlement to finish,
	// returning ErrStateLocked when it does not
	LockForIntake(ctx context.Context, timeout time.Duration) error

	AccountRepository() AccountRepository
	PendingWagerRepository() PendingWagerRepository
	WagerHistoryRepository() WagerHistoryRepository
	PriceStateRepository() PriceStateRepository
	PriceHistoryRepository() PriceHistoryRepository
	FuturePriceRepository() FuturePriceRepository
	SettlementCycleRepository() SettlementCycleRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates new units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Forecaster predicts the next price from a window of past prices, oldest first
type Forecaster interface {
	Forecast(ctx context.Context, prices []float64) (float64, error)
}

// ChartRefresher redraws the price charts after a cycle commits
type ChartRefresher interface {
	Refresh(ctx context.Context) error
}

// AccountService defines account operations used by the front-ends
type AccountService interface {
	// Register returns the player's account, creating it on first contact
	Register(ctx context.Context, discordID int64, username string) (*models.Account, bool, error)

	// GetAccount returns the account without creating it
	GetAccount(ctx context.Context, discordID int64) (*models.Account, error)

	GetWagerHistory(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error)
}

// WagerService defines wager intake
type WagerService interface {
	PlaceWager(ctx context.Context, discordID int64, username string, choice models.Choice) (*models.PlacedWager, error)
	GetPendingWager(ctx context.Context, discordID int64) (*models.PendingWager, error)
}

// SettlementService runs settlement cycles
type SettlementService interface {
	RunCycle(ctx context.Context) (*models.CycleResult, error)
}

// PriceService exposes the price signal and its queue
type PriceService interface {
	GetState(ctx context.Context) (*models.PriceState, error)
	GetHistory(ctx context.Context, limit int) ([]*models.PriceSnapshot, error)
	GetLatestCycle(ctx context.Context) (*models.SettlementCycle, error)
	QueueLength(ctx context.Context) (int64, error)
	ReplenishQueue(ctx context.Context, prices []decimal.Decimal) (int64, error)
}

// SeedService loads the initial price data
type SeedService interface {
	Seed(ctx context.Context, data *models.SeedData) (*models.SeedResult, error)
}
