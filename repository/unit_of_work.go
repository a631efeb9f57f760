package repository

import (
	"context"
	"fmt"
	"time"

	"zhigulbot/database"
	"zhigulbot/events"
	"zhigulbot/service"

	"github.com/jackc/pgx/v5"
	log "github.com/sirupsen/logrus"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus

	accountRepo         service.AccountRepository
	pendingWagerRepo    service.PendingWagerRepository
	wagerHistoryRepo    service.WagerHistoryRepository
	priceStateRepo      service.PriceStateRepository
	priceHistoryRepo    service.PriceHistoryRepository
	futurePriceRepo     service.FuturePriceRepository
	settlementCycleRepo service.SettlementCycleRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	u.accountRepo = newAccountRepositoryWithTx(tx)
	u.pendingWagerRepo = newPendingWagerRepositoryWithTx(tx)
	u.wagerHistoryRepo = newWagerHistoryRepositoryWithTx(tx)
	u.priceStateRepo = newPriceStateRepositoryWithTx(tx)
	u.priceHistoryRepo = newPriceHistoryRepositoryWithTx(tx)
	u.futurePriceRepo = newFuturePriceRepositoryWithTx(tx)
	u.settlementCycleRepo = newSettlementCycleRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and flushes the events raised inside it
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	u.tx = nil

	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction. Safe to call after Commit.
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil
	}

	// The caller's context may already be canceled; the rollback must still reach the server
	err := u.tx.Rollback(context.WithoutCancel(u.ctx))
	u.tx = nil
	u.transactionalBus.Discard()

	if err != nil && err != pgx.ErrTxClosed {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}
	return nil
}

// LockForSettlement blocks wager intake and other settlements until the
// transaction ends
func (u *unitOfWork) LockForSettlement(ctx context.Context, timeout time.Duration) error {
	return u.lockTables(ctx, timeout, `LOCK TABLE pending_wagers, price_state IN ACCESS EXCLUSIVE MODE`)
}

// LockForIntake conflicts with the settlement lock only, so concurrent
// intakes never wait on each other
func (u *unitOfWork) LockForIntake(ctx context.Context, timeout time.Duration) error {
	return u.lockTables(ctx, timeout, `LOCK TABLE pending_wagers IN ROW EXCLUSIVE MODE`)
}

func (u *unitOfWork) lockTables(ctx context.Context, timeout time.Duration, statement string) error {
	if u.tx == nil {
		return fmt.Errorf("unit of work not started - call Begin() first")
	}

	// lock_timeout stays in force for every later statement of the transaction
	if _, err := u.tx.Exec(ctx, `SELECT set_config('lock_timeout', $1, true)`, lockTimeoutSetting(timeout)); err != nil {
		return fmt.Errorf("failed to set lock timeout: %w", err)
	}

	start := time.Now()
	if _, err := u.tx.Exec(ctx, statement); err != nil {
		if database.IsLockTimeout(err) {
			log.WithFields(log.Fields{
				"statement": statement,
				"waited":    time.Since(start),
			}).Debug("Lock wait timed out")
			return service.ErrStateLocked
		}
		return fmt.Errorf("failed to acquire table lock: %w", err)
	}
	return nil
}

func lockTimeoutSetting(timeout time.Duration) string {
	if timeout <= 0 {
		return "0"
	}
	ms := timeout.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return fmt.Sprintf("%dms", ms)
}

func (u *unitOfWork) AccountRepository() service.AccountRepository {
	if u.accountRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.accountRepo
}

func (u *unitOfWork) PendingWagerRepository() service.PendingWagerRepository {
	if u.pendingWagerRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.pendingWagerRepo
}

func (u *unitOfWork) WagerHistoryRepository() service.WagerHistoryRepository {
	if u.wagerHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.wagerHistoryRepo
}

func (u *unitOfWork) PriceStateRepository() service.PriceStateRepository {
	if u.priceStateRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.priceStateRepo
}

func (u *unitOfWork) PriceHistoryRepository() service.PriceHistoryRepository {
	if u.priceHistoryRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.priceHistoryRepo
}

func (u *unitOfWork) FuturePriceRepository() service.FuturePriceRepository {
	if u.futurePriceRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.futurePriceRepo
}

func (u *unitOfWork) SettlementCycleRepository() service.SettlementCycleRepository {
	if u.settlementCycleRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.settlementCycleRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
