package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"zhigulbot/config"
	"zhigulbot/events"
	"zhigulbot/metrics"
	"zhigulbot/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

// forecastPrecision is the number of decimal places kept from the model output
const forecastPrecision = 6

type settlementService struct {
	uowFactory UnitOfWorkFactory
	forecaster Forecaster
	charts     ChartRefresher
	cfg        *config.Config

	// mu keeps cycles in this process strictly sequential
	mu sync.Mutex
}

// NewSettlementService creates the settlement engine. charts may be nil.
func NewSettlementService(uowFactory UnitOfWorkFactory, forecaster Forecaster, charts ChartRefresher, cfg *config.Config) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		forecaster: forecaster,
		charts:     charts,
		cfg:        cfg,
	}
}

// RunCycle settles every pending wager against the next queued price and
// advances the price state. Either the whole cycle commits or nothing does.
func (s *settlementService) RunCycle(ctx context.Context) (*models.CycleResult, error) {
	if !s.mu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer s.mu.Unlock()

	cycleID := uuid.New()
	start := time.Now()
	logger := log.WithField("cycleID", cycleID)

	result, err := s.settle(ctx, cycleID, start)
	metrics.CycleDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.CyclesTotal.WithLabelValues(cycleOutcome(err)).Inc()
		switch {
		case errors.Is(err, ErrQueueExhausted):
			logger.Error("Future price queue is empty, cycle skipped; replenish the queue")
		case errors.Is(err, ErrStateLocked):
			logger.Warn("Could not lock the wager pool, cycle skipped")
		case errors.Is(err, ErrCycleTooSoon):
			logger.Info("A cycle already settled in this period, skipped")
		default:
			logger.WithError(err).Error("Settlement cycle failed and was rolled back")
		}
		return nil, err
	}
	metrics.CyclesTotal.WithLabelValues("committed").Inc()

	s.afterCommit(ctx, result, logger)
	return result, nil
}

func (s *settlementService) settle(ctx context.Context, cycleID uuid.UUID, start time.Time) (*models.CycleResult, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	if err := uow.LockForSettlement(ctx, s.cfg.SettlementLockTimeout); err != nil {
		return nil, err
	}

	// Checked under the lock, so replicas and manual runs cannot both pass
	latest, err := uow.SettlementCycleRepository().GetLatest(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest cycle: %w", err)
	}
	if latest != nil && start.Sub(latest.StartedAt) < s.cfg.MinCycleSpacing() {
		return nil, ErrCycleTooSoon
	}

	wagers, err := uow.PendingWagerRepository().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}

	state, err := uow.PriceStateRepository().Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read price state: %w", err)
	}
	if state == nil {
		return nil, ErrPriceStateMissing
	}

	next, err := uow.FuturePriceRepository().PopNext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to pop next price: %w", err)
	}
	if next == nil {
		return nil, ErrQueueExhausted
	}

	records, netPayout, err := s.resolveWagers(ctx, uow, cycleID, wagers, state.CurrentPrice, next.Price)
	if err != nil {
		return nil, err
	}

	if err := uow.PriceHistoryRepository().Append(ctx, state.CurrentPrice, state.PredictedPrice); err != nil {
		return nil, fmt.Errorf("failed to append price history: %w", err)
	}

	forecast, degraded := s.forecast(ctx, uow, state.PredictedPrice)

	newState := &models.PriceState{
		PreviousPrice:  state.CurrentPrice,
		CurrentPrice:   next.Price,
		PredictedPrice: forecast,
	}
	if err := uow.PriceStateRepository().Update(ctx, newState); err != nil {
		return nil, fmt.Errorf("failed to update price state: %w", err)
	}

	// Everything read above has been resolved and deleted; anything left is a straggler
	discarded, err := uow.PendingWagerRepository().DeleteAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to clear pending wagers: %w", err)
	}

	remaining, err := uow.FuturePriceRepository().Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count future prices: %w", err)
	}

	cycle := &models.SettlementCycle{
		ID:               cycleID,
		PreviousPrice:    state.CurrentPrice,
		NextPrice:        next.Price,
		PredictedPrice:   forecast,
		WagersResolved:   len(records),
		WagersDiscarded:  int(discarded),
		NetPayout:        netPayout,
		ForecastDegraded: degraded,
		StartedAt:        start,
	}
	if err := uow.SettlementCycleRepository().Create(ctx, cycle); err != nil {
		return nil, err
	}

	winners, losers := countOutcomes(records)
	uow.EventBus().Publish(events.CycleSettledEvent{
		CycleID:          cycleID,
		PreviousPrice:    state.CurrentPrice.String(),
		CurrentPrice:     next.Price.String(),
		PredictedPrice:   forecast.String(),
		WagersResolved:   len(records),
		Winners:          winners,
		Losers:           losers,
		NetPayout:        netPayout,
		ForecastDegraded: degraded,
		SettledAt:        time.Now(),
	})

	if remaining < s.cfg.QueueLowWatermark {
		uow.EventBus().Publish(events.QueueLowEvent{
			Remaining: remaining,
			Watermark: s.cfg.QueueLowWatermark,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.CycleResult{
		Cycle:          cycle,
		Records:        records,
		QueueRemaining: remaining,
	}, nil
}

// resolveWagers pays out, records and removes every wager read at the start of the cycle
func (s *settlementService) resolveWagers(ctx context.Context, uow UnitOfWork, cycleID uuid.UUID, wagers []*models.PendingWager, current, next decimal.Decimal) ([]*models.WagerRecord, int64, error) {
	records := make([]*models.WagerRecord, 0, len(wagers))
	var net int64

	for _, wager := range wagers {
		payout := Payout(wager.Direction, wager.Stake, current, next)

		balance, err := uow.AccountRepository().AddBalance(ctx, wager.DiscordID, payout)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to apply payout for account %d: %w", wager.DiscordID, err)
		}

		record := &models.WagerRecord{
			DiscordID:   wager.DiscordID,
			CycleID:     cycleID,
			Direction:   wager.Direction,
			Origin:      wager.Origin,
			Stake:       wager.Stake,
			Payout:      payout,
			PriceBefore: current,
			PriceAfter:  next,
		}
		if err := uow.WagerHistoryRepository().Create(ctx, record); err != nil {
			return nil, 0, fmt.Errorf("failed to record wager: %w", err)
		}

		if err := uow.PendingWagerRepository().Delete(ctx, wager.ID); err != nil {
			return nil, 0, fmt.Errorf("failed to delete resolved wager: %w", err)
		}

		uow.EventBus().Publish(events.WagerResolvedEvent{
			CycleID:    cycleID,
			DiscordID:  wager.DiscordID,
			Direction:  string(wager.Direction),
			Payout:     payout,
			NewBalance: balance,
		})

		records = append(records, record)
		net += payout
	}
	return records, net, nil
}

// forecast predicts the next price from recent history. On any failure the
// previous forecast is kept and the cycle is marked degraded.
func (s *settlementService) forecast(ctx context.Context, uow UnitOfWork, stale decimal.Decimal) (decimal.Decimal, bool) {
	logger := log.WithField("stalePrediction", stale.String())

	history, err := uow.PriceHistoryRepository().GetRecent(ctx, s.cfg.ForecastDepth)
	if err != nil {
		logger.WithError(err).Warn("Failed to load history for forecast, keeping previous prediction")
		metrics.ForecastFailures.Inc()
		return stale, true
	}

	prices := make([]float64, len(history))
	for i, snapshot := range history {
		prices[i] = snapshot.CurrentPrice.InexactFloat64()
	}

	forecastCtx, cancel := context.WithTimeout(ctx, s.cfg.ForecastTimeout)
	defer cancel()

	value, err := s.forecaster.Forecast(forecastCtx, prices)
	if err == nil && (math.IsNaN(value) || math.IsInf(value, 0)) {
		err = fmt.Errorf("forecast returned %v", value)
	}
	if err != nil {
		logger.WithError(err).Warn("Forecast failed, keeping previous prediction")
		metrics.ForecastFailures.Inc()
		return stale, true
	}

	return decimal.NewFromFloat(value).Round(forecastPrecision), false
}

// afterCommit runs the best-effort work that must not hold the settlement lock
func (s *settlementService) afterCommit(ctx context.Context, result *models.CycleResult, logger *log.Entry) {
	cycle := result.Cycle
	winners, losers := countOutcomes(result.Records)

	for _, r := range result.Records {
		switch {
		case r.Payout > 0:
			metrics.WagersResolved.WithLabelValues("won").Inc()
		case r.Payout < 0:
			metrics.WagersResolved.WithLabelValues("lost").Inc()
		default:
			metrics.WagersResolved.WithLabelValues("push").Inc()
		}
	}
	metrics.WagersDiscarded.Add(float64(cycle.WagersDiscarded))
	metrics.QueueRemaining.Set(float64(result.QueueRemaining))
	metrics.CurrentPrice.Set(cycle.NextPrice.InexactFloat64())

	logger.WithFields(log.Fields{
		"previousPrice":    cycle.PreviousPrice.String(),
		"currentPrice":     cycle.NextPrice.String(),
		"predictedPrice":   cycle.PredictedPrice.String(),
		"resolved":         cycle.WagersResolved,
		"winners":          winners,
		"losers":           losers,
		"netPayout":        cycle.NetPayout,
		"forecastDegraded": cycle.ForecastDegraded,
		"queueRemaining":   result.QueueRemaining,
	}).Info("Settlement cycle committed")

	if cycle.WagersDiscarded > 0 {
		logger.WithField("discarded", cycle.WagersDiscarded).Warn("Pending wagers cleared without resolution")
	}

	if result.QueueRemaining < s.cfg.QueueLowWatermark {
		logger.WithFields(log.Fields{
			"remaining": result.QueueRemaining,
			"watermark": s.cfg.QueueLowWatermark,
		}).Warn("Future price queue is running low")
	}

	if s.charts == nil {
		return
	}
	chartCtx, cancel := context.WithTimeout(ctx, s.cfg.ChartTimeout)
	defer cancel()
	if err := s.charts.Refresh(chartCtx); err != nil {
		metrics.ChartFailures.Inc()
		logger.WithError(err).Warn("Failed to refresh price charts")
	}
}

func countOutcomes(records []*models.WagerRecord) (winners, losers int) {
	for _, r := range records {
		switch {
		case r.Payout > 0:
			winners++
		case r.Payout < 0:
			losers++
		}
	}
	return winners, losers
}

func cycleOutcome(err error) string {
	switch {
	case errors.Is(err, ErrQueueExhausted):
		return "queue_exhausted"
	case errors.Is(err, ErrStateLocked):
		return "locked"
	case errors.Is(err, ErrPriceStateMissing):
		return "not_seeded"
	case errors.Is(err, ErrCycleTooSoon):
		return "too_soon"
	default:
		return "failed"
	}
}
