package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/jackc/pgx/v5"
)

// SettlementCycleRepository implements the SettlementCycleRepository interface
type SettlementCycleRepository struct {
	q queryable
}

// NewSettlementCycleRepository creates a new settlement cycle repository
func NewSettlementCycleRepository(db *database.DB) *SettlementCycleRepository {
	return &SettlementCycleRepository{q: db.Pool}
}

func newSettlementCycleRepositoryWithTx(tx queryable) *SettlementCycleRepository {
	return &SettlementCycleRepository{q: tx}
}

// Create records a committed cycle
func (r *SettlementCycleRepository) Create(ctx context.Context, cycle *models.SettlementCycle) error {
	query := `
		INSERT INTO settlement_cycles
		(id, previous_price, next_price, predicted_price, wagers_resolved, wagers_discarded,
		 net_payout, forecast_degraded, started_at)
		VALUES ($1, $2::numeric, $3::numeric, $4::numeric, $5, $6, $7, $8, $9)
		RETURNING completed_at
	`

	err := r.q.QueryRow(ctx, query,
		cycle.ID,
		cycle.PreviousPrice.String(),
		cycle.NextPrice.String(),
		cycle.PredictedPrice.String(),
		cycle.WagersResolved,
		cycle.WagersDiscarded,
		cycle.NetPayout,
		cycle.ForecastDegraded,
		cycle.StartedAt,
	).Scan(&cycle.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to record settlement cycle %s: %w", cycle.ID, err)
	}
	return nil
}

// GetLatest returns the most recently completed cycle
func (r *SettlementCycleRepository) GetLatest(ctx context.Context) (*models.SettlementCycle, error) {
	query := `
		SELECT id, previous_price::text, next_price::text, predicted_price::text,
		       wagers_resolved, wagers_discarded, net_payout, forecast_degraded,
		       started_at, completed_at
		FROM settlement_cycles
		ORDER BY completed_at DESC
		LIMIT 1
	`

	var cycle models.SettlementCycle
	var previous, next, predicted string
	err := r.q.QueryRow(ctx, query).Scan(
		&cycle.ID,
		&previous,
		&next,
		&predicted,
		&cycle.WagersResolved,
		&cycle.WagersDiscarded,
		&cycle.NetPayout,
		&cycle.ForecastDegraded,
		&cycle.StartedAt,
		&cycle.CompletedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest settlement cycle: %w", err)
	}

	if cycle.PreviousPrice, err = parseDecimal("previous_price", previous); err != nil {
		return nil, err
	}
	if cycle.NextPrice, err = parseDecimal("next_price", next); err != nil {
		return nil, err
	}
	if cycle.PredictedPrice, err = parseDecimal("predicted_price", predicted); err != nil {
		return nil, err
	}
	return &cycle, nil
}
