package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/jackc/pgx/v5"
)

// PriceStateRepository implements the PriceStateRepository interface
type PriceStateRepository struct {
	q queryable
}

// NewPriceStateRepository creates a new price state repository
func NewPriceStateRepository(db *database.DB) *PriceStateRepository {
	return &PriceStateRepository{q: db.Pool}
}

func newPriceStateRepositoryWithTx(tx queryable) *PriceStateRepository {
	return &PriceStateRepository{q: tx}
}

// Get returns the singleton price state
func (r *PriceStateRepository) Get(ctx context.Context) (*models.PriceState, error) {
	query := `
		SELECT previous_price::text, current_price::text, predicted_price::text, updated_at
		FROM price_state
		WHERE id = 1
	`

	var previous, current, predicted string
	var state models.PriceState
	err := r.q.QueryRow(ctx, query).Scan(&previous, &current, &predicted, &state.UpdatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get price state: %w", err)
	}

	if state.PreviousPrice, err = parseDecimal("previous_price", previous); err != nil {
		return nil, err
	}
	if state.CurrentPrice, err = parseDecimal("current_price", current); err != nil {
		return nil, err
	}
	if state.PredictedPrice, err = parseDecimal("predicted_price", predicted); err != nil {
		return nil, err
	}
	return &state, nil
}

// Update overwrites the singleton price state
func (r *PriceStateRepository) Update(ctx context.Context, state *models.PriceState) error {
	query := `
		UPDATE price_state
		SET previous_price = $1::numeric,
		    current_price = $2::numeric,
		    predicted_price = $3::numeric,
		    updated_at = NOW()
		WHERE id = 1
		RETURNING updated_at
	`

	err := r.q.QueryRow(ctx, query,
		state.PreviousPrice.String(),
		state.CurrentPrice.String(),
		state.PredictedPrice.String(),
	).Scan(&state.UpdatedAt)
	if err == pgx.ErrNoRows {
		return fmt.Errorf("price state not initialized")
	}
	if err != nil {
		return fmt.Errorf("failed to update price state: %w", err)
	}
	return nil
}

// Initialize stores the first price state, leaving an existing one untouched
func (r *PriceStateRepository) Initialize(ctx context.Context, state *models.PriceState) (bool, error) {
	query := `
		INSERT INTO price_state (id, previous_price, current_price, predicted_price)
		VALUES (1, $1::numeric, $2::numeric, $3::numeric)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.q.Exec(ctx, query,
		state.PreviousPrice.String(),
		state.CurrentPrice.String(),
		state.PredictedPrice.String(),
	)
	if err != nil {
		return false, fmt.Errorf("failed to initialize price state: %w", err)
	}
	return result.RowsAffected() == 1, nil
}
