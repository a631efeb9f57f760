package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/shopspring/decimal"
)

// PriceHistoryRepository implements the PriceHistoryRepository interface
type PriceHistoryRepository struct {
	q queryable
}

// NewPriceHistoryRepository creates a new price history repository
func NewPriceHistoryRepository(db *database.DB) *PriceHistoryRepository {
	return &PriceHistoryRepository{q: db.Pool}
}

func newPriceHistoryRepositoryWithTx(tx queryable) *PriceHistoryRepository {
	return &PriceHistoryRepository{q: tx}
}

// Append adds one snapshot to the history
func (r *PriceHistoryRepository) Append(ctx context.Context, current, predicted decimal.Decimal) error {
	query := `
		INSERT INTO price_history (current_price, predicted_price)
		VALUES ($1::numeric, $2::numeric)
	`

	if _, err := r.q.Exec(ctx, query, current.String(), predicted.String()); err != nil {
		return fmt.Errorf("failed to append price history: %w", err)
	}
	return nil
}

// AppendBatch adds snapshots in order with a single statement
func (r *PriceHistoryRepository) AppendBatch(ctx context.Context, snapshots []*models.PriceSnapshot) (int64, error) {
	if len(snapshots) == 0 {
		return 0, nil
	}

	current := make([]decimal.Decimal, len(snapshots))
	predicted := make([]decimal.Decimal, len(snapshots))
	for i, s := range snapshots {
		current[i] = s.CurrentPrice
		predicted[i] = s.PredictedPrice
	}

	query := `
		INSERT INTO price_history (current_price, predicted_price)
		SELECT c::numeric, p::numeric
		FROM unnest($1::text[], $2::text[]) WITH ORDINALITY AS t(c, p, ord)
		ORDER BY ord
	`

	result, err := r.q.Exec(ctx, query, decimalStrings(current), decimalStrings(predicted))
	if err != nil {
		return 0, fmt.Errorf("failed to append price history batch: %w", err)
	}
	return result.RowsAffected(), nil
}

// GetRecent returns the last limit snapshots, oldest first
func (r *PriceHistoryRepository) GetRecent(ctx context.Context, limit int) ([]*models.PriceSnapshot, error) {
	query := `
		SELECT id, current_price::text, predicted_price::text, created_at
		FROM (
			SELECT id, current_price, predicted_price, created_at
			FROM price_history
			ORDER BY id DESC
			LIMIT $1
		) recent
		ORDER BY id ASC
	`

	var limitArg any
	if limit > 0 {
		limitArg = limit
	}

	rows, err := r.q.Query(ctx, query, limitArg)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.PriceSnapshot
	for rows.Next() {
		var s models.PriceSnapshot
		var current, predicted string
		if err := rows.Scan(&s.ID, &current, &predicted, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan price history: %w", err)
		}
		if s.CurrentPrice, err = parseDecimal("current_price", current); err != nil {
			return nil, err
		}
		if s.PredictedPrice, err = parseDecimal("predicted_price", predicted); err != nil {
			return nil, err
		}
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price history: %w", err)
	}
	return snapshots, nil
}
