package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// FuturePriceRepository implements the FuturePriceRepository interface.
// The queue is strictly FIFO by id and every entry is consumed exactly once.
type FuturePriceRepository struct {
	q queryable
}

// NewFuturePriceRepository creates a new future price repository
func NewFuturePriceRepository(db *database.DB) *FuturePriceRepository {
	return &FuturePriceRepository{q: db.Pool}
}

func newFuturePriceRepositoryWithTx(tx queryable) *FuturePriceRepository {
	return &FuturePriceRepository{q: tx}
}

// PopNext deletes the head of the queue and returns it. The delete only
// becomes visible when the surrounding transaction commits, so a rolled
// back cycle leaves the head in place for the next attempt.
func (r *FuturePriceRepository) PopNext(ctx context.Context) (*models.FuturePrice, error) {
	query := `
		DELETE FROM future_prices
		WHERE id = (
			SELECT id FROM future_prices
			ORDER BY id
			LIMIT 1
			FOR UPDATE
		)
		RETURNING id, price::text, created_at
	`

	var entry models.FuturePrice
	var price string
	err := r.q.QueryRow(ctx, query).Scan(&entry.ID, &price, &entry.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pop future price: %w", err)
	}

	if entry.Price, err = parseDecimal("price", price); err != nil {
		return nil, err
	}
	return &entry, nil
}

// Append enqueues prices behind the existing entries, preserving their order
func (r *FuturePriceRepository) Append(ctx context.Context, prices []decimal.Decimal) (int64, error) {
	if len(prices) == 0 {
		return 0, nil
	}

	query := `
		INSERT INTO future_prices (price)
		SELECT p::numeric
		FROM unnest($1::text[]) WITH ORDINALITY AS t(p, ord)
		ORDER BY ord
	`

	result, err := r.q.Exec(ctx, query, decimalStrings(prices))
	if err != nil {
		return 0, fmt.Errorf("failed to enqueue future prices: %w", err)
	}
	return result.RowsAffected(), nil
}

// Count returns the number of unconsumed prices
func (r *FuturePriceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM future_prices`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count future prices: %w", err)
	}
	return count, nil
}
