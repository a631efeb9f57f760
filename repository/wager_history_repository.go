package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// WagerHistoryRepository implements the WagerHistoryRepository interface
type WagerHistoryRepository struct {
	q queryable
}

// NewWagerHistoryRepository creates a new wager history repository
func NewWagerHistoryRepository(db *database.DB) *WagerHistoryRepository {
	return &WagerHistoryRepository{q: db.Pool}
}

func newWagerHistoryRepositoryWithTx(tx queryable) *WagerHistoryRepository {
	return &WagerHistoryRepository{q: tx}
}

const wagerRecordColumns = `
	id, discord_id, cycle_id, direction, origin, stake, payout,
	price_before::text, price_after::text, created_at
`

// Create appends a resolved wager
func (r *WagerHistoryRepository) Create(ctx context.Context, record *models.WagerRecord) error {
	query := `
		INSERT INTO wager_history
		(discord_id, cycle_id, direction, origin, stake, payout, price_before, price_after)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8::numeric)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		record.DiscordID,
		record.CycleID,
		record.Direction,
		record.Origin,
		record.Stake,
		record.Payout,
		record.PriceBefore.String(),
		record.PriceAfter.String(),
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to record wager for account %d: %w", record.DiscordID, err)
	}
	return nil
}

// GetByDiscordID returns an account's most recent resolved wagers, newest first
func (r *WagerHistoryRepository) GetByDiscordID(ctx context.Context, discordID int64, limit int) ([]*models.WagerRecord, error) {
	query := `
		SELECT ` + wagerRecordColumns + `
		FROM wager_history
		WHERE discord_id = $1
		ORDER BY id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, discordID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get wager history for account %d: %w", discordID, err)
	}
	return collectWagerRecords(rows)
}

// GetByCycle returns every wager resolved by a cycle
func (r *WagerHistoryRepository) GetByCycle(ctx context.Context, cycleID uuid.UUID) ([]*models.WagerRecord, error) {
	query := `
		SELECT ` + wagerRecordColumns + `
		FROM wager_history
		WHERE cycle_id = $1
		ORDER BY id
	`

	rows, err := r.q.Query(ctx, query, cycleID)
	if err != nil {
		return nil, fmt.Errorf("failed to get wagers for cycle %s: %w", cycleID, err)
	}
	return collectWagerRecords(rows)
}

func collectWagerRecords(rows pgx.Rows) ([]*models.WagerRecord, error) {
	defer rows.Close()

	var records []*models.WagerRecord
	for rows.Next() {
		var record models.WagerRecord
		var before, after string
		err := rows.Scan(
			&record.ID,
			&record.DiscordID,
			&record.CycleID,
			&record.Direction,
			&record.Origin,
			&record.Stake,
			&record.Payout,
			&before,
			&after,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan wager record: %w", err)
		}
		if record.PriceBefore, err = parseDecimal("price_before", before); err != nil {
			return nil, err
		}
		if record.PriceAfter, err = parseDecimal("price_after", after); err != nil {
			return nil, err
		}
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wager records: %w", err)
	}
	return records, nil
}
