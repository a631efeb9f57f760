package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"
	"zhigulbot/service"

	"github.com/jackc/pgx/v5"
)

// PendingWagerRepository implements the PendingWagerRepository interface
type PendingWagerRepository struct {
	q queryable
}

// NewPendingWagerRepository creates a new pending wager repository
func NewPendingWagerRepository(db *database.DB) *PendingWagerRepository {
	return &PendingWagerRepository{q: db.Pool}
}

func newPendingWagerRepositoryWithTx(tx queryable) *PendingWagerRepository {
	return &PendingWagerRepository{q: tx}
}

const pendingWagerColumns = `id, discord_id, direction, origin, stake, created_at`

// GetByDiscordID returns the account's open wager, if any
func (r *PendingWagerRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.PendingWager, error) {
	query := `SELECT ` + pendingWagerColumns + ` FROM pending_wagers WHERE discord_id = $1`

	wager, err := scanPendingWager(r.q.QueryRow(ctx, query, discordID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get pending wager for account %d: %w", discordID, err)
	}
	return wager, nil
}

// Create inserts a pending wager
func (r *PendingWagerRepository) Create(ctx context.Context, wager *models.PendingWager) error {
	query := `
		INSERT INTO pending_wagers (discord_id, direction, origin, stake)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.q.QueryRow(ctx, query,
		wager.DiscordID,
		wager.Direction,
		wager.Origin,
		wager.Stake,
	).Scan(&wager.ID, &wager.CreatedAt)
	if database.IsUniqueViolation(err) {
		return service.ErrDuplicateWager
	}
	if err != nil {
		return fmt.Errorf("failed to create pending wager for account %d: %w", wager.DiscordID, err)
	}
	return nil
}

// ListAll returns every open wager in arrival order
func (r *PendingWagerRepository) ListAll(ctx context.Context) ([]*models.PendingWager, error) {
	query := `SELECT ` + pendingWagerColumns + ` FROM pending_wagers ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending wagers: %w", err)
	}
	defer rows.Close()

	var wagers []*models.PendingWager
	for rows.Next() {
		wager, err := scanPendingWager(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan pending wager: %w", err)
		}
		wagers = append(wagers, wager)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pending wagers: %w", err)
	}
	return wagers, nil
}

// Delete removes a single wager
func (r *PendingWagerRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.q.Exec(ctx, `DELETE FROM pending_wagers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete pending wager %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("pending wager %d not found", id)
	}
	return nil
}

// DeleteAll clears the wager pool
func (r *PendingWagerRepository) DeleteAll(ctx context.Context) (int64, error) {
	result, err := r.q.Exec(ctx, `DELETE FROM pending_wagers`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear pending wagers: %w", err)
	}
	return result.RowsAffected(), nil
}

func scanPendingWager(row pgx.Row) (*models.PendingWager, error) {
	var wager models.PendingWager
	err := row.Scan(
		&wager.ID,
		&wager.DiscordID,
		&wager.Direction,
		&wager.Origin,
		&wager.Stake,
		&wager.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &wager, nil
}
