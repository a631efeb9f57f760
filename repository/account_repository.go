package repository

import (
	"context"
	"fmt"

	"zhigulbot/database"
	"zhigulbot/models"

	"github.com/jackc/pgx/v5"
)

// AccountRepository implements the AccountRepository interface
type AccountRepository struct {
	q queryable
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *database.DB) *AccountRepository {
	return &AccountRepository{q: db.Pool}
}

func newAccountRepositoryWithTx(tx queryable) *AccountRepository {
	return &AccountRepository{q: tx}
}

// GetByDiscordID retrieves an account by Discord ID
func (r *AccountRepository) GetByDiscordID(ctx context.Context, discordID int64) (*models.Account, error) {
	query := `
		SELECT discord_id, username, balance, created_at, updated_at
		FROM accounts
		WHERE discord_id = $1
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, discordID).Scan(
		&account.DiscordID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account %d: %w", discordID, err)
	}

	return &account, nil
}

// Create inserts a new account. Concurrent first contacts race on the
// primary key; the loser reads the winner's row and reports created=false.
func (r *AccountRepository) Create(ctx context.Context, discordID int64, username string, initialBalance int64) (*models.Account, bool, error) {
	query := `
		INSERT INTO accounts (discord_id, username, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (discord_id) DO NOTHING
		RETURNING discord_id, username, balance, created_at, updated_at
	`

	var account models.Account
	err := r.q.QueryRow(ctx, query, discordID, username, initialBalance).Scan(
		&account.DiscordID,
		&account.Username,
		&account.Balance,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		existing, getErr := r.GetByDiscordID(ctx, discordID)
		if getErr != nil {
			return nil, false, getErr
		}
		if existing == nil {
			return nil, false, fmt.Errorf("account %d vanished after insert conflict", discordID)
		}
		return existing, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to create account %d: %w", discordID, err)
	}

	return &account, true, nil
}

// AddBalance applies a signed delta to an account balance
func (r *AccountRepository) AddBalance(ctx context.Context, discordID int64, delta int64) (int64, error) {
	query := `
		UPDATE accounts
		SET balance = balance + $1
		WHERE discord_id = $2
		RETURNING balance
	`

	var balance int64
	err := r.q.QueryRow(ctx, query, delta, discordID).Scan(&balance)
	if err == pgx.ErrNoRows {
		return 0, fmt.Errorf("account %d not found", discordID)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to update balance for account %d: %w", discordID, err)
	}

	return balance, nil
}
