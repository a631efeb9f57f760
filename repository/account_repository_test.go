package repository

import (
	"context"
	"testing"

	"zhigulbot/repository/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountRepository(t *testing.T) {
	testDB := testutil.SetupTestDatabase(t)
	repo := NewAccountRepository(testDB.DB)
	ctx := context.Background()

	t.Run("missing account", func(t *testing.T) {
		account, err := repo.GetByDiscordID(ctx, 404)
		require.NoError(t, err)
		assert.Nil(t, account)
	})

	t.Run("create then conflict", func(t *testing.T) {
		account, created, err := repo.Create(ctx, 111, "alice", 3000)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, int64(3000), account.Balance)
		assert.Equal(t, "alice", account.Username)

		again, created, err := repo.Create(ctx, 111, "alice-renamed", 9999)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, int64(3000), again.Balance)
		assert.Equal(t, "alice", again.Username)
	})

	t.Run("add balance applies signed delta", func(t *testing.T) {
		_, _, err := repo.Create(ctx, 222, "bob", 3000)
		require.NoError(t, err)

		balance, err := repo.AddBalance(ctx, 222, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(3010), balance)

		balance, err = repo.AddBalance(ctx, 222, -20)
		require.NoError(t, err)
		assert.Equal(t, int64(2990), balance)

		stored, err := repo.GetByDiscordID(ctx, 222)
		require.NoError(t, err)
		assert.Equal(t, int64(2990), stored.Balance)
	})

	t.Run("add balance to unknown account", func(t *testing.T) {
		_, err := repo.AddBalance(ctx, 333, 10)
		assert.ErrorContains(t, err, "not found")
	})
}
