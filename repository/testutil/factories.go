package testutil

import (
	"time"

	"zhigulbot/models"

	"github.com/shopspring/decimal"
)

// Price is a shorthand for decimal literals in tests
func Price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Prices converts literals into a decimal slice
func Prices(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, len(values))
	for i, v := range values {
		out[i] = Price(v)
	}
	return out
}

// CreateTestAccount creates an account with the default starting balance
func CreateTestAccount(discordID int64, username string) *models.Account {
	now := time.Now()
	return &models.Account{
		DiscordID: discordID,
		Username:  username,
		Balance:   3000,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CreateTestAccountWithBalance creates an account with a specific balance
func CreateTestAccountWithBalance(discordID int64, username string, balance int64) *models.Account {
	account := CreateTestAccount(discordID, username)
	account.Balance = balance
	return account
}

// CreateTestPendingWager creates a user-chosen wager with the default stake
func CreateTestPendingWager(discordID int64, direction models.Direction) *models.PendingWager {
	return &models.PendingWager{
		DiscordID: discordID,
		Direction: direction,
		Origin:    models.OriginUser,
		Stake:     10,
		CreatedAt: time.Now(),
	}
}

// CreateTestPriceState creates a price state from string literals
func CreateTestPriceState(previous, current, predicted string) *models.PriceState {
	return &models.PriceState{
		PreviousPrice:  Price(previous),
		CurrentPrice:   Price(current),
		PredictedPrice: Price(predicted),
		UpdatedAt:      time.Now(),
	}
}

// CreateTestHistory creates snapshots with the given current prices and a zero forecast
func CreateTestHistory(currentPrices ...float64) []*models.PriceSnapshot {
	snapshots := make([]*models.PriceSnapshot, len(currentPrices))
	for i, p := range currentPrices {
		snapshots[i] = &models.PriceSnapshot{
			ID:             int64(i + 1),
			CurrentPrice:   decimal.NewFromFloat(p),
			PredictedPrice: decimal.Zero,
		}
	}
	return snapshots
}
