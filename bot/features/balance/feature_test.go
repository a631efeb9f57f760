package balance

import (
	"testing"

	"zhigulbot/models"

	"github.com/stretchr/testify/assert"
)

func TestBalanceMessage(t *testing.T) {
	account := &models.Account{DiscordID: 1, Balance: 12500}

	msg := balanceMessage("Trader", account, nil)
	assert.Equal(t, "Trader, your balance: **12,500 bits**", msg)

	pending := &models.PendingWager{Direction: models.DirectionDown, Stake: 10}
	msg = balanceMessage("Trader", account, pending)
	assert.Contains(t, msg, "Open wager: 🚽 down for **10 bits**")
}
