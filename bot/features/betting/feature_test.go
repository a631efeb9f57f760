package betting

import (
	"testing"
	"time"

	"zhigulbot/models"

	"github.com/stretchr/testify/assert"
)

func TestPlacedMessage(t *testing.T) {
	t.Run("own call", func(t *testing.T) {
		placed := &models.PlacedWager{
			Wager:   &models.PendingWager{Direction: models.DirectionUp, Origin: models.OriginUser, Stake: 10},
			Balance: 2990,
		}
		msg := placedMessage(placed, time.Minute)
		assert.Contains(t, msg, "**10 bits** on 🚀 up.")
		assert.NotContains(t, msg, "oracle")
		assert.Contains(t, msg, "**2,990 bits**")
	})

	t.Run("oracle call", func(t *testing.T) {
		placed := &models.PlacedWager{
			Wager:   &models.PendingWager{Direction: models.DirectionDown, Origin: models.OriginOracle, Stake: 10},
			Balance: 10,
		}
		msg := placedMessage(placed, time.Minute)
		assert.Contains(t, msg, "🚽 down following the oracle")
	})
}

func TestChoicesParse(t *testing.T) {
	for _, c := range Choices {
		_, ok := models.ParseChoice(c.Value.(string))
		assert.True(t, ok, c.Name)
	}
}
