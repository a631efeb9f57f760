package service

import (
	"zhigulbot/models"

	"github.com/shopspring/decimal"
)

// Payout returns the signed balance change for a wager when the price moves
// from current to next. An unchanged price is a push and pays nothing.
func Payout(direction models.Direction, stake int64, current, next decimal.Decimal) int64 {
	switch cmp := next.Cmp(current); {
	case cmp == 0:
		return 0
	case cmp > 0 && direction == models.DirectionUp:
		return stake
	case cmp > 0:
		return -stake
	case direction == models.DirectionDown:
		return stake
	default:
		return -stake
	}
}
