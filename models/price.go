package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceState is the singleton current view of the price signal
type PriceState struct {
	PreviousPrice  decimal.Decimal `db:"previous_price"`
	CurrentPrice   decimal.Decimal `db:"current_price"`
	PredictedPrice decimal.Decimal `db:"predicted_price"`
	UpdatedAt      time.Time       `db:"updated_at"`
}

// OracleDirection is the direction the forecast recommends
func (s *PriceState) OracleDirection() Direction {
	if s.CurrentPrice.GreaterThanOrEqual(s.PredictedPrice) {
		return DirectionDown
	}
	return DirectionUp
}

// PriceSnapshot is one append-only row of price history
type PriceSnapshot struct {
	ID             int64           `db:"id"`
	CurrentPrice   decimal.Decimal `db:"current_price"`
	PredictedPrice decimal.Decimal `db:"predicted_price"`
	CreatedAt      time.Time       `db:"created_at"`
}

// FuturePrice is an entry of the pre-seeded price queue
type FuturePrice struct {
	ID        int64           `db:"id"`
	Price     decimal.Decimal `db:"price"`
	CreatedAt time.Time       `db:"created_at"`
}
