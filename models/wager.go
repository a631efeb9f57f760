package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Direction is the predicted movement of the price
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Valid reports whether d is a known direction
func (d Direction) Valid() bool {
	return d == DirectionUp || d == DirectionDown
}

// Origin records how the direction of a wager was chosen
type Origin string

const (
	OriginUser   Origin = "user"
	OriginOracle Origin = "oracle"
)

// Choice is what a player asks for when placing a wager
type Choice string

const (
	ChoiceUp     Choice = "up"
	ChoiceDown   Choice = "down"
	ChoiceOracle Choice = "oracle"
)

// ParseChoice converts user input into a Choice
func ParseChoice(s string) (Choice, bool) {
	switch Choice(s) {
	case ChoiceUp, ChoiceDown, ChoiceOracle:
		return Choice(s), true
	}
	return "", false
}

// PendingWager is a wager waiting for the next settlement cycle.
// At most one exists per account.
type PendingWager struct {
	ID        int64     `db:"id"`
	DiscordID int64     `db:"discord_id"`
	Direction Direction `db:"direction"`
	Origin    Origin    `db:"origin"`
	Stake     int64     `db:"stake"`
	CreatedAt time.Time `db:"created_at"`
}

// WagerRecord is the immutable outcome of a resolved wager
type WagerRecord struct {
	ID          int64           `db:"id"`
	DiscordID   int64           `db:"discord_id"`
	CycleID     uuid.UUID       `db:"cycle_id"`
	Direction   Direction       `db:"direction"`
	Origin      Origin          `db:"origin"`
	Stake       int64           `db:"stake"`
	Payout      int64           `db:"payout"`
	PriceBefore decimal.Decimal `db:"price_before"`
	PriceAfter  decimal.Decimal `db:"price_after"`
	CreatedAt   time.Time       `db:"created_at"`
}

// Won reports whether the wager paid out
func (r *WagerRecord) Won() bool {
	return r.Payout > 0
}

// PlacedWager is returned to the player after a successful intake
type PlacedWager struct {
	Wager   *PendingWager
	Balance int64
}
