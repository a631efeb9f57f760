package common

import (
	"errors"

	"zhigulbot/service"
)

// Stable replies for every rejection a player can hit
const (
	MsgInsufficientBalance = "All the polymers are spent: your balance is below the stake."
	MsgDuplicateWager      = "Bets are placed, no more bets. Your next wager opens when the price moves."
	MsgStateLocked         = "Recalculating the market. Try again in a couple of seconds."
	MsgInvalidChoice       = "Pick up, down or oracle."
	MsgNotSeeded           = "The market has not opened yet."
	MsgGeneric             = "Something went wrong. Please try again."
	MsgFallback            = "Natural language support and general AI arrive after the ICO. Try /bet."
)

// ErrorMessage maps a service error to the text shown to the player.
// Internal errors never leak their details.
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrInsufficientBalance):
		return MsgInsufficientBalance
	case errors.Is(err, service.ErrDuplicateWager):
		return MsgDuplicateWager
	case errors.Is(err, service.ErrStateLocked):
		return MsgStateLocked
	case errors.Is(err, service.ErrInvalidChoice):
		return MsgInvalidChoice
	case errors.Is(err, service.ErrPriceStateMissing):
		return MsgNotSeeded
	default:
		return MsgGeneric
	}
}
