package service

import "errors"

// Rejections surfaced to players. None of them mutate state, so the
// request may be retried as-is.
var (
	ErrInsufficientBalance = errors.New("insufficient balance for stake")
	ErrDuplicateWager      = errors.New("wager already placed for this cycle")
	ErrStateLocked         = errors.New("settlement in progress")
	ErrInvalidChoice       = errors.New("invalid wager choice")
)

// Settlement and operator errors
var (
	ErrQueueExhausted    = errors.New("future price queue exhausted")
	ErrPriceStateMissing = errors.New("price state not initialized")
	ErrCycleInProgress   = errors.New("settlement cycle already running")
	ErrCycleTooSoon      = errors.New("a cycle already settled in this period")
	ErrEmptyReplenish    = errors.New("no prices to enqueue")
	ErrInvalidPrice      = errors.New("price must be positive")
)
