package models

import "github.com/shopspring/decimal"

// SeedData is the initial price data loaded before the first cycle
type SeedData struct {
	State   *PriceState
	History []*PriceSnapshot
	Future  []decimal.Decimal
}

// SeedResult reports what a seed run stored
type SeedResult struct {
	StateCreated bool
	HistoryRows  int64
	FutureRows   int64
}
