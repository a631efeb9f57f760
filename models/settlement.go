package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SettlementCycle is the audit row written by every committed cycle
type SettlementCycle struct {
	ID               uuid.UUID       `db:"id"`
	PreviousPrice    decimal.Decimal `db:"previous_price"`
	NextPrice        decimal.Decimal `db:"next_price"`
	PredictedPrice   decimal.Decimal `db:"predicted_price"`
	WagersResolved   int             `db:"wagers_resolved"`
	WagersDiscarded  int             `db:"wagers_discarded"`
	NetPayout        int64           `db:"net_payout"`
	ForecastDegraded bool            `db:"forecast_degraded"`
	StartedAt        time.Time       `db:"started_at"`
	CompletedAt      time.Time       `db:"completed_at"`
}

// CycleResult summarises a committed settlement cycle
type CycleResult struct {
	Cycle          *SettlementCycle
	Records        []*WagerRecord
	QueueRemaining int64
}
