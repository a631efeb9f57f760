package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeAccountCreated EventType = "account_created"
	EventTypeWagerPlaced    EventType = "wager_placed"
	EventTypeWagerResolved  EventType = "wager_resolved"
	EventTypeCycleSettled   EventType = "cycle_settled"
	EventTypeQueueLow       EventType = "queue_low"
)

// AllEventTypes lists every event type, for subscribers that forward everything
var AllEventTypes = []EventType{
	EventTypeAccountCreated,
	EventTypeWagerPlaced,
	EventTypeWagerResolved,
	EventTypeCycleSettled,
	EventTypeQueueLow,
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// AccountCreatedEvent is emitted when a player is seen for the first time
type AccountCreatedEvent struct {
	DiscordID      int64  `json:"discord_id"`
	Username       string `json:"username"`
	InitialBalance int64  `json:"initial_balance"`
}

func (e AccountCreatedEvent) Type() EventType {
	return EventTypeAccountCreated
}

// WagerPlacedEvent is emitted when a wager enters the pool
type WagerPlacedEvent struct {
	WagerID   int64  `json:"wager_id"`
	DiscordID int64  `json:"discord_id"`
	Direction string `json:"direction"`
	Origin    string `json:"origin"`
	Stake     int64  `json:"stake"`
}

func (e WagerPlacedEvent) Type() EventType {
	return EventTypeWagerPlaced
}

// WagerResolvedEvent is emitted for every wager a cycle settles
type WagerResolvedEvent struct {
	CycleID    uuid.UUID `json:"cycle_id"`
	DiscordID  int64     `json:"discord_id"`
	Direction  string    `json:"direction"`
	Payout     int64     `json:"payout"`
	NewBalance int64     `json:"new_balance"`
}

func (e WagerResolvedEvent) Type() EventType {
	return EventTypeWagerResolved
}

// CycleSettledEvent is emitted once per committed settlement cycle
type CycleSettledEvent struct {
	CycleID          uuid.UUID `json:"cycle_id"`
	PreviousPrice    string    `json:"previous_price"`
	CurrentPrice     string    `json:"current_price"`
	PredictedPrice   string    `json:"predicted_price"`
	WagersResolved   int       `json:"wagers_resolved"`
	Winners          int       `json:"winners"`
	Losers           int       `json:"losers"`
	NetPayout        int64     `json:"net_payout"`
	ForecastDegraded bool      `json:"forecast_degraded"`
	SettledAt        time.Time `json:"settled_at"`
}

func (e CycleSettledEvent) Type() EventType {
	return EventTypeCycleSettled
}

// QueueLowEvent is emitted when the future price queue drops below its watermark
type QueueLowEvent struct {
	Remaining int64 `json:"remaining"`
	Watermark int64 `json:"watermark"`
}

func (e QueueLowEvent) Type() EventType {
	return EventTypeQueueLow
}
