package infrastructure

import (
	"fmt"

	"zhigulbot/events"
)

// StreamName is the JetStream stream carrying every forwarded event
const StreamName = "zhigul_events"

const (
	SubjectCycleSettled   = "zhigul.cycle.settled"
	SubjectWagerPlaced    = "zhigul.wager.placed"
	SubjectBalanceChanged = "zhigul.balance.changed"
	SubjectAccountCreated = "zhigul.account.created"
	SubjectQueueLow       = "zhigul.queue.low"
)

// SubjectForEvent maps a domain event to its NATS subject
func SubjectForEvent(event events.Event) string {
	switch event.Type() {
	case events.EventTypeCycleSettled:
		return SubjectCycleSettled
	case events.EventTypeWagerPlaced:
		return SubjectWagerPlaced
	case events.EventTypeWagerResolved:
		return SubjectBalanceChanged
	case events.EventTypeAccountCreated:
		return SubjectAccountCreated
	case events.EventTypeQueueLow:
		return SubjectQueueLow
	default:
		return fmt.Sprintf("zhigul.unknown.%s", event.Type())
	}
}

// AllSubjects returns every subject the forwarder publishes to
func AllSubjects() []string {
	return []string{
		SubjectCycleSettled,
		SubjectWagerPlaced,
		SubjectBalanceChanged,
		SubjectAccountCreated,
		SubjectQueueLow,
	}
}
