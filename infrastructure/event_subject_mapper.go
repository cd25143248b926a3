package infrastructure

import (
	"fmt"

	"wingo/domain/events"
)

// EventSubjectMapper handles mapping between domain events and NATS subjects
type EventSubjectMapper struct{}

// NewEventSubjectMapper creates a new event subject mapper
func NewEventSubjectMapper() *EventSubjectMapper {
	return &EventSubjectMapper{}
}

var subjectsByEventType = map[events.EventType]string{
	events.EventTypeRoundCreated:            "wingo.rounds.created",
	events.EventTypeRoundSettled:            "wingo.rounds.settled",
	events.EventTypeBetPlaced:               "wingo.bets.placed",
	events.EventTypeBalanceChange:           "wingo.accounts.balance_changed",
	events.EventTypeWithdrawalStatusChanged: "wingo.withdrawals.status_changed",
	events.EventTypeDepositCompleted:        "wingo.deposits.completed",
}

// MapEventToSubject converts a domain event to its NATS subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	if subject, ok := subjectsByEventType[event.Type()]; ok {
		return subject
	}
	return fmt.Sprintf("wingo.unknown.%s", event.Type())
}

// MapSubjectToEventType converts a NATS subject back to an event type
func (m *EventSubjectMapper) MapSubjectToEventType(subject string) events.EventType {
	for eventType, s := range subjectsByEventType {
		if s == subject {
			return eventType
		}
	}
	return events.EventType(subject)
}

// GetAllSubjects returns all subjects this service publishes to
func (m *EventSubjectMapper) GetAllSubjects() []string {
	return []string{
		"wingo.rounds.created",
		"wingo.rounds.settled",
		"wingo.bets.placed",
		"wingo.accounts.balance_changed",
		"wingo.withdrawals.status_changed",
		"wingo.deposits.completed",
	}
}
