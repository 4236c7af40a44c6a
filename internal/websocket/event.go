package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents the type of event (created, updated, deleted)
type EventType string

const (
	EventTypeCreated   EventType = "created"
	EventTypeUpdated   EventType = "updated"
	EventTypeDeleted   EventType = "deleted"
	EventTypeExecuted  EventType = "executed"
	EventTypeRefreshed EventType = "refreshed"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeAccount     EntityType = "account"
	EntityTypeLedgerEntry EntityType = "ledger_entry"
	EntityTypeCategory    EntityType = "category"
	EntityTypeTrade       EntityType = "trade"
	EntityTypeQuote       EntityType = "quote"
	EntityTypeDCAPlan     EntityType = "dca_plan"
)

// Event represents a WebSocket event message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "ledger_entry.created"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "ledger_entry"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// AccountCreated creates an account.created event
func AccountCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeAccount, payload)
}

// AccountUpdated creates an account.updated event
func AccountUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeAccount, payload)
}

// AccountDeleted creates an account.deleted event
func AccountDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeAccount, payload)
}

// EntryCreated creates a ledger_entry.created event
func EntryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeLedgerEntry, payload)
}

// EntryUpdated creates a ledger_entry.updated event
func EntryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeLedgerEntry, payload)
}

// EntryDeleted creates a ledger_entry.deleted event
func EntryDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeLedgerEntry, payload)
}

// CategoryUpdated creates a category.updated event
func CategoryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCategory, payload)
}

// TradeCreated creates a trade.created event
func TradeCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTrade, payload)
}

// TradeUpdated creates a trade.updated event
func TradeUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTrade, payload)
}

// TradeDeleted creates a trade.deleted event
func TradeDeleted(payload interface{}) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTrade, payload)
}

// QuotesRefreshed creates a quote.refreshed event carrying the refreshed
// quote set so clients can revalue positions without another round trip
func QuotesRefreshed(payload interface{}) Event {
	return NewEvent(EventTypeRefreshed, EntityTypeQuote, payload)
}

// DCAPlanExecuted creates a dca_plan.executed event
func DCAPlanExecuted(payload interface{}) Event {
	return NewEvent(EventTypeExecuted, EntityTypeDCAPlan, payload)
}
