package websocket

import (
	"encoding/json"
	"testing"
)

func TestNewEvent_CombinedType(t *testing.T) {
	event := NewEvent(EventTypeCreated, EntityTypeLedgerEntry, map[string]int{"id": 1})

	if event.Type != "ledger_entry.created" {
		t.Errorf("Expected type 'ledger_entry.created', got %s", event.Type)
	}
	if event.Entity != EntityTypeLedgerEntry {
		t.Errorf("Expected entity 'ledger_entry', got %s", event.Entity)
	}
	if event.Timestamp.IsZero() {
		t.Error("Expected timestamp to be set")
	}
}

func TestEvent_ToJSON(t *testing.T) {
	event := TradeCreated(map[string]string{"ticker": "005930"})

	data, err := event.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON() error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}

	if decoded["type"] != "trade.created" {
		t.Errorf("Expected type 'trade.created', got %v", decoded["type"])
	}
	payload, ok := decoded["payload"].(map[string]interface{})
	if !ok {
		t.Fatal("Expected payload to be an object")
	}
	if payload["ticker"] != "005930" {
		t.Errorf("Expected ticker '005930', got %v", payload["ticker"])
	}
}

func TestEventConstructors(t *testing.T) {
	tests := []struct {
		name     string
		event    Event
		wantType string
	}{
		{"account created", AccountCreated(nil), "account.created"},
		{"account updated", AccountUpdated(nil), "account.updated"},
		{"account deleted", AccountDeleted(nil), "account.deleted"},
		{"entry created", EntryCreated(nil), "ledger_entry.created"},
		{"entry updated", EntryUpdated(nil), "ledger_entry.updated"},
		{"entry deleted", EntryDeleted(nil), "ledger_entry.deleted"},
		{"category updated", CategoryUpdated(nil), "category.updated"},
		{"trade created", TradeCreated(nil), "trade.created"},
		{"trade updated", TradeUpdated(nil), "trade.updated"},
		{"trade deleted", TradeDeleted(nil), "trade.deleted"},
		{"quotes refreshed", QuotesRefreshed(nil), "quote.refreshed"},
		{"dca plan executed", DCAPlanExecuted(nil), "dca_plan.executed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.event.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.event.Type)
			}
		})
	}
}
