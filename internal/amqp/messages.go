package amqp

import (
	"encoding/json"
	"time"
)

// EventKind names the ledger mutation that produced an event.
type EventKind string

const (
	EventSaleCreated    EventKind = "sale.created"
	EventSaleUpdated    EventKind = "sale.updated"
	EventSaleDeleted    EventKind = "sale.deleted"
	EventExpenseCreated EventKind = "expense.created"
	EventExpenseUpdated EventKind = "expense.updated"
	EventExpenseDeleted EventKind = "expense.deleted"
	EventCashTopUp      EventKind = "cash.topup"
)

// LedgerEvent is published after a ledger transaction commits. Create and
// update events carry only the entity ID; the journal worker loads the
// current row from storage. Delete and top-up events carry a snapshot,
// since there is no row left to load.
type LedgerEvent struct {
	Kind        EventKind `json:"kind"`
	EntityID    int64     `json:"entity_id,omitempty"`
	Description string    `json:"description,omitempty"`
	AmountCents int64     `json:"amount_cents,omitempty"`
	Method      string    `json:"method,omitempty"`
	Date        string    `json:"date,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

func NewLedgerEvent(kind EventKind, entityID int64) LedgerEvent {
	return LedgerEvent{Kind: kind, EntityID: entityID, Timestamp: time.Now()}
}

func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func LedgerEventFromJSON(data []byte) (LedgerEvent, error) {
	var ev LedgerEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return LedgerEvent{}, err
	}
	return ev, nil
}
