package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event kinds. The export worker treats every kind the same way: the
// projection is stale and must be rewritten.
const (
	EventTransactionRecorded = "transaction.recorded"
	EventTransactionUpdated  = "transaction.updated"
	EventTransactionDeleted  = "transaction.deleted"
	EventAccountDeleted      = "account.deleted"
	EventCategoryDeleted     = "category.deleted"
)

// LedgerEventMessage is a lightweight change notification. It carries only
// the event kind and entity ID; consumers re-read state from the database.
type LedgerEventMessage struct {
	Kind      string    `json:"kind"`
	EntityID  int64     `json:"entity_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(kind string, entityID int64) *LedgerEventMessage {
	return &LedgerEventMessage{
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventMessageFromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
