package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type (
	// Entity names the record kind an event is about.
	Entity string

	// Action names what happened to the record.
	Action string
)

const (
	EntityTransaction Entity = "transaction"
	EntitySplitBill   Entity = "split_bill"
	EntityCategory    Entity = "category"

	ActionCreated Action = "created"
	ActionDeleted Action = "deleted"
)

// RecordChange is the lightweight event envelope. Consumers that need the
// full record fetch it themselves; the store stays the single source of
// truth.
type RecordChange struct {
	EventID   string    `json:"event_id"`
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	RecordID  int64     `json:"record_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordChange(entity Entity, action Action, recordID int64) *RecordChange {
	return &RecordChange{
		EventID:   uuid.NewString(),
		Entity:    entity,
		Action:    action,
		RecordID:  recordID,
		Timestamp: time.Now(),
	}
}

func (m *RecordChange) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordChangeFromJSON(data []byte) (*RecordChange, error) {
	var msg RecordChange
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
