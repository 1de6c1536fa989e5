package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change kinds carried on the snapshot-changed queue.
const (
	ChangeTransaction = "transaction"
	ChangeAccount     = "account"
	ChangeCategory    = "category"
	ChangeRates       = "rates"
	ChangeImport      = "import"
)

// ChangeMessage notifies workers that the persisted store changed.
type ChangeMessage struct {
	Kind      string    `json:"kind"`
	EntityID  string    `json:"entityId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(kind, entityID string) *ChangeMessage {
	return &ChangeMessage{
		Kind:      kind,
		EntityID:  entityID,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal change message: %w", err)
	}
	return data, nil
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal change message: %w", err)
	}
	if msg.Kind == "" {
		return nil, fmt.Errorf("change message missing kind")
	}
	return &msg, nil
}
