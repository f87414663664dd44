package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"billing/internal/core"
)

// Operations carried by RecordChangedMessage.
const (
	OperationCreate = "create"
	OperationUpdate = "update"
	OperationDelete = "delete"
)

// RecordChangedMessage announces that a record in a category was written.
// It carries no row data; consumers reload the category from the database.
// ID is 0 when several rows changed at once.
type RecordChangedMessage struct {
	Category  core.Category `json:"category"`
	Operation string        `json:"operation"`
	ID        int64         `json:"id"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewRecordChangedMessage(category core.Category, operation string, id int64) *RecordChangedMessage {
	return &RecordChangedMessage{
		Category:  category,
		Operation: operation,
		ID:        id,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RecordChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordChangedMessageFromJSON decodes and validates a message body.
func RecordChangedMessageFromJSON(data []byte) (*RecordChangedMessage, error) {
	var msg RecordChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if _, err := core.ParseCategory(string(msg.Category)); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	switch msg.Operation {
	case OperationCreate, OperationUpdate, OperationDelete:
	default:
		return nil, fmt.Errorf("invalid message: unknown operation %q", msg.Operation)
	}
	return &msg, nil
}
