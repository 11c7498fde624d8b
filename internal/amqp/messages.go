package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	// MessageTransactionCreated asks the worker to mirror a transaction to the ledger.
	MessageTransactionCreated = "transaction.created"
)

// Message is the envelope exchanged through the sync queue. It carries only
// the row id; consumers load the current row from the database.
type Message struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	TransactionID int64     `json:"transaction_id"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewTransactionCreated(transactionID int64) *Message {
	return &Message{
		ID:            uuid.NewString(),
		Type:          MessageTransactionCreated,
		TransactionID: transactionID,
		Timestamp:     time.Now().UTC(),
	}
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func MessageFromJSON(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("message %q has no type", msg.ID)
	}
	return &msg, nil
}
