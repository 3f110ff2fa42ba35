package amqp

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// NormalizeReceiptMessage asks the worker to normalize the product names of
// one persisted receipt. Only the ID travels; the worker fetches the receipt
// from storage.
type NormalizeReceiptMessage struct {
	ReceiptID uuid.UUID `json:"receipt_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewNormalizeReceiptMessage(receiptID uuid.UUID) *NormalizeReceiptMessage {
	return &NormalizeReceiptMessage{
		ReceiptID: receiptID,
		Timestamp: time.Now(),
	}
}

func (m *NormalizeReceiptMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func NormalizeReceiptMessageFromJSON(data []byte) (*NormalizeReceiptMessage, error) {
	var msg NormalizeReceiptMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
