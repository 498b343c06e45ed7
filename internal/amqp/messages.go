package amqp

import (
	"encoding/json"
	"time"
)

// ExtractRequestMessage asks the worker to run extraction for one
// period. Zero year/month mean "current period", resolved by the
// orchestrator at processing time.
type ExtractRequestMessage struct {
	Year      int       `json:"year"`
	Month     int       `json:"month"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExtractRequestMessage(year, month int) *ExtractRequestMessage {
	return &ExtractRequestMessage{
		Year:      year,
		Month:     month,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExtractRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExtractRequestMessageFromJSON creates a message from JSON bytes
func ExtractRequestMessageFromJSON(data []byte) (*ExtractRequestMessage, error) {
	var msg ExtractRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
