package amqp

import (
	"encoding/json"
	"time"
)

// RowMessage announces a newly created row. It carries only the entity
// kind and id; the consumer loads the full row from the database.
type RowMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRowMessage(entity string, id int64) *RowMessage {
	return &RowMessage{
		Entity:    entity,
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *RowMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RowMessageFromJSON(data []byte) (*RowMessage, error) {
	var msg RowMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
