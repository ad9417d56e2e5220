package amqp

import (
	"encoding/json"
	"time"
)

// RenderRequest asks the plot worker to redraw the charts of some years
// after entries changed. An empty Years means every year.
type RenderRequest struct {
	ImportID  string    `json:"import_id"`
	Years     []int     `json:"years,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRenderRequest creates a render request stamped with the current time.
func NewRenderRequest(importID string, years []int) *RenderRequest {
	return &RenderRequest{
		ImportID:  importID,
		Years:     years,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RenderRequest) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RenderRequestFromJSON creates a message from JSON bytes
func RenderRequestFromJSON(data []byte) (*RenderRequest, error) {
	var msg RenderRequest
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
