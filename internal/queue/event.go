// Package queue moves row changes between service instances over RabbitMQ.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/iliyamo/roadready/internal/realtime"
)

// ChangesExchange is the fanout exchange every instance publishes row
// changes to and consumes them from.
const ChangesExchange = "roadready.changes"

// ChangeEvent is the message body on ChangesExchange.  Origin identifies the
// publishing instance in logs.
type ChangeEvent struct {
	Origin string          `json:"origin"`
	Change realtime.Change `json:"change"`
}

// Encode returns the JSON wire form.
func (e ChangeEvent) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeChangeEvent parses a message body.
func DecodeChangeEvent(body []byte) (ChangeEvent, error) {
	var ev ChangeEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if ev.Change.Table == "" || !ev.Change.Type.Valid() {
		return ev, fmt.Errorf("change event without table or type")
	}
	return ev, nil
}
