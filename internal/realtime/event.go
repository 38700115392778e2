// Package realtime carries row changes from the write path to connected
// clients.  A Change names a table and event type and holds the row before
// and after the write; subscribers select changes with a Filter.
package realtime

import (
	"context"
	"encoding/json"
	"time"
)

// EventType is the kind of write that produced a change.
type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
	EventAll    EventType = "*"
)

// Valid reports whether e is a concrete event type or the wildcard.
func (e EventType) Valid() bool {
	switch e {
	case EventInsert, EventUpdate, EventDelete, EventAll:
		return true
	}
	return false
}

// Tables that publish changes.
const (
	TableProfiles         = "profiles"
	TableMechanicProfiles = "mechanic_profiles"
	TableVehicles         = "vehicles"
	TableServiceRequests  = "service_requests"
	TableReviews          = "reviews"
	TablePaymentMethods   = "payment_methods"
	TableMessages         = "messages"
)

// Row is a changed record as its JSON object.
type Row map[string]any

// Change is one row-level write.  Old is nil for inserts, New is nil for deletes.
type Change struct {
	Table string    `json:"table"`
	Type  EventType `json:"type"`
	New   Row       `json:"new,omitempty"`
	Old   Row       `json:"old,omitempty"`
	At    time.Time `json:"at"`
}

// Record returns the row a filter is evaluated against.
func (c Change) Record() Row {
	if c.New != nil {
		return c.New
	}
	return c.Old
}

// RowOf converts a model value to a Row through its JSON form so filters
// see the same keys clients do.
func RowOf(v any) (Row, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var r Row
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, err
	}
	return r, nil
}

// NewChange builds a change from model values.  Either side may be nil.
func NewChange(table string, typ EventType, newV, oldV any) (Change, error) {
	c := Change{Table: table, Type: typ, At: time.Now().UTC()}
	var err error
	if newV != nil {
		if c.New, err = RowOf(newV); err != nil {
			return Change{}, err
		}
	}
	if oldV != nil {
		if c.Old, err = RowOf(oldV); err != nil {
			return Change{}, err
		}
	}
	return c, nil
}

// Publisher fans a change out to subscribers, possibly on other instances.
type Publisher interface {
	Publish(ctx context.Context, c Change) error
}
