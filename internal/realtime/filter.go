package realtime

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Filter selects changes by table, event type and an optional equality
// predicate on one column, written "column=eq.value".
type Filter struct {
	Table  string    `json:"table"`
	Event  EventType `json:"event"`
	Column string    `json:"column,omitempty"`
	Value  string    `json:"value,omitempty"`
}

// ParseFilter builds a Filter.  An empty event means every event and an
// empty predicate matches every row of the table.
func ParseFilter(table string, event EventType, predicate string) (Filter, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return Filter{}, fmt.Errorf("table is required")
	}
	if event == "" {
		event = EventAll
	}
	event = EventType(strings.ToUpper(string(event)))
	if !event.Valid() {
		return Filter{}, fmt.Errorf("unknown event %q", event)
	}
	f := Filter{Table: table, Event: event}

	predicate = strings.TrimSpace(predicate)
	if predicate == "" {
		return f, nil
	}
	col, rest, ok := strings.Cut(predicate, "=")
	if !ok || strings.TrimSpace(col) == "" {
		return Filter{}, fmt.Errorf("filter %q: want column=eq.value", predicate)
	}
	val, ok := strings.CutPrefix(rest, "eq.")
	if !ok {
		return Filter{}, fmt.Errorf("filter %q: only eq is supported", predicate)
	}
	f.Column = strings.TrimSpace(col)
	f.Value = val
	return f, nil
}

// MustFilter is ParseFilter for literals known to be valid.
func MustFilter(table string, event EventType, predicate string) Filter {
	f, err := ParseFilter(table, event, predicate)
	if err != nil {
		panic(err)
	}
	return f
}

// String renders f in the form ParseFilter accepts.
func (f Filter) String() string {
	s := f.Table + ":" + string(f.Event)
	if f.Column != "" {
		s += ":" + f.Column + "=eq." + f.Value
	}
	return s
}

// Matches reports whether c satisfies f.
func (f Filter) Matches(c Change) bool {
	if f.Table != c.Table {
		return false
	}
	if f.Event != EventAll && f.Event != "" && f.Event != c.Type {
		return false
	}
	if f.Column == "" {
		return true
	}
	v, ok := c.Record()[f.Column]
	if !ok || v == nil {
		return false
	}
	s, err := cast.ToStringE(v)
	return err == nil && s == f.Value
}
