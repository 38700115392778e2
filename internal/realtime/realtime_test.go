package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func requestChange(t *testing.T, typ EventType, id, userID uint64, status, prev string) Change {
	t.Helper()
	newRow := map[string]any{"id": id, "user_id": userID, "status": status}
	var oldRow any
	if prev != "" {
		oldRow = map[string]any{"id": id, "user_id": userID, "status": prev}
	}
	c, err := NewChange(TableServiceRequests, typ, newRow, oldRow)
	require.NoError(t, err)
	return c
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name      string
		table     string
		event     EventType
		predicate string
		want      Filter
		wantErr   bool
	}{
		{"table only", "vehicles", "", "", Filter{Table: "vehicles", Event: EventAll}, false},
		{"eq predicate", "service_requests", "update", "user_id=eq.42",
			Filter{Table: "service_requests", Event: EventUpdate, Column: "user_id", Value: "42"}, false},
		{"value may contain equals", "messages", EventInsert, "body=eq.a=b",
			Filter{Table: "messages", Event: EventInsert, Column: "body", Value: "a=b"}, false},
		{"missing table", "", EventAll, "", Filter{}, true},
		{"unknown event", "vehicles", "UPSERT", "", Filter{}, true},
		{"unsupported operator", "vehicles", EventAll, "year=gt.2000", Filter{}, true},
		{"no column", "vehicles", EventAll, "=eq.1", Filter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.table, tt.event, tt.predicate)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter_Matches(t *testing.T) {
	upd := requestChange(t, EventUpdate, 7, 42, "accepted", "pending")

	assert.True(t, MustFilter(TableServiceRequests, EventAll, "").Matches(upd))
	assert.True(t, MustFilter(TableServiceRequests, EventUpdate, "user_id=eq.42").Matches(upd))
	assert.True(t, MustFilter(TableServiceRequests, EventUpdate, "id=eq.7").Matches(upd))
	assert.False(t, MustFilter(TableServiceRequests, EventUpdate, "user_id=eq.43").Matches(upd))
	assert.False(t, MustFilter(TableServiceRequests, EventInsert, "").Matches(upd))
	assert.False(t, MustFilter(TableVehicles, EventAll, "").Matches(upd))
	assert.False(t, MustFilter(TableServiceRequests, EventAll, "mechanic_id=eq.1").Matches(upd))

	del, err := NewChange(TableVehicles, EventDelete, nil, map[string]any{"id": 3, "user_id": 9})
	require.NoError(t, err)
	assert.True(t, MustFilter(TableVehicles, EventDelete, "user_id=eq.9").Matches(del))
}

func TestHub_DeliversOnlyMatching(t *testing.T) {
	h := NewHub(8)
	defer h.Close()

	mine := h.Subscribe(MustFilter(TableServiceRequests, EventAll, "user_id=eq.42"))
	other := h.Subscribe(MustFilter(TableServiceRequests, EventAll, "user_id=eq.43"))
	defer mine.Close()
	defer other.Close()

	n := h.Broadcast(requestChange(t, EventUpdate, 1, 42, "accepted", "pending"))
	assert.Equal(t, 1, n)

	select {
	case c := <-mine.C():
		assert.Equal(t, "accepted", c.New["status"])
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
	select {
	case c := <-other.C():
		t.Fatalf("unexpected delivery %+v", c)
	default:
	}
}

func TestHub_AddFilter(t *testing.T) {
	h := NewHub(4)
	defer h.Close()

	s := h.Subscribe()
	defer s.Close()
	assert.Equal(t, 0, h.Broadcast(requestChange(t, EventInsert, 1, 1, "pending", "")))

	s.Add(MustFilter(TableServiceRequests, EventInsert, ""))
	assert.Equal(t, 1, h.Broadcast(requestChange(t, EventInsert, 2, 1, "pending", "")))
	assert.Len(t, s.Filters(), 1)
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(4)
	defer h.Close()

	s := h.Subscribe(MustFilter(TableMechanicProfiles, EventInsert, ""))
	s.Close()
	s.Close()

	_, open := <-s.C()
	assert.False(t, open)
	assert.Equal(t, 0, h.Len())
	assert.Equal(t, 0, h.Broadcast(Change{Table: TableMechanicProfiles, Type: EventInsert}))
}

func TestHub_SlowSubscriberDrops(t *testing.T) {
	h := NewHub(2)
	defer h.Close()

	s := h.Subscribe(MustFilter(TableMechanicProfiles, EventAll, ""))
	defer s.Close()

	for i := 0; i < 5; i++ {
		h.Broadcast(Change{Table: TableMechanicProfiles, Type: EventInsert})
	}
	assert.Equal(t, uint64(3), h.Dropped())
	assert.Len(t, s.C(), 2)
}

func TestHub_CloseEndsSubscribers(t *testing.T) {
	h := NewHub(4)
	subs := []*Subscription{
		h.Subscribe(MustFilter(TableVehicles, EventAll, "")),
		h.Subscribe(MustFilter(TableReviews, EventAll, "")),
	}

	var wg sync.WaitGroup
	for _, s := range subs {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			for range s.C() {
			}
		}(s)
	}
	h.Close()
	wg.Wait()

	late := h.Subscribe(MustFilter(TableVehicles, EventAll, ""))
	_, open := <-late.C()
	assert.False(t, open)
	assert.NoError(t, h.Publish(context.Background(), Change{Table: TableVehicles}))
}

func TestHub_ConcurrentPublish(t *testing.T) {
	h := NewHub(1000)
	defer h.Close()
	s := h.Subscribe(MustFilter(TableMessages, EventInsert, ""))
	defer s.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				h.Broadcast(Change{Table: TableMessages, Type: EventInsert})
			}
		}()
	}
	wg.Wait()
	assert.Len(t, s.C(), 500)
}

func TestNotification(t *testing.T) {
	msg, ok := Notification(requestChange(t, EventUpdate, 1, 1, "accepted", "pending"))
	assert.True(t, ok)
	assert.Equal(t, "Service request accepted!", msg)

	_, ok = Notification(requestChange(t, EventUpdate, 1, 1, "accepted", "accepted"))
	assert.False(t, ok)

	_, ok = Notification(requestChange(t, EventInsert, 1, 1, "pending", ""))
	assert.False(t, ok)

	msg, ok = Notification(Change{Table: TableMechanicProfiles, Type: EventInsert, New: Row{"id": 1}})
	assert.True(t, ok)
	assert.Equal(t, "New mechanic available in your area!", msg)

	msg, ok = Notification(Change{Table: TableMessages, Type: EventInsert,
		New: Row{"sender": "mechanic", "mechanic_name": "Quick Fix Auto"}})
	assert.True(t, ok)
	assert.Equal(t, "New message from Quick Fix Auto", msg)

	_, ok = Notification(Change{Table: TableMessages, Type: EventInsert, New: Row{"sender": "user"}})
	assert.False(t, ok)
}
