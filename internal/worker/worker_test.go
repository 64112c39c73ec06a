package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"storefront/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventLog struct {
	processed map[string]bool
	checkErr  error

	Marked []string
}

func newFakeEventLog() *fakeEventLog {
	return &fakeEventLog{processed: make(map[string]bool)}
}

func (l *fakeEventLog) IsEventProcessed(_ context.Context, eventID string) (bool, error) {
	if l.checkErr != nil {
		return false, l.checkErr
	}
	return l.processed[eventID], nil
}

func (l *fakeEventLog) MarkEventProcessed(_ context.Context, eventID, _ string) error {
	l.processed[eventID] = true
	l.Marked = append(l.Marked, eventID)
	return nil
}

// fakeFeed mimics LPUSH followed by LTRIM 0 max-1.
type fakeFeed struct {
	err     error
	entries [][]byte
}

func (f *fakeFeed) PushOrderFeed(_ context.Context, entry []byte, max int) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append([][]byte{entry}, f.entries...)
	if len(f.entries) > max {
		f.entries = f.entries[:max]
	}
	return nil
}

func orderPlaced(eventID, orderID string) *models.OrderPlacedEvent {
	e := &models.OrderPlacedEvent{
		OrderID:      orderID,
		CustomerName: "A",
		Phone:        "123",
		Total:        decimal.NewFromInt(50),
		Currency:     "UAH",
		ItemCount:    1,
	}
	e.EventID = eventID
	e.EventType = models.EventTypeOrderPlaced
	e.Timestamp = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return e
}

func TestHandleOrderPlaced_PushesEntry(t *testing.T) {
	events, feed := newFakeEventLog(), &fakeFeed{}
	w := NewOrderWorker(nil, events, feed, 50)

	err := w.HandleOrderPlaced(context.Background(), orderPlaced("e1", "o1"))

	require.NoError(t, err)
	require.Len(t, feed.entries, 1)
	var entry models.OrderFeedEntry
	require.NoError(t, json.Unmarshal(feed.entries[0], &entry))
	assert.Equal(t, "o1", entry.OrderID)
	assert.Equal(t, "A", entry.CustomerName)
	assert.True(t, entry.Total.Equal(decimal.NewFromInt(50)))
	assert.Equal(t, []string{"e1"}, events.Marked)
}

func TestHandleOrderPlaced_Duplicate(t *testing.T) {
	events, feed := newFakeEventLog(), &fakeFeed{}
	w := NewOrderWorker(nil, events, feed, 50)

	require.NoError(t, w.HandleOrderPlaced(context.Background(), orderPlaced("e1", "o1")))
	require.NoError(t, w.HandleOrderPlaced(context.Background(), orderPlaced("e1", "o1")))

	assert.Len(t, feed.entries, 1)
}

func TestHandleOrderPlaced_FeedCapped(t *testing.T) {
	events, feed := newFakeEventLog(), &fakeFeed{}
	w := NewOrderWorker(nil, events, feed, 3)

	for i, id := range []string{"o1", "o2", "o3", "o4", "o5"} {
		require.NoError(t, w.HandleOrderPlaced(context.Background(), orderPlaced(string(rune('a'+i)), id)))
	}

	require.Len(t, feed.entries, 3)
	var newest models.OrderFeedEntry
	require.NoError(t, json.Unmarshal(feed.entries[0], &newest))
	assert.Equal(t, "o5", newest.OrderID)
}

func TestHandleOrderPlaced_FeedErrorNotMarked(t *testing.T) {
	events, feed := newFakeEventLog(), &fakeFeed{err: errors.New("redis down")}
	w := NewOrderWorker(nil, events, feed, 50)

	err := w.HandleOrderPlaced(context.Background(), orderPlaced("e1", "o1"))

	assert.Error(t, err)
	assert.Empty(t, events.Marked)
}

func TestHandleOrderPlaced_CheckError(t *testing.T) {
	events, feed := newFakeEventLog(), &fakeFeed{}
	events.checkErr = errors.New("db down")
	w := NewOrderWorker(nil, events, feed, 50)

	err := w.HandleOrderPlaced(context.Background(), orderPlaced("e1", "o1"))

	assert.Error(t, err)
	assert.Empty(t, feed.entries)
}
