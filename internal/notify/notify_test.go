package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

type brokenDeliverer struct{}

func (brokenDeliverer) Deliver(context.Context, notifications.Notification) error {
	return errors.New("socket gone")
}

func TestEnqueuePersistsAndDeliversLive(t *testing.T) {
	store := ledger.NewMemoryStore(clock)
	hub := NewHub(logging.Discard())
	client := NewClient(7, nil)
	hub.Register(7, client)

	svc := NewService(store, hub, logging.Discard(), clock)
	n, err := svc.Enqueue(context.Background(), 7, "You won", "/orders")
	require.NoError(t, err)
	assert.NotEmpty(t, n.ID)
	assert.False(t, n.IsRead)
	assert.Equal(t, now, n.CreatedAt)

	select {
	case raw := <-client.send:
		var got notifications.Notification
		require.NoError(t, json.Unmarshal(raw, &got))
		assert.Equal(t, n.ID, got.ID)
	default:
		t.Fatal("expected live delivery")
	}

	list, err := svc.List(context.Background(), 7, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
}

func TestEnqueueIgnoresLiveDeliveryFailure(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore(clock), brokenDeliverer{}, logging.Discard(), clock)

	_, err := svc.Enqueue(context.Background(), 3, "hello", "")
	require.NoError(t, err)

	list, err := svc.List(context.Background(), 3, false)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc := NewService(ledger.NewMemoryStore(clock), nil, logging.Discard(), clock)
	n, err := svc.Enqueue(context.Background(), 3, "hello", "")
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), n.ID, 4)
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), n.ID, 3))
	unread, err := svc.List(context.Background(), 3, true)
	require.NoError(t, err)
	assert.Empty(t, unread)
}

func TestHubDropsSlowClients(t *testing.T) {
	hub := NewHub(logging.Discard())
	c := NewClient(9, nil)
	hub.Register(9, c)

	for i := 0; i < sendBuffer+1; i++ {
		require.NoError(t, hub.Deliver(context.Background(), notifications.Notification{UserID: 9}))
	}
	assert.Empty(t, hub.Lookup(9))

	hub.Unregister(c)
}

type failingNotifier struct{ calls int }

func (f *failingNotifier) Enqueue(context.Context, uint, string, string) (notifications.Notification, error) {
	f.calls++
	return notifications.Notification{}, errors.New("db down")
}

func TestSendSkipsAnonymousAndSwallowsErrors(t *testing.T) {
	f := &failingNotifier{}
	Send(context.Background(), f, logging.Discard(),
		Message{UserID: 1, Text: "a"},
		Message{UserID: 0, Text: "b"},
		Message{UserID: 2, Text: "c"},
	)
	assert.Equal(t, 2, f.calls)
}
