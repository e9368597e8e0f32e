package earnings

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	artistA = uint(50)
	artistB = uint(51)
	window  = 7 * 24 * time.Hour
)

var now = time.Date(2026, 7, 15, 3, 0, 0, 0, time.UTC)

type failingNotifier struct{}

func (failingNotifier) Enqueue(context.Context, uint, string, string) (notifications.Notification, error) {
	return notifications.Notification{}, errors.New("sink down")
}

func seed(t *testing.T, store *ledger.MemoryStore, artist uint, amount int64, age time.Duration) billing.ArtistEarning {
	t.Helper()
	e := billing.NewEarning(artist, billing.SourceArtworkSale, "item", decimal.NewFromInt(amount), decimal.RequireFromString("0.15"))
	e.CreatedAt = now.Add(-age)
	require.NoError(t, store.InTx(context.Background(), func(tx ledger.Tx) error {
		return tx.InsertEarning(&e)
	}))
	return e
}

func byID(t *testing.T, c *Clearance, artist uint) map[string]billing.ArtistEarning {
	t.Helper()
	list, err := c.ListEarnings(context.Background(), artist)
	require.NoError(t, err)
	out := map[string]billing.ArtistEarning{}
	for _, e := range list {
		out[e.ID] = e
	}
	return out
}

func TestClearanceClearsOnlyMatured(t *testing.T) {
	clock := func() time.Time { return now }
	store := ledger.NewMemoryStore(clock)
	rec := &events.Recorder{}
	c := NewClearance(store, failingNotifier{}, rec, window, 10, logging.Discard(), clock)

	old := seed(t, store, artistA, 1000, 8*24*time.Hour)
	edge := seed(t, store, artistB, 400, window)
	fresh := seed(t, store, artistA, 600, 24*time.Hour)

	require.NoError(t, c.Run(context.Background()))

	a := byID(t, c, artistA)
	assert.Equal(t, billing.EarningCleared, a[old.ID].Status)
	require.NotNil(t, a[old.ID].ClearedAt)
	assert.Equal(t, now, *a[old.ID].ClearedAt)
	assert.Equal(t, billing.EarningPendingClearance, a[fresh.ID].Status)
	assert.Equal(t, billing.EarningCleared, byID(t, c, artistB)[edge.ID].Status)
	assert.Equal(t, []string{events.SubjectEarningsCleared}, rec.Subjects())

	bal, err := c.Balance(context.Background(), artistA)
	require.NoError(t, err)
	assert.True(t, bal.Cleared.Equal(decimal.NewFromInt(850)))
	assert.True(t, bal.PendingClearance.Equal(decimal.NewFromInt(510)))
	assert.True(t, bal.PaidOut.IsZero())
}

func TestClearanceNoopWhenNothingMatured(t *testing.T) {
	clock := func() time.Time { return now }
	store := ledger.NewMemoryStore(clock)
	rec := &events.Recorder{}
	c := NewClearance(store, nil, rec, window, 10, logging.Discard(), clock)
	seed(t, store, artistA, 100, time.Hour)

	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, c.Run(context.Background()))
	assert.Empty(t, rec.Subjects())
}

func TestClearanceDrainsAllBatchesInOneRun(t *testing.T) {
	for _, n := range []int{3, 4, 5} {
		t.Run(fmt.Sprintf("%d matured", n), func(t *testing.T) {
			clock := func() time.Time { return now }
			store := ledger.NewMemoryStore(clock)
			rec := &events.Recorder{}
			c := NewClearance(store, nil, rec, window, 2, logging.Discard(), clock)
			for i := 0; i < n; i++ {
				seed(t, store, artistA, 100, 30*24*time.Hour)
			}
			seed(t, store, artistA, 100, time.Hour)

			require.NoError(t, c.Run(context.Background()))
			bal, err := c.Balance(context.Background(), artistA)
			require.NoError(t, err)
			assert.True(t, bal.Cleared.Equal(decimal.NewFromInt(int64(85*n))))
			assert.True(t, bal.PendingClearance.Equal(decimal.NewFromInt(85)))
			require.Len(t, rec.Events(), 1)

			require.NoError(t, c.Run(context.Background()))
			assert.Len(t, rec.Events(), 1, "second run finds nothing")
		})
	}
}

func TestClearanceStopsOnCancelledContext(t *testing.T) {
	clock := func() time.Time { return now }
	store := ledger.NewMemoryStore(clock)
	c := NewClearance(store, nil, nil, window, 2, logging.Discard(), clock)
	seed(t, store, artistA, 100, 30*24*time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, c.Run(ctx), context.Canceled)

	bal, err := c.Balance(context.Background(), artistA)
	require.NoError(t, err)
	assert.True(t, bal.Cleared.IsZero())
}

func TestClearanceName(t *testing.T) {
	c := NewClearance(nil, nil, nil, window, 0, logging.Discard(), nil)
	assert.Equal(t, "earnings-clearance", c.Name())
	assert.Equal(t, defaultBatchSize, c.batchSize)
}
