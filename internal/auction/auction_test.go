package auction

import (
	"context"
	"testing"
	"time"

	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/notifications"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"
	"marketplace-app/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const (
	sellerID = uint(1)
	userA    = uint(10)
	userB    = uint(11)
)

var start = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type fixture struct {
	store    *ledger.MemoryStore
	notifier *notify.Service
	events   *events.Recorder
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: start, events: &events.Recorder{}}
	f.store = ledger.NewMemoryStore(f.clock)
	f.notifier = notify.NewService(f.store, nil, logging.Discard(), f.clock)
	return f
}

func (f *fixture) clock() time.Time { return f.now }

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

// seedAuction creates an artwork and an active auction ending one hour after start.
func (f *fixture) seedAuction(t *testing.T, startingBid int64, reserve *int64) auctions.Auction {
	t.Helper()
	var a auctions.Auction
	require.NoError(t, f.store.InTx(context.Background(), func(tx ledger.Tx) error {
		art := works.Artwork{ArtistID: sellerID, Title: "Harbor at Dusk", Price: dec(startingBid), Status: works.StatusInAuction}
		require.NoError(t, tx.CreateArtwork(&art))
		a = auctions.Auction{
			ArtworkID:   art.ID,
			SellerID:    sellerID,
			StartingBid: dec(startingBid),
			CurrentBid:  dec(startingBid),
			StartTime:   start,
			EndTime:     start.Add(time.Hour),
			Status:      auctions.StatusActive,
		}
		if reserve != nil {
			r := dec(*reserve)
			a.ReservePrice = &r
		}
		return tx.CreateAuction(&a)
	}))
	return a
}

func (f *fixture) auction(t *testing.T, id string) auctions.Auction {
	t.Helper()
	var a auctions.Auction
	require.NoError(t, f.store.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		a, err = tx.GetAuction(id)
		return err
	}))
	return a
}

func (f *fixture) artwork(t *testing.T, id string) works.Artwork {
	t.Helper()
	var a works.Artwork
	require.NoError(t, f.store.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		a, err = tx.GetArtwork(id)
		return err
	}))
	return a
}

func (f *fixture) orders(t *testing.T, buyer uint) []orders.Order {
	t.Helper()
	var out []orders.Order
	require.NoError(t, f.store.InTx(context.Background(), func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListOrders(buyer)
		return err
	}))
	return out
}

func (f *fixture) inbox(t *testing.T, user uint) []notifications.Notification {
	t.Helper()
	out, err := f.notifier.List(context.Background(), user, false)
	require.NoError(t, err)
	return out
}
