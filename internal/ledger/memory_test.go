package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/domain/works"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	store := NewMemoryStore(fixedClock)
	ctx := context.Background()

	art := &works.Artwork{ArtistID: 1, Title: "Dune", Price: decimal.NewFromInt(500), Status: works.StatusAvailable}
	require.NoError(t, store.InTx(ctx, func(tx Tx) error { return tx.CreateArtwork(art) }))

	boom := errors.New("boom")
	err := store.InTx(ctx, func(tx Tx) error {
		if err := tx.SetArtworkStatus([]string{art.ID}, works.StatusSold); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	require.NoError(t, store.InTx(ctx, func(tx Tx) error {
		got, err := tx.GetArtwork(art.ID)
		require.NoError(t, err)
		assert.Equal(t, works.StatusAvailable, got.Status)
		return nil
	}))
}

func TestMemoryStoreHighestBidBreaksTiesByTime(t *testing.T) {
	store := NewMemoryStore(fixedClock)

	require.NoError(t, store.InTx(context.Background(), func(tx Tx) error {
		for _, b := range []auctions.Bid{
			{AuctionID: "a", UserID: 1, Amount: decimal.NewFromInt(300), CreatedAt: t0.Add(2 * time.Minute)},
			{AuctionID: "a", UserID: 2, Amount: decimal.NewFromInt(300), CreatedAt: t0.Add(time.Minute)},
			{AuctionID: "a", UserID: 3, Amount: decimal.NewFromInt(200), CreatedAt: t0},
			{AuctionID: "b", UserID: 4, Amount: decimal.NewFromInt(900), CreatedAt: t0},
		} {
			b := b
			require.NoError(t, tx.InsertBid(&b))
		}

		best, err := tx.HighestBid("a")
		require.NoError(t, err)
		require.NotNil(t, best)
		assert.Equal(t, uint(2), best.UserID)

		none, err := tx.HighestBid("c")
		require.NoError(t, err)
		assert.Nil(t, none)
		return nil
	}))
}

func TestMemoryStoreRaiseBidGuards(t *testing.T) {
	store := NewMemoryStore(fixedClock)

	require.NoError(t, store.InTx(context.Background(), func(tx Tx) error {
		a := &auctions.Auction{
			SellerID: 1, StartingBid: decimal.NewFromInt(100), CurrentBid: decimal.NewFromInt(100),
			StartTime: t0.Add(-time.Hour), EndTime: t0.Add(time.Hour), Status: auctions.StatusActive,
		}
		require.NoError(t, tx.CreateAuction(a))

		ok, err := tx.RaiseBid(a.ID, 5, decimal.NewFromInt(100), t0)
		require.NoError(t, err)
		assert.False(t, ok, "equal amount must not win")

		ok, err = tx.RaiseBid(a.ID, 5, decimal.NewFromInt(150), t0)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = tx.RaiseBid(a.ID, 6, decimal.NewFromInt(500), t0.Add(2*time.Hour))
		require.NoError(t, err)
		assert.False(t, ok, "expired auction")

		got, _ := tx.GetAuction(a.ID)
		assert.Equal(t, 1, got.TotalBids)
		assert.Equal(t, uint(5), *got.WinnerID)
		return nil
	}))
}

func TestMemoryStoreProjectIsUniquePerCommission(t *testing.T) {
	store := NewMemoryStore(fixedClock)

	err := store.InTx(context.Background(), func(tx Tx) error {
		require.NoError(t, tx.CreateProject(&commissions.Project{CommissionID: "c1", ProposalID: "p1"}))
		return tx.CreateProject(&commissions.Project{CommissionID: "c1", ProposalID: "p2"})
	})
	assert.Error(t, err)
}

func TestAuctionFilterMatchAndOrder(t *testing.T) {
	store := NewMemoryStore(fixedClock)
	seller := uint(7)
	min := decimal.NewFromInt(200)

	require.NoError(t, store.InTx(context.Background(), func(tx Tx) error {
		for i, bid := range []int64{100, 300, 250} {
			require.NoError(t, tx.CreateAuction(&auctions.Auction{
				SellerID:   seller,
				CurrentBid: decimal.NewFromInt(bid),
				EndTime:    t0.Add(time.Duration(3-i) * time.Hour),
				Status:     auctions.StatusActive,
			}))
		}
		require.NoError(t, tx.CreateAuction(&auctions.Auction{
			SellerID: 8, CurrentBid: decimal.NewFromInt(900), EndTime: t0, Status: auctions.StatusEnded,
		}))

		got, err := tx.ListAuctions(AuctionFilter{
			Statuses: []auctions.Status{auctions.StatusActive},
			SellerID: &seller,
			MinBid:   &min,
		})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.True(t, got[0].CurrentBid.Equal(decimal.NewFromInt(250)), "ending soonest first")

		got, err = tx.ListAuctions(AuctionFilter{Sort: SortHighestBid, Limit: 1})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.True(t, got[0].CurrentBid.Equal(decimal.NewFromInt(900)))
		return nil
	}))
}
