package auction

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/logging"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) bids() *BidService {
	return NewBidService(f.store, f.notifier, f.events, logging.Discard(), f.clock)
}

func TestPlaceBidRaisesCurrentBid(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, 100, nil)
	f.now = start.Add(10 * time.Minute)

	placed, err := f.bids().PlaceBid(context.Background(), a.ID, userA, dec(150))
	require.NoError(t, err)
	assert.Nil(t, placed.PreviousLeader)

	got := f.auction(t, a.ID)
	assert.True(t, got.CurrentBid.Equal(dec(150)))
	assert.Equal(t, 1, got.TotalBids)
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, userA, *got.WinnerID)

	assert.Len(t, f.inbox(t, sellerID), 1)
	assert.Empty(t, f.inbox(t, userA))
	assert.Equal(t, []string{events.SubjectBidPlaced}, f.events.Subjects())
}

func TestPlaceBidNotifiesOutbidUserButNotSelf(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, 100, nil)
	f.now = start.Add(10 * time.Minute)
	svc := f.bids()

	_, err := svc.PlaceBid(context.Background(), a.ID, userA, dec(150))
	require.NoError(t, err)
	_, err = svc.PlaceBid(context.Background(), a.ID, userA, dec(175))
	require.NoError(t, err)
	assert.Empty(t, f.inbox(t, userA), "raising your own bid is not an outbid")

	placed, err := svc.PlaceBid(context.Background(), a.ID, userB, dec(200))
	require.NoError(t, err)
	require.NotNil(t, placed.PreviousLeader)
	assert.Equal(t, userA, *placed.PreviousLeader)

	inbox := f.inbox(t, userA)
	require.Len(t, inbox, 1)
	assert.Contains(t, inbox[0].Message, "outbid")
	assert.Len(t, f.inbox(t, sellerID), 3)
}

func TestPlaceBidRejections(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, 100, nil)
	svc := f.bids()
	ctx := context.Background()

	f.now = start.Add(10 * time.Minute)
	_, err := svc.PlaceBid(ctx, a.ID, userA, dec(100))
	assert.ErrorIs(t, err, apperr.ErrBidTooLow, "must beat the current bid")

	_, err = svc.PlaceBid(ctx, a.ID, sellerID, dec(500))
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	_, err = svc.PlaceBid(ctx, "nope", userA, dec(500))
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.PlaceBid(ctx, a.ID, userA, decimal.Zero)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = svc.PlaceBid(ctx, a.ID, userA, decimal.RequireFromString("100.004"))
	assert.ErrorIs(t, err, apperr.ErrValidation, "sub-cent bids would round onto the current bid")

	f.now = start.Add(-time.Minute)
	_, err = svc.PlaceBid(ctx, a.ID, userA, dec(500))
	assert.ErrorIs(t, err, apperr.ErrValidation, "not started")

	f.now = start.Add(time.Hour)
	_, err = svc.PlaceBid(ctx, a.ID, userA, dec(500))
	assert.ErrorIs(t, err, apperr.ErrAuctionEnded)
	assert.Equal(t, 409, apperr.HTTPStatus(err))

	got := f.auction(t, a.ID)
	assert.Equal(t, 0, got.TotalBids)
	bids, err := svc.ListBids(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, bids, "rejected bids leave no rows")
}

func TestPlaceBidAfterProcessorClosedAuction(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, 100, nil)
	f.now = start.Add(2 * time.Hour)
	require.NoError(t, f.processor().Run(context.Background()))

	f.now = start.Add(30 * time.Minute)
	_, err := f.bids().PlaceBid(context.Background(), a.ID, userA, dec(500))
	assert.ErrorIs(t, err, apperr.ErrAuctionEnded)
}

func TestConcurrentBidsKeepHighestAmount(t *testing.T) {
	f := newFixture(t)
	a := f.seedAuction(t, 100, nil)
	f.now = start.Add(10 * time.Minute)
	svc := f.bids()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.PlaceBid(context.Background(), a.ID, uint(100+i), dec(int64(100+i*10)))
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperr.ErrBidTooLow)
		}(i)
	}
	wg.Wait()

	got := f.auction(t, a.ID)
	assert.True(t, got.CurrentBid.Equal(dec(300)), got.CurrentBid.String())
	require.NotNil(t, got.WinnerID)
	assert.Equal(t, uint(120), *got.WinnerID)
	assert.Equal(t, accepted, got.TotalBids)

	bids, err := svc.ListBids(context.Background(), a.ID)
	require.NoError(t, err)
	assert.Len(t, bids, accepted)
	assert.True(t, bids[0].Amount.Equal(got.CurrentBid))
}

func TestCreateAuctionRequiresOwnedAvailableArtwork(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var art works.Artwork
	require.NoError(t, f.store.InTx(ctx, func(tx ledger.Tx) error {
		art = works.Artwork{ArtistID: sellerID, Title: "Still Life", Price: dec(800), Status: works.StatusAvailable}
		return tx.CreateArtwork(&art)
	}))
	svc := f.bids()
	in := NewAuction{ArtworkID: art.ID, StartingBid: dec(100), StartTime: start, EndTime: start.Add(time.Hour)}

	_, err := svc.CreateAuction(ctx, userA, in)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)

	created, err := svc.CreateAuction(ctx, sellerID, in)
	require.NoError(t, err)
	assert.Equal(t, auctions.StatusActive, created.Status)
	assert.True(t, created.CurrentBid.Equal(created.StartingBid))
	assert.Equal(t, works.StatusInAuction, f.artwork(t, art.ID).Status)

	_, err = svc.CreateAuction(ctx, sellerID, in)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	low := dec(50)
	in.ReservePrice = &low
	_, err = svc.CreateAuction(ctx, sellerID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	fine := decimal.RequireFromString("150.125")
	in.ReservePrice = &fine
	_, err = svc.CreateAuction(ctx, sellerID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	in.ReservePrice = nil
	in.StartingBid = decimal.RequireFromString("99.999")
	_, err = svc.CreateAuction(ctx, sellerID, in)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
