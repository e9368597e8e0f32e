package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/metrics"
	"marketplace-app/internal/notify"
	"marketplace-app/internal/payments"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type BidService struct {
	store     ledger.Store
	notifier  notify.Notifier
	publisher events.Publisher
	log       *logrus.Entry
	now       func() time.Time
}

func NewBidService(store ledger.Store, notifier notify.Notifier, publisher events.Publisher, log *logrus.Entry, now func() time.Time) *BidService {
	if now == nil {
		now = time.Now
	}
	return &BidService{store: store, notifier: notifier, publisher: publisher, log: log, now: now}
}

type BidPlaced struct {
	Bid            auctions.Bid `json:"bid"`
	SellerID       uint         `json:"seller_id"`
	PreviousLeader *uint        `json:"previous_leader,omitempty"`
	TotalBids      int          `json:"total_bids"`
}

// PlaceBid records a bid and raises the auction's current bid in one
// transaction. The raise is a single conditional update; if a concurrent bid
// got there first the insert is rolled back and ErrBidTooLow is returned.
func (s *BidService) PlaceBid(ctx context.Context, auctionID string, userID uint, amount decimal.Decimal) (BidPlaced, error) {
	var out BidPlaced
	if !amount.IsPositive() {
		metrics.BidPlaced("rejected")
		return out, apperr.Validation("bid amount must be positive")
	}
	if !payments.WholeCents(amount) {
		metrics.BidPlaced("rejected")
		return out, apperr.Validation("bid amount must have at most two decimal places")
	}

	now := s.now()
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		a, err := tx.LockAuction(auctionID)
		if errors.Is(err, ledger.ErrNotFound) {
			return apperr.NotFound("auction not found")
		}
		if err != nil {
			return err
		}

		switch {
		case a.SellerID == userID:
			return apperr.Authorization("sellers cannot bid on their own auction")
		case a.Status == auctions.StatusEnded || !now.Before(a.EndTime):
			return apperr.ErrAuctionEnded
		case now.Before(a.StartTime):
			return apperr.Validation("auction has not started")
		case !amount.GreaterThan(a.CurrentBid):
			return apperr.ErrBidTooLow
		}

		bid := auctions.Bid{AuctionID: a.ID, UserID: userID, Amount: amount, CreatedAt: now}
		if err := tx.InsertBid(&bid); err != nil {
			return fmt.Errorf("insert bid: %w", err)
		}
		raised, err := tx.RaiseBid(a.ID, userID, amount, now)
		if err != nil {
			return fmt.Errorf("raise bid: %w", err)
		}
		if !raised {
			return apperr.ErrBidTooLow
		}

		out = BidPlaced{
			Bid:            bid,
			SellerID:       a.SellerID,
			PreviousLeader: a.WinnerID,
			TotalBids:      a.TotalBids + 1,
		}
		return nil
	})
	if err != nil {
		metrics.BidPlaced(bidResult(err))
		return BidPlaced{}, err
	}
	metrics.BidPlaced("accepted")

	s.afterBid(ctx, out)
	return out, nil
}

func bidResult(err error) string {
	switch {
	case errors.Is(err, apperr.ErrBidTooLow):
		return "too_low"
	case errors.Is(err, apperr.ErrAuctionEnded):
		return "ended"
	default:
		return "rejected"
	}
}

func (s *BidService) afterBid(ctx context.Context, b BidPlaced) {
	link := "/auctions/" + b.Bid.AuctionID
	amount := b.Bid.Amount.StringFixed(2)
	log := s.log.WithFields(logrus.Fields{"auction_id": b.Bid.AuctionID, "user_id": b.Bid.UserID})

	msgs := []notify.Message{
		{UserID: b.SellerID, Text: fmt.Sprintf("New bid of %s on your auction.", amount), Link: link},
	}
	if b.PreviousLeader != nil && *b.PreviousLeader != b.Bid.UserID {
		msgs = append(msgs, notify.Message{
			UserID: *b.PreviousLeader,
			Text:   fmt.Sprintf("You have been outbid. The current bid is %s.", amount),
			Link:   link,
		})
	}
	notify.Send(ctx, s.notifier, log, msgs...)
	events.Emit(ctx, s.publisher, log, events.SubjectBidPlaced, b)
}

// ListBids returns the auction's bids, highest first.
func (s *BidService) ListBids(ctx context.Context, auctionID string) ([]auctions.Bid, error) {
	var out []auctions.Bid
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		if _, err := tx.GetAuction(auctionID); err != nil {
			if errors.Is(err, ledger.ErrNotFound) {
				return apperr.NotFound("auction not found")
			}
			return err
		}
		var err error
		out, err = tx.ListBids(auctionID)
		return err
	})
	return out, err
}

func (s *BidService) ListAuctions(ctx context.Context, f ledger.AuctionFilter) ([]auctions.Auction, error) {
	var out []auctions.Auction
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListAuctions(f)
		return err
	})
	return out, err
}

type NewAuction struct {
	ArtworkID    string
	StartingBid  decimal.Decimal
	ReservePrice *decimal.Decimal
	StartTime    time.Time
	EndTime      time.Time
}

// CreateAuction lists an available artwork owned by sellerID.
func (s *BidService) CreateAuction(ctx context.Context, sellerID uint, in NewAuction) (auctions.Auction, error) {
	switch {
	case !in.StartingBid.IsPositive():
		return auctions.Auction{}, apperr.Validation("starting bid must be positive")
	case !in.EndTime.After(in.StartTime):
		return auctions.Auction{}, apperr.Validation("end time must be after start time")
	case in.ReservePrice != nil && in.ReservePrice.LessThan(in.StartingBid):
		return auctions.Auction{}, apperr.Validation("reserve price must not be below the starting bid")
	case !payments.WholeCents(in.StartingBid) || (in.ReservePrice != nil && !payments.WholeCents(*in.ReservePrice)):
		return auctions.Auction{}, apperr.Validation("amounts must have at most two decimal places")
	}

	now := s.now()
	a := auctions.Auction{
		ArtworkID:    in.ArtworkID,
		SellerID:     sellerID,
		StartingBid:  in.StartingBid,
		CurrentBid:   in.StartingBid,
		ReservePrice: in.ReservePrice,
		StartTime:    in.StartTime,
		EndTime:      in.EndTime,
		Status:       auctions.StatusUpcoming,
		CreatedAt:    now,
	}
	if !now.Before(in.StartTime) {
		a.Status = auctions.StatusActive
	}

	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		arts, err := tx.LockArtworks([]string{in.ArtworkID})
		if err != nil {
			return err
		}
		if len(arts) == 0 {
			return apperr.NotFound("artwork not found")
		}
		art := arts[0]
		if art.ArtistID != sellerID {
			return apperr.Authorization("only the artist can auction this artwork")
		}
		if art.Status != works.StatusAvailable {
			return apperr.Conflict("artwork is %s", art.Status)
		}
		if err := tx.CreateAuction(&a); err != nil {
			return fmt.Errorf("create auction: %w", err)
		}
		return tx.SetArtworkStatus([]string{art.ID}, works.StatusInAuction)
	})
	if err != nil {
		return auctions.Auction{}, err
	}
	return a, nil
}
