// Package auction closes expired auctions and accepts live bids.
package auction

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-app/internal/domain/auctions"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/metrics"
	"marketplace-app/internal/notify"

	"github.com/sirupsen/logrus"
)

const (
	OutcomeSold     = "sold"
	OutcomeNoBids   = "no_bids"
	OutcomeReserve  = "reserve_not_met"
	OutcomeSkipped  = "skipped"
	defaultBatchCap = 200
)

type Processor struct {
	store     ledger.Store
	notifier  notify.Notifier
	publisher events.Publisher
	log       *logrus.Entry
	now       func() time.Time
	batchSize int
}

type ProcessorOption func(*Processor)

func WithBatchSize(n int) ProcessorOption {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

func WithClock(now func() time.Time) ProcessorOption {
	return func(p *Processor) { p.now = now }
}

func NewProcessor(store ledger.Store, notifier notify.Notifier, publisher events.Publisher, log *logrus.Entry, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		log:       log,
		now:       time.Now,
		batchSize: defaultBatchCap,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Closed describes one auction ended by a tick.
type Closed struct {
	AuctionID string `json:"auction_id"`
	ArtworkID string `json:"artwork_id"`
	SellerID  uint   `json:"seller_id"`
	WinnerID  *uint  `json:"winner_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Amount    string `json:"amount,omitempty"`
	Outcome   string `json:"outcome"`
}

func (p *Processor) Name() string { return "auction-close" }

// Run is one tick. Each due auction closes in its own transaction so one
// failure cannot undo the others; failed auctions stay active and are picked
// up again on the next tick.
func (p *Processor) Run(ctx context.Context) error {
	now := p.now()

	var due []string
	err := p.store.InTx(ctx, func(tx ledger.Tx) error {
		activated, err := tx.ActivateDueAuctions(now)
		if err != nil {
			return fmt.Errorf("activate auctions: %w", err)
		}
		if activated > 0 {
			p.log.WithField("count", activated).Info("auctions activated")
		}
		due, err = tx.DueAuctionIDs(now, p.batchSize)
		return err
	})
	if err != nil {
		return fmt.Errorf("select due auctions: %w", err)
	}

	var errs []error
	for _, id := range due {
		closed, err := p.closeOne(ctx, id, now)
		if err != nil {
			p.log.WithError(err).WithField("auction_id", id).Error("closing auction failed")
			errs = append(errs, fmt.Errorf("auction %s: %w", id, err))
			continue
		}
		metrics.AuctionClosed(closed.Outcome)
		if closed.Outcome == OutcomeSkipped {
			continue
		}
		p.afterClose(ctx, closed)
	}
	return errors.Join(errs...)
}

func (p *Processor) closeOne(ctx context.Context, id string, now time.Time) (Closed, error) {
	var out Closed
	err := p.store.InTx(ctx, func(tx ledger.Tx) error {
		a, err := tx.LockAuction(id)
		if err != nil {
			return err
		}
		out = Closed{AuctionID: a.ID, ArtworkID: a.ArtworkID, SellerID: a.SellerID}

		// Re-check under the lock; a concurrent tick may have ended it.
		if a.Status != auctions.StatusActive || a.EndTime.After(now) {
			out.Outcome = OutcomeSkipped
			return nil
		}

		top, err := tx.HighestBid(a.ID)
		if err != nil {
			return fmt.Errorf("highest bid: %w", err)
		}

		if top == nil || !a.MeetsReserve(top.Amount) {
			ended, err := tx.EndAuction(a.ID, nil, now)
			if err != nil {
				return err
			}
			if !ended {
				out.Outcome = OutcomeSkipped
				return nil
			}
			if err := tx.SetArtworkStatus([]string{a.ArtworkID}, works.StatusAvailable); err != nil {
				return fmt.Errorf("release artwork: %w", err)
			}
			switch {
			case top == nil:
				out.Outcome = OutcomeNoBids
			default:
				out.Outcome = OutcomeReserve
			}
			return nil
		}

		winner := top.UserID
		ended, err := tx.EndAuction(a.ID, &winner, now)
		if err != nil {
			return err
		}
		if !ended {
			out.Outcome = OutcomeSkipped
			return nil
		}

		art, err := tx.GetArtwork(a.ArtworkID)
		if err != nil {
			return fmt.Errorf("load artwork %s: %w", a.ArtworkID, err)
		}
		order := orders.New(winner, orders.StatusPendingPayment, orders.SourceAuction, a.ID, []orders.OrderItem{
			{ArtworkID: art.ID, Title: art.Title, Price: top.Amount},
		})
		order.CreatedAt = now
		if err := tx.CreateOrder(&order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		if err := tx.SetArtworkStatus([]string{art.ID}, works.StatusSold); err != nil {
			return fmt.Errorf("mark artwork sold: %w", err)
		}

		out.WinnerID = &winner
		out.OrderID = order.ID
		out.Amount = top.Amount.StringFixed(2)
		out.Outcome = OutcomeSold
		return nil
	})
	return out, err
}

func (p *Processor) afterClose(ctx context.Context, c Closed) {
	link := "/auctions/" + c.AuctionID
	log := p.log.WithFields(logrus.Fields{"auction_id": c.AuctionID, "outcome": c.Outcome})

	switch c.Outcome {
	case OutcomeSold:
		notify.Send(ctx, p.notifier, log,
			notify.Message{UserID: *c.WinnerID, Text: fmt.Sprintf("You won the auction with a bid of %s. Complete your payment to claim the artwork.", c.Amount), Link: "/orders"},
			notify.Message{UserID: c.SellerID, Text: fmt.Sprintf("Your auction ended with a winning bid of %s.", c.Amount), Link: link},
		)
	case OutcomeReserve:
		notify.Send(ctx, p.notifier, log,
			notify.Message{UserID: c.SellerID, Text: "Your auction ended without meeting the reserve price.", Link: link})
	case OutcomeNoBids:
		notify.Send(ctx, p.notifier, log,
			notify.Message{UserID: c.SellerID, Text: "Your auction ended with no bids.", Link: link})
	}

	events.Emit(ctx, p.publisher, log, events.SubjectAuctionClosed, c)
	log.Info("auction closed")
}
