// Package earnings matures artist earnings once their clearance window has
// passed and reports balances.
package earnings

import (
	"context"
	"fmt"
	"time"

	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/metrics"
	"marketplace-app/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const defaultBatchSize = 500

type Clearance struct {
	store     ledger.Store
	notifier  notify.Notifier
	publisher events.Publisher
	window    time.Duration
	batchSize int
	log       *logrus.Entry
	now       func() time.Time
}

func NewClearance(store ledger.Store, notifier notify.Notifier, publisher events.Publisher, window time.Duration, batchSize int, log *logrus.Entry, now func() time.Time) *Clearance {
	if now == nil {
		now = time.Now
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Clearance{
		store:     store,
		notifier:  notifier,
		publisher: publisher,
		window:    window,
		batchSize: batchSize,
		log:       log,
		now:       now,
	}
}

func (c *Clearance) Name() string { return "earnings-clearance" }

// Run clears every matured earning, one batch per transaction, until a
// batch comes back short. Earnings created after the cutoff, or already
// cleared, are left untouched. Batches committed before a failure stay
// cleared and are still announced.
func (c *Clearance) Run(ctx context.Context) error {
	now := c.now()
	cutoff := now.Add(-c.window)

	var (
		cleared []billing.ArtistEarning
		runErr  error
	)
	for {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		batch, err := c.clearBatch(ctx, cutoff, now)
		if err != nil {
			runErr = err
			break
		}
		cleared = append(cleared, batch...)
		if len(batch) < c.batchSize {
			break
		}
	}
	if len(cleared) == 0 {
		if runErr == nil {
			c.log.Debug("no earnings to clear")
		}
		return runErr
	}
	c.announce(ctx, cleared)
	return runErr
}

func (c *Clearance) clearBatch(ctx context.Context, cutoff, now time.Time) ([]billing.ArtistEarning, error) {
	var cleared []billing.ArtistEarning
	err := c.store.InTx(ctx, func(tx ledger.Tx) error {
		due, err := tx.LockMaturedEarnings(cutoff, c.batchSize)
		if err != nil {
			return fmt.Errorf("lock matured earnings: %w", err)
		}
		if len(due) == 0 {
			return nil
		}
		ids := make([]string, len(due))
		for i, e := range due {
			ids[i] = e.ID
		}
		n, err := tx.MarkEarningsCleared(ids, now)
		if err != nil {
			return fmt.Errorf("mark earnings cleared: %w", err)
		}
		if n != int64(len(ids)) {
			return fmt.Errorf("cleared %d of %d locked earnings", n, len(ids))
		}
		cleared = due
		return nil
	})
	return cleared, err
}

func (c *Clearance) announce(ctx context.Context, cleared []billing.ArtistEarning) {
	metrics.EarningsCleared(len(cleared))

	totals := map[uint]decimal.Decimal{}
	var order []uint
	for _, e := range cleared {
		if _, ok := totals[e.ArtistID]; !ok {
			order = append(order, e.ArtistID)
			totals[e.ArtistID] = decimal.Zero
		}
		totals[e.ArtistID] = totals[e.ArtistID].Add(e.NetAmount)
	}
	msgs := make([]notify.Message, 0, len(order))
	for _, artist := range order {
		msgs = append(msgs, notify.Message{
			UserID: artist,
			Text:   fmt.Sprintf("%s of your earnings have cleared and are available for payout.", totals[artist].StringFixed(2)),
			Link:   "/earnings",
		})
	}
	notify.Send(ctx, c.notifier, c.log, msgs...)
	events.Emit(ctx, c.publisher, c.log, events.SubjectEarningsCleared, map[string]any{
		"count":   len(cleared),
		"artists": order,
	})

	c.log.WithFields(logrus.Fields{"count": len(cleared), "artists": len(order)}).Info("earnings cleared")
}

func (c *Clearance) ListEarnings(ctx context.Context, artistID uint) ([]billing.ArtistEarning, error) {
	var out []billing.ArtistEarning
	err := c.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListEarnings(artistID)
		return err
	})
	return out, err
}

func (c *Clearance) Balance(ctx context.Context, artistID uint) (billing.Balance, error) {
	list, err := c.ListEarnings(ctx, artistID)
	if err != nil {
		return billing.Balance{}, err
	}
	return billing.BalanceOf(list), nil
}
