// Package checkout lists artworks for direct sale, keeps buyers' carts and
// opens payment links for digital purchases. The purchase itself is applied
// by settlement once the provider confirms payment.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/cart"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/payments"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type Config struct {
	Currency   string
	SuccessURL string
	FailureURL string
}

type Service struct {
	store ledger.Store
	links payments.LinkCreator
	cfg   Config
	log   *logrus.Entry
	now   func() time.Time
}

func NewService(store ledger.Store, links payments.LinkCreator, cfg Config, log *logrus.Entry, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{store: store, links: links, cfg: cfg, log: log, now: now}
}

type NewArtwork struct {
	Title     string
	Medium    string
	Price     decimal.Decimal
	IsDigital bool
	AssetPath string
}

func (s *Service) CreateArtwork(ctx context.Context, artistID uint, in NewArtwork) (works.Artwork, error) {
	if strings.TrimSpace(in.Title) == "" {
		return works.Artwork{}, apperr.Validation("title is required")
	}
	if !in.Price.IsPositive() {
		return works.Artwork{}, apperr.Validation("price must be positive")
	}
	if in.IsDigital && in.AssetPath == "" {
		return works.Artwork{}, apperr.Validation("digital artworks need an asset")
	}
	a := works.Artwork{
		ArtistID:  artistID,
		Title:     strings.TrimSpace(in.Title),
		Medium:    in.Medium,
		Price:     in.Price.Round(2),
		IsDigital: in.IsDigital,
		AssetPath: in.AssetPath,
		Status:    works.StatusAvailable,
		CreatedAt: s.now(),
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreateArtwork(&a)
	}); err != nil {
		return works.Artwork{}, fmt.Errorf("create artwork: %w", err)
	}
	return a, nil
}

func (s *Service) AddToCart(ctx context.Context, userID uint, artworkID string) (cart.CartItem, error) {
	item := cart.CartItem{UserID: userID, ArtworkID: artworkID, CreatedAt: s.now()}
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		a, err := tx.GetArtwork(artworkID)
		if errors.Is(err, ledger.ErrNotFound) {
			return apperr.NotFound("artwork not found")
		}
		if err != nil {
			return err
		}
		if err := purchasable(tx, userID, a); err != nil {
			return err
		}
		return tx.AddCartItem(&item)
	})
	return item, err
}

func (s *Service) Cart(ctx context.Context, userID uint) ([]cart.CartItem, error) {
	var out []cart.CartItem
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListCartItems(userID)
		return err
	})
	return out, err
}

func purchasable(tx ledger.Tx, buyerID uint, a works.Artwork) error {
	switch {
	case a.ArtistID == buyerID:
		return apperr.Validation("cannot buy your own artwork %q", a.Title)
	case !a.IsDigital:
		return apperr.Validation("%q is not sold digitally", a.Title)
	case a.Status != works.StatusAvailable:
		return apperr.Conflict("%q is %s", a.Title, a.Status)
	}
	owned, err := tx.HasDigitalAccess(buyerID, a.ID)
	if err != nil {
		return err
	}
	if owned {
		return apperr.Conflict("you already own %q", a.Title)
	}
	return nil
}

// StartPurchase opens a payment link for the given digital artworks, or for
// the buyer's cart when none are given, and records the pending payment that
// settlement will consume.
func (s *Service) StartPurchase(ctx context.Context, buyerID uint, artworkIDs []string) (billing.PendingPayment, error) {
	var items []billing.PendingPaymentItem
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		ids := dedupe(artworkIDs)
		if len(ids) == 0 {
			cartItems, err := tx.ListCartItems(buyerID)
			if err != nil {
				return err
			}
			for _, c := range cartItems {
				ids = append(ids, c.ArtworkID)
			}
		}
		if len(ids) == 0 {
			return apperr.Validation("nothing to purchase")
		}

		arts, err := tx.LockArtworks(ids)
		if err != nil {
			return err
		}
		if len(arts) != len(ids) {
			return apperr.NotFound("artwork not found")
		}
		for _, a := range arts {
			if err := purchasable(tx, buyerID, a); err != nil {
				return err
			}
			items = append(items, billing.PendingPaymentItem{
				ArtworkID: a.ID,
				ArtistID:  a.ArtistID,
				Title:     a.Title,
				Price:     a.Price,
			})
		}
		return nil
	})
	if err != nil {
		return billing.PendingPayment{}, err
	}

	total := decimal.Zero
	titles := make([]string, len(items))
	for i, it := range items {
		total = total.Add(it.Price)
		titles[i] = it.Title
	}

	link, err := s.links.CreateLink(ctx, payments.LinkRequest{
		AmountMinor: payments.ToMinorUnits(total),
		Currency:    s.cfg.Currency,
		Description: strings.Join(titles, ", "),
		SuccessURL:  s.cfg.SuccessURL,
		FailureURL:  s.cfg.FailureURL,
		Metadata:    map[string]string{"buyer_id": fmt.Sprint(buyerID)},
	})
	if err != nil {
		return billing.PendingPayment{}, fmt.Errorf("create payment link: %w", err)
	}

	pp := billing.PendingPayment{
		LinkID:      link.ID,
		BuyerID:     buyerID,
		Amount:      total,
		CheckoutURL: link.CheckoutURL,
		Items:       items,
		CreatedAt:   s.now(),
	}
	if err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		return tx.CreatePendingPayment(&pp)
	}); err != nil {
		return billing.PendingPayment{}, fmt.Errorf("record pending payment: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"buyer_id": buyerID,
		"link_id":  pp.LinkID,
		"amount":   total.StringFixed(2),
	}).Info("purchase started")
	return pp, nil
}

func (s *Service) ListOrders(ctx context.Context, buyerID uint) ([]orders.Order, error) {
	var out []orders.Order
	err := s.store.InTx(ctx, func(tx ledger.Tx) error {
		var err error
		out, err = tx.ListOrders(buyerID)
		return err
	})
	return out, err
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
