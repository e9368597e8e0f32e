// Package settlement applies payment-provider confirmations to the ledger.
// Every confirmation is applied at most once: the pending record it matches
// is consumed (or flipped to paid) in the same transaction as its effects.
package settlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace-app/internal/apperr"
	"marketplace-app/internal/domain/access"
	"marketplace-app/internal/domain/billing"
	"marketplace-app/internal/domain/commissions"
	"marketplace-app/internal/domain/orders"
	"marketplace-app/internal/domain/works"
	"marketplace-app/internal/events"
	"marketplace-app/internal/ledger"
	"marketplace-app/internal/metrics"
	"marketplace-app/internal/notify"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

var (
	eventTypePaths = []string{"type", "data.attributes.type"}
	linkIDPaths    = []string{"data.object.id", "data.attributes.data.id", "data.id"}
)

type Config struct {
	Secret              string
	AllowTestSignatures bool
	// Tolerance bounds the age of a signed timestamp. Zero disables the check.
	Tolerance       time.Duration
	SucceededEvents []string
	FeeRate         decimal.Decimal
}

type Outcome string

const (
	OutcomePurchase   Outcome = "purchase"
	OutcomeCommission Outcome = "commission"
	OutcomeDuplicate  Outcome = "duplicate"
	OutcomeIgnored    Outcome = "ignored"
)

type Result struct {
	Outcome   Outcome `json:"outcome"`
	EventType string  `json:"event_type,omitempty"`
	LinkID    string  `json:"link_id,omitempty"`
	OrderID   string  `json:"order_id,omitempty"`
	ProjectID string  `json:"project_id,omitempty"`
}

type Handler struct {
	store     ledger.Store
	notifier  notify.Notifier
	publisher events.Publisher
	cfg       Config
	log       *logrus.Entry
	now       func() time.Time
}

func NewHandler(store ledger.Store, notifier notify.Notifier, publisher events.Publisher, cfg Config, log *logrus.Entry, now func() time.Time) *Handler {
	if now == nil {
		now = time.Now
	}
	return &Handler{store: store, notifier: notifier, publisher: publisher, cfg: cfg, log: log, now: now}
}

// settled collects what to announce once the transaction has committed.
type settled struct {
	result   Result
	messages []notify.Message
	artists  []uint
	amount   decimal.Decimal
}

// Handle verifies and applies one webhook delivery. A nil error means the
// delivery should be acknowledged; apperr kinds Signature and Validation are
// permanent; anything else is transient and safe to retry.
func (h *Handler) Handle(ctx context.Context, header string, body []byte) (Result, error) {
	if err := h.verify(header, body); err != nil {
		metrics.WebhookEvent("bad_signature")
		return Result{}, err
	}
	if !gjson.ValidBytes(body) {
		metrics.WebhookEvent("malformed")
		return Result{}, apperr.Validation("payload is not valid JSON")
	}

	eventType := firstString(body, eventTypePaths)
	if !h.succeeded(eventType) {
		metrics.WebhookEvent(string(OutcomeIgnored))
		h.log.WithField("event_type", eventType).Debug("ignoring payment event")
		return Result{Outcome: OutcomeIgnored, EventType: eventType}, nil
	}
	linkID := firstString(body, linkIDPaths)
	if linkID == "" {
		metrics.WebhookEvent("malformed")
		return Result{}, apperr.Validation("payload has no payment link id")
	}

	log := h.log.WithFields(logrus.Fields{"event_type": eventType, "link_id": linkID})
	var out settled
	err := h.store.InTx(ctx, func(tx ledger.Tx) error {
		out = settled{}
		return h.apply(tx, linkID, &out, log)
	})
	switch {
	case errors.Is(err, apperr.ErrDuplicateEvent):
		metrics.WebhookEvent(string(OutcomeDuplicate))
		log.Warn("payment confirmation matched nothing pending; treating as duplicate")
		return Result{Outcome: OutcomeDuplicate, EventType: eventType, LinkID: linkID}, nil
	case err != nil:
		metrics.WebhookEvent("error")
		log.WithError(err).Error("payment settlement failed")
		return Result{}, fmt.Errorf("settle %s: %w", linkID, err)
	}

	out.result.EventType = eventType
	out.result.LinkID = linkID
	metrics.WebhookEvent(string(out.result.Outcome))
	log.WithField("outcome", out.result.Outcome).Info("payment settled")

	notify.Send(ctx, h.notifier, log, out.messages...)
	events.Emit(ctx, h.publisher, log, events.SubjectPaymentSettled, map[string]any{
		"link_id":    linkID,
		"outcome":    out.result.Outcome,
		"order_id":   out.result.OrderID,
		"project_id": out.result.ProjectID,
		"artist_ids": out.artists,
		"amount":     out.amount,
	})
	return out.result, nil
}

func (h *Handler) succeeded(eventType string) bool {
	for _, t := range h.cfg.SucceededEvents {
		if t == eventType {
			return true
		}
	}
	return false
}

func firstString(body []byte, paths []string) string {
	for _, r := range gjson.GetManyBytes(body, paths...) {
		if s := r.String(); r.Exists() && s != "" {
			return s
		}
	}
	return ""
}

func (h *Handler) apply(tx ledger.Tx, linkID string, out *settled, log *logrus.Entry) error {
	pending, err := tx.LockPendingPayment(linkID)
	if err != nil {
		return fmt.Errorf("lock pending payment: %w", err)
	}
	if pending != nil {
		return h.applyPurchase(tx, *pending, out)
	}

	payment, err := tx.LockCommissionPayment(linkID)
	if err != nil {
		return fmt.Errorf("lock commission payment: %w", err)
	}
	if payment == nil || payment.Status != billing.CommissionPaymentPending {
		return apperr.ErrDuplicateEvent
	}
	return h.applyCommission(tx, *payment, out, log)
}

func (h *Handler) applyPurchase(tx ledger.Tx, p billing.PendingPayment, out *settled) error {
	now := h.now()
	items := make([]orders.OrderItem, len(p.Items))
	artworkIDs := make([]string, len(p.Items))
	for i, it := range p.Items {
		items[i] = orders.OrderItem{ArtworkID: it.ArtworkID, Title: it.Title, Price: it.Price}
		artworkIDs[i] = it.ArtworkID
	}
	order := orders.New(p.BuyerID, orders.StatusCompleted, orders.SourcePurchase, p.ID, items)
	if err := tx.CreateOrder(&order); err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	for i, it := range p.Items {
		if err := tx.GrantDigitalAccess(&access.DigitalAssetAccess{
			UserID:    p.BuyerID,
			ArtworkID: it.ArtworkID,
			OrderID:   order.ID,
			CreatedAt: now,
		}); err != nil {
			return fmt.Errorf("grant access: %w", err)
		}

		e := billing.NewEarning(it.ArtistID, billing.SourceArtworkSale, order.Items[i].ID, it.Price, h.cfg.FeeRate)
		e.CreatedAt = now
		if err := tx.InsertEarning(&e); err != nil {
			return fmt.Errorf("insert earning: %w", err)
		}

		out.artists = append(out.artists, it.ArtistID)
		out.messages = append(out.messages, notify.Message{
			UserID: it.ArtistID,
			Text:   fmt.Sprintf("Your artwork %q was sold.", it.Title),
			Link:   "/earnings",
		})
	}

	if err := tx.SetArtworkStatus(artworkIDs, works.StatusSold); err != nil {
		return fmt.Errorf("mark artworks sold: %w", err)
	}
	if err := tx.DeleteCartItems(p.BuyerID, artworkIDs); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	if err := tx.DeletePendingPayment(p.ID); err != nil {
		return fmt.Errorf("consume pending payment: %w", err)
	}

	out.messages = append(out.messages, notify.Message{
		UserID: p.BuyerID,
		Text:   "Your purchase is complete. Your downloads are ready.",
		Link:   "/orders",
	})
	out.amount = order.TotalAmount
	out.result = Result{Outcome: OutcomePurchase, OrderID: order.ID}
	return nil
}

func (h *Handler) applyCommission(tx ledger.Tx, cp billing.CommissionPayment, out *settled, log *logrus.Entry) error {
	now := h.now()
	ok, err := tx.MarkCommissionPaymentPaid(cp.ID, now)
	if err != nil {
		return fmt.Errorf("mark commission payment paid: %w", err)
	}
	if !ok {
		return apperr.ErrDuplicateEvent
	}

	project, err := tx.LockProject(cp.ProjectID)
	if err != nil {
		return fmt.Errorf("lock project %s: %w", cp.ProjectID, err)
	}
	out.result = Result{Outcome: OutcomeCommission, ProjectID: project.ID}
	out.amount = cp.Amount

	if project.Status == commissions.ProjectCancelled {
		// Money arrived for a project nobody is working on any more. Keep the
		// payment recorded and leave the refund to an operator.
		log.WithFields(logrus.Fields{
			"project_id": project.ID,
			"amount":     cp.Amount.StringFixed(2),
		}).Error("payment settled for a cancelled project; manual reconciliation required")
		return nil
	}

	ok, err = tx.SetUpdateStatus(cp.ProjectUpdateID,
		[]commissions.UpdateStatus{commissions.UpdateSubmitted},
		commissions.UpdateApproved, "")
	if err != nil {
		return fmt.Errorf("approve final delivery: %w", err)
	}
	if !ok {
		return fmt.Errorf("final delivery %s is no longer submitted", cp.ProjectUpdateID)
	}
	ok, err = tx.TransitionProject(project.ID,
		commissions.ProjectSources(commissions.ProjectCompleted),
		commissions.ProjectCompleted)
	if err != nil {
		return fmt.Errorf("complete project: %w", err)
	}
	if !ok {
		return fmt.Errorf("project %s is %s and cannot complete", project.ID, project.Status)
	}
	if _, err := tx.TransitionCommission(project.CommissionID,
		commissions.CommissionSources(commissions.CommissionCompleted),
		commissions.CommissionCompleted, nil); err != nil {
		return fmt.Errorf("complete commission: %w", err)
	}

	e := billing.NewEarning(project.ArtistID, billing.SourceCommission, project.ID, cp.Amount, h.cfg.FeeRate)
	e.CreatedAt = now
	if err := tx.InsertEarning(&e); err != nil {
		return fmt.Errorf("insert earning: %w", err)
	}

	link := "/projects/" + project.ID
	out.artists = []uint{project.ArtistID}
	out.messages = []notify.Message{
		{UserID: project.ArtistID, Text: "The client paid for your commission. The project is complete.", Link: link},
		{UserID: project.ClientID, Text: "Payment received. Your commission is complete.", Link: link},
	}
	return nil
}
