package stripe

import (
	"context"
	"fmt"
	"strings"

	"marketplace-app/internal/payments"

	"github.com/stripe/stripe-go/v75"
	checkoutsession "github.com/stripe/stripe-go/v75/checkout/session"
)

// CheckoutLinks creates one-off Stripe Checkout Sessions. The session id is
// the link id matched by the settlement webhook.
type CheckoutLinks struct {
	sessions checkoutsession.Client
}

func NewCheckoutLinks(secretKey string) *CheckoutLinks {
	return newCheckoutLinks(stripe.GetBackend(stripe.APIBackend), secretKey)
}

func newCheckoutLinks(b stripe.Backend, secretKey string) *CheckoutLinks {
	return &CheckoutLinks{sessions: checkoutsession.Client{B: b, Key: secretKey}}
}

func (l *CheckoutLinks) CreateLink(ctx context.Context, req payments.LinkRequest) (payments.Link, error) {
	if req.AmountMinor <= 0 {
		return payments.Link{}, fmt.Errorf("amount must be positive, got %d", req.AmountMinor)
	}

	params := &stripe.CheckoutSessionParams{
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.FailureURL),
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(req.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(req.Description),
					},
					UnitAmount: stripe.Int64(req.AmountMinor),
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: req.Metadata,
	}
	params.Context = ctx

	s, err := l.sessions.New(params)
	if err != nil {
		return payments.Link{}, fmt.Errorf("create checkout session: %w", err)
	}
	return payments.Link{ID: s.ID, CheckoutURL: s.URL}, nil
}
