// Package payments describes outbound payment-link creation.
package payments

import (
	"context"

	"github.com/shopspring/decimal"
)

type LinkRequest struct {
	AmountMinor int64
	Currency    string
	Description string
	SuccessURL  string
	FailureURL  string
	Metadata    map[string]string
}

// Link is a hosted checkout. ID is the key the provider echoes back in the
// settlement webhook.
type Link struct {
	ID          string
	CheckoutURL string
}

type LinkCreator interface {
	CreateLink(ctx context.Context, req LinkRequest) (Link, error)
}

// WholeCents reports whether amount fits a two-decimal money column without
// rounding.
func WholeCents(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(2))
}

// ToMinorUnits converts a two-decimal amount into integer minor units.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}
