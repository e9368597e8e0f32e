package billing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewEarningSplitsFee(t *testing.T) {
	e := NewEarning(7, SourceArtworkSale, "art-1", decimal.NewFromInt(1200), decimal.RequireFromString("0.15"))

	assert.Equal(t, EarningPendingClearance, e.Status)
	assert.True(t, e.PlatformFee.Equal(decimal.NewFromInt(180)), e.PlatformFee.String())
	assert.True(t, e.NetAmount.Equal(decimal.NewFromInt(1020)), e.NetAmount.String())
	assert.True(t, e.PlatformFee.Add(e.NetAmount).Equal(e.Amount))
}

func TestBalanceOfGroupsByStatus(t *testing.T) {
	rate := decimal.RequireFromString("0.15")
	a := NewEarning(1, SourceArtworkSale, "a", decimal.NewFromInt(100), rate)
	b := NewEarning(1, SourceCommission, "b", decimal.NewFromInt(200), rate)
	b.Status = EarningCleared

	bal := BalanceOf([]ArtistEarning{a, b})

	assert.True(t, bal.PendingClearance.Equal(decimal.NewFromInt(85)))
	assert.True(t, bal.Cleared.Equal(decimal.NewFromInt(170)))
	assert.True(t, bal.PaidOut.IsZero())
}
