package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

type EarningStatus string

const (
	EarningPendingClearance EarningStatus = "pending_clearance"
	EarningCleared          EarningStatus = "cleared"
	EarningPaidOut          EarningStatus = "paid_out"
)

type SourceType string

const (
	SourceArtworkSale SourceType = "artwork_sale"
	SourceCommission  SourceType = "commission"
)

type ArtistEarning struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	ArtistID    uint            `gorm:"not null;index" json:"artist_id"`
	SourceID    string          `gorm:"not null;index" json:"source_id"`
	SourceType  SourceType      `gorm:"type:text;not null" json:"source_type"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	PlatformFee decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"platform_fee"`
	NetAmount   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"net_amount"`
	Status      EarningStatus   `gorm:"type:text;not null;index:idx_earnings_status_created,priority:1" json:"status"`

	CreatedAt time.Time  `gorm:"index:idx_earnings_status_created,priority:2" json:"created_at"`
	ClearedAt *time.Time `json:"cleared_at,omitempty"`
}

// NewEarning splits amount into platform fee and artist net.
func NewEarning(artistID uint, sourceType SourceType, sourceID string, amount, feeRate decimal.Decimal) ArtistEarning {
	fee := amount.Mul(feeRate).Round(2)
	return ArtistEarning{
		ArtistID:    artistID,
		SourceID:    sourceID,
		SourceType:  sourceType,
		Amount:      amount,
		PlatformFee: fee,
		NetAmount:   amount.Sub(fee),
		Status:      EarningPendingClearance,
	}
}

type Balance struct {
	PendingClearance decimal.Decimal `json:"pending_clearance"`
	Cleared          decimal.Decimal `json:"cleared"`
	PaidOut          decimal.Decimal `json:"paid_out"`
}

func BalanceOf(earnings []ArtistEarning) Balance {
	b := Balance{PendingClearance: decimal.Zero, Cleared: decimal.Zero, PaidOut: decimal.Zero}
	for _, e := range earnings {
		switch e.Status {
		case EarningPendingClearance:
			b.PendingClearance = b.PendingClearance.Add(e.NetAmount)
		case EarningCleared:
			b.Cleared = b.Cleared.Add(e.NetAmount)
		case EarningPaidOut:
			b.PaidOut = b.PaidOut.Add(e.NetAmount)
		}
	}
	return b
}
