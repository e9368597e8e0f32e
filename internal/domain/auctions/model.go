package auctions

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

type Auction struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	ArtworkID string `gorm:"type:uuid;not null;index" json:"artwork_id"`
	SellerID  uint   `gorm:"not null;index" json:"seller_id"`

	StartingBid  decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"starting_bid"`
	CurrentBid   decimal.Decimal  `gorm:"type:numeric(12,2);not null" json:"current_bid"`
	ReservePrice *decimal.Decimal `gorm:"type:numeric(12,2)" json:"reserve_price,omitempty"`

	StartTime time.Time `gorm:"not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null;index:idx_auctions_status_end,priority:2" json:"end_time"`
	Status    Status    `gorm:"type:text;not null;default:'upcoming';index:idx_auctions_status_end,priority:1" json:"status"`

	WinnerID  *uint `gorm:"index" json:"winner_id,omitempty"`
	TotalBids int   `gorm:"not null;default:0" json:"total_bids"`
	Watchers  int   `gorm:"not null;default:0" json:"watchers"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MeetsReserve reports whether amount satisfies the reserve price, if any.
func (a *Auction) MeetsReserve(amount decimal.Decimal) bool {
	return a.ReservePrice == nil || amount.GreaterThanOrEqual(*a.ReservePrice)
}

// Bid rows are append-only.
type Bid struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	AuctionID string          `gorm:"type:uuid;not null;index:idx_bids_auction_amount,priority:1" json:"auction_id"`
	UserID    uint            `gorm:"not null;index" json:"user_id"`
	Amount    decimal.Decimal `gorm:"type:numeric(12,2);not null;index:idx_bids_auction_amount,priority:2,sort:desc" json:"amount"`
	CreatedAt time.Time       `gorm:"not null" json:"created_at"`
}

// Outranks reports whether b wins over other: higher amount, then earlier bid.
func (b Bid) Outranks(other Bid) bool {
	if c := b.Amount.Cmp(other.Amount); c != 0 {
		return c > 0
	}
	return b.CreatedAt.Before(other.CreatedAt)
}
