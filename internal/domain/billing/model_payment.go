package billing

import (
	"time"

	"github.com/shopspring/decimal"
)

// PendingPayment is a digital-artwork checkout awaiting provider confirmation.
// Settlement deletes it in the same transaction that applies its effects.
type PendingPayment struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	LinkID      string          `gorm:"not null;uniqueIndex" json:"link_id"`
	BuyerID     uint            `gorm:"not null;index" json:"buyer_id"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	CheckoutURL string          `json:"checkout_url"`

	Items []PendingPaymentItem `gorm:"foreignKey:PendingPaymentID;constraint:OnDelete:CASCADE;" json:"items"`

	CreatedAt time.Time `json:"created_at"`
}

type PendingPaymentItem struct {
	ID               string          `gorm:"type:uuid;primaryKey" json:"id"`
	PendingPaymentID string          `gorm:"type:uuid;not null;index" json:"pending_payment_id"`
	ArtworkID        string          `gorm:"type:uuid;not null" json:"artwork_id"`
	ArtistID         uint            `gorm:"not null" json:"artist_id"`
	Title            string          `gorm:"not null" json:"title"`
	Price            decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

type CommissionPaymentStatus string

const (
	CommissionPaymentPending CommissionPaymentStatus = "pending"
	CommissionPaymentPaid    CommissionPaymentStatus = "paid"
)

type CommissionPayment struct {
	ID              string                  `gorm:"type:uuid;primaryKey" json:"id"`
	LinkID          string                  `gorm:"not null;uniqueIndex" json:"link_id"`
	ProjectID       string                  `gorm:"type:uuid;not null;index" json:"project_id"`
	ProjectUpdateID string                  `gorm:"type:uuid;not null" json:"project_update_id"`
	Amount          decimal.Decimal         `gorm:"type:numeric(12,2);not null" json:"amount"`
	Status          CommissionPaymentStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	CheckoutURL     string                  `json:"checkout_url"`
	PaidAt          *time.Time              `json:"paid_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
