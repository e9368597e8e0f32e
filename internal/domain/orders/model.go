package orders

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusProcessing     Status = "processing"
	StatusCompleted      Status = "completed"
	StatusShipped        Status = "shipped"
)

type Source string

const (
	SourceAuction  Source = "auction"
	SourcePurchase Source = "purchase"
)

type Order struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerID     uint            `gorm:"not null;index" json:"buyer_id"`
	Status      Status          `gorm:"type:text;not null" json:"status"`
	TotalAmount decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	Source      Source          `gorm:"type:text;not null" json:"source"`
	SourceID    string          `gorm:"index" json:"source_id"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE;" json:"items"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type OrderItem struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   string          `gorm:"type:uuid;not null;index" json:"order_id"`
	ArtworkID string          `gorm:"type:uuid;not null;index" json:"artwork_id"`
	Title     string          `gorm:"not null" json:"title"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// New builds an order whose total is the sum of its item prices.
func New(buyerID uint, status Status, source Source, sourceID string, items []OrderItem) Order {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price)
	}
	return Order{
		BuyerID:     buyerID,
		Status:      status,
		TotalAmount: total,
		Source:      source,
		SourceID:    sourceID,
		Items:       items,
	}
}

func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range o.Items {
		total = total.Add(it.Price)
	}
	return total
}
