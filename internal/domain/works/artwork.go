package works

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusAvailable Status = "available"
	StatusInAuction Status = "in_auction"
	StatusSold      Status = "sold"
)

type Artwork struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	ArtistID uint   `gorm:"not null;index" json:"artist_id"`

	Title     string          `gorm:"not null" json:"title"`
	Medium    string          `json:"medium,omitempty"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	IsDigital bool            `gorm:"not null;default:false" json:"is_digital"`
	AssetPath string          `json:"-"`

	Status Status `gorm:"type:text;not null;default:'available';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Artwork) Sold() bool {
	return a.Status == StatusSold
}
