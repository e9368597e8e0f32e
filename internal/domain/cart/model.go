package cart

import "time"

type CartItem struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_cart_user_artwork,priority:1" json:"user_id"`
	ArtworkID string `gorm:"type:uuid;not null;uniqueIndex:idx_cart_user_artwork,priority:2" json:"artwork_id"`

	CreatedAt time.Time `json:"created_at"`
}
