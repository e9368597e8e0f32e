package access

import "time"

// DigitalAssetAccess grants a buyer download rights to a digital artwork.
type DigitalAssetAccess struct {
	ID        string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint   `gorm:"not null;uniqueIndex:idx_digital_access_user_artwork,priority:1" json:"user_id"`
	ArtworkID string `gorm:"type:uuid;not null;uniqueIndex:idx_digital_access_user_artwork,priority:2" json:"artwork_id"`
	OrderID   string `gorm:"type:uuid;not null;index" json:"order_id"`

	CreatedAt time.Time `json:"created_at"`
}
