package notifications

import "time"

type Notification struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uint   `gorm:"not null;index:idx_notifications_user_created,priority:1" json:"user_id"`
	Message string `gorm:"not null" json:"message"`
	Link    string `json:"link"`
	IsRead  bool   `gorm:"not null;default:false" json:"is_read"`

	CreatedAt time.Time `gorm:"index:idx_notifications_user_created,priority:2" json:"created_at"`
}
