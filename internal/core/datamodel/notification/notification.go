package notification

import "time"

type Notification struct {
	ID        int64      `gorm:"primaryKey"`
	UserID    int64      `gorm:"column:user_id;not null;index"`
	Type      string     `gorm:"column:type;not null"`
	Title     string     `gorm:"column:title;not null"`
	Message   string     `gorm:"column:message"`
	RelatedID *int64     `gorm:"column:related_id"`
	ReadAt    *time.Time `gorm:"column:read_at"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
}
