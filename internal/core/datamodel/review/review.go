package review

import "time"

type Review struct {
	ID           int64     `gorm:"primaryKey"`
	OrderID      int64     `gorm:"column:order_id;not null;uniqueIndex"`
	ClientID     int64     `gorm:"column:client_id;not null"`
	FreelancerID int64     `gorm:"column:freelancer_id;not null;index"`
	Rating       int       `gorm:"column:rating;not null"`
	Comment      string    `gorm:"column:comment"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
