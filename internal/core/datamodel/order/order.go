package order

import "time"

type Order struct {
	ID                 int64      `gorm:"primaryKey"`
	OrderNumber        string     `gorm:"column:order_number;not null;uniqueIndex"`
	ClientID           int64      `gorm:"column:client_id;not null;index"`
	FreelancerID       int64      `gorm:"column:freelancer_id;not null;index"`
	GigID              int64      `gorm:"column:gig_id;not null"`
	PackageType        string     `gorm:"column:package_type"`
	AmountKobo         int64      `gorm:"column:amount_kobo;not null"`
	Currency           string     `gorm:"column:currency;default:NGN"`
	Status             string     `gorm:"column:status;default:pending;index"`
	Requirements       string     `gorm:"column:requirements"`
	DeliveryDate       *time.Time `gorm:"column:delivery_date"`
	DeliveredAt        *time.Time `gorm:"column:delivered_at"`
	CompletedAt        *time.Time `gorm:"column:completed_at"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at"`
	CancellationReason *string    `gorm:"column:cancellation_reason"`
	ResolutionNotes    *string    `gorm:"column:resolution_notes"`
	CreatedAt          time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Deliverable is what a freelancer submits when marking an order delivered.
type Deliverable struct {
	ID           int64     `gorm:"primaryKey"`
	OrderID      int64     `gorm:"column:order_id;not null;index"`
	FreelancerID int64     `gorm:"column:freelancer_id;not null"`
	Message      string    `gorm:"column:message"`
	FileURLs     string    `gorm:"column:file_urls;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}
