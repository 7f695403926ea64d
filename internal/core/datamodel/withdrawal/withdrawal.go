package withdrawal

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

type Withdrawal struct {
	ID            int64      `gorm:"primaryKey"`
	FreelancerID  int64      `gorm:"column:freelancer_id;not null;index"`
	AmountKobo    int64      `gorm:"column:amount_kobo;not null"`
	Currency      string     `gorm:"column:currency;default:NGN"`
	BankName      string     `gorm:"column:bank_name;not null"`
	AccountNumber string     `gorm:"column:account_number;not null"`
	AccountName   string     `gorm:"column:account_name;not null"`
	Status        string     `gorm:"column:status;default:pending;index"`
	RejectReason  *string    `gorm:"column:reject_reason"`
	ProcessedAt   *time.Time `gorm:"column:processed_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
