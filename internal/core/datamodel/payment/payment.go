package payment

import (
	"encoding/json"
	"time"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type Payment struct {
	ID               int64           `gorm:"primaryKey"`
	OrderID          int64           `gorm:"column:order_id;not null;index"`
	AmountKobo       int64           `gorm:"column:amount_kobo;not null"`
	Currency         string          `gorm:"column:currency;default:NGN"`
	Gateway          string          `gorm:"column:gateway;not null"`
	GatewayReference string          `gorm:"column:gateway_reference;not null;uniqueIndex"`
	Status           string          `gorm:"column:status;default:pending"`
	CommissionKobo   int64           `gorm:"column:commission_kobo;not null"`
	PayoutKobo       int64           `gorm:"column:payout_kobo;not null"`
	GatewayResponse  json.RawMessage `gorm:"column:gateway_response;type:jsonb"`
	PaidAt           *time.Time      `gorm:"column:paid_at"`
	CreatedAt        time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
