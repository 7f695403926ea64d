package payment

import (
	"encoding/json"
	"time"

	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
)

type Payment struct {
	ID               int64           `json:"id"`
	OrderID          int64           `json:"order_id"`
	AmountKobo       int64           `json:"amount_kobo"`
	Currency         string          `json:"currency"`
	Gateway          string          `json:"gateway"`
	GatewayReference string          `json:"gateway_reference"`
	Status           string          `json:"status"`
	CommissionKobo   int64           `json:"commission_kobo"`
	PayoutKobo       int64           `json:"payout_kobo"`
	GatewayResponse  json.RawMessage `json:"-"`
	PaidAt           *time.Time      `json:"paid_at,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:               p.ID,
		OrderID:          p.OrderID,
		AmountKobo:       p.AmountKobo,
		Currency:         p.Currency,
		Gateway:          p.Gateway,
		GatewayReference: p.GatewayReference,
		Status:           p.Status,
		CommissionKobo:   p.CommissionKobo,
		PayoutKobo:       p.PayoutKobo,
		GatewayResponse:  p.GatewayResponse,
		PaidAt:           p.PaidAt,
		CreatedAt:        p.CreatedAt,
	}
}
