package payment

import (
	"github.com/frahmantamala/marketplace-payments/internal/core/common/validation"
)

type CheckoutDTO struct {
	OrderID int64  `json:"order_id"`
	Email   string `json:"email"`
}

func (d *CheckoutDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("order_id", d.OrderID).Required()
	validator.Field("email", d.Email).Required().MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// CheckoutResponse carries everything the frontend needs to open the hosted
// payment page, plus the fee breakdown shown to the client before paying.
type CheckoutResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
	AmountKobo       int64  `json:"amount_kobo"`
	CommissionKobo   int64  `json:"commission_kobo"`
	PayoutKobo       int64  `json:"payout_kobo"`
	Currency         string `json:"currency"`
}

type CallbackResponse struct {
	OrderID     int64  `json:"order_id"`
	OrderStatus string `json:"order_status"`
	Reference   string `json:"reference"`
	Paid        bool   `json:"paid"`
}
