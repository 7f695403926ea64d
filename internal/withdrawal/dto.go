package withdrawal

import (
	errors "github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/core/common/validation"
)

type CreateWithdrawalDTO struct {
	AmountKobo    int64  `json:"amount_kobo"`
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
}

func (d *CreateWithdrawalDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("amount_kobo", d.AmountKobo).Required().MinInt(1, errors.ErrCodeInvalidAmount)
	validator.Field("bank_name", d.BankName).Required().MaxLength(100)
	validator.Field("account_number", d.AccountNumber).Required().MinLength(10).MaxLength(10)
	validator.Field("account_name", d.AccountName).Required().MaxLength(255)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

type RejectWithdrawalDTO struct {
	Reason string `json:"reason"`
}

func (d *RejectWithdrawalDTO) Validate() error {
	validator := validation.NewValidator()

	validator.Field("reason", d.Reason).Required().MaxLength(2000)

	if appErr := validator.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// BalanceResponse is the freelancer's earnings summary. Available is what a
// withdrawal may draw on: completed-order payouts minus everything already
// requested or paid out.
type BalanceResponse struct {
	EarnedKobo    int64  `json:"earned_kobo"`
	WithdrawnKobo int64  `json:"withdrawn_kobo"`
	AvailableKobo int64  `json:"available_kobo"`
	Currency      string `json:"currency"`
}
