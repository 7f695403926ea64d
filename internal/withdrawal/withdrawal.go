package withdrawal

import (
	"time"

	withdrawalDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/withdrawal"
)

type Withdrawal struct {
	ID            int64      `json:"id"`
	FreelancerID  int64      `json:"freelancer_id"`
	AmountKobo    int64      `json:"amount_kobo"`
	Currency      string     `json:"currency"`
	BankName      string     `json:"bank_name"`
	AccountNumber string     `json:"account_number"`
	AccountName   string     `json:"account_name"`
	Status        string     `json:"status"`
	RejectReason  *string    `json:"reject_reason,omitempty"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func FromDataModel(w *withdrawalDatamodel.Withdrawal) *Withdrawal {
	return &Withdrawal{
		ID:            w.ID,
		FreelancerID:  w.FreelancerID,
		AmountKobo:    w.AmountKobo,
		Currency:      w.Currency,
		BankName:      w.BankName,
		AccountNumber: w.AccountNumber,
		AccountName:   w.AccountName,
		Status:        w.Status,
		RejectReason:  w.RejectReason,
		ProcessedAt:   w.ProcessedAt,
		CreatedAt:     w.CreatedAt,
	}
}

func FromDataModelSlice(ws []*withdrawalDatamodel.Withdrawal) []*Withdrawal {
	result := make([]*Withdrawal, len(ws))
	for i, w := range ws {
		result[i] = FromDataModel(w)
	}
	return result
}
