package paymentgateway

import "errors"

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionSuccess   TransactionStatus = "success"
	TransactionFailed    TransactionStatus = "failed"
	TransactionAbandoned TransactionStatus = "abandoned"
)

// InitializeRequest starts a hosted-checkout transaction. Amount is in minor
// currency units (kobo).
type InitializeRequest struct {
	Email       string            `json:"email"`
	AmountKobo  int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Reference   string            `json:"reference"`
	CallbackURL string            `json:"callback_url,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

func (r *InitializeRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if r.AmountKobo <= 0 {
		return errors.New("amount must be greater than 0")
	}
	if r.Reference == "" {
		return errors.New("reference is required")
	}
	if r.Currency == "" {
		return errors.New("currency is required")
	}
	return nil
}

type InitializeData struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

type InitializeResponse struct {
	Status  bool           `json:"status"`
	Message string         `json:"message"`
	Data    InitializeData `json:"data"`
}

type VerifyData struct {
	Reference  string            `json:"reference"`
	Status     TransactionStatus `json:"status"`
	AmountKobo int64             `json:"amount"`
	Currency   string            `json:"currency"`
	Channel    string            `json:"channel"`
	PaidAt     string            `json:"paid_at"`
}

type VerifyResponse struct {
	Status  bool       `json:"status"`
	Message string     `json:"message"`
	Data    VerifyData `json:"data"`
}
