package order

import (
	"time"

	orderDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/order"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusDisputed   Status = "disputed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the only authority on which status changes are legal.
// Disputed orders resolve through an administrative decision, never
// automatically.
var transitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusDisputed, StatusCancelled},
	StatusInProgress: {StatusDelivered, StatusDisputed, StatusCancelled},
	StatusDelivered:  {StatusCompleted, StatusInProgress},
	StatusDisputed:   {StatusCompleted, StatusCancelled},
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// SplitCommission divides an order amount between platform commission and
// freelancer payout. Truncation goes to the platform's disadvantage: payout is
// the remainder, so commission + payout always equals the amount exactly.
func SplitCommission(amountKobo, commissionPercent int64) (commissionKobo, payoutKobo int64) {
	commissionKobo = amountKobo * commissionPercent / 100
	payoutKobo = amountKobo - commissionKobo
	return commissionKobo, payoutKobo
}

type Order struct {
	ID                 int64      `json:"id"`
	OrderNumber        string     `json:"order_number"`
	ClientID           int64      `json:"client_id"`
	FreelancerID       int64      `json:"freelancer_id"`
	GigID              int64      `json:"gig_id"`
	PackageType        string     `json:"package_type"`
	AmountKobo         int64      `json:"amount_kobo"`
	Currency           string     `json:"currency"`
	Status             Status     `json:"status"`
	Requirements       string     `json:"requirements,omitempty"`
	DeliveryDate       *time.Time `json:"delivery_date,omitempty"`
	DeliveredAt        *time.Time `json:"delivered_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	ResolutionNotes    *string    `json:"resolution_notes,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (o *Order) IsParticipant(userID int64) bool {
	return o.ClientID == userID || o.FreelancerID == userID
}

func ToDataModel(o *Order) *orderDatamodel.Order {
	return &orderDatamodel.Order{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		ClientID:           o.ClientID,
		FreelancerID:       o.FreelancerID,
		GigID:              o.GigID,
		PackageType:        o.PackageType,
		AmountKobo:         o.AmountKobo,
		Currency:           o.Currency,
		Status:             string(o.Status),
		Requirements:       o.Requirements,
		DeliveryDate:       o.DeliveryDate,
		DeliveredAt:        o.DeliveredAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		ResolutionNotes:    o.ResolutionNotes,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func FromDataModel(o *orderDatamodel.Order) *Order {
	return &Order{
		ID:                 o.ID,
		OrderNumber:        o.OrderNumber,
		ClientID:           o.ClientID,
		FreelancerID:       o.FreelancerID,
		GigID:              o.GigID,
		PackageType:        o.PackageType,
		AmountKobo:         o.AmountKobo,
		Currency:           o.Currency,
		Status:             Status(o.Status),
		Requirements:       o.Requirements,
		DeliveryDate:       o.DeliveryDate,
		DeliveredAt:        o.DeliveredAt,
		CompletedAt:        o.CompletedAt,
		CancelledAt:        o.CancelledAt,
		CancellationReason: o.CancellationReason,
		ResolutionNotes:    o.ResolutionNotes,
		CreatedAt:          o.CreatedAt,
		UpdatedAt:          o.UpdatedAt,
	}
}

func FromDataModelSlice(orders []*orderDatamodel.Order) []*Order {
	result := make([]*Order, len(orders))
	for i, o := range orders {
		result[i] = FromDataModel(o)
	}
	return result
}
