package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeOrderPaid           = "order.paid"
	EventTypeOrderDelivered      = "order.delivered"
	EventTypeOrderCompleted      = "order.completed"
	EventTypeOrderCancelled      = "order.cancelled"
	EventTypeDisputeOpened       = "order.dispute_opened"
	EventTypeDisputeResolved     = "order.dispute_resolved"
	EventTypeWithdrawalRequested = "withdrawal.requested"
)

type OrderPaidEvent struct {
	BaseEvent
	OrderID          int64  `json:"order_id"`
	ClientID         int64  `json:"client_id"`
	FreelancerID     int64  `json:"freelancer_id"`
	AmountKobo       int64  `json:"amount_kobo"`
	GatewayReference string `json:"gateway_reference"`
}

func NewOrderPaidEvent(orderID, clientID, freelancerID, amountKobo int64, reference string) *OrderPaidEvent {
	return &OrderPaidEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderPaid,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":          orderID,
				"client_id":         clientID,
				"freelancer_id":     freelancerID,
				"amount_kobo":       amountKobo,
				"gateway_reference": reference,
			},
		},
		OrderID:          orderID,
		ClientID:         clientID,
		FreelancerID:     freelancerID,
		AmountKobo:       amountKobo,
		GatewayReference: reference,
	}
}

type OrderDeliveredEvent struct {
	BaseEvent
	OrderID      int64  `json:"order_id"`
	ClientID     int64  `json:"client_id"`
	FreelancerID int64  `json:"freelancer_id"`
	Message      string `json:"message"`
}

func NewOrderDeliveredEvent(orderID, clientID, freelancerID int64, message string) *OrderDeliveredEvent {
	return &OrderDeliveredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderDelivered,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":      orderID,
				"client_id":     clientID,
				"freelancer_id": freelancerID,
				"message":       message,
			},
		},
		OrderID:      orderID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Message:      message,
	}
}

type OrderCompletedEvent struct {
	BaseEvent
	OrderID      int64 `json:"order_id"`
	ClientID     int64 `json:"client_id"`
	FreelancerID int64 `json:"freelancer_id"`
	PayoutKobo   int64 `json:"payout_kobo"`
}

func NewOrderCompletedEvent(orderID, clientID, freelancerID, payoutKobo int64) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderCompleted,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":      orderID,
				"client_id":     clientID,
				"freelancer_id": freelancerID,
				"payout_kobo":   payoutKobo,
			},
		},
		OrderID:      orderID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		PayoutKobo:   payoutKobo,
	}
}

type OrderCancelledEvent struct {
	BaseEvent
	OrderID      int64  `json:"order_id"`
	ClientID     int64  `json:"client_id"`
	FreelancerID int64  `json:"freelancer_id"`
	Reason       string `json:"reason"`
}

func NewOrderCancelledEvent(orderID, clientID, freelancerID int64, reason string) *OrderCancelledEvent {
	return &OrderCancelledEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeOrderCancelled,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":      orderID,
				"client_id":     clientID,
				"freelancer_id": freelancerID,
				"reason":        reason,
			},
		},
		OrderID:      orderID,
		ClientID:     clientID,
		FreelancerID: freelancerID,
		Reason:       reason,
	}
}

type DisputeOpenedEvent struct {
	BaseEvent
	OrderID int64  `json:"order_id"`
	ActorID int64  `json:"actor_id"`
	Reason  string `json:"reason"`
}

func NewDisputeOpenedEvent(orderID, actorID int64, reason string) *DisputeOpenedEvent {
	return &DisputeOpenedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDisputeOpened,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id": orderID,
				"actor_id": actorID,
				"reason":   reason,
			},
		},
		OrderID: orderID,
		ActorID: actorID,
		Reason:  reason,
	}
}

type DisputeResolvedEvent struct {
	BaseEvent
	OrderID    int64  `json:"order_id"`
	AdminID    int64  `json:"admin_id"`
	Resolution string `json:"resolution"`
}

func NewDisputeResolvedEvent(orderID, adminID int64, resolution string) *DisputeResolvedEvent {
	return &DisputeResolvedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeDisputeResolved,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"order_id":   orderID,
				"admin_id":   adminID,
				"resolution": resolution,
			},
		},
		OrderID:    orderID,
		AdminID:    adminID,
		Resolution: resolution,
	}
}

type WithdrawalRequestedEvent struct {
	BaseEvent
	WithdrawalID int64 `json:"withdrawal_id"`
	FreelancerID int64 `json:"freelancer_id"`
	AmountKobo   int64 `json:"amount_kobo"`
}

func NewWithdrawalRequestedEvent(withdrawalID, freelancerID, amountKobo int64) *WithdrawalRequestedEvent {
	return &WithdrawalRequestedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeWithdrawalRequested,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"withdrawal_id": withdrawalID,
				"freelancer_id": freelancerID,
				"amount_kobo":   amountKobo,
			},
		},
		WithdrawalID: withdrawalID,
		FreelancerID: freelancerID,
		AmountKobo:   amountKobo,
	}
}
