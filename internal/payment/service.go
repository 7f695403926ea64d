package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/order"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

type Gateway interface {
	InitializeTransaction(ctx context.Context, req *gatewaytypes.InitializeRequest) (*gatewaytypes.InitializeData, error)
	VerifyTransaction(ctx context.Context, reference string) (*gatewaytypes.VerifyData, error)
}

type Repository interface {
	Create(p *paymentDatamodel.Payment) error
	GetByReference(reference string) (*paymentDatamodel.Payment, error)
	GetByOrderID(orderID int64) (*paymentDatamodel.Payment, error)
	MarkCompleted(reference string, paidAt time.Time, gatewayResponse json.RawMessage) error
	MarkFailed(reference string, gatewayResponse json.RawMessage) error
	ListPendingBefore(cutoff time.Time, limit int) ([]*paymentDatamodel.Payment, error)
}

type OrderService interface {
	GetOrder(userID int64, isAdmin bool, orderID int64) (*order.Order, error)
	HandlePaymentSuccess(orderNumber, reference string, amountKobo int64, paidAt time.Time, gatewayResponse json.RawMessage) (*order.Order, error)
}

// Service owns the money-in side: starting hosted-checkout sessions,
// resolving the redirect callback and reconciling payments the callback
// never confirmed.
type Service struct {
	gateway           Gateway
	repo              Repository
	orders            OrderService
	poller            *Poller
	metrics           *metrics.Metrics
	logger            *slog.Logger
	commissionPercent int64
}

func NewService(
	logger *slog.Logger,
	gateway Gateway,
	repo Repository,
	orders OrderService,
	poller *Poller,
	m *metrics.Metrics,
	commissionPercent int64,
) *Service {
	return &Service{
		gateway:           gateway,
		repo:              repo,
		orders:            orders,
		poller:            poller,
		metrics:           m,
		logger:            logger,
		commissionPercent: commissionPercent,
	}
}

// Checkout opens a hosted payment page for a pending order and records the
// attempt as a pending payment row keyed by the gateway reference.
func (s *Service) Checkout(ctx context.Context, clientID int64, dto *CheckoutDTO) (*CheckoutResponse, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	o, err := s.orders.GetOrder(clientID, false, dto.OrderID)
	if err != nil {
		return nil, err
	}
	if o.ClientID != clientID {
		return nil, errors.ErrUnauthorizedAccess
	}
	if o.Status != order.StatusPending {
		return nil, errors.NewConflictError("order is not awaiting payment", errors.ErrCodeStatusConflict)
	}

	reference := paymentgateway.BuildOrderReference(o.OrderNumber, time.Now())
	commissionKobo, payoutKobo := order.SplitCommission(o.AmountKobo, s.commissionPercent)

	start := time.Now()
	data, err := s.gateway.InitializeTransaction(ctx, &gatewaytypes.InitializeRequest{
		Email:      dto.Email,
		AmountKobo: o.AmountKobo,
		Currency:   o.Currency,
		Reference:  reference,
		Metadata: map[string]string{
			"order_number": o.OrderNumber,
		},
	})
	s.metrics.GatewayRequestDuration.WithLabelValues("initialize").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("checkout initialization failed", "order_id", o.ID, "error", err)
		return nil, err
	}

	pending := &paymentDatamodel.Payment{
		OrderID:          o.ID,
		AmountKobo:       o.AmountKobo,
		Currency:         o.Currency,
		Gateway:          "paystack",
		GatewayReference: data.Reference,
		Status:           paymentDatamodel.StatusPending,
		CommissionKobo:   commissionKobo,
		PayoutKobo:       payoutKobo,
	}
	if err := s.repo.Create(pending); err != nil {
		s.logger.Error("failed to record pending payment", "order_id", o.ID, "reference", data.Reference, "error", err)
		return nil, errors.NewInternalError("failed to record pending payment", err)
	}

	s.metrics.RecordPayment(paymentDatamodel.StatusPending, 0, 0)
	s.logger.Info("checkout session opened",
		"order_id", o.ID,
		"reference", data.Reference,
		"amount_kobo", o.AmountKobo)

	return &CheckoutResponse{
		AuthorizationURL: data.AuthorizationURL,
		AccessCode:       data.AccessCode,
		Reference:        data.Reference,
		AmountKobo:       o.AmountKobo,
		CommissionKobo:   commissionKobo,
		PayoutKobo:       payoutKobo,
		Currency:         o.Currency,
	}, nil
}

// ResolveCallback handles the browser returning from the hosted payment page.
// It verifies the reference with the gateway; if the charge is still pending
// there, it falls back to polling the local store until the webhook lands or
// the deadline passes.
func (s *Service) ResolveCallback(ctx context.Context, reference string) (*CallbackResponse, error) {
	orderNumber, _, err := paymentgateway.ParseOrderReference(reference)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := s.gateway.VerifyTransaction(ctx, reference)
	s.metrics.GatewayRequestDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Error("callback verification failed", "reference", reference, "error", err)
		return nil, err
	}

	switch data.Status {
	case gatewaytypes.TransactionSuccess:
		return s.settle(orderNumber, reference, data)

	case gatewaytypes.TransactionFailed, gatewaytypes.TransactionAbandoned:
		raw, _ := json.Marshal(data)
		if err := s.repo.MarkFailed(reference, raw); err != nil {
			s.logger.Error("failed to mark payment failed", "reference", reference, "error", err)
		}
		s.metrics.RecordPayment(paymentDatamodel.StatusFailed, 0, 0)
		return nil, errors.NewValidationError("payment was not successful", errors.ErrCodePaymentFailed)

	default:
		// Gateway still says pending; wait for the webhook to settle it.
		settled, err := s.poller.WaitForConfirmation(ctx, reference)
		if err != nil {
			return nil, err
		}
		o, err := s.orders.GetOrder(0, true, settled.OrderID)
		if err != nil {
			return nil, err
		}
		return &CallbackResponse{
			OrderID:     o.ID,
			OrderStatus: string(o.Status),
			Reference:   reference,
			Paid:        true,
		}, nil
	}
}

// RecordGatewaySuccess applies a verified successful charge. Shared by the
// callback path and the webhook.
func (s *Service) RecordGatewaySuccess(orderNumber, reference string, data *gatewaytypes.VerifyData) (*order.Order, error) {
	paidAt := time.Now()
	if data.PaidAt != "" {
		if ts, err := time.Parse(time.RFC3339, data.PaidAt); err == nil {
			paidAt = ts
		}
	}
	raw, _ := json.Marshal(data)
	return s.orders.HandlePaymentSuccess(orderNumber, reference, data.AmountKobo, paidAt, raw)
}

func (s *Service) settle(orderNumber, reference string, data *gatewaytypes.VerifyData) (*CallbackResponse, error) {
	o, err := s.RecordGatewaySuccess(orderNumber, reference, data)
	if err != nil {
		return nil, err
	}
	return &CallbackResponse{
		OrderID:     o.ID,
		OrderStatus: string(o.Status),
		Reference:   reference,
		Paid:        true,
	}, nil
}

// GetOrderPayment returns the payment attached to an order, for participants
// and admins.
func (s *Service) GetOrderPayment(userID int64, isAdmin bool, orderID int64) (*Payment, error) {
	if _, err := s.orders.GetOrder(userID, isAdmin, orderID); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}

// ReconcilePending re-verifies pending payments older than minAge against the
// gateway. Covers users who paid but never returned through the callback and
// whose webhook was lost.
func (s *Service) ReconcilePending(ctx context.Context, minAge time.Duration, limit int) {
	cutoff := time.Now().Add(-minAge)
	pending, err := s.repo.ListPendingBefore(cutoff, limit)
	if err != nil {
		s.logger.Error("reconciliation listing failed", "error", err)
		return
	}

	for _, p := range pending {
		select {
		case <-ctx.Done():
			return
		default:
		}

		orderNumber, _, err := paymentgateway.ParseOrderReference(p.GatewayReference)
		if err != nil {
			s.logger.Error("pending payment has malformed reference",
				"payment_id", p.ID, "reference", p.GatewayReference)
			continue
		}

		data, err := s.gateway.VerifyTransaction(ctx, p.GatewayReference)
		if err != nil {
			s.logger.Warn("reconciliation verify failed", "reference", p.GatewayReference, "error", err)
			continue
		}

		switch data.Status {
		case gatewaytypes.TransactionSuccess:
			if _, err := s.RecordGatewaySuccess(orderNumber, p.GatewayReference, data); err != nil {
				s.logger.Error("reconciliation settle failed", "reference", p.GatewayReference, "error", err)
				continue
			}
			s.logger.Info("reconciled pending payment as completed", "reference", p.GatewayReference)

		case gatewaytypes.TransactionFailed, gatewaytypes.TransactionAbandoned:
			raw, _ := json.Marshal(data)
			if err := s.repo.MarkFailed(p.GatewayReference, raw); err != nil {
				s.logger.Error("failed to mark payment failed", "reference", p.GatewayReference, "error", err)
				continue
			}
			s.metrics.RecordPayment(paymentDatamodel.StatusFailed, 0, 0)
			s.logger.Info("reconciled pending payment as failed", "reference", p.GatewayReference)
		}
	}
}
