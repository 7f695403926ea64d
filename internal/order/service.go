package order

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	orderDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/order"
	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
	reviewDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/review"
	"github.com/frahmantamala/marketplace-payments/internal/core/events"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
)

type Repository interface {
	Create(o *orderDatamodel.Order) error
	GetByID(id int64) (*orderDatamodel.Order, error)
	GetByOrderNumber(orderNumber string) (*orderDatamodel.Order, error)
	GetByClient(clientID int64) ([]*orderDatamodel.Order, error)
	GetByFreelancer(freelancerID int64) ([]*orderDatamodel.Order, error)
	// UpdateStatusIf applies a conditional status write: the row only changes
	// when its current status still equals from. Returns ErrStatusConflict
	// when another writer got there first.
	UpdateStatusIf(id int64, from, to Status, stamps map[string]interface{}) error
	CreateDeliverable(d *orderDatamodel.Deliverable) error
}

type PaymentStore interface {
	GetByReference(reference string) (*paymentDatamodel.Payment, error)
	Create(p *paymentDatamodel.Payment) error
	// MarkCompleted flips a pending payment row to completed. A row that is
	// already completed is a harmless replay and returns nil; a row in any
	// other state returns a conflict with ErrCodePaymentNotPending.
	MarkCompleted(reference string, paidAt time.Time, gatewayResponse json.RawMessage) error
	// SettleFailed flips a row that was already marked failed back to
	// completed, for success confirmations that arrive after reconciliation
	// gave up on the reference.
	SettleFailed(reference string, paidAt time.Time, gatewayResponse json.RawMessage) error
}

type ReviewStore interface {
	Create(r *reviewDatamodel.Review) error
}

type AuditRecorder interface {
	Record(actorID int64, action, tableName string, recordID int64, oldData, newData interface{})
}

type Notifier interface {
	Notify(userID int64, notifType, title, message string, relatedID int64)
}

type EventPublisher interface {
	Publish(ctx context.Context, event events.Event)
}

// Service coordinates order lifecycle transitions and the money split that
// goes with them. Status writes are conditional; audit, notifications and
// events are best-effort and never fail the main operation.
type Service struct {
	repo              Repository
	payments          PaymentStore
	reviews           ReviewStore
	audit             AuditRecorder
	notifier          Notifier
	eventBus          EventPublisher
	metrics           *metrics.Metrics
	logger            *slog.Logger
	commissionPercent int64
	newOrderNumber    func() string
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	payments PaymentStore,
	reviews ReviewStore,
	audit AuditRecorder,
	notifier Notifier,
	eventBus EventPublisher,
	m *metrics.Metrics,
	commissionPercent int64,
	newOrderNumber func() string,
) *Service {
	return &Service{
		repo:              repo,
		payments:          payments,
		reviews:           reviews,
		audit:             audit,
		notifier:          notifier,
		eventBus:          eventBus,
		metrics:           m,
		logger:            logger,
		commissionPercent: commissionPercent,
		newOrderNumber:    newOrderNumber,
	}
}

func (s *Service) CreateOrder(clientID int64, dto *CreateOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if dto.FreelancerID == clientID {
		return nil, errors.NewValidationError("cannot order your own gig", errors.ErrCodeValidationFailed)
	}

	currency := dto.Currency
	if currency == "" {
		currency = "NGN"
	}

	dm := &orderDatamodel.Order{
		OrderNumber:  s.newOrderNumber(),
		ClientID:     clientID,
		FreelancerID: dto.FreelancerID,
		GigID:        dto.GigID,
		PackageType:  dto.PackageType,
		AmountKobo:   dto.AmountKobo,
		Currency:     currency,
		Status:       string(StatusPending),
		Requirements: dto.Requirements,
		DeliveryDate: dto.DeliveryDate,
	}

	if err := s.repo.Create(dm); err != nil {
		s.logger.Error("failed to create order", "client_id", clientID, "error", err)
		return nil, errors.NewInternalError("failed to create order", err)
	}

	s.logger.Info("order created",
		"order_id", dm.ID,
		"order_number", dm.OrderNumber,
		"client_id", clientID,
		"amount_kobo", dm.AmountKobo)

	s.audit.Record(clientID, "order_created", "orders", dm.ID, nil, dm)

	return FromDataModel(dm), nil
}

func (s *Service) GetOrder(userID int64, isAdmin bool, orderID int64) (*Order, error) {
	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	o := FromDataModel(dm)
	if !isAdmin && !o.IsParticipant(userID) {
		return nil, errors.ErrUnauthorizedAccess
	}
	return o, nil
}

func (s *Service) GetClientOrders(clientID int64) ([]*Order, error) {
	dms, err := s.repo.GetByClient(clientID)
	if err != nil {
		s.logger.Error("failed to list client orders", "client_id", clientID, "error", err)
		return nil, errors.NewInternalError("failed to list orders", err)
	}
	return FromDataModelSlice(dms), nil
}

func (s *Service) GetFreelancerOrders(freelancerID int64) ([]*Order, error) {
	dms, err := s.repo.GetByFreelancer(freelancerID)
	if err != nil {
		s.logger.Error("failed to list freelancer orders", "freelancer_id", freelancerID, "error", err)
		return nil, errors.NewInternalError("failed to list orders", err)
	}
	return FromDataModelSlice(dms), nil
}

// HandlePaymentSuccess records a verified gateway charge and moves the order
// into progress. Idempotent on the gateway reference: replays of the same
// confirmation are absorbed silently. If the payment row lands but the order
// can no longer advance, the caller gets ErrOrderUpdateStale so support can
// reconcile manually.
func (s *Service) HandlePaymentSuccess(orderNumber, reference string, amountKobo int64, paidAt time.Time, gatewayResponse json.RawMessage) (*Order, error) {
	existing, lookupErr := s.payments.GetByReference(reference)
	if lookupErr == nil && existing.Status == paymentDatamodel.StatusCompleted {
		s.logger.Info("payment already recorded, skipping", "reference", reference, "order_id", existing.OrderID)
		dm, err := s.repo.GetByID(existing.OrderID)
		if err != nil {
			return nil, err
		}
		return FromDataModel(dm), nil
	}

	dm, err := s.repo.GetByOrderNumber(orderNumber)
	if err != nil {
		return nil, err
	}

	if amountKobo != dm.AmountKobo {
		s.logger.Error("paid amount does not match order amount",
			"order_id", dm.ID,
			"expected_kobo", dm.AmountKobo,
			"paid_kobo", amountKobo,
			"reference", reference)
		return nil, errors.NewValidationError("paid amount does not match order amount", errors.ErrCodePaymentFailed)
	}

	commissionKobo, payoutKobo := SplitCommission(dm.AmountKobo, s.commissionPercent)

	paidAtCopy := paidAt
	var payment *paymentDatamodel.Payment

	if lookupErr == nil {
		// Checkout already wrote the pending row; settle it in place.
		if err := s.payments.MarkCompleted(reference, paidAt, gatewayResponse); err != nil {
			appErr, ok := errors.IsAppError(err)
			if !ok || appErr.Code != errors.ErrCodePaymentNotPending {
				s.logger.Error("failed to settle pending payment", "reference", reference, "error", err)
				return nil, errors.NewInternalError("failed to record payment", err)
			}
			// The row was marked failed before this confirmation landed,
			// e.g. reconciliation saw an abandoned session and the success
			// webhook arrived late. The charge is verified, so the record
			// must follow it.
			if err := s.payments.SettleFailed(reference, paidAt, gatewayResponse); err != nil {
				s.logger.Error("failed to revive failed payment", "reference", reference, "error", err)
				return nil, errors.NewInternalError("failed to record payment", err)
			}
			s.logger.Warn("late success confirmation revived a failed payment", "reference", reference)
		}
		payment = existing
		payment.Status = paymentDatamodel.StatusCompleted
		payment.PaidAt = &paidAtCopy
	} else {
		// No pending row means the confirmation arrived through a channel
		// that never saw checkout, e.g. a webhook replay after cleanup.
		payment = &paymentDatamodel.Payment{
			OrderID:          dm.ID,
			AmountKobo:       dm.AmountKobo,
			Currency:         dm.Currency,
			Gateway:          "paystack",
			GatewayReference: reference,
			Status:           paymentDatamodel.StatusCompleted,
			CommissionKobo:   commissionKobo,
			PayoutKobo:       payoutKobo,
			GatewayResponse:  gatewayResponse,
			PaidAt:           &paidAtCopy,
		}
		if err := s.payments.Create(payment); err != nil {
			// A concurrent confirmation may have inserted the same reference;
			// the unique index makes exactly one row win.
			if winner, winErr := s.payments.GetByReference(reference); winErr == nil {
				s.logger.Info("concurrent payment insert, continuing with existing row",
					"reference", reference, "payment_id", winner.ID)
				payment = winner
			} else {
				s.logger.Error("failed to record payment", "reference", reference, "error", err)
				return nil, errors.NewInternalError("failed to record payment", err)
			}
		}
	}

	if err := s.transition(dm.ID, StatusPending, StatusInProgress, nil); err != nil {
		current, readErr := s.repo.GetByID(dm.ID)
		if readErr == nil {
			switch Status(current.Status) {
			case StatusInProgress, StatusDelivered, StatusCompleted:
				// Another confirmation already advanced the order.
				return FromDataModel(current), nil
			}
		}
		s.logger.Error("payment recorded but order status update failed",
			"order_id", dm.ID,
			"payment_id", payment.ID,
			"reference", reference,
			"error", err)
		return nil, errors.ErrOrderUpdateStale
	}

	s.metrics.RecordPayment(paymentDatamodel.StatusCompleted, commissionKobo, payoutKobo)

	s.logger.Info("payment confirmed, order in progress",
		"order_id", dm.ID,
		"payment_id", payment.ID,
		"amount_kobo", dm.AmountKobo,
		"commission_kobo", commissionKobo,
		"payout_kobo", payoutKobo)

	s.audit.Record(dm.ClientID, "payment_completed", "payments", payment.ID, nil, payment)
	s.audit.Record(dm.ClientID, "order_status_change", "orders", dm.ID,
		map[string]interface{}{"status": string(StatusPending)},
		map[string]interface{}{"status": string(StatusInProgress)})
	s.notifier.Notify(dm.FreelancerID, "order_paid", "New order",
		"Payment received, you can start working on the order.", dm.ID)
	s.notifier.Notify(dm.ClientID, "payment_confirmed", "Payment confirmed",
		"Your payment was confirmed and the order is now in progress.", dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewOrderPaidEvent(dm.ID, dm.ClientID, dm.FreelancerID, dm.AmountKobo, reference))

	updated, err := s.repo.GetByID(dm.ID)
	if err != nil {
		return FromDataModel(dm), nil
	}
	return FromDataModel(updated), nil
}

func (s *Service) MarkDelivered(freelancerID, orderID int64, dto *DeliverOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if dm.FreelancerID != freelancerID {
		return nil, errors.ErrUnauthorizedAccess
	}

	now := time.Now()
	if err := s.transition(dm.ID, StatusInProgress, StatusDelivered,
		map[string]interface{}{"delivered_at": now}); err != nil {
		return nil, err
	}

	deliverable := &orderDatamodel.Deliverable{
		OrderID:      dm.ID,
		FreelancerID: freelancerID,
		Message:      dto.Message,
		FileURLs:     joinFileURLs(dto.FileURLs),
	}
	if err := s.repo.CreateDeliverable(deliverable); err != nil {
		// Status already moved; the delivery stands even if the attachment
		// record is lost.
		s.logger.Error("failed to store deliverable", "order_id", dm.ID, "error", err)
	}

	s.audit.Record(freelancerID, "order_delivered", "orders", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": string(StatusDelivered)})
	s.notifier.Notify(dm.ClientID, "order_delivered", "Order delivered",
		"Your order was delivered, review it to release payment.", dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewOrderDeliveredEvent(dm.ID, dm.ClientID, dm.FreelancerID, dto.Message))

	return s.reload(dm.ID)
}

// CompleteOrder is the client accepting delivery. The status write is the
// commit point: review, audit and payout notification run afterwards and a
// failure there never rolls the completion back.
func (s *Service) CompleteOrder(clientID, orderID int64, dto *CompleteOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if dm.ClientID != clientID {
		return nil, errors.ErrUnauthorizedAccess
	}

	now := time.Now()
	if err := s.transition(dm.ID, StatusDelivered, StatusCompleted,
		map[string]interface{}{"completed_at": now}); err != nil {
		return nil, err
	}

	_, payoutKobo := SplitCommission(dm.AmountKobo, s.commissionPercent)

	review := &reviewDatamodel.Review{
		OrderID:      dm.ID,
		ClientID:     clientID,
		FreelancerID: dm.FreelancerID,
		Rating:       int(dto.Rating),
		Comment:      dto.Comment,
	}
	if err := s.reviews.Create(review); err != nil {
		s.logger.Error("failed to store review", "order_id", dm.ID, "error", err)
	}

	s.audit.Record(clientID, "order_completed", "orders", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": string(StatusCompleted)})
	s.notifier.Notify(dm.FreelancerID, "order_completed", "Order completed",
		"The client accepted your delivery, the payout is now in your balance.", dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewOrderCompletedEvent(dm.ID, dm.ClientID, dm.FreelancerID, payoutKobo))

	s.logger.Info("order completed",
		"order_id", dm.ID,
		"freelancer_id", dm.FreelancerID,
		"payout_kobo", payoutKobo)

	return s.reload(dm.ID)
}

// RequestRevision sends a delivered order back to in_progress.
func (s *Service) RequestRevision(clientID, orderID int64, message string) (*Order, error) {
	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if dm.ClientID != clientID {
		return nil, errors.ErrUnauthorizedAccess
	}

	if err := s.transition(dm.ID, StatusDelivered, StatusInProgress,
		map[string]interface{}{"delivered_at": nil}); err != nil {
		return nil, err
	}

	s.audit.Record(clientID, "revision_requested", "orders", dm.ID,
		map[string]interface{}{"status": string(StatusDelivered)},
		map[string]interface{}{"status": string(StatusInProgress)})
	s.notifier.Notify(dm.FreelancerID, "revision_requested", "Revision requested", message, dm.ID)

	return s.reload(dm.ID)
}

func (s *Service) OpenDispute(actorID, orderID int64, dto *DisputeOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	o := FromDataModel(dm)
	if !o.IsParticipant(actorID) {
		return nil, errors.ErrUnauthorizedAccess
	}
	if !o.Status.CanTransitionTo(StatusDisputed) {
		return nil, errors.ErrInvalidTransition
	}

	if err := s.transition(dm.ID, o.Status, StatusDisputed, nil); err != nil {
		return nil, err
	}

	counterpart := dm.ClientID
	if actorID == dm.ClientID {
		counterpart = dm.FreelancerID
	}

	s.audit.Record(actorID, "dispute_opened", "orders", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": string(StatusDisputed), "reason": dto.Reason})
	s.notifier.Notify(counterpart, "dispute_opened", "Dispute opened",
		"A dispute was opened on your order, an admin will review it.", dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewDisputeOpenedEvent(dm.ID, actorID, dto.Reason))

	return s.reload(dm.ID)
}

// ResolveDispute is admin-only. favor_client refunds by cancelling the order;
// favor_freelancer and partial_refund settle it as completed.
func (s *Service) ResolveDispute(adminID, orderID int64, dto *ResolveDisputeDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if Status(dm.Status) != StatusDisputed {
		return nil, errors.NewConflictError("order is not under dispute", errors.ErrCodeDisputeNotResolvable)
	}

	now := time.Now()
	var target Status
	stamps := map[string]interface{}{"resolution_notes": dto.Notes}

	if dto.Resolution == ResolutionFavorClient {
		target = StatusCancelled
		reason := "dispute resolved in client's favor"
		stamps["cancelled_at"] = now
		stamps["cancellation_reason"] = reason
	} else {
		target = StatusCompleted
		stamps["completed_at"] = now
	}

	if err := s.transition(dm.ID, StatusDisputed, target, stamps); err != nil {
		return nil, err
	}

	s.audit.Record(adminID, "dispute_resolved", "orders", dm.ID,
		map[string]interface{}{"status": string(StatusDisputed)},
		map[string]interface{}{"status": string(target), "resolution": dto.Resolution})
	s.notifier.Notify(dm.ClientID, "dispute_resolved", "Dispute resolved", dto.Notes, dm.ID)
	s.notifier.Notify(dm.FreelancerID, "dispute_resolved", "Dispute resolved", dto.Notes, dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewDisputeResolvedEvent(dm.ID, adminID, dto.Resolution))

	s.logger.Info("dispute resolved",
		"order_id", dm.ID,
		"admin_id", adminID,
		"resolution", dto.Resolution,
		"final_status", target)

	return s.reload(dm.ID)
}

func (s *Service) CancelOrder(actorID int64, isAdmin bool, orderID int64, dto *CancelOrderDTO) (*Order, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}

	o := FromDataModel(dm)
	if !isAdmin && !o.IsParticipant(actorID) {
		return nil, errors.ErrUnauthorizedAccess
	}
	if !o.Status.CanTransitionTo(StatusCancelled) {
		return nil, errors.ErrInvalidTransition
	}

	now := time.Now()
	if err := s.transition(dm.ID, o.Status, StatusCancelled, map[string]interface{}{
		"cancelled_at":        now,
		"cancellation_reason": dto.Reason,
	}); err != nil {
		return nil, err
	}

	counterpart := dm.ClientID
	if actorID == dm.ClientID {
		counterpart = dm.FreelancerID
	}

	s.audit.Record(actorID, "order_cancelled", "orders", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": string(StatusCancelled), "reason": dto.Reason})
	s.notifier.Notify(counterpart, "order_cancelled", "Order cancelled", dto.Reason, dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewOrderCancelledEvent(dm.ID, dm.ClientID, dm.FreelancerID, dto.Reason))

	return s.reload(dm.ID)
}

func (s *Service) transition(orderID int64, from, to Status, stamps map[string]interface{}) error {
	if !from.CanTransitionTo(to) {
		return errors.ErrInvalidTransition
	}
	if err := s.repo.UpdateStatusIf(orderID, from, to, stamps); err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeStatusConflict {
			s.metrics.RecordTransitionConflict(string(from), string(to))
		}
		return err
	}
	s.metrics.RecordTransition(string(from), string(to))
	return nil
}

func (s *Service) reload(orderID int64) (*Order, error) {
	dm, err := s.repo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}

func joinFileURLs(urls []string) string {
	if len(urls) == 0 {
		return ""
	}
	encoded, err := json.Marshal(urls)
	if err != nil {
		return ""
	}
	return string(encoded)
}
