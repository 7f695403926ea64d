package withdrawal

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	withdrawalDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/withdrawal"
	"github.com/frahmantamala/marketplace-payments/internal/core/events"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

type Repository interface {
	// Reserve inserts a pending withdrawal guarded by a recomputed balance
	// in the same statement, so concurrent requests cannot overdraw.
	Reserve(w *withdrawalDatamodel.Withdrawal) error
	GetByID(id int64) (*withdrawalDatamodel.Withdrawal, error)
	GetByFreelancer(freelancerID int64) ([]*withdrawalDatamodel.Withdrawal, error)
	// EarnedKobo sums payouts from completed orders for a freelancer.
	EarnedKobo(freelancerID int64) (int64, error)
	// ReservedKobo sums withdrawals that already hold part of the balance,
	// i.e. pending and approved ones.
	ReservedKobo(freelancerID int64) (int64, error)
	UpdateStatusIf(id int64, from, to string, stamps map[string]interface{}) error
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

// RateLimiter throttles withdrawal requests per freelancer.
type RateLimiter interface {
	Allow(key string) bool
}

// Service handles freelancer payouts. The balance check is authoritative
// here, never in the client: available = earned - reserved, computed from the
// database at request time.
type Service struct {
	repo          Repository
	audit         AuditRecorder
	notifier      Notifier
	eventBus      EventPublisher
	limiter       RateLimiter
	metrics       *metrics.Metrics
	logger        *slog.Logger
	minAmountKobo int64
	currency      string
}

func NewService(
	logger *slog.Logger,
	repo Repository,
	audit AuditRecorder,
	notifier Notifier,
	eventBus EventPublisher,
	limiter RateLimiter,
	m *metrics.Metrics,
	minAmountKobo int64,
	currency string,
) *Service {
	return &Service{
		repo:          repo,
		audit:         audit,
		notifier:      notifier,
		eventBus:      eventBus,
		limiter:       limiter,
		metrics:       m,
		logger:        logger,
		minAmountKobo: minAmountKobo,
		currency:      currency,
	}
}

func (s *Service) RequestWithdrawal(freelancerID int64, dto *CreateWithdrawalDTO) (*Withdrawal, error) {
	if err := dto.Validate(); err != nil {
		s.metrics.RecordWithdrawal("rejected_validation")
		return nil, err
	}

	if !s.limiter.Allow(fmt.Sprintf("withdrawal:%d", freelancerID)) {
		s.metrics.RecordWithdrawal("rate_limited")
		return nil, errors.NewRateLimitedError("too many withdrawal requests, try again later")
	}

	if dto.AmountKobo < s.minAmountKobo {
		s.metrics.RecordWithdrawal("rejected_min_amount")
		return nil, errors.NewValidationError(
			fmt.Sprintf("minimum withdrawal is %.2f %s",
				paymentgateway.ToMajorUnits(s.minAmountKobo), s.currency),
			errors.ErrCodeAmountTooLow)
	}

	balance, err := s.GetBalance(freelancerID)
	if err != nil {
		return nil, err
	}
	if dto.AmountKobo > balance.AvailableKobo {
		s.metrics.RecordWithdrawal("rejected_balance")
		s.logger.Info("withdrawal rejected for insufficient balance",
			"freelancer_id", freelancerID,
			"requested_kobo", dto.AmountKobo,
			"available_kobo", balance.AvailableKobo)
		return nil, errors.NewValidationError("withdrawal amount exceeds available balance",
			errors.ErrCodeInsufficientBalance)
	}

	dm := &withdrawalDatamodel.Withdrawal{
		FreelancerID:  freelancerID,
		AmountKobo:    dto.AmountKobo,
		Currency:      s.currency,
		BankName:      dto.BankName,
		AccountNumber: dto.AccountNumber,
		AccountName:   dto.AccountName,
		Status:        withdrawalDatamodel.StatusPending,
	}
	if err := s.repo.Reserve(dm); err != nil {
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodeInsufficientBalance {
			// A concurrent request won the race between the balance check
			// above and the reserve.
			s.metrics.RecordWithdrawal("rejected_balance")
			return nil, err
		}
		s.logger.Error("failed to create withdrawal", "freelancer_id", freelancerID, "error", err)
		return nil, errors.NewInternalError("failed to create withdrawal", err)
	}

	s.metrics.RecordWithdrawal("accepted")
	s.logger.Info("withdrawal requested",
		"withdrawal_id", dm.ID,
		"freelancer_id", freelancerID,
		"amount_kobo", dm.AmountKobo)

	s.audit.Record(freelancerID, "withdrawal_requested", "withdrawals", dm.ID, nil, dm)
	s.notifier.Notify(freelancerID, "withdrawal_requested", "Withdrawal requested",
		"Your withdrawal request was received and is awaiting processing.", dm.ID)
	s.eventBus.Publish(context.Background(),
		events.NewWithdrawalRequestedEvent(dm.ID, freelancerID, dm.AmountKobo))

	return FromDataModel(dm), nil
}

func (s *Service) GetBalance(freelancerID int64) (*BalanceResponse, error) {
	earned, err := s.repo.EarnedKobo(freelancerID)
	if err != nil {
		s.logger.Error("failed to compute earnings", "freelancer_id", freelancerID, "error", err)
		return nil, errors.NewInternalError("failed to compute balance", err)
	}
	reserved, err := s.repo.ReservedKobo(freelancerID)
	if err != nil {
		s.logger.Error("failed to compute reserved balance", "freelancer_id", freelancerID, "error", err)
		return nil, errors.NewInternalError("failed to compute balance", err)
	}

	available := earned - reserved
	if available < 0 {
		available = 0
	}

	return &BalanceResponse{
		EarnedKobo:    earned,
		WithdrawnKobo: reserved,
		AvailableKobo: available,
		Currency:      s.currency,
	}, nil
}

func (s *Service) ListWithdrawals(freelancerID int64) ([]*Withdrawal, error) {
	dms, err := s.repo.GetByFreelancer(freelancerID)
	if err != nil {
		return nil, errors.NewInternalError("failed to list withdrawals", err)
	}
	return FromDataModelSlice(dms), nil
}

func (s *Service) Approve(adminID, withdrawalID int64) (*Withdrawal, error) {
	dm, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.UpdateStatusIf(dm.ID, withdrawalDatamodel.StatusPending, withdrawalDatamodel.StatusApproved,
		map[string]interface{}{"processed_at": now}); err != nil {
		return nil, err
	}

	s.audit.Record(adminID, "withdrawal_approved", "withdrawals", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": withdrawalDatamodel.StatusApproved})
	s.notifier.Notify(dm.FreelancerID, "withdrawal_approved", "Withdrawal approved",
		"Your withdrawal was approved, the transfer is on its way.", dm.ID)

	s.logger.Info("withdrawal approved", "withdrawal_id", dm.ID, "admin_id", adminID)

	return s.reload(dm.ID)
}

func (s *Service) Reject(adminID, withdrawalID int64, dto *RejectWithdrawalDTO) (*Withdrawal, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	dm, err := s.repo.GetByID(withdrawalID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.repo.UpdateStatusIf(dm.ID, withdrawalDatamodel.StatusPending, withdrawalDatamodel.StatusRejected,
		map[string]interface{}{"processed_at": now, "reject_reason": dto.Reason}); err != nil {
		return nil, err
	}

	s.audit.Record(adminID, "withdrawal_rejected", "withdrawals", dm.ID,
		map[string]interface{}{"status": dm.Status},
		map[string]interface{}{"status": withdrawalDatamodel.StatusRejected, "reason": dto.Reason})
	s.notifier.Notify(dm.FreelancerID, "withdrawal_rejected", "Withdrawal rejected", dto.Reason, dm.ID)

	return s.reload(dm.ID)
}

func (s *Service) reload(id int64) (*Withdrawal, error) {
	dm, err := s.repo.GetByID(id)
	if err != nil {
		return nil, err
	}
	return FromDataModel(dm), nil
}
