package payment

import (
	"context"
	"log/slog"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

const (
	pollerOutcomeConfirmed = "confirmed"
	pollerOutcomeFailed    = "failed"
	pollerOutcomeTimeout   = "timeout"
	pollerOutcomeCancelled = "cancelled"
)

// Poller waits for a payment reference to reach a terminal status in the
// store. The webhook is the writer; the poller only reads. Bounded by a
// deadline so a redirect for a charge that never settles cannot hang the
// caller forever.
type Poller struct {
	payments Repository
	interval time.Duration
	deadline time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func NewPoller(logger *slog.Logger, payments Repository, interval, deadline time.Duration, m *metrics.Metrics) *Poller {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	if deadline <= 0 {
		deadline = 60 * time.Second
	}
	return &Poller{
		payments: payments,
		interval: interval,
		deadline: deadline,
		metrics:  m,
		logger:   logger,
	}
}

// WaitForConfirmation polls until the reference settles, the deadline passes
// or ctx is cancelled. A malformed reference fails immediately without a
// single store query.
func (p *Poller) WaitForConfirmation(ctx context.Context, reference string) (*paymentDatamodel.Payment, error) {
	if _, _, err := paymentgateway.ParseOrderReference(reference); err != nil {
		return nil, err
	}

	timeout := time.NewTimer(p.deadline)
	defer timeout.Stop()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	attempts := 0
	for {
		attempts++
		settled, done, err := p.check(reference)
		if done {
			if err != nil {
				p.metrics.RecordPollerOutcome(pollerOutcomeFailed, attempts)
				return nil, err
			}
			p.metrics.RecordPollerOutcome(pollerOutcomeConfirmed, attempts)
			return settled, nil
		}

		select {
		case <-ticker.C:
		case <-timeout.C:
			p.metrics.RecordPollerOutcome(pollerOutcomeTimeout, attempts)
			p.logger.Warn("payment confirmation timed out",
				"reference", reference,
				"attempts", attempts,
				"deadline", p.deadline)
			return nil, errors.NewExternalError(
				"payment confirmation timed out, check your order shortly",
				errors.ErrCodeConfirmationTimeout, nil)
		case <-ctx.Done():
			p.metrics.RecordPollerOutcome(pollerOutcomeCancelled, attempts)
			return nil, ctx.Err()
		}
	}
}

func (p *Poller) check(reference string) (*paymentDatamodel.Payment, bool, error) {
	dm, err := p.payments.GetByReference(reference)
	if err != nil {
		// Not found yet: checkout row may still be in flight, keep waiting.
		if appErr, ok := errors.IsAppError(err); ok && appErr.Code == errors.ErrCodePaymentNotFound {
			return nil, false, nil
		}
		return nil, true, err
	}

	switch dm.Status {
	case paymentDatamodel.StatusCompleted:
		return dm, true, nil
	case paymentDatamodel.StatusFailed:
		return nil, true, errors.NewValidationError("payment was not successful", errors.ErrCodePaymentFailed)
	default:
		return nil, false, nil
	}
}
