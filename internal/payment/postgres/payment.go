package postgres

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

func (r *RepositoryPostgres) Create(p *paymentDatamodel.Payment) error {
	return r.db.Create(p).Error
}

func (r *RepositoryPostgres) GetByReference(reference string) (*paymentDatamodel.Payment, error) {
	var p paymentDatamodel.Payment
	err := r.db.First(&p, "gateway_reference = ?", reference).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.NewInternalError("failed to fetch payment", err)
	}
	return &p, nil
}

func (r *RepositoryPostgres) GetByOrderID(orderID int64) (*paymentDatamodel.Payment, error) {
	// An order can accumulate several attempts; the completed one wins,
	// otherwise return the latest.
	var p paymentDatamodel.Payment
	err := r.db.
		Where("order_id = ?", orderID).
		Order("CASE WHEN status = 'completed' THEN 0 ELSE 1 END, created_at DESC").
		First(&p).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrPaymentNotFound
		}
		return nil, errors.NewInternalError("failed to fetch payment", err)
	}
	return &p, nil
}

func (r *RepositoryPostgres) MarkCompleted(reference string, paidAt time.Time, gatewayResponse json.RawMessage) error {
	result := r.db.Model(&paymentDatamodel.Payment{}).
		Where("gateway_reference = ? AND status = ?", reference, paymentDatamodel.StatusPending).
		Updates(map[string]interface{}{
			"status":           paymentDatamodel.StatusCompleted,
			"paid_at":          paidAt,
			"gateway_response": gatewayResponse,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return errors.NewInternalError("failed to complete payment", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Zero rows: find out whether that is a harmless replay or a row that
	// already left the pending state some other way.
	current, err := r.GetByReference(reference)
	if err != nil {
		return err
	}
	if current.Status == paymentDatamodel.StatusCompleted {
		return nil
	}
	return errors.NewConflictError("payment is no longer pending", errors.ErrCodePaymentNotPending)
}

// SettleFailed flips a payment that was already marked failed back to
// completed. A verified success confirmation outranks a failed mark: the
// gateway says money moved, so the record must say so too.
func (r *RepositoryPostgres) SettleFailed(reference string, paidAt time.Time, gatewayResponse json.RawMessage) error {
	result := r.db.Model(&paymentDatamodel.Payment{}).
		Where("gateway_reference = ? AND status = ?", reference, paymentDatamodel.StatusFailed).
		Updates(map[string]interface{}{
			"status":           paymentDatamodel.StatusCompleted,
			"paid_at":          paidAt,
			"gateway_response": gatewayResponse,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return errors.NewInternalError("failed to settle failed payment", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	current, err := r.GetByReference(reference)
	if err != nil {
		return err
	}
	if current.Status == paymentDatamodel.StatusCompleted {
		return nil
	}
	return errors.NewConflictError("payment is no longer failed", errors.ErrCodePaymentNotPending)
}

func (r *RepositoryPostgres) MarkFailed(reference string, gatewayResponse json.RawMessage) error {
	result := r.db.Model(&paymentDatamodel.Payment{}).
		Where("gateway_reference = ? AND status = ?", reference, paymentDatamodel.StatusPending).
		Updates(map[string]interface{}{
			"status":           paymentDatamodel.StatusFailed,
			"gateway_response": gatewayResponse,
			"updated_at":       time.Now(),
		})
	if result.Error != nil {
		return errors.NewInternalError("failed to mark payment failed", result.Error)
	}
	return nil
}

func (r *RepositoryPostgres) ListPendingBefore(cutoff time.Time, limit int) ([]*paymentDatamodel.Payment, error) {
	var payments []*paymentDatamodel.Payment
	err := r.db.
		Where("status = ? AND created_at < ?", paymentDatamodel.StatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&payments).Error
	if err != nil {
		return nil, err
	}
	return payments, nil
}
