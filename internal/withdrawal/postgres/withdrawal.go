package postgres

import (
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	withdrawalDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/withdrawal"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

// Reserve inserts a pending withdrawal only if the freelancer's recomputed
// available balance still covers it. Check and insert run as one statement,
// so two concurrent requests cannot both pass the balance check.
func (r *RepositoryPostgres) Reserve(w *withdrawalDatamodel.Withdrawal) error {
	err := r.db.Raw(`
		INSERT INTO withdrawals
			(freelancer_id, amount_kobo, currency, bank_name, account_number, account_name, status, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, 'pending', CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		WHERE (
			SELECT COALESCE(SUM(p.payout_kobo), 0)
			FROM payments p
			JOIN orders o ON o.id = p.order_id
			WHERE o.freelancer_id = ?
			  AND o.status = 'completed'
			  AND p.status = 'completed'
		) - (
			SELECT COALESCE(SUM(amount_kobo), 0)
			FROM withdrawals
			WHERE freelancer_id = ?
			  AND status IN ('pending', 'approved')
		) >= ?
		RETURNING id`,
		w.FreelancerID, w.AmountKobo, w.Currency, w.BankName, w.AccountNumber, w.AccountName,
		w.FreelancerID, w.FreelancerID, w.AmountKobo).Scan(&w.ID).Error
	if err != nil {
		return errors.NewInternalError("failed to create withdrawal", err)
	}
	if w.ID == 0 {
		return errors.NewValidationError("withdrawal amount exceeds available balance",
			errors.ErrCodeInsufficientBalance)
	}
	w.Status = withdrawalDatamodel.StatusPending
	return nil
}

func (r *RepositoryPostgres) GetByID(id int64) (*withdrawalDatamodel.Withdrawal, error) {
	var w withdrawalDatamodel.Withdrawal
	err := r.db.First(&w, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrWithdrawalNotFound
		}
		return nil, errors.NewInternalError("failed to fetch withdrawal", err)
	}
	return &w, nil
}

func (r *RepositoryPostgres) GetByFreelancer(freelancerID int64) ([]*withdrawalDatamodel.Withdrawal, error) {
	var withdrawals []*withdrawalDatamodel.Withdrawal
	err := r.db.
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&withdrawals).Error
	if err != nil {
		return nil, err
	}
	return withdrawals, nil
}

// EarnedKobo sums settled payouts for orders the freelancer completed. The
// join keeps a disputed-then-refunded order from counting.
func (r *RepositoryPostgres) EarnedKobo(freelancerID int64) (int64, error) {
	var total int64
	err := r.db.Raw(`
		SELECT COALESCE(SUM(p.payout_kobo), 0)
		FROM payments p
		JOIN orders o ON o.id = p.order_id
		WHERE o.freelancer_id = ?
		  AND o.status = 'completed'
		  AND p.status = 'completed'`, freelancerID).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *RepositoryPostgres) ReservedKobo(freelancerID int64) (int64, error) {
	var total int64
	err := r.db.Raw(`
		SELECT COALESCE(SUM(amount_kobo), 0)
		FROM withdrawals
		WHERE freelancer_id = ?
		  AND status IN ('pending', 'approved')`, freelancerID).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (r *RepositoryPostgres) UpdateStatusIf(id int64, from, to string, stamps map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for column, value := range stamps {
		updates[column] = value
	}

	result := r.db.Model(&withdrawalDatamodel.Withdrawal{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return errors.NewInternalError("failed to update withdrawal status", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.NewConflictError("withdrawal was already processed", errors.ErrCodeWithdrawalProcessed)
	}
	return nil
}
