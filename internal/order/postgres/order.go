package postgres

import (
	stderrors "errors"
	"time"

	"gorm.io/gorm"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	orderDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/marketplace-payments/internal/order"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

func (r *RepositoryPostgres) Create(o *orderDatamodel.Order) error {
	return r.db.Create(o).Error
}

func (r *RepositoryPostgres) GetByID(id int64) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.First(&o, "id = ?", id).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.NewInternalError("failed to fetch order", err)
	}
	return &o, nil
}

func (r *RepositoryPostgres) GetByOrderNumber(orderNumber string) (*orderDatamodel.Order, error) {
	var o orderDatamodel.Order
	err := r.db.First(&o, "order_number = ?", orderNumber).Error
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.ErrOrderNotFound
		}
		return nil, errors.NewInternalError("failed to fetch order", err)
	}
	return &o, nil
}

func (r *RepositoryPostgres) GetByClient(clientID int64) ([]*orderDatamodel.Order, error) {
	var orders []*orderDatamodel.Order
	err := r.db.
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *RepositoryPostgres) GetByFreelancer(freelancerID int64) ([]*orderDatamodel.Order, error) {
	var orders []*orderDatamodel.Order
	err := r.db.
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatusIf is the compare-and-set behind every transition: the UPDATE
// carries the expected current status in its WHERE clause, so concurrent
// writers race on the database row and exactly one wins.
func (r *RepositoryPostgres) UpdateStatusIf(id int64, from, to order.Status, stamps map[string]interface{}) error {
	updates := map[string]interface{}{
		"status":     string(to),
		"updated_at": time.Now(),
	}
	for column, value := range stamps {
		updates[column] = value
	}

	result := r.db.Model(&orderDatamodel.Order{}).
		Where("id = ? AND status = ?", id, string(from)).
		Updates(updates)
	if result.Error != nil {
		return errors.NewInternalError("failed to update order status", result.Error)
	}
	if result.RowsAffected == 0 {
		// Either the order vanished or its status moved under us.
		var count int64
		if err := r.db.Model(&orderDatamodel.Order{}).Where("id = ?", id).Count(&count).Error; err == nil && count == 0 {
			return errors.ErrOrderNotFound
		}
		return errors.ErrStatusConflict
	}
	return nil
}

func (r *RepositoryPostgres) CreateDeliverable(d *orderDatamodel.Deliverable) error {
	return r.db.Create(d).Error
}
