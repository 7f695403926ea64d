package postgres

import (
	"time"

	"gorm.io/gorm"

	notificationDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/notification"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

func (r *RepositoryPostgres) Create(n *notificationDatamodel.Notification) error {
	return r.db.Create(n).Error
}

func (r *RepositoryPostgres) ListByUser(userID int64, limit int) ([]*notificationDatamodel.Notification, error) {
	var notifications []*notificationDatamodel.Notification
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *RepositoryPostgres) MarkRead(id, userID int64) error {
	return r.db.Model(&notificationDatamodel.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", id, userID).
		Update("read_at", time.Now()).Error
}
