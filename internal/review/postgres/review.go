package postgres

import (
	"gorm.io/gorm"

	reviewDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/review"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

func (r *RepositoryPostgres) Create(review *reviewDatamodel.Review) error {
	return r.db.Create(review).Error
}

func (r *RepositoryPostgres) ListByFreelancer(freelancerID int64, limit int) ([]*reviewDatamodel.Review, error) {
	var reviews []*reviewDatamodel.Review
	err := r.db.
		Where("freelancer_id = ?", freelancerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, err
	}
	return reviews, nil
}
