package postgres

import (
	"gorm.io/gorm"

	auditDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/audit"
)

type RepositoryPostgres struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *RepositoryPostgres {
	return &RepositoryPostgres{db: db}
}

func (r *RepositoryPostgres) Create(entry *auditDatamodel.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *RepositoryPostgres) ListByRecord(tableName string, recordID int64) ([]*auditDatamodel.AuditLog, error) {
	var entries []*auditDatamodel.AuditLog
	err := r.db.
		Where("table_name = ? AND record_id = ?", tableName, recordID).
		Order("created_at ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *RepositoryPostgres) ListByActor(actorID int64, limit int) ([]*auditDatamodel.AuditLog, error) {
	var entries []*auditDatamodel.AuditLog
	err := r.db.
		Where("actor_id = ?", actorID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
