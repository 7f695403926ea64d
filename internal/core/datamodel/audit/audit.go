package audit

import (
	"encoding/json"
	"time"
)

// AuditLog rows are append-only: written once, never updated or deleted.
type AuditLog struct {
	ID        int64           `gorm:"primaryKey"`
	ActorID   int64           `gorm:"column:actor_id;not null;index"`
	Action    string          `gorm:"column:action;not null"`
	TableName string          `gorm:"column:table_name;not null"`
	RecordID  int64           `gorm:"column:record_id;not null"`
	OldData   json.RawMessage `gorm:"column:old_data;type:jsonb"`
	NewData   json.RawMessage `gorm:"column:new_data;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}
