package audit

import (
	"encoding/json"
	"log/slog"
	"time"

	auditDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/audit"
)

type Repository interface {
	Create(entry *auditDatamodel.AuditLog) error
	ListByRecord(tableName string, recordID int64) ([]*auditDatamodel.AuditLog, error)
	ListByActor(actorID int64, limit int) ([]*auditDatamodel.AuditLog, error)
}

// Recorder writes append-only audit entries. Recording is fire-and-forget:
// the business operation that triggered it has already committed and must not
// fail because the trail could not be written.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(logger *slog.Logger, repo Repository) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(actorID int64, action, tableName string, recordID int64, oldData, newData interface{}) {
	entry := &auditDatamodel.AuditLog{
		ActorID:   actorID,
		Action:    action,
		TableName: tableName,
		RecordID:  recordID,
		OldData:   marshal(oldData),
		NewData:   marshal(newData),
		CreatedAt: time.Now(),
	}

	go func() {
		if err := r.repo.Create(entry); err != nil {
			r.logger.Error("failed to write audit entry",
				"action", action,
				"table", tableName,
				"record_id", recordID,
				"error", err)
		}
	}()
}

func marshal(v interface{}) json.RawMessage {
	if v == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return raw
}
