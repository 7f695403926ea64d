package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/auth"
	"github.com/frahmantamala/marketplace-payments/internal/transport"
	"github.com/frahmantamala/marketplace-payments/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		repo:        repo,
	}
}

// GetRecordTrail handles GET /api/v1/admin/audit/{table}/{id}
func (h *Handler) GetRecordTrail(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		h.HandleError(w, errors.ErrUnauthorizedAccess)
		return
	}

	tableName := chi.URLParam(r, "table")
	idStr := chi.URLParam(r, "id")
	recordID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid record ID")
		return
	}

	entries, err := h.repo.ListByRecord(tableName, recordID)
	if err != nil {
		h.Logger.Error("GetRecordTrail: failed to list audit entries",
			"table", tableName, "record_id", recordID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list audit entries")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"entries": entries})
}
