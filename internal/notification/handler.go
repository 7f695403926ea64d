package notification

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/frahmantamala/marketplace-payments/internal/auth"
	"github.com/frahmantamala/marketplace-payments/internal/transport"
	"github.com/frahmantamala/marketplace-payments/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	notifications, err := h.Service.List(user.ID, limit)
	if err != nil {
		h.Logger.Error("ListNotifications: failed", "user_id", user.ID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to list notifications")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"notifications": notifications})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid notification ID")
		return
	}

	if err := h.Service.MarkRead(id, user.ID); err != nil {
		h.Logger.Error("MarkRead: failed", "notification_id", id, "user_id", user.ID, "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to mark notification read")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
