package payment

import (
	"encoding/json"
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

// Checkout handles POST /api/v1/payments/checkout
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	var dto CheckoutDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("Checkout: invalid request body", "error", err)
		h.HandleError(w, errors.NewValidationError("invalid request body", errors.ErrCodeValidationFailed))
		return
	}
	if dto.Email == "" {
		dto.Email = user.Email
	}

	resp, err := h.Service.Checkout(r.Context(), user.ID, &dto)
	if err != nil {
		h.Logger.Error("Checkout: service error", "error", err, "order_id", dto.OrderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Checkout: session opened",
		"order_id", dto.OrderID,
		"reference", resp.Reference,
		"user_id", user.ID)

	h.WriteJSON(w, http.StatusOK, resp)
}

// Callback handles GET /api/v1/payments/callback?reference=...
// This is where the hosted payment page sends the browser back to.
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		// Some gateways use trxref instead.
		reference = r.URL.Query().Get("trxref")
	}
	if reference == "" {
		h.HandleError(w, errors.NewValidationError("reference is required", errors.ErrCodeInvalidReference))
		return
	}

	resp, err := h.Service.ResolveCallback(r.Context(), reference)
	if err != nil {
		h.Logger.Error("Callback: resolution failed", "error", err, "reference", reference)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, resp)
}

// GetOrderPayment handles GET /api/v1/orders/{id}/payment
func (h *Handler) GetOrderPayment(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.HandleError(w, errors.NewUnauthorizedError("authentication required", errors.ErrCodeInvalidToken))
		return
	}

	idStr := chi.URLParam(r, "id")
	orderID, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	p, err := h.Service.GetOrderPayment(user.ID, user.IsAdmin(), orderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}
