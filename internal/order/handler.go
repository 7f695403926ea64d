package order

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

type ServiceAPI interface {
	CreateOrder(clientID int64, dto *CreateOrderDTO) (*Order, error)
	GetOrder(userID int64, isAdmin bool, orderID int64) (*Order, error)
	GetClientOrders(clientID int64) ([]*Order, error)
	GetFreelancerOrders(freelancerID int64) ([]*Order, error)
	MarkDelivered(freelancerID, orderID int64, dto *DeliverOrderDTO) (*Order, error)
	CompleteOrder(clientID, orderID int64, dto *CompleteOrderDTO) (*Order, error)
	RequestRevision(clientID, orderID int64, message string) (*Order, error)
	OpenDispute(actorID, orderID int64, dto *DisputeOrderDTO) (*Order, error)
	ResolveDispute(adminID, orderID int64, dto *ResolveDisputeDTO) (*Order, error)
	CancelOrder(actorID int64, isAdmin bool, orderID int64, dto *CancelOrderDTO) (*Order, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateOrder: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.CreateOrder(user.ID, &dto)
	if err != nil {
		h.Logger.Error("CreateOrder: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateOrder: order created",
		"order_id", o.ID,
		"order_number", o.OrderNumber,
		"client_id", user.ID)

	h.WriteJSON(w, http.StatusCreated, o)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	o, err := h.Service.GetOrder(user.ID, user.IsAdmin(), orderID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var (
		orders []*Order
		err    error
	)
	if user.Role == auth.RoleFreelancer {
		orders, err = h.Service.GetFreelancerOrders(user.ID)
	} else {
		orders, err = h.Service.GetClientOrders(user.ID)
	}
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (h *Handler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var dto DeliverOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.MarkDelivered(user.ID, orderID, &dto)
	if err != nil {
		h.Logger.Error("DeliverOrder: service error", "error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var dto CompleteOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.CompleteOrder(user.ID, orderID, &dto)
	if err != nil {
		h.Logger.Error("CompleteOrder: service error", "error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.RequestRevision(user.ID, orderID, body.Message)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) DisputeOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var dto DisputeOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.OpenDispute(user.ID, orderID, &dto)
	if err != nil {
		h.Logger.Error("DisputeOrder: service error", "error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		h.HandleError(w, errors.ErrUnauthorizedAccess)
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var dto ResolveDisputeDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.ResolveDispute(user.ID, orderID, &dto)
	if err != nil {
		h.Logger.Error("ResolveDispute: service error", "error", err, "order_id", orderID, "admin_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var dto CancelOrderDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.Service.CancelOrder(user.ID, user.IsAdmin(), orderID, &dto)
	if err != nil {
		h.Logger.Error("CancelOrder: service error", "error", err, "order_id", orderID, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, o)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid order ID")
		return 0, false
	}
	return id, true
}
