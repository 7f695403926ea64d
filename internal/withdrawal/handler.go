package withdrawal

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
	RequestWithdrawal(freelancerID int64, dto *CreateWithdrawalDTO) (*Withdrawal, error)
	GetBalance(freelancerID int64) (*BalanceResponse, error)
	ListWithdrawals(freelancerID int64) ([]*Withdrawal, error)
	Approve(adminID, withdrawalID int64) (*Withdrawal, error)
	Reject(adminID, withdrawalID int64, dto *RejectWithdrawalDTO) (*Withdrawal, error)
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

func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateWithdrawalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("RequestWithdrawal: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wd, err := h.Service.RequestWithdrawal(user.ID, &dto)
	if err != nil {
		h.Logger.Error("RequestWithdrawal: service error", "error", err, "user_id", user.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RequestWithdrawal: withdrawal created",
		"withdrawal_id", wd.ID,
		"user_id", user.ID,
		"amount_kobo", wd.AmountKobo)

	h.WriteJSON(w, http.StatusCreated, wd)
}

func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := h.Service.GetBalance(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, balance)
}

func (h *Handler) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	withdrawals, err := h.Service.ListWithdrawals(user.ID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{"withdrawals": withdrawals})
}

func (h *Handler) ApproveWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		h.HandleError(w, errors.ErrUnauthorizedAccess)
		return
	}

	id, ok := h.withdrawalID(w, r)
	if !ok {
		return
	}

	wd, err := h.Service.Approve(user.ID, id)
	if err != nil {
		h.Logger.Error("ApproveWithdrawal: service error", "error", err, "withdrawal_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wd)
}

func (h *Handler) RejectWithdrawal(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok || user == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if !user.IsAdmin() {
		h.HandleError(w, errors.ErrUnauthorizedAccess)
		return
	}

	id, ok := h.withdrawalID(w, r)
	if !ok {
		return
	}

	var dto RejectWithdrawalDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wd, err := h.Service.Reject(user.ID, id, &dto)
	if err != nil {
		h.Logger.Error("RejectWithdrawal: service error", "error", err, "withdrawal_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, wd)
}

func (h *Handler) withdrawalID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid withdrawal ID")
		return 0, false
	}
	return id, true
}
