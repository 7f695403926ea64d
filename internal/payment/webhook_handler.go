package payment

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/transport"
)

const signatureHeader = "x-paystack-signature"

// WebhookHandler receives server-to-server charge notifications from the
// gateway. The signature is HMAC-SHA512 over the raw body with the webhook
// secret; anything unsigned is dropped before parsing.
type WebhookHandler struct {
	*transport.BaseHandler
	service       *Service
	webhookSecret string
	logger        *slog.Logger
}

func NewWebhookHandler(baseHandler *transport.BaseHandler, service *Service, webhookSecret string, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		BaseHandler:   baseHandler,
		service:       service,
		webhookSecret: webhookSecret,
		logger:        logger,
	}
}

type webhookEvent struct {
	Event string                  `json:"event"`
	Data  gatewaytypes.VerifyData `json:"data"`
}

func (h *WebhookHandler) HandleGatewayWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "unable to read body")
		return
	}

	if !h.verifySignature(body, r.Header.Get(signatureHeader)) {
		h.logger.Error("webhook signature verification failed")
		h.HandleError(w, errors.NewUnauthorizedError("invalid webhook signature", errors.ErrCodeInvalidSignature))
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		h.logger.Error("invalid webhook payload", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	h.logger.Info("received gateway webhook",
		"event", event.Event,
		"reference", event.Data.Reference,
		"status", event.Data.Status)

	switch event.Event {
	case "charge.success":
		orderNumber, _, err := paymentgateway.ParseOrderReference(event.Data.Reference)
		if err != nil {
			// References from other products share the webhook endpoint;
			// acknowledge so the gateway stops retrying.
			h.logger.Warn("webhook reference not ours, ignoring", "reference", event.Data.Reference)
			h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ignored"})
			return
		}

		if _, err := h.service.RecordGatewaySuccess(orderNumber, event.Data.Reference, &event.Data); err != nil {
			h.logger.Error("failed to process charge.success webhook",
				"reference", event.Data.Reference, "error", err)
			// Non-2xx makes the gateway retry later.
			h.WriteError(w, http.StatusInternalServerError, "failed to process webhook")
			return
		}

	case "charge.failed":
		raw, _ := json.Marshal(event.Data)
		if err := h.service.repo.MarkFailed(event.Data.Reference, raw); err != nil {
			h.logger.Error("failed to process charge.failed webhook",
				"reference", event.Data.Reference, "error", err)
		}

	default:
		h.logger.Debug("ignoring webhook event", "event", event.Event)
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) verifySignature(body []byte, signature string) bool {
	if h.webhookSecret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(h.webhookSecret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
