package payment_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/order"
	"github.com/frahmantamala/marketplace-payments/internal/payment"
	"github.com/frahmantamala/marketplace-payments/internal/transport"
)

var _ = Describe("WebhookHandler", func() {
	const (
		secret    = "whsec_test_secret"
		reference = "ORDER-MKT-7F3K9Q2XWZ-1700000000000"
	)

	var (
		repo    *mockPaymentRepo
		orders  *mockOrderService
		handler *payment.WebhookHandler
	)

	sign := func(body []byte) string {
		mac := hmac.New(sha512.New, []byte(secret))
		mac.Write(body)
		return hex.EncodeToString(mac.Sum(nil))
	}

	post := func(body []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/webhook", bytes.NewReader(body))
		if signature != "" {
			req.Header.Set("x-paystack-signature", signature)
		}
		rec := httptest.NewRecorder()
		handler.HandleGatewayWebhook(rec, req)
		return rec
	}

	chargeEvent := func(event string, data gatewaytypes.VerifyData) []byte {
		body, err := json.Marshal(map[string]interface{}{
			"event": event,
			"data":  data,
		})
		Expect(err).NotTo(HaveOccurred())
		return body
	}

	BeforeEach(func() {
		repo = newMockPaymentRepo()
		orders = newMockOrderService()
		testLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		m := metrics.NewWith(prometheus.NewRegistry())
		poller := payment.NewPoller(testLogger, repo, 5*time.Millisecond, 200*time.Millisecond, m)
		service := payment.NewService(testLogger, &mockGateway{}, repo, orders, poller, m, 20)
		handler = payment.NewWebhookHandler(transport.NewBaseHandler(testLogger), service, secret, testLogger)
	})

	It("should reject an unsigned request", func() {
		body := chargeEvent("charge.success", gatewaytypes.VerifyData{Reference: reference})

		rec := post(body, "")
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		Expect(orders.successCalls).To(BeZero())
	})

	It("should reject a tampered body", func() {
		body := chargeEvent("charge.success", gatewaytypes.VerifyData{Reference: reference})
		signature := sign(body)
		tampered := bytes.Replace(body, []byte(reference), []byte("ORDER-MKT-OTHER-1700000000000"), 1)

		rec := post(tampered, signature)
		Expect(rec.Code).To(Equal(http.StatusUnauthorized))
	})

	It("should settle a signed charge.success", func() {
		orders.successOrder = &order.Order{ID: 1, Status: order.StatusInProgress}
		body := chargeEvent("charge.success", gatewaytypes.VerifyData{
			Reference:  reference,
			Status:     gatewaytypes.TransactionSuccess,
			AmountKobo: 1000000,
			PaidAt:     "2026-08-01T10:30:00Z",
		})

		rec := post(body, sign(body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(orders.successCalls).To(Equal(1))
	})

	It("should acknowledge references from other products without processing", func() {
		body := chargeEvent("charge.success", gatewaytypes.VerifyData{
			Reference: "sub_renewal_991",
			Status:    gatewaytypes.TransactionSuccess,
		})

		rec := post(body, sign(body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(orders.successCalls).To(BeZero())

		var resp map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp["status"]).To(Equal("ignored"))
	})

	It("should return a retryable error when settlement fails", func() {
		orders.successErr = context.DeadlineExceeded
		body := chargeEvent("charge.success", gatewaytypes.VerifyData{
			Reference:  reference,
			Status:     gatewaytypes.TransactionSuccess,
			AmountKobo: 1000000,
		})

		rec := post(body, sign(body))
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
	})

	It("should mark the payment failed on charge.failed", func() {
		Expect(repo.Create(&paymentDatamodel.Payment{
			OrderID:          1,
			GatewayReference: reference,
			Status:           paymentDatamodel.StatusPending,
		})).To(Succeed())
		body := chargeEvent("charge.failed", gatewaytypes.VerifyData{
			Reference: reference,
			Status:    gatewaytypes.TransactionFailed,
		})

		rec := post(body, sign(body))
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(repo.failed).To(ContainElement(reference))
	})

	It("should acknowledge events it does not handle", func() {
		body := chargeEvent("transfer.success", gatewaytypes.VerifyData{Reference: reference})

		rec := post(body, sign(body))
		Expect(rec.Code).To(Equal(http.StatusOK))
	})
})
