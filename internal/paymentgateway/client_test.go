package paymentgateway_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

var _ = Describe("Client", func() {
	var testLogger *slog.Logger

	BeforeEach(func() {
		testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
	})

	newClient := func(baseURL, secretKey string) *paymentgateway.Client {
		return paymentgateway.NewClient(paymentgateway.Config{
			BaseURL:        baseURL,
			SecretKey:      secretKey,
			CallbackURL:    "https://app.example.com/api/v1/payments/callback",
			RequestTimeout: 2 * time.Second,
			ReadyTimeout:   1 * time.Second,
		}, testLogger)
	}

	Describe("EnsureReady", func() {
		It("should probe the gateway only once across concurrent callers", func() {
			var probes int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&probes, 1)
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newClient(server.URL, "sk_test_secret")

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					defer GinkgoRecover()
					Expect(client.EnsureReady(context.Background())).To(Succeed())
				}()
			}
			wg.Wait()

			Expect(atomic.LoadInt32(&probes)).To(Equal(int32(1)))
		})

		It("should retry after a failed probe", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			client := newClient(server.URL, "sk_test_secret")

			server.Close()
			err := client.EnsureReady(context.Background())
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayUnavailable))

			recovered := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))
			defer recovered.Close()

			retryClient := newClient(recovered.URL, "sk_test_secret")
			Expect(retryClient.EnsureReady(context.Background())).To(Succeed())
		})
	})

	Describe("InitializeTransaction", func() {
		It("should fail fast when the secret key is missing", func() {
			client := newClient("http://127.0.0.1:1", "")

			_, err := client.InitializeTransaction(context.Background(), &gatewaytypes.InitializeRequest{
				Email:      "client@example.com",
				AmountKobo: 500000,
				Currency:   "NGN",
				Reference:  "ORDER-MKT-XYZ-1700000000000",
			})
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(errors.ErrorTypeInternal))
		})

		It("should reject an invalid request before calling the gateway", func() {
			client := newClient("http://127.0.0.1:1", "sk_test_secret")

			_, err := client.InitializeTransaction(context.Background(), &gatewaytypes.InitializeRequest{
				Email:     "client@example.com",
				Currency:  "NGN",
				Reference: "ORDER-MKT-XYZ-1700000000000",
			})
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeValidationFailed))
		})

		It("should return the checkout session on success", func() {
			var gotAuth string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost && r.URL.Path == "/transaction/initialize" {
					gotAuth = r.Header.Get("Authorization")
					json.NewEncoder(w).Encode(gatewaytypes.InitializeResponse{
						Status:  true,
						Message: "Authorization URL created",
						Data: gatewaytypes.InitializeData{
							AuthorizationURL: "https://checkout.example.com/abc123",
							AccessCode:       "abc123",
							Reference:        "ORDER-MKT-XYZ-1700000000000",
						},
					})
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newClient(server.URL, "sk_test_secret")
			data, err := client.InitializeTransaction(context.Background(), &gatewaytypes.InitializeRequest{
				Email:      "client@example.com",
				AmountKobo: 500000,
				Currency:   "NGN",
				Reference:  "ORDER-MKT-XYZ-1700000000000",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(data.AuthorizationURL).To(Equal("https://checkout.example.com/abc123"))
			Expect(data.AccessCode).To(Equal("abc123"))
			Expect(gotAuth).To(Equal("Bearer sk_test_secret"))
		})

		It("should surface a gateway rejection", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/transaction/initialize" {
					json.NewEncoder(w).Encode(gatewaytypes.InitializeResponse{
						Status:  false,
						Message: "Invalid amount",
					})
					return
				}
				w.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := newClient(server.URL, "sk_test_secret")
			_, err := client.InitializeTransaction(context.Background(), &gatewaytypes.InitializeRequest{
				Email:      "client@example.com",
				AmountKobo: 500000,
				Currency:   "NGN",
				Reference:  "ORDER-MKT-XYZ-1700000000000",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodePaymentFailed))
		})
	})

	Describe("VerifyTransaction", func() {
		It("should return the transaction state by reference", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path == "/transaction/verify/ORDER-MKT-XYZ-1700000000000" {
					json.NewEncoder(w).Encode(gatewaytypes.VerifyResponse{
						Status:  true,
						Message: "Verification successful",
						Data: gatewaytypes.VerifyData{
							Reference:  "ORDER-MKT-XYZ-1700000000000",
							Status:     gatewaytypes.TransactionSuccess,
							AmountKobo: 500000,
							Currency:   "NGN",
							Channel:    "card",
							PaidAt:     "2026-08-01T10:30:00Z",
						},
					})
					return
				}
				w.WriteHeader(http.StatusNotFound)
			}))
			defer server.Close()

			client := newClient(server.URL, "sk_test_secret")
			data, err := client.VerifyTransaction(context.Background(), "ORDER-MKT-XYZ-1700000000000")

			Expect(err).NotTo(HaveOccurred())
			Expect(data.Status).To(Equal(gatewaytypes.TransactionSuccess))
			Expect(data.AmountKobo).To(Equal(int64(500000)))
		})

		It("should reject an empty reference", func() {
			client := newClient("http://127.0.0.1:1", "sk_test_secret")

			_, err := client.VerifyTransaction(context.Background(), "")
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidReference))
		})

		It("should map a non-200 gateway response", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			}))
			defer server.Close()

			client := newClient(server.URL, "sk_test_secret")
			_, err := client.VerifyTransaction(context.Background(), "ORDER-MKT-XYZ-1700000000000")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeGatewayUnavailable))
		})
	})
})
