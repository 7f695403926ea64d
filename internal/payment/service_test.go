package payment_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	paymentDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/payment"
	gatewaytypes "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/paymentgateway"
	"github.com/frahmantamala/marketplace-payments/internal/metrics"
	"github.com/frahmantamala/marketplace-payments/internal/order"
	"github.com/frahmantamala/marketplace-payments/internal/payment"
)

type mockGateway struct {
	initData *gatewaytypes.InitializeData
	initErr  error
	initReqs []*gatewaytypes.InitializeRequest

	verifyData *gatewaytypes.VerifyData
	verifyErr  error
}

func (m *mockGateway) InitializeTransaction(ctx context.Context, req *gatewaytypes.InitializeRequest) (*gatewaytypes.InitializeData, error) {
	m.initReqs = append(m.initReqs, req)
	if m.initErr != nil {
		return nil, m.initErr
	}
	if m.initData != nil {
		return m.initData, nil
	}
	return &gatewaytypes.InitializeData{
		AuthorizationURL: "https://checkout.example.com/" + req.Reference,
		AccessCode:       "acc_" + req.Reference,
		Reference:        req.Reference,
	}, nil
}

func (m *mockGateway) VerifyTransaction(ctx context.Context, reference string) (*gatewaytypes.VerifyData, error) {
	if m.verifyErr != nil {
		return nil, m.verifyErr
	}
	return m.verifyData, nil
}

type mockOrderService struct {
	orders map[int64]*order.Order

	successOrder *order.Order
	successErr   error
	successCalls int
	lastAmount   int64
}

func newMockOrderService() *mockOrderService {
	return &mockOrderService{orders: make(map[int64]*order.Order)}
}

func (m *mockOrderService) GetOrder(userID int64, isAdmin bool, orderID int64) (*order.Order, error) {
	o, ok := m.orders[orderID]
	if !ok {
		return nil, errors.ErrOrderNotFound
	}
	if !isAdmin && !o.IsParticipant(userID) {
		return nil, errors.ErrUnauthorizedAccess
	}
	return o, nil
}

func (m *mockOrderService) HandlePaymentSuccess(orderNumber, reference string, amountKobo int64, paidAt time.Time, gatewayResponse json.RawMessage) (*order.Order, error) {
	m.successCalls++
	m.lastAmount = amountKobo
	if m.successErr != nil {
		return nil, m.successErr
	}
	return m.successOrder, nil
}

var _ = Describe("Payment Service", func() {
	const (
		clientID     = int64(11)
		freelancerID = int64(22)
	)

	var (
		gateway    *mockGateway
		repo       *mockPaymentRepo
		orders     *mockOrderService
		service    *payment.Service
		testLogger *slog.Logger
	)

	BeforeEach(func() {
		gateway = &mockGateway{}
		repo = newMockPaymentRepo()
		orders = newMockOrderService()
		testLogger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))

		m := metrics.NewWith(prometheus.NewRegistry())
		poller := payment.NewPoller(testLogger, repo, 5*time.Millisecond, 200*time.Millisecond, m)
		service = payment.NewService(testLogger, gateway, repo, orders, poller, m, 20)
	})

	seedOrder := func(status order.Status) *order.Order {
		o := &order.Order{
			ID:           1,
			OrderNumber:  "MKT-7F3K9Q2XWZ",
			ClientID:     clientID,
			FreelancerID: freelancerID,
			AmountKobo:   1000000,
			Currency:     "NGN",
			Status:       status,
		}
		orders.orders[o.ID] = o
		return o
	}

	Describe("Checkout", func() {
		It("should open a session and record a pending payment with the fee split", func() {
			o := seedOrder(order.StatusPending)

			resp, err := service.Checkout(context.Background(), clientID, &payment.CheckoutDTO{
				OrderID: o.ID,
				Email:   "client@example.com",
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.AuthorizationURL).To(HavePrefix("https://checkout.example.com/"))
			Expect(resp.AmountKobo).To(Equal(int64(1000000)))
			Expect(resp.CommissionKobo).To(Equal(int64(200000)))
			Expect(resp.PayoutKobo).To(Equal(int64(800000)))

			pending, err := repo.GetByReference(resp.Reference)
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.Status).To(Equal(paymentDatamodel.StatusPending))
			Expect(pending.OrderID).To(Equal(o.ID))

			Expect(gateway.initReqs).To(HaveLen(1))
			Expect(gateway.initReqs[0].Metadata["order_number"]).To(Equal(o.OrderNumber))
			Expect(gateway.initReqs[0].AmountKobo).To(Equal(int64(1000000)))
		})

		It("should reject checkout for someone else's order", func() {
			o := seedOrder(order.StatusPending)

			_, err := service.Checkout(context.Background(), freelancerID, &payment.CheckoutDTO{
				OrderID: o.ID,
				Email:   "freelancer@example.com",
			})
			Expect(err).To(Equal(errors.ErrUnauthorizedAccess))
		})

		It("should reject checkout when the order is not awaiting payment", func() {
			o := seedOrder(order.StatusInProgress)

			_, err := service.Checkout(context.Background(), clientID, &payment.CheckoutDTO{
				OrderID: o.ID,
				Email:   "client@example.com",
			})

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeStatusConflict))
		})

		It("should not record a payment when the gateway rejects the session", func() {
			o := seedOrder(order.StatusPending)
			gateway.initErr = errors.NewExternalError("gateway down", errors.ErrCodeGatewayUnavailable, nil)

			_, err := service.Checkout(context.Background(), clientID, &payment.CheckoutDTO{
				OrderID: o.ID,
				Email:   "client@example.com",
			})

			Expect(err).To(HaveOccurred())
			Expect(repo.byRef).To(BeEmpty())
		})
	})

	Describe("ResolveCallback", func() {
		const reference = "ORDER-MKT-7F3K9Q2XWZ-1700000000000"

		It("should settle a successful charge through the order service", func() {
			o := seedOrder(order.StatusInProgress)
			orders.successOrder = o
			gateway.verifyData = &gatewaytypes.VerifyData{
				Reference:  reference,
				Status:     gatewaytypes.TransactionSuccess,
				AmountKobo: 1000000,
				Currency:   "NGN",
				PaidAt:     "2026-08-01T10:30:00Z",
			}

			resp, err := service.ResolveCallback(context.Background(), reference)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Paid).To(BeTrue())
			Expect(resp.OrderID).To(Equal(o.ID))
			Expect(orders.successCalls).To(Equal(1))
			Expect(orders.lastAmount).To(Equal(int64(1000000)))
		})

		It("should mark the payment failed when the charge was abandoned", func() {
			Expect(repo.Create(&paymentDatamodel.Payment{
				OrderID:          1,
				GatewayReference: reference,
				Status:           paymentDatamodel.StatusPending,
			})).To(Succeed())
			gateway.verifyData = &gatewaytypes.VerifyData{
				Reference: reference,
				Status:    gatewaytypes.TransactionAbandoned,
			}

			_, err := service.ResolveCallback(context.Background(), reference)

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodePaymentFailed))
			Expect(repo.failed).To(ContainElement(reference))
		})

		It("should fall back to polling when the gateway still says pending", func() {
			o := seedOrder(order.StatusInProgress)
			gateway.verifyData = &gatewaytypes.VerifyData{
				Reference: reference,
				Status:    gatewaytypes.TransactionPending,
			}
			Expect(repo.Create(&paymentDatamodel.Payment{
				OrderID:          o.ID,
				GatewayReference: reference,
				Status:           paymentDatamodel.StatusPending,
			})).To(Succeed())

			go func() {
				time.Sleep(20 * time.Millisecond)
				repo.setStatus(reference, paymentDatamodel.StatusCompleted)
			}()

			resp, err := service.ResolveCallback(context.Background(), reference)

			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Paid).To(BeTrue())
			Expect(resp.OrderID).To(Equal(o.ID))
		})

		It("should reject a malformed reference before touching the gateway", func() {
			_, err := service.ResolveCallback(context.Background(), "trx_123456")

			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidReference))
		})
	})

	Describe("GetOrderPayment", func() {
		It("should return the payment for a participant", func() {
			o := seedOrder(order.StatusInProgress)
			Expect(repo.Create(&paymentDatamodel.Payment{
				OrderID:          o.ID,
				AmountKobo:       1000000,
				GatewayReference: "ORDER-MKT-7F3K9Q2XWZ-1700000000000",
				Status:           paymentDatamodel.StatusCompleted,
			})).To(Succeed())

			p, err := service.GetOrderPayment(freelancerID, false, o.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.OrderID).To(Equal(o.ID))
		})

		It("should deny outsiders", func() {
			o := seedOrder(order.StatusInProgress)

			_, err := service.GetOrderPayment(77, false, o.ID)
			Expect(err).To(Equal(errors.ErrUnauthorizedAccess))
		})
	})

	Describe("ReconcilePending", func() {
		const reference = "ORDER-MKT-7F3K9Q2XWZ-1700000000000"

		It("should settle stale pending payments the gateway confirms", func() {
			o := seedOrder(order.StatusInProgress)
			orders.successOrder = o
			stale := &paymentDatamodel.Payment{
				OrderID:          o.ID,
				GatewayReference: reference,
				Status:           paymentDatamodel.StatusPending,
			}
			Expect(repo.Create(stale)).To(Succeed())
			repo.pending = []*paymentDatamodel.Payment{stale}
			gateway.verifyData = &gatewaytypes.VerifyData{
				Reference:  reference,
				Status:     gatewaytypes.TransactionSuccess,
				AmountKobo: 1000000,
			}

			service.ReconcilePending(context.Background(), 10*time.Minute, 50)

			Expect(orders.successCalls).To(Equal(1))
		})

		It("should mark stale payments failed when the gateway says so", func() {
			stale := &paymentDatamodel.Payment{
				OrderID:          1,
				GatewayReference: reference,
				Status:           paymentDatamodel.StatusPending,
			}
			Expect(repo.Create(stale)).To(Succeed())
			repo.pending = []*paymentDatamodel.Payment{stale}
			gateway.verifyData = &gatewaytypes.VerifyData{
				Reference: reference,
				Status:    gatewaytypes.TransactionFailed,
			}

			service.ReconcilePending(context.Background(), 10*time.Minute, 50)

			Expect(repo.failed).To(ContainElement(reference))
			Expect(orders.successCalls).To(BeZero())
		})

		It("should skip rows with malformed references", func() {
			stale := &paymentDatamodel.Payment{
				OrderID:          1,
				GatewayReference: "trx_garbage",
				Status:           paymentDatamodel.StatusPending,
			}
			Expect(repo.Create(stale)).To(Succeed())
			repo.pending = []*paymentDatamodel.Payment{stale}

			service.ReconcilePending(context.Background(), 10*time.Minute, 50)

			Expect(orders.successCalls).To(BeZero())
			Expect(repo.failed).To(BeEmpty())
		})
	})
})
