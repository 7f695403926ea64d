package order_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/auth"
	"github.com/frahmantamala/marketplace-payments/internal/order"
)

type mockOrderAPI struct {
	order *order.Order
	list  []*order.Order
	err   error

	lastUserID  int64
	lastIsAdmin bool
	listedAs    string
}

func (m *mockOrderAPI) CreateOrder(clientID int64, dto *order.CreateOrderDTO) (*order.Order, error) {
	m.lastUserID = clientID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) GetOrder(userID int64, isAdmin bool, orderID int64) (*order.Order, error) {
	m.lastUserID = userID
	m.lastIsAdmin = isAdmin
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) GetClientOrders(clientID int64) ([]*order.Order, error) {
	m.listedAs = "client"
	return m.list, m.err
}

func (m *mockOrderAPI) GetFreelancerOrders(freelancerID int64) ([]*order.Order, error) {
	m.listedAs = "freelancer"
	return m.list, m.err
}

func (m *mockOrderAPI) MarkDelivered(freelancerID, orderID int64, dto *order.DeliverOrderDTO) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) CompleteOrder(clientID, orderID int64, dto *order.CompleteOrderDTO) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) RequestRevision(clientID, orderID int64, message string) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) OpenDispute(actorID, orderID int64, dto *order.DisputeOrderDTO) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) ResolveDispute(adminID, orderID int64, dto *order.ResolveDisputeDTO) (*order.Order, error) {
	m.lastUserID = adminID
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

func (m *mockOrderAPI) CancelOrder(actorID int64, isAdmin bool, orderID int64, dto *order.CancelOrderDTO) (*order.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.order, nil
}

var _ = Describe("Order Handler", func() {
	var (
		api     *mockOrderAPI
		handler *order.Handler
		router  *chi.Mux
	)

	doAs := func(user *auth.User, method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		if user != nil {
			req = req.WithContext(auth.ContextWithUser(req.Context(), user))
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	client := &auth.User{ID: 11, Email: "client@example.com", Role: auth.RoleClient}
	freelancer := &auth.User{ID: 22, Email: "ada@example.com", Role: auth.RoleFreelancer}
	admin := &auth.User{ID: 99, Email: "ops@example.com", Role: auth.RoleAdmin}

	BeforeEach(func() {
		api = &mockOrderAPI{
			order: &order.Order{ID: 1, OrderNumber: "MKT-7F3K9Q2XWZ", ClientID: 11, FreelancerID: 22, Status: order.StatusPending},
		}
		handler = order.NewHandler(api)

		router = chi.NewRouter()
		router.Post("/orders", handler.CreateOrder)
		router.Get("/orders", handler.ListOrders)
		router.Get("/orders/{id}", handler.GetOrder)
		router.Post("/orders/{id}/deliver", handler.DeliverOrder)
		router.Post("/orders/{id}/resolve-dispute", handler.ResolveDispute)
	})

	Describe("CreateOrder", func() {
		It("should create an order for the authenticated client", func() {
			rec := doAs(client, http.MethodPost, "/orders", order.CreateOrderDTO{
				FreelancerID: 22,
				GigID:        42,
				PackageType:  "standard",
				AmountKobo:   500000,
			})

			Expect(rec.Code).To(Equal(http.StatusCreated))
			Expect(api.lastUserID).To(Equal(int64(11)))

			var got order.Order
			Expect(json.Unmarshal(rec.Body.Bytes(), &got)).To(Succeed())
			Expect(got.OrderNumber).To(Equal("MKT-7F3K9Q2XWZ"))
		})

		It("should reject an unauthenticated request", func() {
			rec := doAs(nil, http.MethodPost, "/orders", order.CreateOrderDTO{})
			Expect(rec.Code).To(Equal(http.StatusUnauthorized))
		})

		It("should reject a malformed body", func() {
			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString("{not json"))
			req = req.WithContext(auth.ContextWithUser(req.Context(), client))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GetOrder", func() {
		It("should pass the caller's identity to the service", func() {
			rec := doAs(admin, http.MethodGet, "/orders/1", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(api.lastUserID).To(Equal(int64(99)))
			Expect(api.lastIsAdmin).To(BeTrue())
		})

		It("should map a service error to its HTTP status", func() {
			api.err = errors.ErrOrderNotFound

			rec := doAs(client, http.MethodGet, "/orders/1", nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("should reject a non-numeric ID", func() {
			rec := doAs(client, http.MethodGet, "/orders/abc", nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("ListOrders", func() {
		It("should list by freelancer for freelancer tokens", func() {
			rec := doAs(freelancer, http.MethodGet, "/orders", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(api.listedAs).To(Equal("freelancer"))
		})

		It("should list by client for everyone else", func() {
			rec := doAs(client, http.MethodGet, "/orders", nil)

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(api.listedAs).To(Equal("client"))
		})
	})

	Describe("DeliverOrder", func() {
		It("should map a conflict to 409", func() {
			api.err = errors.ErrStatusConflict

			rec := doAs(freelancer, http.MethodPost, "/orders/1/deliver", order.DeliverOrderDTO{Message: "done"})
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("ResolveDispute", func() {
		It("should refuse non-admin callers before touching the service", func() {
			rec := doAs(client, http.MethodPost, "/orders/1/resolve-dispute", order.ResolveDisputeDTO{
				Resolution: order.ResolutionFavorClient,
				Notes:      "n/a",
			})

			Expect(rec.Code).To(Equal(http.StatusForbidden))
			Expect(api.lastUserID).To(BeZero())
		})

		It("should let admins through", func() {
			rec := doAs(admin, http.MethodPost, "/orders/1/resolve-dispute", order.ResolveDisputeDTO{
				Resolution: order.ResolutionFavorFreelancer,
				Notes:      "delivery was fine",
			})

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(api.lastUserID).To(Equal(int64(99)))
		})
	})
})
