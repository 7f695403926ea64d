package postgres

import (
	"sync"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	orderDatamodel "github.com/frahmantamala/marketplace-payments/internal/core/datamodel/order"
	"github.com/frahmantamala/marketplace-payments/internal/order"
)

func TestOrderRepository(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Order Repository Suite")
}

var _ = ginkgo.Describe("OrderRepository", func() {
	var (
		db   *gorm.DB
		repo *RepositoryPostgres
	)

	newOrder := func(orderNumber string, status order.Status) *orderDatamodel.Order {
		return &orderDatamodel.Order{
			OrderNumber:  orderNumber,
			ClientID:     11,
			FreelancerID: 22,
			GigID:        42,
			PackageType:  "standard",
			AmountKobo:   1000000,
			Currency:     "NGN",
			Status:       string(status),
		}
	}

	ginkgo.BeforeEach(func() {
		var err error
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			NowFunc: func() time.Time {
				return time.Now().UTC()
			},
		})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		// A second pooled connection would see its own empty in-memory
		// database, so pin the pool to one connection.
		sqlDB, err := db.DB()
		gomega.Expect(err).ToNot(gomega.HaveOccurred())
		sqlDB.SetMaxOpenConns(1)

		err = db.AutoMigrate(&orderDatamodel.Order{}, &orderDatamodel.Deliverable{})
		gomega.Expect(err).ToNot(gomega.HaveOccurred())

		repo = NewRepository(db)
	})

	ginkgo.Describe("Create and Get", func() {
		ginkgo.It("should insert an order and fetch it by ID and order number", func() {
			dm := newOrder("MKT-7F3K9Q2XWZ", order.StatusPending)
			gomega.Expect(repo.Create(dm)).To(gomega.Succeed())
			gomega.Expect(dm.ID).ToNot(gomega.BeZero())

			byID, err := repo.GetByID(dm.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(byID.OrderNumber).To(gomega.Equal("MKT-7F3K9Q2XWZ"))

			byNumber, err := repo.GetByOrderNumber("MKT-7F3K9Q2XWZ")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(byNumber.ID).To(gomega.Equal(dm.ID))
		})

		ginkgo.It("should return a not-found error for a missing order", func() {
			_, err := repo.GetByID(12345)
			gomega.Expect(err).To(gomega.Equal(errors.ErrOrderNotFound))

			_, err = repo.GetByOrderNumber("MKT-MISSING")
			gomega.Expect(err).To(gomega.Equal(errors.ErrOrderNotFound))
		})

		ginkgo.It("should reject a duplicate order number", func() {
			gomega.Expect(repo.Create(newOrder("MKT-DUP", order.StatusPending))).To(gomega.Succeed())
			gomega.Expect(repo.Create(newOrder("MKT-DUP", order.StatusPending))).ToNot(gomega.Succeed())
		})
	})

	ginkgo.Describe("Listing", func() {
		ginkgo.It("should list orders by client and by freelancer", func() {
			gomega.Expect(repo.Create(newOrder("MKT-A", order.StatusPending))).To(gomega.Succeed())
			gomega.Expect(repo.Create(newOrder("MKT-B", order.StatusInProgress))).To(gomega.Succeed())

			other := newOrder("MKT-C", order.StatusPending)
			other.ClientID = 33
			other.FreelancerID = 44
			gomega.Expect(repo.Create(other)).To(gomega.Succeed())

			clientOrders, err := repo.GetByClient(11)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(clientOrders).To(gomega.HaveLen(2))

			freelancerOrders, err := repo.GetByFreelancer(44)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(freelancerOrders).To(gomega.HaveLen(1))
			gomega.Expect(freelancerOrders[0].OrderNumber).To(gomega.Equal("MKT-C"))
		})
	})

	ginkgo.Describe("UpdateStatusIf", func() {
		ginkgo.It("should apply the transition and the stamps", func() {
			dm := newOrder("MKT-CAS", order.StatusPending)
			gomega.Expect(repo.Create(dm)).To(gomega.Succeed())

			now := time.Now().UTC()
			err := repo.UpdateStatusIf(dm.ID, order.StatusPending, order.StatusCancelled, map[string]interface{}{
				"cancelled_at":        now,
				"cancellation_reason": "client changed plans",
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			updated, err := repo.GetByID(dm.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(updated.Status).To(gomega.Equal(string(order.StatusCancelled)))
			gomega.Expect(updated.CancelledAt).ToNot(gomega.BeNil())
			gomega.Expect(*updated.CancellationReason).To(gomega.Equal("client changed plans"))
		})

		ginkgo.It("should report a conflict when the current status moved", func() {
			dm := newOrder("MKT-STALE", order.StatusInProgress)
			gomega.Expect(repo.Create(dm)).To(gomega.Succeed())

			err := repo.UpdateStatusIf(dm.ID, order.StatusPending, order.StatusInProgress, nil)
			gomega.Expect(err).To(gomega.Equal(errors.ErrStatusConflict))

			unchanged, err := repo.GetByID(dm.ID)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(unchanged.Status).To(gomega.Equal(string(order.StatusInProgress)))
		})

		ginkgo.It("should report not-found for a missing order", func() {
			err := repo.UpdateStatusIf(9999, order.StatusPending, order.StatusInProgress, nil)
			gomega.Expect(err).To(gomega.Equal(errors.ErrOrderNotFound))
		})

		ginkgo.It("should let exactly one of two racing writers win", func() {
			dm := newOrder("MKT-RACE", order.StatusDelivered)
			gomega.Expect(repo.Create(dm)).To(gomega.Succeed())

			var wg sync.WaitGroup
			results := make([]error, 2)
			targets := []order.Status{order.StatusCompleted, order.StatusInProgress}
			for i := range targets {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					results[i] = repo.UpdateStatusIf(dm.ID, order.StatusDelivered, targets[i], nil)
				}(i)
			}
			wg.Wait()

			winners := 0
			for _, err := range results {
				if err == nil {
					winners++
				} else {
					gomega.Expect(err).To(gomega.Equal(errors.ErrStatusConflict))
				}
			}
			gomega.Expect(winners).To(gomega.Equal(1))
		})
	})

	ginkgo.Describe("CreateDeliverable", func() {
		ginkgo.It("should attach a deliverable to an order", func() {
			dm := newOrder("MKT-DLV", order.StatusInProgress)
			gomega.Expect(repo.Create(dm)).To(gomega.Succeed())

			err := repo.CreateDeliverable(&orderDatamodel.Deliverable{
				OrderID:      dm.ID,
				FreelancerID: dm.FreelancerID,
				Message:      "final files attached",
				FileURLs:     `["https://cdn.example.com/final.zip"]`,
			})
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
		})
	})
})
