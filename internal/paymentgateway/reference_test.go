package paymentgateway_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	errors "github.com/frahmantamala/marketplace-payments/internal"
	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

var _ = Describe("OrderReference", func() {
	Describe("BuildOrderReference", func() {
		It("should embed the order number and timestamp", func() {
			now := time.UnixMilli(1700000000000)
			ref := paymentgateway.BuildOrderReference("MKT-7F3K9Q2XWZ", now)
			Expect(ref).To(Equal("ORDER-MKT-7F3K9Q2XWZ-1700000000000"))
		})
	})

	Describe("ParseOrderReference", func() {
		It("should round trip a built reference", func() {
			now := time.Now()
			ref := paymentgateway.BuildOrderReference("MKT-7F3K9Q2XWZ", now)

			orderID, ts, err := paymentgateway.ParseOrderReference(ref)
			Expect(err).NotTo(HaveOccurred())
			Expect(orderID).To(Equal("MKT-7F3K9Q2XWZ"))
			Expect(ts).To(Equal(now.UnixMilli()))
		})

		It("should keep hyphens inside the order number", func() {
			orderID, ts, err := paymentgateway.ParseOrderReference("ORDER-MKT-AB-CD-EF-1700000000000")
			Expect(err).NotTo(HaveOccurred())
			Expect(orderID).To(Equal("MKT-AB-CD-EF"))
			Expect(ts).To(Equal(int64(1700000000000)))
		})

		It("should reject a reference without the prefix", func() {
			_, _, err := paymentgateway.ParseOrderReference("PAY-MKT-XYZ-1700000000000")
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidReference))
		})

		It("should reject a non-numeric timestamp", func() {
			_, _, err := paymentgateway.ParseOrderReference("ORDER-MKT-XYZ-notatime")
			appErr, ok := errors.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(errors.ErrCodeInvalidReference))
		})

		It("should reject a reference with no timestamp segment", func() {
			_, _, err := paymentgateway.ParseOrderReference("ORDER-1700000000000")
			Expect(err).To(HaveOccurred())
		})

		It("should reject a reference ending in a hyphen", func() {
			_, _, err := paymentgateway.ParseOrderReference("ORDER-MKT-XYZ-")
			Expect(err).To(HaveOccurred())
		})
	})
})
