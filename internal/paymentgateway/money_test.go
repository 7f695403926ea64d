package paymentgateway_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/marketplace-payments/internal/paymentgateway"
)

func TestPaymentGateway(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "PaymentGateway Suite")
}

var _ = Describe("Money", func() {
	Describe("ToMinorUnits", func() {
		It("should convert naira to kobo", func() {
			Expect(paymentgateway.ToMinorUnits(5000)).To(Equal(int64(500000)))
		})

		It("should be exact for two decimal places", func() {
			Expect(paymentgateway.ToMinorUnits(19.99)).To(Equal(int64(1999)))
			Expect(paymentgateway.ToMinorUnits(0.01)).To(Equal(int64(1)))
			Expect(paymentgateway.ToMinorUnits(1234567.89)).To(Equal(int64(123456789)))
		})

		It("should round half away from zero", func() {
			Expect(paymentgateway.ToMinorUnits(0.005)).To(Equal(int64(1)))
		})

		It("should handle zero", func() {
			Expect(paymentgateway.ToMinorUnits(0)).To(Equal(int64(0)))
		})
	})

	Describe("ToMajorUnits", func() {
		It("should convert kobo back to naira", func() {
			Expect(paymentgateway.ToMajorUnits(500000)).To(Equal(float64(5000)))
			Expect(paymentgateway.ToMajorUnits(1999)).To(Equal(19.99))
		})

		It("should round trip amounts with two decimals", func() {
			amounts := []float64{0.01, 1.5, 200000, 19.99, 73.20}
			for _, amount := range amounts {
				Expect(paymentgateway.ToMajorUnits(paymentgateway.ToMinorUnits(amount))).To(Equal(amount))
			}
		})
	})
})
