package paymentgateway

import "math"

// The gateway charges in minor currency units (kobo for naira); the rest of
// the application also stores kobo, so these conversions only appear at the
// display/API boundary. Exact for all amounts with at most 2 decimal digits.

func ToMinorUnits(major float64) int64 {
	return int64(math.Round(major * 100))
}

func ToMajorUnits(minor int64) float64 {
	return float64(minor) / 100
}
