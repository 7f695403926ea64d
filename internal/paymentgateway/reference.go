package paymentgateway

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	errors "github.com/frahmantamala/marketplace-payments/internal"
)

const referencePrefix = "ORDER-"

// BuildOrderReference produces the gateway reference for an order payment:
// ORDER-{orderID}-{unix millis}. The redirect callback later has nothing but
// this string to recover the order from.
func BuildOrderReference(orderID string, now time.Time) string {
	return fmt.Sprintf("%s%s-%d", referencePrefix, orderID, now.UnixMilli())
}

// ParseOrderReference extracts the order identifier and timestamp. The order
// identifier may itself contain hyphens; the timestamp never does, so the
// split happens at the last hyphen and the tail must be numeric.
func ParseOrderReference(reference string) (orderID string, timestamp int64, err error) {
	if !strings.HasPrefix(reference, referencePrefix) {
		return "", 0, errors.NewValidationError(
			fmt.Sprintf("reference %q does not start with %s", reference, referencePrefix),
			errors.ErrCodeInvalidReference)
	}

	rest := strings.TrimPrefix(reference, referencePrefix)
	idx := strings.LastIndex(rest, "-")
	if idx <= 0 || idx == len(rest)-1 {
		return "", 0, errors.NewValidationError(
			fmt.Sprintf("reference %q is malformed", reference),
			errors.ErrCodeInvalidReference)
	}

	orderID = rest[:idx]
	timestamp, parseErr := strconv.ParseInt(rest[idx+1:], 10, 64)
	if parseErr != nil {
		return "", 0, errors.NewValidationError(
			fmt.Sprintf("reference %q has a non-numeric timestamp", reference),
			errors.ErrCodeInvalidReference)
	}

	return orderID, timestamp, nil
}
