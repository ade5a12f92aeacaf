package carrier

import (
	"strings"

	"github.com/Jaewhee/fedex-proxy/internal/domain"
)

// DeliveredStatusCode is the carrier's canonical delivered status code.
const DeliveredStatusCode = "DL"

// Classify maps a track result to a delivery verdict. Delivered is true when
// the latest status code is the canonical delivered code or the status
// description contains "delivered" (case-insensitive); sandbox responses are
// seen omitting the code while still carrying a delivered description. A nil
// result classifies as not delivered with empty status fields.
func Classify(trackingNumber string, result *TrackResult) domain.TrackingVerdict {
	verdict := domain.TrackingVerdict{TrackingNumber: trackingNumber}
	if result == nil {
		return verdict
	}

	verdict.StatusCode = result.StatusCode
	verdict.StatusDescription = result.StatusDescription
	verdict.EstimatedDelivery = result.EstimatedDelivery
	verdict.Delivered = result.StatusCode == DeliveredStatusCode ||
		strings.Contains(strings.ToLower(result.StatusDescription), "delivered")

	return verdict
}
