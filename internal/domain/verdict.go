package domain

import (
	"strings"
	"time"
)

// TrackingVerdict is the per-tracking-number classification outcome. A number
// the carrier returned nothing usable for classifies as not delivered with
// empty status fields.
type TrackingVerdict struct {
	TrackingNumber    string
	Delivered         bool
	StatusCode        string
	StatusDescription string
	EstimatedDelivery *time.Time
}

// AllDelivered reports whether every tracking leg of the fulfillment has a
// delivered verdict. A fulfillment with zero legs is never all-delivered.
func (f Fulfillment) AllDelivered(verdicts map[string]TrackingVerdict) bool {
	if len(f.Legs) == 0 {
		return false
	}

	for _, leg := range f.Legs {
		verdict, ok := verdicts[strings.TrimSpace(leg.Number)]
		if !ok || !verdict.Delivered {
			return false
		}
	}
	return true
}

// AllDelivered reports whether every fulfillment of the order is
// all-delivered. An order with zero fulfillments is never all-delivered.
func (o *Order) AllDelivered(verdicts map[string]TrackingVerdict) bool {
	if o == nil || len(o.Fulfillments) == 0 {
		return false
	}

	for _, fulfillment := range o.Fulfillments {
		if !fulfillment.AllDelivered(verdicts) {
			return false
		}
	}
	return true
}

// ConfirmationEvent records the settled outcome of one delivery-confirmation
// write. Failures are captured here instead of surfacing as errors so sibling
// writes can be evaluated independently.
type ConfirmationEvent struct {
	FulfillmentID string
	EventID       string
	HappenedAt    *time.Time
	Succeeded     bool
	Error         string
}
