package domain

import "strings"

// FulfillmentStatus is the order backend's fulfillment display status.
type FulfillmentStatus string

// StatusDelivered is the terminal state; a fulfillment already in it never
// receives another confirmation write.
const StatusDelivered FulfillmentStatus = "DELIVERED"

func (s FulfillmentStatus) String() string { return string(s) }

func (s FulfillmentStatus) Delivered() bool {
	return strings.EqualFold(strings.TrimSpace(string(s)), string(StatusDelivered))
}

// TrackingLeg is one carrier-assigned tracking number bound to a fulfillment.
type TrackingLeg struct {
	Number  string
	Carrier string
	URL     string
}

// Fulfillment is a shippable unit of an order. Tracking numbers are not
// guaranteed unique across legs or sibling fulfillments.
type Fulfillment struct {
	ID     string
	Status FulfillmentStatus
	Legs   []TrackingLeg
}

// Order is a read-only snapshot of the backend record for one invocation.
type Order struct {
	ID           string
	Name         string
	Status       string
	Fulfillments []Fulfillment
}

// DistinctTrackingNumbers deduplicates tracking numbers across all
// fulfillments (case-sensitive exact match), preserving first-seen order.
// Blank numbers are skipped.
func (o *Order) DistinctTrackingNumbers() []string {
	if o == nil {
		return nil
	}

	seen := make(map[string]struct{})
	numbers := make([]string, 0)
	for _, fulfillment := range o.Fulfillments {
		for _, leg := range fulfillment.Legs {
			number := strings.TrimSpace(leg.Number)
			if number == "" {
				continue
			}
			if _, ok := seen[number]; ok {
				continue
			}
			seen[number] = struct{}{}
			numbers = append(numbers, number)
		}
	}
	return numbers
}
