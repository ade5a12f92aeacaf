package domain

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
)

func TestDistinctTrackingNumbers(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		order Order
		want  []string
	}{
		{
			name:  "no fulfillments",
			order: Order{},
			want:  []string{},
		},
		{
			name: "shared number across fulfillments counted once",
			order: Order{Fulfillments: []Fulfillment{
				{ID: "f1", Legs: []TrackingLeg{{Number: "794000000001"}, {Number: "794000000002"}}},
				{ID: "f2", Legs: []TrackingLeg{{Number: "794000000001"}}},
			}},
			want: []string{"794000000001", "794000000002"},
		},
		{
			name: "case sensitive exact match",
			order: Order{Fulfillments: []Fulfillment{
				{ID: "f1", Legs: []TrackingLeg{{Number: "ab123"}, {Number: "AB123"}}},
			}},
			want: []string{"ab123", "AB123"},
		},
		{
			name: "blank numbers skipped",
			order: Order{Fulfillments: []Fulfillment{
				{ID: "f1", Legs: []TrackingLeg{{Number: "  "}, {Number: "794000000003"}}},
			}},
			want: []string{"794000000003"},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := tc.order.DistinctTrackingNumbers()
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("DistinctTrackingNumbers() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestFulfillmentAllDelivered(t *testing.T) {
	t.Parallel()

	delivered := map[string]TrackingVerdict{
		"a": {TrackingNumber: "a", Delivered: true},
		"b": {TrackingNumber: "b", Delivered: true},
	}
	mixed := map[string]TrackingVerdict{
		"a": {TrackingNumber: "a", Delivered: true},
		"b": {TrackingNumber: "b", Delivered: false},
	}

	testCases := []struct {
		name        string
		fulfillment Fulfillment
		verdicts    map[string]TrackingVerdict
		want        bool
	}{
		{name: "zero legs never delivered", fulfillment: Fulfillment{ID: "f1"}, verdicts: delivered, want: false},
		{name: "all legs delivered", fulfillment: Fulfillment{ID: "f1", Legs: []TrackingLeg{{Number: "a"}, {Number: "b"}}}, verdicts: delivered, want: true},
		{name: "one leg in transit", fulfillment: Fulfillment{ID: "f1", Legs: []TrackingLeg{{Number: "a"}, {Number: "b"}}}, verdicts: mixed, want: false},
		{name: "missing verdict counts as not delivered", fulfillment: Fulfillment{ID: "f1", Legs: []TrackingLeg{{Number: "zzz"}}}, verdicts: delivered, want: false},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := tc.fulfillment.AllDelivered(tc.verdicts); got != tc.want {
				t.Fatalf("AllDelivered() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOrderAllDelivered(t *testing.T) {
	t.Parallel()

	verdicts := map[string]TrackingVerdict{
		"a": {TrackingNumber: "a", Delivered: true},
	}

	empty := Order{}
	if empty.AllDelivered(verdicts) {
		t.Fatal("order with zero fulfillments must never be all-delivered")
	}

	withBareFulfillment := Order{Fulfillments: []Fulfillment{
		{ID: "f1", Legs: []TrackingLeg{{Number: "a"}}},
		{ID: "f2"},
	}}
	if withBareFulfillment.AllDelivered(verdicts) {
		t.Fatal("a fulfillment without legs must block order-level all-delivered")
	}

	complete := Order{Fulfillments: []Fulfillment{
		{ID: "f1", Legs: []TrackingLeg{{Number: "a"}}},
	}}
	if !complete.AllDelivered(verdicts) {
		t.Fatal("expected order to be all-delivered")
	}
}

func TestFulfillmentStatusDelivered(t *testing.T) {
	t.Parallel()

	if !FulfillmentStatus("DELIVERED").Delivered() {
		t.Fatal("DELIVERED should be terminal")
	}
	if !FulfillmentStatus(" delivered ").Delivered() {
		t.Fatal("status comparison should ignore case and padding")
	}
	if FulfillmentStatus("IN_TRANSIT").Delivered() {
		t.Fatal("IN_TRANSIT should not be terminal")
	}
}

func TestUpstreamErrorNotFound(t *testing.T) {
	t.Parallel()

	notFound := &UpstreamError{StatusCode: 404, Message: "order missing", NotFound: true}
	if !errors.Is(notFound, ErrNotFound) {
		t.Fatal("not-found upstream error should match ErrNotFound")
	}

	serverSide := &UpstreamError{StatusCode: 502, Message: "bad gateway"}
	if errors.Is(serverSide, ErrNotFound) {
		t.Fatal("server-side upstream error should not match ErrNotFound")
	}

	wrapped := fmt.Errorf("fetch order: %w", notFound)
	if !errors.Is(wrapped, ErrNotFound) {
		t.Fatal("wrapping should preserve the not-found classification")
	}
}
