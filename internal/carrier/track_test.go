package carrier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

const sampleTrackBody = `{
  "output": {
    "completeTrackResults": [
      {
        "trackingNumber": "794843185271",
        "trackResults": [
          {
            "latestStatusDetail": {"code": "DL", "description": "Delivered"},
            "dateAndTimes": [
              {"type": "ACTUAL_DELIVERY", "dateTime": "2026-08-20T14:05:00-06:00"},
              {"type": "ESTIMATED_DELIVERY", "dateTime": "2026-08-20T23:59:59-06:00"}
            ]
          }
        ]
      }
    ]
  }
}`

func TestTrackClientTrackSuccess(t *testing.T) {
	t.Parallel()

	var gotBody trackRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track/v1/trackingnumbers" {
			t.Errorf("path = %s, want /track/v1/trackingnumbers", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok-abc" {
			t.Errorf("Authorization = %q, want Bearer tok-abc", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(sampleTrackBody))
	}))
	defer server.Close()

	c, err := NewTrackClient(server.URL)
	if err != nil {
		t.Fatalf("NewTrackClient() error = %v", err)
	}

	result, err := c.Track(context.Background(), "tok-abc", TrackQuery{TrackingNumber: "794843185271"})
	if err != nil {
		t.Fatalf("Track() unexpected error: %v", err)
	}

	if len(gotBody.TrackingInfo) != 1 || gotBody.TrackingInfo[0].TrackingNumberInfo.TrackingNumber != "794843185271" {
		t.Fatalf("request trackingInfo = %+v, want one entry for 794843185271", gotBody.TrackingInfo)
	}

	if result.StatusCode != "DL" {
		t.Fatalf("StatusCode = %q, want DL", result.StatusCode)
	}
	if result.StatusDescription != "Delivered" {
		t.Fatalf("StatusDescription = %q, want Delivered", result.StatusDescription)
	}
	if result.ActualDelivery == nil {
		t.Fatal("ActualDelivery should be extracted from the ACTUAL_DELIVERY event")
	}
	wantActual, _ := time.Parse(time.RFC3339, "2026-08-20T14:05:00-06:00")
	if !result.ActualDelivery.Equal(wantActual) {
		t.Fatalf("ActualDelivery = %v, want %v", result.ActualDelivery, wantActual)
	}
	if result.EstimatedDelivery == nil {
		t.Fatal("EstimatedDelivery should be extracted from the ESTIMATED_DELIVERY event")
	}
	if len(result.Raw) == 0 {
		t.Fatal("Raw payload should be retained for diagnostics")
	}
}

func TestTrackClientTrackShipDateHint(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body trackRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if got := body.TrackingInfo[0].ShipDateBegin; got != "2026-08-15" {
			t.Errorf("shipDateBegin = %q, want 2026-08-15", got)
		}
		_, _ = w.Write([]byte(sampleTrackBody))
	}))
	defer server.Close()

	c, err := NewTrackClient(server.URL)
	if err != nil {
		t.Fatalf("NewTrackClient() error = %v", err)
	}

	shipDate := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	if _, err := c.Track(context.Background(), "tok-abc", TrackQuery{TrackingNumber: "794843185271", ShipDate: &shipDate}); err != nil {
		t.Fatalf("Track() unexpected error: %v", err)
	}
}

func TestTrackClientTrackErrorStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"errors":[{"code":"SYSTEM.UNAVAILABLE.EXCEPTION"}]}`))
	}))
	defer server.Close()

	c, err := NewTrackClient(server.URL)
	if err != nil {
		t.Fatalf("NewTrackClient() error = %v", err)
	}

	_, err = c.Track(context.Background(), "tok-abc", TrackQuery{TrackingNumber: "794843185271"})
	if err == nil {
		t.Fatal("Track() expected error, got nil")
	}

	var carrierErr *CarrierError
	if !errors.As(err, &carrierErr) {
		t.Fatalf("error type = %T, want *CarrierError", err)
	}
	if carrierErr.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("StatusCode = %d, want 503", carrierErr.StatusCode)
	}
}

func TestTrackClientTrackMalformedBody(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		body string
	}{
		{name: "not json", body: `<html>backend melted</html>`},
		{name: "empty output", body: `{"output":{"completeTrackResults":[]}}`},
		{name: "result without leaf", body: `{"output":{"completeTrackResults":[{"trackingNumber":"794843185271","trackResults":[]}]}}`},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			c, err := NewTrackClient(server.URL)
			if err != nil {
				t.Fatalf("NewTrackClient() error = %v", err)
			}

			if _, err := c.Track(context.Background(), "tok-abc", TrackQuery{TrackingNumber: "794843185271"}); err == nil {
				t.Fatal("Track() expected error for malformed body")
			}
		})
	}
}
