package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	trackPath           = "/track/v1/trackingnumbers"
	defaultTrackTimeout = 15 * time.Second

	eventTypeActualDelivery    = "ACTUAL_DELIVERY"
	eventTypeEstimatedDelivery = "ESTIMATED_DELIVERY"
)

// TrackResult is the normalized leaf of one carrier lookup. Raw retains the
// carrier's payload for diagnostics.
type TrackResult struct {
	TrackingNumber    string
	StatusCode        string
	StatusDescription string
	EstimatedDelivery *time.Time
	ActualDelivery    *time.Time
	Raw               json.RawMessage
}

// TrackQuery identifies one lookup. ShipDate is an optional hint that narrows
// the carrier-side search window.
type TrackQuery struct {
	TrackingNumber string
	ShipDate       *time.Time
}

type trackRequest struct {
	IncludeDetailedScans bool                `json:"includeDetailedScans"`
	TrackingInfo         []trackRequestEntry `json:"trackingInfo"`
}

type trackRequestEntry struct {
	TrackingNumberInfo trackingNumberInfo `json:"trackingNumberInfo"`
	ShipDateBegin      string             `json:"shipDateBegin,omitempty"`
}

type trackingNumberInfo struct {
	TrackingNumber string `json:"trackingNumber"`
}

type trackResponse struct {
	Output struct {
		CompleteTrackResults []struct {
			TrackingNumber string `json:"trackingNumber"`
			TrackResults   []struct {
				LatestStatusDetail struct {
					Code        string `json:"code"`
					Description string `json:"description"`
				} `json:"latestStatusDetail"`
				DateAndTimes []struct {
					Type     string `json:"type"`
					DateTime string `json:"dateTime"`
				} `json:"dateAndTimes"`
			} `json:"trackResults"`
		} `json:"completeTrackResults"`
	} `json:"output"`
}

// TrackClient performs per-tracking-number lookups against the carrier's
// tracking API using a caller-supplied bearer token.
type TrackClient struct {
	client  *resty.Client
	baseURL string
}

func NewTrackClient(baseURL string) (*TrackClient, error) {
	client := resty.New()
	client.SetTimeout(defaultTrackTimeout)
	client.SetRetryCount(0)

	return NewTrackClientWithClient(baseURL, client)
}

func NewTrackClientWithClient(baseURL string, client *resty.Client) (*TrackClient, error) {
	trimmedURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmedURL == "" {
		return nil, fmt.Errorf("carrier base URL is required")
	}
	if _, err := url.ParseRequestURI(trimmedURL); err != nil {
		return nil, fmt.Errorf("invalid carrier base URL: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("resty client is required")
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultTrackTimeout)
	}
	client.SetRetryCount(0)

	return &TrackClient{
		client:  client,
		baseURL: trimmedURL,
	}, nil
}

// Track issues one lookup and extracts the latest status plus the estimated
// and actual delivery timestamps from the carrier's dated-event list.
func (c *TrackClient) Track(ctx context.Context, token string, query TrackQuery) (*TrackResult, error) {
	if c == nil || c.client == nil {
		return nil, fmt.Errorf("track client is not initialized")
	}

	trackingNumber := strings.TrimSpace(query.TrackingNumber)
	if trackingNumber == "" {
		return nil, fmt.Errorf("tracking number is required")
	}
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("bearer token is required")
	}

	entry := trackRequestEntry{
		TrackingNumberInfo: trackingNumberInfo{TrackingNumber: trackingNumber},
	}
	if query.ShipDate != nil {
		entry.ShipDateBegin = query.ShipDate.Format("2006-01-02")
	}

	response, err := c.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetBody(trackRequest{
			IncludeDetailedScans: true,
			TrackingInfo:         []trackRequestEntry{entry},
		}).
		Post(c.baseURL + trackPath)
	if err != nil {
		return nil, &CarrierError{
			Message: fmt.Sprintf("tracking lookup for %s failed", trackingNumber),
			Cause:   err,
		}
	}

	statusCode := response.StatusCode()
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return nil, &CarrierError{
			StatusCode: statusCode,
			Message:    carrierErrorMessage("tracking lookup", statusCode, strings.TrimSpace(response.String())),
		}
	}

	return parseTrackResponse(trackingNumber, response.Body())
}

func parseTrackResponse(trackingNumber string, body []byte) (*TrackResult, error) {
	var parsed trackResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &CarrierError{
			Message: "tracking lookup returned malformed body",
			Cause:   err,
		}
	}

	for _, complete := range parsed.Output.CompleteTrackResults {
		if complete.TrackingNumber != "" && complete.TrackingNumber != trackingNumber {
			continue
		}
		if len(complete.TrackResults) == 0 {
			continue
		}

		leaf := complete.TrackResults[0]
		result := &TrackResult{
			TrackingNumber:    trackingNumber,
			StatusCode:        strings.TrimSpace(leaf.LatestStatusDetail.Code),
			StatusDescription: strings.TrimSpace(leaf.LatestStatusDetail.Description),
			Raw:               json.RawMessage(body),
		}

		for _, dated := range leaf.DateAndTimes {
			at, err := time.Parse(time.RFC3339, strings.TrimSpace(dated.DateTime))
			if err != nil {
				continue
			}
			at = at.UTC()
			switch dated.Type {
			case eventTypeActualDelivery:
				if result.ActualDelivery == nil {
					result.ActualDelivery = &at
				}
			case eventTypeEstimatedDelivery:
				if result.EstimatedDelivery == nil {
					result.EstimatedDelivery = &at
				}
			}
		}

		return result, nil
	}

	return nil, &CarrierError{
		Message: fmt.Sprintf("tracking lookup response has no result for %s", trackingNumber),
	}
}
