package shopify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Jaewhee/fedex-proxy/internal/domain"
)

const orderGIDPrefix = "gid://shopify/Order/"

const orderQuery = `query OrderWithFulfillments($id: ID!) {
  order(id: $id) {
    id
    name
    displayFulfillmentStatus
    fulfillments(first: 50) {
      id
      displayStatus
      trackingInfo(first: 50) {
        number
        company
        url
      }
    }
  }
}`

const fulfillmentEventCreateMutation = `mutation ConfirmDelivered($event: FulfillmentEventInput!) {
  fulfillmentEventCreate(fulfillmentEvent: $event) {
    fulfillmentEvent {
      id
      status
    }
    userErrors {
      field
      message
    }
  }
}`

type orderPayload struct {
	Order *struct {
		ID                       string `json:"id"`
		Name                     string `json:"name"`
		DisplayFulfillmentStatus string `json:"displayFulfillmentStatus"`
		Fulfillments             []struct {
			ID            string `json:"id"`
			DisplayStatus string `json:"displayStatus"`
			TrackingInfo  []struct {
				Number  string `json:"number"`
				Company string `json:"company"`
				URL     string `json:"url"`
			} `json:"trackingInfo"`
		} `json:"fulfillments"`
	} `json:"order"`
}

type fulfillmentEventPayload struct {
	FulfillmentEventCreate struct {
		FulfillmentEvent *struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"fulfillmentEvent"`
		UserErrors []struct {
			Field   []string `json:"field"`
			Message string   `json:"message"`
		} `json:"userErrors"`
	} `json:"fulfillmentEventCreate"`
}

// Gateway reads fulfillment records from the order backend and writes
// delivery-confirmation events back.
type Gateway struct {
	client *Client
	logger *zap.Logger
}

func NewGateway(client *Client, logger *zap.Logger) (*Gateway, error) {
	if client == nil {
		return nil, fmt.Errorf("shopify client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Gateway{
		client: client,
		logger: logger,
	}, nil
}

// FetchOrderWithFulfillments reads the order snapshot: id, name, aggregate
// status, and per fulfillment its id, status, and tracking legs. A missing
// order maps to a not-found UpstreamError.
func (g *Gateway) FetchOrderWithFulfillments(ctx context.Context, orderID string) (*domain.Order, error) {
	var payload orderPayload
	if err := g.client.Execute(ctx, orderQuery, map[string]any{"id": orderGID(orderID)}, &payload); err != nil {
		return nil, fmt.Errorf("fetch order %s: %w", orderID, err)
	}

	if payload.Order == nil {
		return nil, &domain.UpstreamError{
			StatusCode: http.StatusNotFound,
			Message:    fmt.Sprintf("order %s not found", orderID),
			NotFound:   true,
		}
	}

	order := &domain.Order{
		ID:           payload.Order.ID,
		Name:         payload.Order.Name,
		Status:       payload.Order.DisplayFulfillmentStatus,
		Fulfillments: make([]domain.Fulfillment, 0, len(payload.Order.Fulfillments)),
	}

	for _, raw := range payload.Order.Fulfillments {
		fulfillment := domain.Fulfillment{
			ID:     raw.ID,
			Status: domain.FulfillmentStatus(raw.DisplayStatus),
			Legs:   make([]domain.TrackingLeg, 0, len(raw.TrackingInfo)),
		}
		for _, info := range raw.TrackingInfo {
			fulfillment.Legs = append(fulfillment.Legs, domain.TrackingLeg{
				Number:  info.Number,
				Carrier: info.Company,
				URL:     info.URL,
			})
		}
		order.Fulfillments = append(order.Fulfillments, fulfillment)
	}

	return order, nil
}

// ConfirmFulfillmentDelivered writes a DELIVERED fulfillment event. It never
// returns an error: transport failures, malformed bodies, GraphQL errors, and
// backend field validation errors are all captured in the event's outcome so a
// batch of confirmations can be evaluated independently.
func (g *Gateway) ConfirmFulfillmentDelivered(ctx context.Context, fulfillmentID string, happenedAt *time.Time) domain.ConfirmationEvent {
	event := domain.ConfirmationEvent{
		FulfillmentID: fulfillmentID,
		HappenedAt:    happenedAt,
	}

	input := map[string]any{
		"fulfillmentId": fulfillmentID,
		"status":        "DELIVERED",
		"message":       "Delivered per carrier tracking",
	}
	if happenedAt != nil {
		input["happenedAt"] = happenedAt.UTC().Format(time.RFC3339)
	}

	var payload fulfillmentEventPayload
	if err := g.client.Execute(ctx, fulfillmentEventCreateMutation, map[string]any{"event": input}, &payload); err != nil {
		g.logger.Warn("delivery confirmation write failed",
			zap.String("fulfillmentId", fulfillmentID),
			zap.Error(err),
		)
		event.Error = err.Error()
		return event
	}

	if userErrors := payload.FulfillmentEventCreate.UserErrors; len(userErrors) > 0 {
		messages := make([]string, 0, len(userErrors))
		for _, userErr := range userErrors {
			if len(userErr.Field) > 0 {
				messages = append(messages, fmt.Sprintf("%s: %s", strings.Join(userErr.Field, "."), userErr.Message))
				continue
			}
			messages = append(messages, userErr.Message)
		}
		event.Error = "field errors: " + strings.Join(messages, "; ")
		g.logger.Warn("delivery confirmation rejected by backend",
			zap.String("fulfillmentId", fulfillmentID),
			zap.String("detail", event.Error),
		)
		return event
	}

	created := payload.FulfillmentEventCreate.FulfillmentEvent
	if created == nil {
		event.Error = "backend returned no fulfillment event"
		return event
	}

	event.EventID = created.ID
	event.Succeeded = true
	return event
}

func orderGID(orderID string) string {
	trimmed := strings.TrimSpace(orderID)
	if strings.HasPrefix(trimmed, "gid://") {
		return trimmed
	}
	return orderGIDPrefix + trimmed
}
