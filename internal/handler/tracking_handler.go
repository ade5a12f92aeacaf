package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Jaewhee/fedex-proxy/internal/domain"
	"github.com/Jaewhee/fedex-proxy/internal/observability"
	"github.com/Jaewhee/fedex-proxy/internal/service"
)

type ReconciliationService interface {
	Reconcile(ctx context.Context, orderID string) (*service.ReconciliationResult, error)
}

type TrackingHandler struct {
	service ReconciliationService
	logger  *zap.Logger
}

func NewTrackingHandler(svc ReconciliationService, logger *zap.Logger) (*TrackingHandler, error) {
	if svc == nil {
		return nil, fmt.Errorf("reconciliation service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrackingHandler{service: svc, logger: logger}, nil
}

func RegisterTrackingRoutes(router fiber.Router, svc ReconciliationService, logger *zap.Logger) error {
	h, err := NewTrackingHandler(svc, logger)
	if err != nil {
		return err
	}

	router.Post("/proxy/fedex-status/tracking", h.ReconcileTracking)
	return nil
}

type trackingRequest struct {
	OrderID string `json:"orderId"`
}

type trackingResponse struct {
	OK                bool                   `json:"ok"`
	Message           string                 `json:"message"`
	RunID             string                 `json:"runId,omitempty"`
	Order             orderResponse          `json:"order"`
	AllDelivered      bool                   `json:"allDelivered"`
	NoTrackingNumbers bool                   `json:"noTrackingNumbers,omitempty"`
	Fulfillments      []fulfillmentResponse  `json:"fulfillments"`
	Confirmations     []confirmationResponse `json:"confirmations"`
}

type orderResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type fulfillmentResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	AllDelivered bool              `json:"allDelivered"`
	Tracking     []verdictResponse `json:"tracking"`
}

type verdictResponse struct {
	TrackingNumber    string     `json:"trackingNumber"`
	Delivered         bool       `json:"delivered"`
	StatusCode        string     `json:"statusCode,omitempty"`
	StatusDescription string     `json:"statusDescription,omitempty"`
	EstimatedDelivery *time.Time `json:"estimatedDelivery,omitempty"`
}

type confirmationResponse struct {
	FulfillmentID string     `json:"fulfillmentId"`
	OK            bool       `json:"ok"`
	EventID       string     `json:"eventId,omitempty"`
	HappenedAt    *time.Time `json:"happenedAt,omitempty"`
	Error         string     `json:"error,omitempty"`
}

func (h *TrackingHandler) ReconcileTracking(c *fiber.Ctx) error {
	var req trackingRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	runID := uuid.NewString()
	ctx := observability.WithRunID(c.Context(), runID)
	logger := observability.WithRunLogger(h.logger, ctx)

	logger.Info("reconciliation run started",
		zap.String("orderId", strings.TrimSpace(req.OrderID)),
	)

	result, err := h.service.Reconcile(ctx, req.OrderID)
	if err != nil {
		logger.Warn("reconciliation run failed", zap.Error(err))
		return toHTTPError(err)
	}

	logger.Info("reconciliation run completed",
		zap.Bool("allDelivered", result.AllDelivered),
		zap.Int("confirmations", len(result.Confirmations)),
	)

	return c.Status(fiber.StatusOK).JSON(toTrackingResponse(runID, result))
}

func toTrackingResponse(runID string, result *service.ReconciliationResult) trackingResponse {
	message := "Tracking loaded"
	if result.NoTrackingNumbers {
		message = "No tracking numbers yet"
	}

	resp := trackingResponse{
		OK:      true,
		Message: message,
		RunID:   runID,
		Order: orderResponse{
			ID:     result.Order.ID,
			Name:   result.Order.Name,
			Status: result.Order.Status,
		},
		AllDelivered:      result.AllDelivered,
		NoTrackingNumbers: result.NoTrackingNumbers,
		Fulfillments:      make([]fulfillmentResponse, 0, len(result.Fulfillments)),
		Confirmations:     make([]confirmationResponse, 0, len(result.Confirmations)),
	}

	for _, fulfillment := range result.Fulfillments {
		item := fulfillmentResponse{
			ID:           fulfillment.ID,
			Status:       fulfillment.Status.String(),
			AllDelivered: fulfillment.AllDelivered,
			Tracking:     make([]verdictResponse, 0, len(fulfillment.Tracking)),
		}
		for _, verdict := range fulfillment.Tracking {
			item.Tracking = append(item.Tracking, verdictResponse{
				TrackingNumber:    verdict.TrackingNumber,
				Delivered:         verdict.Delivered,
				StatusCode:        verdict.StatusCode,
				StatusDescription: verdict.StatusDescription,
				EstimatedDelivery: verdict.EstimatedDelivery,
			})
		}
		resp.Fulfillments = append(resp.Fulfillments, item)
	}

	for _, event := range result.Confirmations {
		resp.Confirmations = append(resp.Confirmations, confirmationResponse{
			FulfillmentID: event.FulfillmentID,
			OK:            event.Succeeded,
			EventID:       event.EventID,
			HappenedAt:    event.HappenedAt,
			Error:         event.Error,
		})
	}

	return resp
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	default:
		return err
	}
}
