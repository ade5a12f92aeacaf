package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Jaewhee/fedex-proxy/internal/carrier"
	"github.com/Jaewhee/fedex-proxy/internal/domain"
	"github.com/Jaewhee/fedex-proxy/internal/observability"
)

// OrderGateway is the order backend port: one read of the fulfillment
// snapshot, and fire-and-forget delivery-confirmation writes.
type OrderGateway interface {
	FetchOrderWithFulfillments(ctx context.Context, orderID string) (*domain.Order, error)
	ConfirmFulfillmentDelivered(ctx context.Context, fulfillmentID string, happenedAt *time.Time) domain.ConfirmationEvent
}

// TokenProvider acquires a carrier bearer token for one run.
type TokenProvider interface {
	AcquireToken(ctx context.Context) (string, error)
}

// TrackingClient performs a single carrier lookup.
type TrackingClient interface {
	Track(ctx context.Context, token string, query carrier.TrackQuery) (*carrier.TrackResult, error)
}

type OrderSummary struct {
	ID     string
	Name   string
	Status string
}

type FulfillmentSummary struct {
	ID           string
	Status       domain.FulfillmentStatus
	AllDelivered bool
	Tracking     []domain.TrackingVerdict
}

// ReconciliationResult is the settled outcome of one run: the order snapshot,
// verdicts at every granularity, and the outcome of every confirmation write
// attempted.
type ReconciliationResult struct {
	Order             OrderSummary
	AllDelivered      bool
	NoTrackingNumbers bool
	Fulfillments      []FulfillmentSummary
	Confirmations     []domain.ConfirmationEvent
}

// Reconciler compares the order backend's fulfillment records against carrier
// delivery truth and writes confirmations back where they disagree.
type Reconciler struct {
	orders  OrderGateway
	auth    TokenProvider
	tracker TrackingClient
	logger  *zap.Logger
	metrics *observability.Metrics
}

func NewReconciler(orders OrderGateway, auth TokenProvider, tracker TrackingClient, logger *zap.Logger) (*Reconciler, error) {
	if orders == nil {
		return nil, fmt.Errorf("order gateway is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("token provider is required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("tracking client is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Reconciler{
		orders:  orders,
		auth:    auth,
		tracker: tracker,
		logger:  logger,
	}, nil
}

func (r *Reconciler) SetMetrics(metrics *observability.Metrics) {
	if r == nil {
		return
	}
	r.metrics = metrics
}

// Reconcile runs one end-to-end reconciliation for the given order.
// Validation failures and the order fetch are fatal; individual lookup and
// confirmation-write failures degrade and are reported in the result instead.
func (r *Reconciler) Reconcile(ctx context.Context, orderID string) (*ReconciliationResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	if strings.TrimSpace(orderID) == "" {
		r.metrics.IncReconciliation("invalid")
		return nil, fmt.Errorf("%w: orderId is required", domain.ErrValidation)
	}

	logger := observability.WithRunLogger(r.logger, ctx)

	order, err := r.orders.FetchOrderWithFulfillments(ctx, orderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			r.metrics.IncReconciliation("order_not_found")
		} else {
			r.metrics.IncReconciliation("order_fetch_failed")
		}
		return nil, err
	}

	result := &ReconciliationResult{
		Order: OrderSummary{
			ID:     order.ID,
			Name:   order.Name,
			Status: order.Status,
		},
		Confirmations: []domain.ConfirmationEvent{},
	}

	numbers := order.DistinctTrackingNumbers()
	if len(numbers) == 0 {
		// No legs anywhere, nothing to ask the carrier about.
		result.NoTrackingNumbers = true
		result.Fulfillments = buildFulfillmentSummaries(order, nil)
		r.metrics.IncReconciliation("no_tracking_numbers")
		logger.Info("order has no tracking numbers yet",
			zap.String("orderId", orderID),
		)
		return result, nil
	}

	token, err := r.auth.AcquireToken(ctx)
	if err != nil {
		r.metrics.IncReconciliation("token_failed")
		return nil, &domain.UpstreamError{
			StatusCode: carrierStatusCode(err),
			Message:    "carrier token acquisition failed",
			Cause:      err,
		}
	}

	lookups := r.lookupAll(ctx, logger, token, numbers)

	verdicts := make(map[string]domain.TrackingVerdict, len(numbers))
	for _, number := range numbers {
		verdicts[number] = carrier.Classify(number, lookups[number])
	}

	result.Fulfillments = buildFulfillmentSummaries(order, verdicts)
	result.AllDelivered = order.AllDelivered(verdicts)
	result.Confirmations = r.confirmAll(ctx, logger, order, verdicts, lookups)

	r.metrics.IncReconciliation("ok")
	return result, nil
}

// lookupAll fans out one carrier lookup per distinct tracking number and
// waits for all to settle. A failed lookup leaves a nil entry so the number
// classifies as absent; it never aborts sibling lookups.
func (r *Reconciler) lookupAll(ctx context.Context, logger *zap.Logger, token string, numbers []string) map[string]*carrier.TrackResult {
	results := make([]*carrier.TrackResult, len(numbers))

	g, groupCtx := errgroup.WithContext(ctx)
	for i, number := range numbers {
		i, number := i, number
		g.Go(func() error {
			start := time.Now()
			trackResult, err := r.tracker.Track(groupCtx, token, carrier.TrackQuery{TrackingNumber: number})
			r.metrics.ObserveCarrierLookupDuration(time.Since(start))

			if err != nil {
				r.metrics.IncCarrierLookup("absent")
				logger.Warn("carrier lookup degraded to absent",
					zap.String("trackingNumber", number),
					zap.Error(err),
				)
				return nil
			}

			r.metrics.IncCarrierLookup("hit")
			results[i] = trackResult
			return nil
		})
	}
	_ = g.Wait() // lookup goroutines never return errors

	byNumber := make(map[string]*carrier.TrackResult, len(numbers))
	for i, number := range numbers {
		byNumber[number] = results[i]
	}
	return byNumber
}

// confirmAll issues one confirmation write per fulfillment whose verdict is
// delivered but whose backend status is not yet terminal, all concurrently,
// and reports every settled outcome.
func (r *Reconciler) confirmAll(
	ctx context.Context,
	logger *zap.Logger,
	order *domain.Order,
	verdicts map[string]domain.TrackingVerdict,
	lookups map[string]*carrier.TrackResult,
) []domain.ConfirmationEvent {
	type candidate struct {
		fulfillmentID string
		happenedAt    *time.Time
	}

	candidates := make([]candidate, 0)
	for _, fulfillment := range order.Fulfillments {
		if fulfillment.Status.Delivered() {
			continue
		}
		if !fulfillment.AllDelivered(verdicts) {
			continue
		}
		candidates = append(candidates, candidate{
			fulfillmentID: fulfillment.ID,
			happenedAt:    latestActualDelivery(fulfillment, lookups),
		})
	}

	events := make([]domain.ConfirmationEvent, len(candidates))
	if len(candidates) == 0 {
		return events
	}

	var wg sync.WaitGroup
	for i, c := range candidates {
		i, c := i, c
		wg.Add(1)
		go func() {
			defer wg.Done()
			events[i] = r.orders.ConfirmFulfillmentDelivered(ctx, c.fulfillmentID, c.happenedAt)
			if events[i].Succeeded {
				r.metrics.IncConfirmationWrite("success")
				return
			}
			r.metrics.IncConfirmationWrite("failure")
			logger.Warn("confirmation write settled with failure",
				zap.String("fulfillmentId", c.fulfillmentID),
				zap.String("detail", events[i].Error),
			)
		}()
	}
	wg.Wait()

	return events
}

func buildFulfillmentSummaries(order *domain.Order, verdicts map[string]domain.TrackingVerdict) []FulfillmentSummary {
	summaries := make([]FulfillmentSummary, 0, len(order.Fulfillments))
	for _, fulfillment := range order.Fulfillments {
		summary := FulfillmentSummary{
			ID:       fulfillment.ID,
			Status:   fulfillment.Status,
			Tracking: make([]domain.TrackingVerdict, 0, len(fulfillment.Legs)),
		}
		if verdicts != nil {
			summary.AllDelivered = fulfillment.AllDelivered(verdicts)
			for _, leg := range fulfillment.Legs {
				summary.Tracking = append(summary.Tracking, verdicts[strings.TrimSpace(leg.Number)])
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// latestActualDelivery picks the most recent carrier-reported delivery time
// across the fulfillment's legs; a multi-leg fulfillment is delivered when its
// last leg arrives. Nil when no lookup carried one.
func latestActualDelivery(fulfillment domain.Fulfillment, lookups map[string]*carrier.TrackResult) *time.Time {
	var latest *time.Time
	for _, leg := range fulfillment.Legs {
		lookup := lookups[strings.TrimSpace(leg.Number)]
		if lookup == nil || lookup.ActualDelivery == nil {
			continue
		}
		if latest == nil || lookup.ActualDelivery.After(*latest) {
			latest = lookup.ActualDelivery
		}
	}
	return latest
}

func carrierStatusCode(err error) int {
	var carrierErr *carrier.CarrierError
	if errors.As(err, &carrierErr) {
		return carrierErr.StatusCode
	}
	return 0
}
