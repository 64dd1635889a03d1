package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/telemetry"
)

const DefaultShipTimeout = 5 * time.Second

type FulfillOrderCommand struct {
	OrderID       models.ID
	ReservationID models.ID
}

type FulfillOrderConfig struct {
	Retry       resilience.RetryConfig
	CallTimeout time.Duration
}

// FulfillOrder ships a reserved order once. A carrier refusal fails the
// fulfillment and cancels the order; a carrier that stays unreachable leaves
// the fulfillment in processing and the event is redelivered.
type FulfillOrder struct {
	fulfillments   domain.FulfillmentRepository
	shipper        domain.Shipper
	eventPublisher events.Publisher
	config         FulfillOrderConfig
	logger         *zap.Logger
}

func NewFulfillOrder(
	fulfillments domain.FulfillmentRepository,
	shipper domain.Shipper,
	eventPublisher events.Publisher,
	config FulfillOrderConfig,
	logger *zap.Logger,
) *FulfillOrder {
	if config.CallTimeout <= 0 {
		config.CallTimeout = DefaultShipTimeout
	}

	return &FulfillOrder{
		fulfillments:   fulfillments,
		shipper:        shipper,
		eventPublisher: eventPublisher,
		config:         config,
		logger:         logger,
	}
}

func (uc *FulfillOrder) Execute(ctx context.Context, cmd *FulfillOrderCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "fulfill_order",
		trace.WithAttributes(attribute.String("order_id", cmd.OrderID.String())),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "fulfillments_total", "Total fulfillments processed", 1,
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "fulfillment_duration_seconds", "Fulfillment duration", time.Since(start).Seconds())
	}()

	fulfillment, err := uc.fulfillments.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find fulfillment")
	}

	switch {
	case fulfillment == nil:
		fulfillment, err = domain.NewFulfillment(cmd.OrderID, cmd.ReservationID)
		if err != nil {
			return err
		}
		if err := uc.fulfillments.Save(ctx, fulfillment); err != nil {
			return errors.Wrap(err, "failed to save processing fulfillment")
		}
	case fulfillment.IsTerminal():
		status = "replayed"
		return uc.publish(ctx, fulfillment)
	}

	trackingNumber, err := uc.ship(ctx, fulfillment)
	switch {
	case errors.Is(err, domain.ErrShipmentRejected):
		err = fulfillment.Fail(err.Error())
	case err != nil:
		logger.Warn(ctx, uc.logger, "carrier unavailable, fulfillment left in processing",
			zap.String("order_id", cmd.OrderID.String()),
			zap.Error(err),
		)
		return errors.Wrap(err, "failed to ship order")
	default:
		err = fulfillment.Ship(trackingNumber)
	}
	if err != nil {
		return errors.Wrap(err, "failed to apply shipment outcome")
	}

	if err := uc.decide(ctx, fulfillment); err != nil {
		return err
	}

	status = string(fulfillment.Status)
	return nil
}

func (uc *FulfillOrder) ship(ctx context.Context, fulfillment *domain.Fulfillment) (string, error) {
	req := domain.ShipmentRequest{
		Reference:     "order-" + fulfillment.OrderID.String(),
		OrderID:       fulfillment.OrderID,
		ReservationID: fulfillment.ReservationID,
	}

	return resilience.Retry(ctx, uc.config.Retry, func(ctx context.Context) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, uc.config.CallTimeout)
		defer cancel()

		trackingNumber, err := uc.shipper.Ship(ctx, req)
		if errors.Is(err, domain.ErrShipmentRejected) {
			return "", resilience.Permanent(err)
		}
		return trackingNumber, err
	})
}

// decide persists a terminal fulfillment and publishes its outcome
func (uc *FulfillOrder) decide(ctx context.Context, fulfillment *domain.Fulfillment) error {
	if err := uc.fulfillments.Save(ctx, fulfillment); err != nil {
		return errors.Wrap(err, "failed to save fulfillment outcome")
	}

	logger.Info(ctx, uc.logger, "fulfillment decided",
		zap.String("order_id", fulfillment.OrderID.String()),
		zap.String("status", string(fulfillment.Status)),
		zap.String("tracking_number", fulfillment.TrackingNumber),
		zap.String("reason", fulfillment.FailureReason),
	)

	return uc.publish(ctx, fulfillment)
}

func (uc *FulfillOrder) publish(ctx context.Context, fulfillment *domain.Fulfillment) error {
	event, ok := fulfillment.Outcome()
	if !ok {
		return errors.Errorf("fulfillment %s has no outcome to publish", fulfillment.ID)
	}

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish fulfillment outcome")
	}
	return nil
}
