package application

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
)

type ReserveInventoryCommand struct {
	OrderID models.ID
	Items   []events.LineItem
}

// ReserveInventory reserves every line of a paid order or none of them.
// The outcome is stored as a Reservation before it is published, so a
// redelivered payment replays the same event.
type ReserveInventory struct {
	engine         *ReservationEngine
	reservations   domain.ReservationRepository
	eventPublisher events.Publisher
	logger         *zap.Logger
}

func NewReserveInventory(
	engine *ReservationEngine,
	reservations domain.ReservationRepository,
	eventPublisher events.Publisher,
	logger *zap.Logger,
) *ReserveInventory {
	return &ReserveInventory{
		engine:         engine,
		reservations:   reservations,
		eventPublisher: eventPublisher,
		logger:         logger,
	}
}

func (uc *ReserveInventory) Execute(ctx context.Context, cmd *ReserveInventoryCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "reserve_inventory",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID.String()),
			attribute.Int("lines", len(cmd.Items)),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "inventory_operations_total", "Total inventory operations", 1,
			attribute.String("operation", "reserve"),
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "inventory_operation_duration_seconds", "Inventory operation duration", time.Since(start).Seconds(),
			attribute.String("operation", "reserve"),
		)
	}()

	existing, err := uc.reservations.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find reservation")
	}
	if existing != nil {
		status = "replayed"
		return uc.replay(ctx, existing)
	}

	items := mergeItems(cmd.Items)
	reserved := make([]events.ReservedItem, 0, len(items))

	for _, item := range items {
		if _, err := uc.engine.Reserve(ctx, item.ProductID, item.Quantity); err != nil {
			uc.compensate(ctx, cmd.OrderID, reserved)

			if isRejection(err) {
				status = "rejected"
				return uc.decide(ctx, domain.NewRejectedReservation(cmd.OrderID, err.Error()))
			}

			return errors.Wrapf(err, "failed to reserve product %s", item.ProductID)
		}

		reserved = append(reserved, item)
	}

	if err := uc.decide(ctx, domain.NewReservation(cmd.OrderID, reserved)); err != nil {
		return err
	}

	status = "reserved"
	return nil
}

// decide stores the reservation and publishes its outcome. A publish
// failure is returned: the stored record makes the redelivery a replay.
// When another delivery decided the order first, typically a cancellation
// racing the payment, the stock just taken is given back and the stored
// decision is replayed instead.
func (uc *ReserveInventory) decide(ctx context.Context, reservation *domain.Reservation) error {
	err := uc.reservations.Create(ctx, reservation)
	if err != nil {
		if reservation.Status == domain.ReservationStatusReserved {
			uc.compensate(ctx, reservation.OrderID, reservation.Items)
		}
		if errors.Is(err, domain.ErrReservationExists) {
			return uc.replayStored(ctx, reservation.OrderID)
		}
		return errors.Wrap(err, "failed to save reservation")
	}

	logger.Info(ctx, uc.logger, "inventory decision recorded",
		zap.String("order_id", reservation.OrderID.String()),
		zap.String("status", string(reservation.Status)),
		zap.String("reason", reservation.Reason),
	)

	return uc.replay(ctx, reservation)
}

func (uc *ReserveInventory) replayStored(ctx context.Context, orderID models.ID) error {
	stored, err := uc.reservations.FindByOrderID(ctx, orderID)
	if err != nil {
		return errors.Wrap(err, "failed to find reservation")
	}
	if stored == nil {
		return errors.Errorf("reservation for order %s vanished after a create conflict", orderID)
	}

	logger.Info(ctx, uc.logger, "order decided by a concurrent delivery",
		zap.String("order_id", orderID.String()),
		zap.String("status", string(stored.Status)),
	)

	return uc.replay(ctx, stored)
}

func (uc *ReserveInventory) replay(ctx context.Context, reservation *domain.Reservation) error {
	event, ok := reservation.Outcome()
	if !ok {
		logger.Info(ctx, uc.logger, "reservation already released, nothing to publish",
			zap.String("order_id", reservation.OrderID.String()),
		)
		return nil
	}

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish inventory outcome")
	}

	return nil
}

// compensate releases lines reserved before a later line failed. Failures
// are logged: the reservation record was never written, so the stock stays
// held until an operator restocks.
func (uc *ReserveInventory) compensate(ctx context.Context, orderID models.ID, reserved []events.ReservedItem) {
	for _, item := range reserved {
		if _, err := uc.engine.Release(ctx, item.ProductID, item.Quantity); err != nil {
			logger.Error(ctx, uc.logger, "failed to release reserved line",
				zap.String("order_id", orderID.String()),
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err),
			)
		}
	}
}

// isRejection reports business outcomes that become inventory.rejected
// instead of a redelivery
func isRejection(err error) bool {
	return errors.Is(err, domain.ErrInsufficientStock) ||
		errors.Is(err, domain.ErrProductNotFound) ||
		errors.Is(err, domain.ErrInvalidQuantity)
}

// mergeItems sums quantities per product and orders lines by product id, so
// concurrent orders touch shared products in the same order.
func mergeItems(lines []events.LineItem) []events.ReservedItem {
	totals := make(map[models.ID]int, len(lines))
	for _, line := range lines {
		totals[line.ProductID] += line.Quantity
	}

	items := make([]events.ReservedItem, 0, len(totals))
	for productID, quantity := range totals {
		items = append(items, events.ReservedItem{ProductID: productID, Quantity: quantity})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].ProductID < items[j].ProductID
	})

	return items
}
