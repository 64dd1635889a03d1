package application

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
)

type ReleaseInventoryCommand struct {
	OrderID models.ID
	Reason  string
}

// ReleaseInventory compensates a cancelled order. When the cancellation
// overtakes the payment, a tombstone makes the later reservation attempt
// reject instead of holding stock for a dead order.
type ReleaseInventory struct {
	engine       *ReservationEngine
	reservations domain.ReservationRepository
	logger       *zap.Logger
}

func NewReleaseInventory(engine *ReservationEngine, reservations domain.ReservationRepository, logger *zap.Logger) *ReleaseInventory {
	return &ReleaseInventory{
		engine:       engine,
		reservations: reservations,
		logger:       logger,
	}
}

func (uc *ReleaseInventory) Execute(ctx context.Context, cmd *ReleaseInventoryCommand) error {
	reservation, err := uc.reservations.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find reservation")
	}

	if reservation == nil {
		err := uc.reservations.Create(ctx, domain.NewCancelledReservation(cmd.OrderID))
		if err == nil {
			logger.Info(ctx, uc.logger, "order cancelled before reservation",
				zap.String("order_id", cmd.OrderID.String()),
			)
			return nil
		}
		if !errors.Is(err, domain.ErrReservationExists) {
			return errors.Wrap(err, "failed to save cancellation tombstone")
		}

		// the payment reserved stock between the lookup and the tombstone
		reservation, err = uc.reservations.FindByOrderID(ctx, cmd.OrderID)
		if err != nil {
			return errors.Wrap(err, "failed to find reservation")
		}
		if reservation == nil {
			return errors.Errorf("reservation for order %s vanished after a create conflict", cmd.OrderID)
		}
	}

	if reservation.Status != domain.ReservationStatusReserved {
		return nil
	}

	for _, item := range reservation.Items {
		_, err := uc.engine.Release(ctx, item.ProductID, item.Quantity)
		if errors.Is(err, domain.ErrOverRelease) {
			// a previous delivery released this line before crashing
			logger.Warn(ctx, uc.logger, "line already released",
				zap.String("order_id", cmd.OrderID.String()),
				zap.String("product_id", item.ProductID.String()),
			)
			continue
		}
		if err != nil {
			return errors.Wrapf(err, "failed to release product %s", item.ProductID)
		}
	}

	if err := reservation.Release(); err != nil {
		return err
	}

	if err := uc.reservations.Update(ctx, reservation); err != nil {
		return errors.Wrap(err, "failed to save released reservation")
	}

	logger.Info(ctx, uc.logger, "reservation released",
		zap.String("order_id", cmd.OrderID.String()),
		zap.String("reason", cmd.Reason),
	)

	return nil
}
