package application

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
	"github.com/draftea/order-saga/shared/telemetry"
)

type ProcessPaymentCommand struct {
	OrderID     models.ID
	CustomerID  models.ID
	Items       []events.LineItem
	TotalAmount models.Money
}

// Charger is the part of PaymentExecutor used by ProcessPayment
type Charger interface {
	Charge(ctx context.Context, req domain.ChargeRequest) PaymentOutcome
	Reconcile(ctx context.Context, idempotencyKey string) (*PaymentOutcome, error)
}

var _ Charger = (*PaymentExecutor)(nil)

// ProcessPayment charges a created order exactly once. The payment row is
// written in processing status before the provider is called, so a crash
// between charge and persist is found and reconciled on redelivery.
type ProcessPayment struct {
	paymentRepository domain.PaymentRepository
	charger           Charger
	eventPublisher    events.Publisher
	method            domain.PaymentMethodType
	logger            *zap.Logger
}

func NewProcessPayment(
	paymentRepository domain.PaymentRepository,
	charger Charger,
	eventPublisher events.Publisher,
	method domain.PaymentMethodType,
	logger *zap.Logger,
) *ProcessPayment {
	return &ProcessPayment{
		paymentRepository: paymentRepository,
		charger:           charger,
		eventPublisher:    eventPublisher,
		method:            method,
		logger:            logger,
	}
}

func (uc *ProcessPayment) Execute(ctx context.Context, cmd *ProcessPaymentCommand) error {
	start := time.Now()
	ctx, span := telemetry.StartSpan(ctx, "process_payment",
		trace.WithAttributes(
			attribute.String("order_id", cmd.OrderID.String()),
			attribute.Int64("amount", cmd.TotalAmount.Amount),
		),
	)
	defer span.End()

	status := "error"
	defer func() {
		telemetry.RecordCounter(ctx, "payments_total", "Total payments processed", 1,
			attribute.String("status", status),
		)
		telemetry.RecordHistogram(ctx, "payment_duration_seconds", "Payment processing duration", time.Since(start).Seconds())
	}()

	payment, err := uc.paymentRepository.FindByOrderID(ctx, cmd.OrderID)
	if err != nil {
		return errors.Wrap(err, "failed to find payment")
	}

	switch {
	case payment == nil:
		payment, err = domain.NewPayment(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount, uc.method, cmd.Items)
		if errors.Is(err, domain.ErrInvalidAmount) {
			status = string(domain.PaymentStatusFailed)
			return uc.decide(ctx, domain.NewRejectedPayment(cmd.OrderID, cmd.CustomerID, cmd.TotalAmount, uc.method, err.Error()))
		}
		if err != nil {
			return errors.Wrap(err, "failed to create payment")
		}

		if err := uc.paymentRepository.Save(ctx, payment); err != nil {
			return errors.Wrap(err, "failed to save processing payment")
		}
	case payment.IsTerminal():
		status = "replayed"
		return uc.publish(ctx, payment)
	default:
		outcome, err := uc.charger.Reconcile(ctx, payment.IdempotencyKey())
		if err == nil {
			logger.Warn(ctx, uc.logger, "reconciled charge left in processing",
				zap.String("order_id", payment.OrderID.String()),
				zap.Bool("succeeded", outcome.Succeeded),
			)
			status = "reconciled"
			return uc.finalize(ctx, payment, *outcome)
		}
		if !errors.Is(err, domain.ErrChargeNotFound) {
			return err
		}
	}

	outcome := uc.charger.Charge(ctx, domain.ChargeRequest{
		IdempotencyKey: payment.IdempotencyKey(),
		OrderID:        payment.OrderID,
		CustomerID:     payment.CustomerID,
		Amount:         payment.Amount,
	})

	if err := uc.finalize(ctx, payment, outcome); err != nil {
		return err
	}

	status = string(payment.Status)
	return nil
}

func (uc *ProcessPayment) finalize(ctx context.Context, payment *domain.Payment, outcome PaymentOutcome) error {
	var err error
	if outcome.Succeeded {
		err = payment.Succeed(outcome.TransactionID)
	} else {
		err = payment.Fail(outcome.ErrorMessage)
	}
	if err != nil {
		return errors.Wrap(err, "failed to apply charge outcome")
	}

	return uc.decide(ctx, payment)
}

// decide persists a terminal payment and publishes its outcome. A failed
// publish is retried by redelivery, which replays the stored outcome.
func (uc *ProcessPayment) decide(ctx context.Context, payment *domain.Payment) error {
	if err := uc.paymentRepository.Save(ctx, payment); err != nil {
		return errors.Wrap(err, "failed to save payment outcome")
	}

	logger.Info(ctx, uc.logger, "payment decided",
		zap.String("order_id", payment.OrderID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("status", string(payment.Status)),
		zap.String("reason", payment.FailureReason),
	)

	return uc.publish(ctx, payment)
}

func (uc *ProcessPayment) publish(ctx context.Context, payment *domain.Payment) error {
	event, ok := payment.Outcome()
	if !ok {
		return errors.Errorf("payment %s has no outcome to publish", payment.ID)
	}

	if err := uc.eventPublisher.Publish(ctx, event); err != nil {
		return errors.Wrap(err, "failed to publish payment outcome")
	}
	return nil
}
