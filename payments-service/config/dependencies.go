package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/payments-service/application"
	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/payments-service/handlers"
	"github.com/draftea/order-saga/payments-service/infrastructure"
	"github.com/draftea/order-saga/payments-service/infrastructure/migrations"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	"github.com/draftea/order-saga/shared/events"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/saga"
)

const Stage = "payment-service"

type Dependencies struct {
	// Database
	DB *sqlx.DB

	// Repositories
	PaymentRepository domain.PaymentRepository

	// External
	Provider domain.Provider

	// Use Cases
	PaymentExecutor *application.PaymentExecutor
	ProcessPayment  *application.ProcessPayment
	GetPayment      *application.GetPayment

	// HTTP Handlers
	PaymentHandlers *handlers.PaymentHandlers

	// Event Handlers
	PaymentEventHandlers *handlers.PaymentEventHandlers
	Choreography         *saga.Choreography
}

// BuildDependencies wires the stage on top of broker, which the caller owns
func BuildDependencies(ctx context.Context, config *Config, broker *sharedinfra.Broker, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}
	logger = logger.With(zap.String("stage", Stage))

	method, err := domain.NewPaymentMethodType(config.Payment.Method)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment method")
	}

	provider, err := newProvider(config.Payment, logger)
	if err != nil {
		return nil, err
	}
	deps.Provider = provider

	switch config.Database.Driver {
	case sharedconfig.DriverPostgres:
		db, err := sharedinfra.NewPostgresDB(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		deps.DB = db

		if err := sharedinfra.Migrate(ctx, db, migrations.FS, logger); err != nil {
			_ = db.Close()
			return nil, err
		}

		deps.PaymentRepository = infrastructure.NewPostgresPaymentRepository(db)
	case "", sharedconfig.DriverMemory:
		deps.PaymentRepository = infrastructure.NewMemoryPaymentRepository()
	default:
		return nil, errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	eventPublisher := events.NewPublisher(broker.Publisher)

	// Initialize use cases
	deps.PaymentExecutor = application.NewPaymentExecutor(deps.Provider, application.ExecutorConfig{
		Retry: resilience.RetryConfig{
			MaxAttempts:     config.Payment.Retry.MaxAttempts,
			InitialInterval: config.Payment.Retry.InitialInterval,
			MaxInterval:     config.Payment.Retry.MaxInterval,
		},
		Breaker: resilience.BreakerConfig{
			Name:             "payment-provider",
			FailureThreshold: config.Payment.Breaker.FailureThreshold,
			CoolDown:         config.Payment.Breaker.CoolDown,
			HalfOpenRequests: config.Payment.Breaker.HalfOpenRequests,
		},
		CallTimeout: config.Payment.CallTimeout,
	}, logger)
	deps.ProcessPayment = application.NewProcessPayment(deps.PaymentRepository, deps.PaymentExecutor, eventPublisher, method, logger)
	deps.GetPayment = application.NewGetPayment(deps.PaymentRepository)

	// Initialize handlers
	deps.PaymentHandlers = handlers.NewPaymentHandlers(deps.GetPayment)
	deps.PaymentEventHandlers = handlers.NewPaymentEventHandlers(deps.ProcessPayment)

	deps.Choreography = saga.NewChoreography(Stage,
		saga.NewDeadLetterRouter(broker.Publisher, logger),
		logger,
		saga.WithMaxDeliveries(config.Broker.MaxDeliveries),
	)
	if err := deps.PaymentEventHandlers.Register(deps.Choreography); err != nil {
		_ = deps.Close()
		return nil, err
	}

	return deps, nil
}

func newProvider(config Payment, logger *zap.Logger) (domain.Provider, error) {
	switch config.Provider.Type {
	case "", ProviderSimulated:
		return infrastructure.NewSimulatedProvider(infrastructure.SimulatedProviderConfig{
			MinLatency:  config.Provider.MinLatency,
			MaxLatency:  config.Provider.MaxLatency,
			DeclineRate: config.Provider.DeclineRate,
			ErrorRate:   config.Provider.ErrorRate,
			DeclineOver: config.Provider.DeclineOver,
		}, logger), nil
	case ProviderHTTP:
		if config.Provider.BaseURL == "" {
			return nil, errors.New("payment.provider.base_url is required for the http provider")
		}
		return infrastructure.NewHTTPProvider(config.Provider.BaseURL, config.CallTimeout), nil
	default:
		return nil, errors.Errorf("unknown payment provider %q", config.Provider.Type)
	}
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
	}
	return nil
}
