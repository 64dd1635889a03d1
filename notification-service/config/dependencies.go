package config

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/notification-service/application"
	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/notification-service/handlers"
	"github.com/draftea/order-saga/notification-service/infrastructure"
	"github.com/draftea/order-saga/notification-service/infrastructure/migrations"
	sharedconfig "github.com/draftea/order-saga/shared/config"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/resilience"
	"github.com/draftea/order-saga/shared/saga"
)

const Stage = "notification-service"

type Dependencies struct {
	// Database
	DB    *sqlx.DB
	Redis *redis.Client

	// Repositories
	NotificationRepository domain.NotificationRepository

	// External
	Sender        domain.Sender
	DeliveryGuard domain.DeliveryGuard

	// Use Cases
	DispatchNotification *application.DispatchNotification
	GetNotifications     *application.GetNotifications

	// HTTP Handlers
	NotificationHandlers *handlers.NotificationHandlers

	// Event Handlers
	NotificationEventHandlers *handlers.NotificationEventHandlers
	Choreography              *saga.Choreography
}

// BuildDependencies wires the stage on top of broker, which the caller owns
func BuildDependencies(ctx context.Context, config *Config, broker *sharedinfra.Broker, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{}
	logger = logger.With(zap.String("stage", Stage))

	switch config.Database.Driver {
	case sharedconfig.DriverPostgres:
		db, err := sharedinfra.NewPostgresDB(ctx, config.Database)
		if err != nil {
			return nil, err
		}
		deps.DB = db

		if err := sharedinfra.Migrate(ctx, db, migrations.FS, logger); err != nil {
			_ = deps.Close()
			return nil, err
		}

		deps.NotificationRepository = infrastructure.NewPostgresNotificationRepository(db)
	case "", sharedconfig.DriverMemory:
		deps.NotificationRepository = infrastructure.NewMemoryNotificationRepository()
	default:
		return nil, errors.Errorf("unknown database driver %q", config.Database.Driver)
	}

	switch config.Notification.Sender {
	case SenderSMTP:
		deps.Sender = infrastructure.NewSMTPSender(infrastructure.SMTPConfig{
			Host:     config.Notification.SMTP.Host,
			Port:     config.Notification.SMTP.Port,
			User:     config.Notification.SMTP.User,
			Password: config.Notification.SMTP.Password,
			From:     config.Notification.SMTP.From,
		}, logger)
	case "", SenderLog:
		deps.Sender = infrastructure.NewLogSender(logger)
	default:
		_ = deps.Close()
		return nil, errors.Errorf("unknown notification sender %q", config.Notification.Sender)
	}

	switch config.Notification.Guard {
	case GuardRedis:
		client, err := infrastructure.NewRedisClient(ctx, config.Notification.Redis)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.Redis = client
		deps.DeliveryGuard = infrastructure.NewRedisDeliveryGuard(client)
	case "", GuardMemory:
		deps.DeliveryGuard = infrastructure.NewMemoryDeliveryGuard()
	default:
		_ = deps.Close()
		return nil, errors.Errorf("unknown delivery guard %q", config.Notification.Guard)
	}

	// Initialize use cases
	deps.DispatchNotification = application.NewDispatchNotification(deps.NotificationRepository, deps.Sender, deps.DeliveryGuard, application.DispatcherConfig{
		Recipient: config.Notification.Recipient,
		ClaimTTL:  config.Notification.Redis.TTL,
		Retry: resilience.RetryConfig{
			MaxAttempts:     config.Notification.Retry.MaxAttempts,
			InitialInterval: config.Notification.Retry.InitialInterval,
			MaxInterval:     config.Notification.Retry.MaxInterval,
		},
	}, logger)
	deps.GetNotifications = application.NewGetNotifications(deps.NotificationRepository)

	// Initialize handlers
	deps.NotificationHandlers = handlers.NewNotificationHandlers(deps.GetNotifications)
	deps.NotificationEventHandlers = handlers.NewNotificationEventHandlers(deps.DispatchNotification)

	deps.Choreography = saga.NewChoreography(Stage,
		saga.NewDeadLetterRouter(broker.Publisher, logger),
		logger,
		saga.WithMaxDeliveries(config.Broker.MaxDeliveries),
	)
	if err := deps.NotificationEventHandlers.Register(deps.Choreography); err != nil {
		_ = deps.Close()
		return nil, err
	}

	return deps, nil
}

// Close closes all dependencies
func (d *Dependencies) Close() error {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			return errors.Wrap(err, "failed to close redis")
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			return errors.Wrap(err, "failed to close database")
		}
	}
	return nil
}
