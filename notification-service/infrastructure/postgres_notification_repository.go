package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/notification-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.NotificationRepository = (*PostgresNotificationRepository)(nil)

// PostgresNotificationRepository implements NotificationRepository using PostgreSQL
type PostgresNotificationRepository struct {
	db *sqlx.DB
}

func NewPostgresNotificationRepository(db *sqlx.DB) *PostgresNotificationRepository {
	return &PostgresNotificationRepository{db: db}
}

type postgresNotification struct {
	ID            string       `db:"id"`
	OrderID       string       `db:"order_id"`
	CustomerID    string       `db:"customer_id"`
	Type          string       `db:"type"`
	Recipient     string       `db:"recipient"`
	Subject       string       `db:"subject"`
	Body          string       `db:"body"`
	Status        string       `db:"status"`
	FailureReason string       `db:"failure_reason"`
	SentAt        sql.NullTime `db:"sent_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
	Version       int          `db:"version"`
}

const notificationColumns = `id, order_id, customer_id, type, recipient, subject, body, status,
			   failure_reason, sent_at, created_at, updated_at, version`

func (r *PostgresNotificationRepository) Save(ctx context.Context, notification *domain.Notification) error {
	query := `
		INSERT INTO notifications (
			id, order_id, customer_id, type, recipient, subject, body, status,
			failure_reason, sent_at, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :customer_id, :type, :recipient, :subject, :body, :status,
			:failure_reason, :sent_at, :created_at, :updated_at, :version
		)
		ON CONFLICT (order_id, type) DO UPDATE
		SET status = EXCLUDED.status,
			failure_reason = EXCLUDED.failure_reason,
			sent_at = EXCLUDED.sent_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
		WHERE notifications.version = EXCLUDED.version - 1`

	row := &postgresNotification{
		ID:            notification.ID.String(),
		OrderID:       notification.OrderID.String(),
		CustomerID:    notification.CustomerID.String(),
		Type:          string(notification.Type),
		Recipient:     notification.Recipient,
		Subject:       notification.Subject,
		Body:          notification.Body,
		Status:        string(notification.Status),
		FailureReason: notification.FailureReason,
		SentAt:        sql.NullTime{Time: notification.SentAt, Valid: !notification.SentAt.IsZero()},
		CreatedAt:     notification.Timestamps.CreatedAt,
		UpdatedAt:     notification.Timestamps.UpdatedAt,
		Version:       notification.Version.Value,
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to save notification")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrNotificationConflict, "order %s type %s", notification.OrderID, notification.Type)
	}

	return nil
}

func (r *PostgresNotificationRepository) Find(ctx context.Context, orderID models.ID, notificationType domain.NotificationType) (*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE order_id = $1 AND type = $2`

	var row postgresNotification
	err := r.db.GetContext(ctx, &row, query, orderID.String(), string(notificationType))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find notification")
	}

	return row.toDomain(), nil
}

func (r *PostgresNotificationRepository) ListByOrderID(ctx context.Context, orderID models.ID) ([]*domain.Notification, error) {
	query := `
		SELECT ` + notificationColumns + `
		FROM notifications
		WHERE order_id = $1
		ORDER BY created_at`

	var rows []postgresNotification
	if err := r.db.SelectContext(ctx, &rows, query, orderID.String()); err != nil {
		return nil, errors.Wrap(err, "failed to list notifications")
	}

	notifications := make([]*domain.Notification, len(rows))
	for i := range rows {
		notifications[i] = rows[i].toDomain()
	}
	return notifications, nil
}

func (row *postgresNotification) toDomain() *domain.Notification {
	return &domain.Notification{
		ID:            models.ID(row.ID),
		OrderID:       models.ID(row.OrderID),
		CustomerID:    models.ID(row.CustomerID),
		Type:          domain.NotificationType(row.Type),
		Recipient:     row.Recipient,
		Subject:       row.Subject,
		Body:          row.Body,
		Status:        domain.NotificationStatus(row.Status),
		FailureReason: row.FailureReason,
		SentAt:        row.SentAt.Time,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}
}
