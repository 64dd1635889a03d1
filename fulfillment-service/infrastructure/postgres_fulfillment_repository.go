package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/fulfillment-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.FulfillmentRepository = (*PostgresFulfillmentRepository)(nil)

// PostgresFulfillmentRepository implements FulfillmentRepository using PostgreSQL
type PostgresFulfillmentRepository struct {
	db *sqlx.DB
}

func NewPostgresFulfillmentRepository(db *sqlx.DB) *PostgresFulfillmentRepository {
	return &PostgresFulfillmentRepository{db: db}
}

type postgresFulfillment struct {
	ID             string       `db:"id"`
	OrderID        string       `db:"order_id"`
	ReservationID  string       `db:"reservation_id"`
	Status         string       `db:"status"`
	TrackingNumber string       `db:"tracking_number"`
	FailureReason  string       `db:"failure_reason"`
	DecidedAt      sql.NullTime `db:"decided_at"`
	CreatedAt      time.Time    `db:"created_at"`
	UpdatedAt      time.Time    `db:"updated_at"`
	Version        int          `db:"version"`
}

func (r *PostgresFulfillmentRepository) Save(ctx context.Context, fulfillment *domain.Fulfillment) error {
	query := `
		INSERT INTO fulfillments (
			id, order_id, reservation_id, status, tracking_number, failure_reason,
			decided_at, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :reservation_id, :status, :tracking_number, :failure_reason,
			:decided_at, :created_at, :updated_at, :version
		)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status,
			tracking_number = EXCLUDED.tracking_number,
			failure_reason = EXCLUDED.failure_reason,
			decided_at = EXCLUDED.decided_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
		WHERE fulfillments.version = EXCLUDED.version - 1`

	row := &postgresFulfillment{
		ID:             fulfillment.ID.String(),
		OrderID:        fulfillment.OrderID.String(),
		ReservationID:  fulfillment.ReservationID.String(),
		Status:         string(fulfillment.Status),
		TrackingNumber: fulfillment.TrackingNumber,
		FailureReason:  fulfillment.FailureReason,
		DecidedAt:      sql.NullTime{Time: fulfillment.DecidedAt, Valid: !fulfillment.DecidedAt.IsZero()},
		CreatedAt:      fulfillment.Timestamps.CreatedAt,
		UpdatedAt:      fulfillment.Timestamps.UpdatedAt,
		Version:        fulfillment.Version.Value,
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to save fulfillment")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrFulfillmentConflict, "order %s", fulfillment.OrderID)
	}

	return nil
}

func (r *PostgresFulfillmentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Fulfillment, error) {
	query := `
		SELECT id, order_id, reservation_id, status, tracking_number, failure_reason,
			   decided_at, created_at, updated_at, version
		FROM fulfillments
		WHERE order_id = $1`

	var row postgresFulfillment
	err := r.db.GetContext(ctx, &row, query, orderID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find fulfillment")
	}

	return &domain.Fulfillment{
		ID:             models.ID(row.ID),
		OrderID:        models.ID(row.OrderID),
		ReservationID:  models.ID(row.ReservationID),
		Status:         domain.FulfillmentStatus(row.Status),
		TrackingNumber: row.TrackingNumber,
		FailureReason:  row.FailureReason,
		DecidedAt:      row.DecidedAt.Time,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}, nil
}
