package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/order-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.OrderRepository = (*PostgresOrderRepository)(nil)

// PostgresOrderRepository implements OrderRepository using PostgreSQL
type PostgresOrderRepository struct {
	db *sqlx.DB
}

func NewPostgresOrderRepository(db *sqlx.DB) *PostgresOrderRepository {
	return &PostgresOrderRepository{db: db}
}

type postgresOrder struct {
	ID                 string       `db:"id"`
	CustomerID         string       `db:"customer_id"`
	Items              []byte       `db:"items"`
	TotalAmount        int64        `db:"total_amount"`
	Currency           string       `db:"currency"`
	Status             string       `db:"status"`
	CancellationReason string       `db:"cancellation_reason"`
	TrackingNumber     string       `db:"tracking_number"`
	CancelledAt        sql.NullTime `db:"cancelled_at"`
	CreatedAt          time.Time    `db:"created_at"`
	UpdatedAt          time.Time    `db:"updated_at"`
	Version            int          `db:"version"`
}

const selectOrders = `
		SELECT id, customer_id, items, total_amount, currency, status,
			   cancellation_reason, tracking_number, cancelled_at,
			   created_at, updated_at, version
		FROM orders`

// Save inserts an order or updates the stored one when its version is one
// behind (optimistic locking)
func (r *PostgresOrderRepository) Save(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (
			id, customer_id, items, total_amount, currency, status,
			cancellation_reason, tracking_number, cancelled_at,
			created_at, updated_at, version
		) VALUES (
			:id, :customer_id, :items, :total_amount, :currency, :status,
			:cancellation_reason, :tracking_number, :cancelled_at,
			:created_at, :updated_at, :version
		)
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
			cancellation_reason = EXCLUDED.cancellation_reason,
			tracking_number = EXCLUDED.tracking_number,
			cancelled_at = EXCLUDED.cancelled_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
		WHERE orders.version = EXCLUDED.version - 1`

	row, err := r.toPostgres(order)
	if err != nil {
		return err
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to save order")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrOrderConflict, "order %s", order.ID)
	}

	return nil
}

func (r *PostgresOrderRepository) FindByID(ctx context.Context, id models.ID) (*domain.Order, error) {
	var row postgresOrder
	err := r.db.GetContext(ctx, &row, selectOrders+` WHERE id = $1`, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find order")
	}

	return r.toDomain(&row)
}

func (r *PostgresOrderRepository) List(ctx context.Context, filter domain.ListOrdersFilter) ([]*domain.Order, error) {
	var (
		conditions []string
		args       []any
	)

	if !filter.CustomerID.IsZero() {
		args = append(args, filter.CustomerID.String())
		conditions = append(conditions, "customer_id = $1")
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, "status = $"+strconv.Itoa(len(args)))
	}

	query := selectOrders
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += " LIMIT $" + strconv.Itoa(len(args))
	}

	var rows []postgresOrder
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "failed to list orders")
	}

	orders := make([]*domain.Order, len(rows))
	for i := range rows {
		order, err := r.toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		orders[i] = order
	}
	return orders, nil
}

func (r *PostgresOrderRepository) toPostgres(order *domain.Order) (*postgresOrder, error) {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode order items")
	}

	return &postgresOrder{
		ID:                 order.ID.String(),
		CustomerID:         order.CustomerID.String(),
		Items:              items,
		TotalAmount:        order.TotalAmount.Amount,
		Currency:           order.TotalAmount.Currency,
		Status:             string(order.Status),
		CancellationReason: order.CancellationReason,
		TrackingNumber:     order.TrackingNumber,
		CancelledAt:        sql.NullTime{Time: order.CancelledAt, Valid: !order.CancelledAt.IsZero()},
		CreatedAt:          order.Timestamps.CreatedAt,
		UpdatedAt:          order.Timestamps.UpdatedAt,
		Version:            order.Version.Value,
	}, nil
}

func (r *PostgresOrderRepository) toDomain(row *postgresOrder) (*domain.Order, error) {
	var items []events.LineItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode order items")
	}

	status, err := domain.NewOrderStatus(row.Status)
	if err != nil {
		return nil, err
	}

	return &domain.Order{
		ID:                 models.ID(row.ID),
		CustomerID:         models.ID(row.CustomerID),
		Items:              items,
		TotalAmount:        models.NewMoney(row.TotalAmount, row.Currency),
		Status:             status,
		CancellationReason: row.CancellationReason,
		TrackingNumber:     row.TrackingNumber,
		CancelledAt:        row.CancelledAt.Time,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}, nil
}
