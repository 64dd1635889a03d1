package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/payments-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

var _ domain.PaymentRepository = (*PostgresPaymentRepository)(nil)

// PostgresPaymentRepository implements PaymentRepository using PostgreSQL
type PostgresPaymentRepository struct {
	db *sqlx.DB
}

// NewPostgresPaymentRepository creates a new PostgresPaymentRepository
func NewPostgresPaymentRepository(db *sqlx.DB) *PostgresPaymentRepository {
	return &PostgresPaymentRepository{db: db}
}

// postgresPayment represents payment in database
type postgresPayment struct {
	ID                    string       `db:"id"`
	OrderID               string       `db:"order_id"`
	CustomerID            string       `db:"customer_id"`
	Amount                int64        `db:"amount"`
	Currency              string       `db:"currency"`
	PaymentMethodType     string       `db:"payment_method_type"`
	Status                string       `db:"status"`
	ProviderTransactionID string       `db:"provider_transaction_id"`
	FailureReason         string       `db:"failure_reason"`
	Items                 []byte       `db:"items"`
	DecidedAt             sql.NullTime `db:"decided_at"`
	CreatedAt             time.Time    `db:"created_at"`
	UpdatedAt             time.Time    `db:"updated_at"`
	Version               int          `db:"version"`
}

// Save inserts a payment or updates the stored one when its version is one
// behind (optimistic locking)
func (r *PostgresPaymentRepository) Save(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (
			id, order_id, customer_id, amount, currency, payment_method_type,
			status, provider_transaction_id, failure_reason, items,
			decided_at, created_at, updated_at, version
		) VALUES (
			:id, :order_id, :customer_id, :amount, :currency, :payment_method_type,
			:status, :provider_transaction_id, :failure_reason, :items,
			:decided_at, :created_at, :updated_at, :version
		)
		ON CONFLICT (order_id) DO UPDATE
		SET status = EXCLUDED.status,
			provider_transaction_id = EXCLUDED.provider_transaction_id,
			failure_reason = EXCLUDED.failure_reason,
			decided_at = EXCLUDED.decided_at,
			updated_at = EXCLUDED.updated_at,
			version = EXCLUDED.version
		WHERE payments.version = EXCLUDED.version - 1`

	row, err := r.toPostgres(payment)
	if err != nil {
		return err
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to save payment")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return errors.Wrapf(domain.ErrPaymentConflict, "order %s", payment.OrderID)
	}

	return nil
}

// FindByOrderID finds the payment of an order
func (r *PostgresPaymentRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Payment, error) {
	query := `
		SELECT id, order_id, customer_id, amount, currency, payment_method_type,
			   status, provider_transaction_id, failure_reason, items,
			   decided_at, created_at, updated_at, version
		FROM payments
		WHERE order_id = $1`

	var row postgresPayment
	err := r.db.GetContext(ctx, &row, query, orderID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Payment not found
		}
		return nil, errors.Wrap(err, "failed to find payment")
	}

	return r.toDomain(&row)
}

// toPostgres converts domain payment to postgres model
func (r *PostgresPaymentRepository) toPostgres(payment *domain.Payment) (*postgresPayment, error) {
	items := payment.Items
	if items == nil {
		items = []events.LineItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode payment items")
	}

	return &postgresPayment{
		ID:                    payment.ID.String(),
		OrderID:               payment.OrderID.String(),
		CustomerID:            payment.CustomerID.String(),
		Amount:                payment.Amount.Amount,
		Currency:              payment.Amount.Currency,
		PaymentMethodType:     payment.Method.String(),
		Status:                string(payment.Status),
		ProviderTransactionID: payment.ProviderTransactionID,
		FailureReason:         payment.FailureReason,
		Items:                 data,
		DecidedAt:             sql.NullTime{Time: payment.DecidedAt, Valid: !payment.DecidedAt.IsZero()},
		CreatedAt:             payment.Timestamps.CreatedAt,
		UpdatedAt:             payment.Timestamps.UpdatedAt,
		Version:               payment.Version.Value,
	}, nil
}

// toDomain converts postgres model to domain payment
func (r *PostgresPaymentRepository) toDomain(row *postgresPayment) (*domain.Payment, error) {
	method, err := domain.NewPaymentMethodType(row.PaymentMethodType)
	if err != nil {
		return nil, errors.Wrap(err, "invalid payment method type")
	}

	var items []events.LineItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode payment items")
	}
	if len(items) == 0 {
		items = nil
	}

	return &domain.Payment{
		ID:                    models.ID(row.ID),
		OrderID:               models.ID(row.OrderID),
		CustomerID:            models.ID(row.CustomerID),
		Amount:                models.NewMoney(row.Amount, row.Currency),
		Method:                method,
		Status:                domain.PaymentStatus(row.Status),
		ProviderTransactionID: row.ProviderTransactionID,
		FailureReason:         row.FailureReason,
		Items:                 items,
		DecidedAt:             row.DecidedAt.Time,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}, nil
}
