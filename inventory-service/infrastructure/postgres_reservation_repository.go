package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/events"
	"github.com/draftea/order-saga/shared/models"
)

// PostgresReservationRepository implements ReservationRepository using PostgreSQL
type PostgresReservationRepository struct {
	db *sqlx.DB
}

func NewPostgresReservationRepository(db *sqlx.DB) *PostgresReservationRepository {
	return &PostgresReservationRepository{db: db}
}

type postgresReservation struct {
	ID        string    `db:"id"`
	OrderID   string    `db:"order_id"`
	Items     []byte    `db:"items"`
	Status    string    `db:"status"`
	Reason    string    `db:"reason"`
	DecidedAt time.Time `db:"decided_at"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	Version   int       `db:"version"`
}

func (r *PostgresReservationRepository) FindByOrderID(ctx context.Context, orderID models.ID) (*domain.Reservation, error) {
	query := `
		SELECT id, order_id, items, status, reason, decided_at,
			   created_at, updated_at, version
		FROM reservations
		WHERE order_id = $1`

	var row postgresReservation
	err := r.db.GetContext(ctx, &row, query, orderID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find reservation")
	}

	return r.toDomain(&row)
}

// Create inserts the first decision for an order. A second decision for the
// same order is refused rather than merged.
func (r *PostgresReservationRepository) Create(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		INSERT INTO reservations (
			id, order_id, items, status, reason, decided_at,
			created_at, updated_at, version
		) VALUES (
			:id, :order_id, :items, :status, :reason, :decided_at,
			:created_at, :updated_at, :version
		)
		ON CONFLICT (order_id) DO NOTHING`

	row, err := r.toPostgres(reservation)
	if err != nil {
		return err
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to create reservation")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrReservationExists
	}

	return nil
}

// Update moves the status of a stored reservation. Items and the decision
// time are never rewritten.
func (r *PostgresReservationRepository) Update(ctx context.Context, reservation *domain.Reservation) error {
	query := `
		UPDATE reservations
		SET status = :status,
			updated_at = :updated_at,
			version = :version
		WHERE order_id = :order_id AND version = :version - 1`

	row, err := r.toPostgres(reservation)
	if err != nil {
		return err
	}

	res, err := r.db.NamedExecContext(ctx, query, row)
	if err != nil {
		return errors.Wrap(err, "failed to update reservation")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrReservationConflict
	}

	return nil
}

func (r *PostgresReservationRepository) toPostgres(reservation *domain.Reservation) (*postgresReservation, error) {
	items := reservation.Items
	if items == nil {
		items = []events.ReservedItem{}
	}

	data, err := json.Marshal(items)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode reservation items")
	}

	return &postgresReservation{
		ID:        reservation.ID.String(),
		OrderID:   reservation.OrderID.String(),
		Items:     data,
		Status:    string(reservation.Status),
		Reason:    reservation.Reason,
		DecidedAt: reservation.DecidedAt,
		CreatedAt: reservation.Timestamps.CreatedAt,
		UpdatedAt: reservation.Timestamps.UpdatedAt,
		Version:   reservation.Version.Value,
	}, nil
}

func (r *PostgresReservationRepository) toDomain(row *postgresReservation) (*domain.Reservation, error) {
	var items []events.ReservedItem
	if err := json.Unmarshal(row.Items, &items); err != nil {
		return nil, errors.Wrap(err, "failed to decode reservation items")
	}
	if len(items) == 0 {
		items = nil
	}

	return &domain.Reservation{
		ID:        models.ID(row.ID),
		OrderID:   models.ID(row.OrderID),
		Items:     items,
		Status:    domain.ReservationStatus(row.Status),
		Reason:    row.Reason,
		DecidedAt: row.DecidedAt,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}, nil
}
