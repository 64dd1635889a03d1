package infrastructure

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/domain"
	sharedinfra "github.com/draftea/order-saga/shared/infrastructure"
	"github.com/draftea/order-saga/shared/models"
)

// PostgresInventoryRepository implements InventoryRepository using PostgreSQL
type PostgresInventoryRepository struct {
	db *sqlx.DB
}

func NewPostgresInventoryRepository(db *sqlx.DB) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{db: db}
}

// postgresInventoryItem represents an inventory item in database
type postgresInventoryItem struct {
	ProductID         string    `db:"product_id"`
	ProductName       string    `db:"product_name"`
	AvailableQuantity int       `db:"available_quantity"`
	ReservedQuantity  int       `db:"reserved_quantity"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
	Version           int       `db:"version"`
}

func (r *PostgresInventoryRepository) FindByProductID(ctx context.Context, productID models.ID) (*domain.InventoryItem, error) {
	query := `
		SELECT product_id, product_name, available_quantity, reserved_quantity,
			   created_at, updated_at, version
		FROM inventory_items
		WHERE product_id = $1`

	var row postgresInventoryItem
	err := r.db.GetContext(ctx, &row, query, productID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to find inventory item")
	}

	return r.toDomain(&row), nil
}

func (r *PostgresInventoryRepository) Create(ctx context.Context, item *domain.InventoryItem) error {
	query := `
		INSERT INTO inventory_items (
			product_id, product_name, available_quantity, reserved_quantity,
			created_at, updated_at, version
		) VALUES (
			:product_id, :product_name, :available_quantity, :reserved_quantity,
			:created_at, :updated_at, :version
		)`

	_, err := r.db.NamedExecContext(ctx, query, r.toPostgres(item))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == sharedinfra.PostgresUniqueViolation {
			return domain.ErrItemExists
		}
		return errors.Wrap(err, "failed to insert inventory item")
	}

	return nil
}

// SaveIfVersion is a compare-and-set on the version column; the quantity
// checks keep the stock invariant in the database as well.
func (r *PostgresInventoryRepository) SaveIfVersion(ctx context.Context, item *domain.InventoryItem, expected models.Version) error {
	query := `
		UPDATE inventory_items
		SET product_name = :product_name,
			available_quantity = :available_quantity,
			reserved_quantity = :reserved_quantity,
			updated_at = :updated_at,
			version = :version
		WHERE product_id = :product_id AND version = :expected_version`

	row := r.toPostgres(item)
	res, err := r.db.NamedExecContext(ctx, query, map[string]interface{}{
		"product_id":         row.ProductID,
		"product_name":       row.ProductName,
		"available_quantity": row.AvailableQuantity,
		"reserved_quantity":  row.ReservedQuantity,
		"updated_at":         row.UpdatedAt,
		"version":            row.Version,
		"expected_version":   expected.Value,
	})
	if err != nil {
		return errors.Wrap(err, "failed to update inventory item")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return domain.ErrVersionConflict
	}

	return nil
}

func (r *PostgresInventoryRepository) toPostgres(item *domain.InventoryItem) *postgresInventoryItem {
	return &postgresInventoryItem{
		ProductID:         item.ProductID.String(),
		ProductName:       item.ProductName,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
		CreatedAt:         item.Timestamps.CreatedAt,
		UpdatedAt:         item.Timestamps.UpdatedAt,
		Version:           item.Version.Value,
	}
}

func (r *PostgresInventoryRepository) toDomain(row *postgresInventoryItem) *domain.InventoryItem {
	return &domain.InventoryItem{
		ProductID:         models.ID(row.ProductID),
		ProductName:       row.ProductName,
		AvailableQuantity: row.AvailableQuantity,
		ReservedQuantity:  row.ReservedQuantity,
		Timestamps: models.Timestamps{
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		},
		Version: models.Version{Value: row.Version},
	}
}
