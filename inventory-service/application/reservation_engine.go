package application

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/logger"
	"github.com/draftea/order-saga/shared/models"
)

// ErrConcurrencyExhausted is returned when every optimistic attempt lost a
// race. It is transient: the message is redelivered.
var ErrConcurrencyExhausted = errors.New("optimistic concurrency retries exhausted")

const (
	DefaultMaxAttempts = 5
	DefaultStock       = 100
	DefaultProductName = "Sample Product"
)

type EngineConfig struct {
	MaxAttempts int
	// AutoProvision creates unknown products on reserve with DefaultStock
	AutoProvision      bool
	DefaultStock       int
	DefaultProductName string
}

// ReservationResult is the item state after a committed change
type ReservationResult struct {
	OK             bool
	AvailableAfter int
	ReservedAfter  int
}

// ReservationEngine changes inventory items with optimistic concurrency: it
// reads an item and its version, applies the change to a copy and commits
// only if nobody wrote the item in between, retrying on conflict.
type ReservationEngine struct {
	repository domain.InventoryRepository
	config     EngineConfig
	logger     *zap.Logger
}

func NewReservationEngine(repository domain.InventoryRepository, config EngineConfig, logger *zap.Logger) *ReservationEngine {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = DefaultMaxAttempts
	}
	if config.DefaultStock <= 0 {
		config.DefaultStock = DefaultStock
	}
	if config.DefaultProductName == "" {
		config.DefaultProductName = DefaultProductName
	}

	return &ReservationEngine{
		repository: repository,
		config:     config,
		logger:     logger,
	}
}

// Reserve moves quantity of a product from available to reserved. It fails
// with domain.ErrInsufficientStock when the stock seen at commit time is too
// low.
func (e *ReservationEngine) Reserve(ctx context.Context, productID models.ID, quantity int) (*ReservationResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	var provision provisioner
	if e.config.AutoProvision {
		provision = func() (*domain.InventoryItem, error) {
			return domain.NewInventoryItem(productID, e.config.DefaultProductName, e.config.DefaultStock)
		}
	}

	return e.update(ctx, productID, provision, func(item *domain.InventoryItem) error {
		return item.Reserve(quantity)
	})
}

// Release gives a reserved quantity back. Unknown products are never
// provisioned here.
func (e *ReservationEngine) Release(ctx context.Context, productID models.ID, quantity int) (*ReservationResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	return e.update(ctx, productID, nil, func(item *domain.InventoryItem) error {
		return item.Release(quantity)
	})
}

// Restock adds stock, creating the product when it does not exist yet
func (e *ReservationEngine) Restock(ctx context.Context, productID models.ID, productName string, quantity int) (*ReservationResult, error) {
	if quantity <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	provision := func() (*domain.InventoryItem, error) {
		return domain.NewInventoryItem(productID, productName, 0)
	}

	return e.update(ctx, productID, provision, func(item *domain.InventoryItem) error {
		if productName != "" {
			item.ProductName = productName
		}
		return item.Restock(quantity)
	})
}

// provisioner builds the item stored for a product that does not exist yet
type provisioner func() (*domain.InventoryItem, error)

func (e *ReservationEngine) update(
	ctx context.Context,
	productID models.ID,
	provision provisioner,
	change func(*domain.InventoryItem) error,
) (*ReservationResult, error) {
	for attempt := 1; attempt <= e.config.MaxAttempts; attempt++ {
		item, err := e.load(ctx, productID, provision)
		if errors.Is(err, domain.ErrItemExists) {
			continue
		}
		if err != nil {
			return nil, err
		}

		result, err := e.commit(ctx, item, change)
		if errors.Is(err, domain.ErrVersionConflict) {
			logger.Debug(ctx, e.logger, "inventory version conflict, retrying",
				zap.String("product_id", productID.String()),
				zap.Int("attempt", attempt),
			)
			continue
		}
		return result, err
	}

	return nil, errors.Wrapf(ErrConcurrencyExhausted, "product %s after %d attempts", productID, e.config.MaxAttempts)
}

// load reads the item, creating it through provision when it is unknown. A
// concurrent creation surfaces as ErrItemExists and is retried.
func (e *ReservationEngine) load(ctx context.Context, productID models.ID, provision provisioner) (*domain.InventoryItem, error) {
	item, err := e.repository.FindByProductID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find inventory item")
	}
	if item != nil {
		return item, nil
	}

	if provision == nil {
		return nil, errors.Wrapf(domain.ErrProductNotFound, "product %s", productID)
	}

	item, err = provision()
	if err != nil {
		return nil, err
	}

	if err := e.repository.Create(ctx, item); err != nil {
		if errors.Is(err, domain.ErrItemExists) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to provision inventory item")
	}

	logger.Info(ctx, e.logger, "inventory item provisioned",
		zap.String("product_id", productID.String()),
		zap.Int("stock", item.AvailableQuantity),
	)

	return item, nil
}

func (e *ReservationEngine) commit(ctx context.Context, item *domain.InventoryItem, change func(*domain.InventoryItem) error) (*ReservationResult, error) {
	next := item.Clone()
	if err := change(next); err != nil {
		return nil, err
	}

	if err := e.repository.SaveIfVersion(ctx, next, item.Version); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to save inventory item")
	}

	return resultOf(next), nil
}

func resultOf(item *domain.InventoryItem) *ReservationResult {
	return &ReservationResult{
		OK:             true,
		AvailableAfter: item.AvailableQuantity,
		ReservedAfter:  item.ReservedQuantity,
	}
}
