package domain

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/shared/models"
)

var (
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrOverRelease       = errors.New("release exceeds reserved quantity")
	ErrInvalidQuantity   = errors.New("quantity must be positive")
	ErrVersionConflict   = errors.New("inventory item was modified concurrently")
	ErrItemExists        = errors.New("inventory item already exists")
	ErrProductNotFound   = errors.New("product not found")
)

// InsufficientStockError carries the quantities of a rejected reservation.
// It matches ErrInsufficientStock with errors.Is.
type InsufficientStockError struct {
	ProductID models.ID
	Available int
	Requested int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Insufficient inventory for product %s. Available: %d, Requested: %d",
		e.ProductID, e.Available, e.Requested)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

// InventoryItem is the stock of one product. Available and reserved
// quantities only move between each other, so their sum stays constant
// except on restock.
type InventoryItem struct {
	ProductID         models.ID
	ProductName       string
	AvailableQuantity int
	ReservedQuantity  int
	Timestamps        models.Timestamps
	Version           models.Version
}

// NewInventoryItem creates an item with all of its stock available
func NewInventoryItem(productID models.ID, productName string, stock int) (*InventoryItem, error) {
	if productID.IsZero() {
		return nil, errors.New("product ID is required")
	}
	if stock < 0 {
		return nil, errors.Wrap(ErrInvalidQuantity, "initial stock")
	}

	return &InventoryItem{
		ProductID:         productID,
		ProductName:       productName,
		AvailableQuantity: stock,
		Timestamps:        models.NewTimestamps(),
		Version:           models.NewVersion(),
	}, nil
}

func (i *InventoryItem) TotalStock() int {
	return i.AvailableQuantity + i.ReservedQuantity
}

// Clone returns a copy to compute a change on before it is committed
func (i *InventoryItem) Clone() *InventoryItem {
	clone := *i
	return &clone
}

// Reserve moves quantity from available to reserved
func (i *InventoryItem) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if i.AvailableQuantity < quantity {
		return &InsufficientStockError{
			ProductID: i.ProductID,
			Available: i.AvailableQuantity,
			Requested: quantity,
		}
	}

	i.AvailableQuantity -= quantity
	i.ReservedQuantity += quantity
	i.touch()
	return nil
}

// Release moves quantity from reserved back to available
func (i *InventoryItem) Release(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	if quantity > i.ReservedQuantity {
		return errors.Wrapf(ErrOverRelease, "product %s: reserved %d, release %d",
			i.ProductID, i.ReservedQuantity, quantity)
	}

	i.ReservedQuantity -= quantity
	i.AvailableQuantity += quantity
	i.touch()
	return nil
}

// Restock adds quantity to the available stock
func (i *InventoryItem) Restock(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}

	i.AvailableQuantity += quantity
	i.touch()
	return nil
}

func (i *InventoryItem) touch() {
	i.Timestamps = i.Timestamps.Update()
	i.Version = i.Version.Update()
}

// InventoryRepository stores inventory items. FindByProductID returns nil
// without error for an unknown product.
type InventoryRepository interface {
	FindByProductID(ctx context.Context, productID models.ID) (*InventoryItem, error)
	// Create fails with ErrItemExists when the product is already stored
	Create(ctx context.Context, item *InventoryItem) error
	// SaveIfVersion stores item only if the stored version still equals
	// expected, otherwise it fails with ErrVersionConflict.
	SaveIfVersion(ctx context.Context, item *InventoryItem, expected models.Version) error
}
