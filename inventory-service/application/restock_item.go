package application

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

type RestockItemCommand struct {
	ProductID   string `json:"-" validate:"required"`
	ProductName string `json:"productName"`
	Quantity    int    `json:"quantity" validate:"gt=0"`
}

// RestockItem adds stock to a product, creating it if needed
type RestockItem struct {
	engine     *ReservationEngine
	repository domain.InventoryRepository
	validate   *validator.Validate
}

func NewRestockItem(engine *ReservationEngine, repository domain.InventoryRepository) *RestockItem {
	return &RestockItem{
		engine:     engine,
		repository: repository,
		validate:   validator.New(),
	}
}

func (uc *RestockItem) Execute(ctx context.Context, cmd *RestockItemCommand) (*InventoryItemResponse, error) {
	if err := uc.validate.Struct(cmd); err != nil {
		return nil, errors.Wrap(domain.ErrInvalidQuantity, err.Error())
	}

	productID := models.ID(cmd.ProductID)
	if _, err := uc.engine.Restock(ctx, productID, cmd.ProductName, cmd.Quantity); err != nil {
		return nil, err
	}

	item, err := uc.repository.FindByProductID(ctx, productID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find inventory item")
	}
	if item == nil {
		return nil, ErrInventoryItemNotFound
	}

	return toInventoryItemResponse(item), nil
}
