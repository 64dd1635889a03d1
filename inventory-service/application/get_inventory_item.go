package application

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/draftea/order-saga/inventory-service/domain"
	"github.com/draftea/order-saga/shared/models"
)

var ErrInventoryItemNotFound = errors.New("inventory item not found")

type GetInventoryItemQuery struct {
	ProductID string
}

type InventoryItemResponse struct {
	ProductID         string    `json:"productId"`
	ProductName       string    `json:"productName"`
	AvailableQuantity int       `json:"availableQuantity"`
	ReservedQuantity  int       `json:"reservedQuantity"`
	Version           int       `json:"version"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// GetInventoryItem use case for retrieving stock levels
type GetInventoryItem struct {
	repository domain.InventoryRepository
}

func NewGetInventoryItem(repository domain.InventoryRepository) *GetInventoryItem {
	return &GetInventoryItem{repository: repository}
}

func (uc *GetInventoryItem) Execute(ctx context.Context, query *GetInventoryItemQuery) (*InventoryItemResponse, error) {
	if query.ProductID == "" {
		return nil, errors.New("product ID is required")
	}

	item, err := uc.repository.FindByProductID(ctx, models.ID(query.ProductID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to find inventory item")
	}
	if item == nil {
		return nil, ErrInventoryItemNotFound
	}

	return toInventoryItemResponse(item), nil
}

func toInventoryItemResponse(item *domain.InventoryItem) *InventoryItemResponse {
	return &InventoryItemResponse{
		ProductID:         item.ProductID.String(),
		ProductName:       item.ProductName,
		AvailableQuantity: item.AvailableQuantity,
		ReservedQuantity:  item.ReservedQuantity,
		Version:           item.Version.Value,
		UpdatedAt:         item.Timestamps.UpdatedAt,
	}
}
