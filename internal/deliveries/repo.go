package deliveries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
)

// Repository handles delivery order and line-item persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListOrders(ctx context.Context) ([]models.DeliveryOrder, error) {
	var orders []models.DeliveryOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *Repository) FindOrderByID(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error) {
	var order models.DeliveryOrder
	err := r.db.WithContext(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindOrderByExpenseID loads the order booked against the ledger expense, or
// nil. The unique expense_id index makes this the migration idempotency key.
func (r *Repository) FindOrderByExpenseID(ctx context.Context, expenseID uuid.UUID) (*models.DeliveryOrder, error) {
	var order models.DeliveryOrder
	err := r.db.WithContext(ctx).First(&order, "expense_id = ?", expenseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) CreateOrder(ctx context.Context, order *models.DeliveryOrder) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *Repository) SaveOrder(ctx context.Context, order *models.DeliveryOrder) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

func (r *Repository) CreateLineItem(ctx context.Context, item *models.DeliveryItem) error {
	if item == nil {
		return fmt.Errorf("line item is required")
	}
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(item).Error
}

// CountMatchingLineItems reports how many lines on the order already match
// the item/quantity pair. The delivery migration uses it to avoid writing the
// same legacy record twice.
func (r *Repository) CountMatchingLineItems(ctx context.Context, orderID uuid.UUID, itemID *uuid.UUID, quantity decimal.Decimal) (int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.DeliveryItem{}).
		Where("order_id = ?", orderID).
		Where("quantity = ?", quantity)
	if itemID != nil {
		query = query.Where("item_id = ?", *itemID)
	} else {
		query = query.Where("item_id IS NULL")
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *Repository) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.DeliveryOrder{}, "id = ?", id).Error
}
