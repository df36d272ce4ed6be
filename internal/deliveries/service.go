package deliveries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
	pkgerrors "github.com/wyehealth/clinicbridge-backend/pkg/errors"
)

type deliveryRepository interface {
	ListOrders(ctx context.Context) ([]models.DeliveryOrder, error)
	FindOrderByID(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error)
	CreateOrder(ctx context.Context, order *models.DeliveryOrder) error
	SaveOrder(ctx context.Context, order *models.DeliveryOrder) error
	CreateLineItem(ctx context.Context, item *models.DeliveryItem) error
}

// LineInput is one received line on an order.
type LineInput struct {
	ItemID      *uuid.UUID      `json:"item_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity" validate:"required"`
	Bonus       decimal.Decimal `json:"bonus"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Expiry      *time.Time      `json:"expiry"`
}

// CreateOrderInput captures a new delivery order with its lines.
type CreateOrderInput struct {
	VendorID  *uuid.UUID  `json:"vendor_id"`
	ExpenseID *uuid.UUID  `json:"expense_id"`
	Reference string      `json:"reference"`
	Lines     []LineInput `json:"lines" validate:"required,min=1,dive"`
}

// Service exposes delivery receiving operations.
type Service interface {
	ListOrders(ctx context.Context) ([]models.DeliveryOrder, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (*models.DeliveryOrder, error)
	MarkReceived(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error)
}

type service struct {
	repo deliveryRepository
	now  func() time.Time
}

func NewService(repo deliveryRepository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("delivery repository required")
	}
	return &service{repo: repo, now: time.Now}, nil
}

func (s *service) ListOrders(ctx context.Context) ([]models.DeliveryOrder, error) {
	orders, err := s.repo.ListOrders(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery orders")
	}
	return orders, nil
}

func (s *service) GetOrder(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error) {
	order, err := s.repo.FindOrderByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load delivery order")
	}
	if order == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "delivery order not found")
	}
	return order, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.DeliveryOrder, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one line is required")
	}
	for i, line := range input.Lines {
		if !line.Quantity.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("line %d: quantity must be positive", i+1))
		}
	}

	order := &models.DeliveryOrder{
		ID:        uuid.New(),
		VendorID:  input.VendorID,
		ExpenseID: input.ExpenseID,
		Reference: input.Reference,
		Status:    enums.DeliveryOrderStatusDraft,
	}
	if err := s.repo.CreateOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery order")
	}

	for _, line := range input.Lines {
		item := &models.DeliveryItem{
			OrderID:     order.ID,
			ItemID:      line.ItemID,
			Description: line.Description,
			Quantity:    line.Quantity,
			Bonus:       line.Bonus,
			UnitPrice:   line.UnitPrice,
			TotalPrice:  line.UnitPrice.Mul(line.Quantity),
			ExpiryToken: ExpiryToken(line.Expiry),
		}
		if err := s.repo.CreateLineItem(ctx, item); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create delivery line")
		}
		order.Items = append(order.Items, *item)
	}
	return order, nil
}

func (s *service) MarkReceived(ctx context.Context, id uuid.UUID) (*models.DeliveryOrder, error) {
	order, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == enums.DeliveryOrderStatusVoided {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cannot receive a voided order")
	}
	now := s.now().UTC()
	order.Status = enums.DeliveryOrderStatusReceived
	order.ReceivedAt = &now
	if err := s.repo.SaveOrder(ctx, order); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order received")
	}
	return order, nil
}

// ExpiryToken renders an expiry date as an 8-digit YYYYMMDD token, or an
// empty string when the date is unknown.
func ExpiryToken(expiry *time.Time) string {
	if expiry == nil || expiry.IsZero() {
		return ""
	}
	return expiry.Format("20060102")
}
