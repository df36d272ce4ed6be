package deliveries

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/wyehealth/clinicbridge-backend/pkg/db/models"
	"github.com/wyehealth/clinicbridge-backend/pkg/enums"
)

func setupDeliveriesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	orders := `
CREATE TABLE IF NOT EXISTS delivery_orders (
  id TEXT PRIMARY KEY,
  vendor_id TEXT,
  expense_id TEXT UNIQUE,
  reference TEXT,
  status TEXT NOT NULL DEFAULT 'draft',
  received_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS delivery_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  item_id TEXT,
  description TEXT,
  quantity NUMERIC NOT NULL,
  bonus NUMERIC NOT NULL DEFAULT 0,
  unit_price NUMERIC NOT NULL DEFAULT 0,
  total_price NUMERIC NOT NULL DEFAULT 0,
  expiry_token TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(orders).Error)
	require.NoError(t, db.Exec(items).Error)
	return db
}

func createTestOrder(t *testing.T, repo *Repository, expenseID *uuid.UUID, reference string, created time.Time) *models.DeliveryOrder {
	t.Helper()

	order := &models.DeliveryOrder{
		ExpenseID: expenseID,
		Reference: reference,
		Status:    enums.DeliveryOrderStatusReceived,
		CreatedAt: created,
		UpdatedAt: created,
	}
	require.NoError(t, repo.CreateOrder(context.Background(), order))
	return order
}

func TestRepositoryFindOrderByExpenseID(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	expenseID := uuid.New()
	order := createTestOrder(t, repo, &expenseID, "cms-delivery-7", time.Now().UTC())
	createTestOrder(t, repo, nil, "manual", time.Now().UTC())

	found, err := repo.FindOrderByExpenseID(ctx, expenseID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, order.ID, found.ID)

	missing, err := repo.FindOrderByExpenseID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRepositoryCountMatchingLineItems(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, repo, nil, "ref", time.Now().UTC())
	itemID := uuid.New()

	require.NoError(t, repo.CreateLineItem(ctx, &models.DeliveryItem{
		OrderID:  order.ID,
		ItemID:   &itemID,
		Quantity: decimal.NewFromInt(10),
	}))
	require.NoError(t, repo.CreateLineItem(ctx, &models.DeliveryItem{
		OrderID:     order.ID,
		Description: "unmatched legacy row",
		Quantity:    decimal.NewFromInt(3),
	}))

	count, err := repo.CountMatchingLineItems(ctx, order.ID, &itemID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	count, err = repo.CountMatchingLineItems(ctx, order.ID, &itemID, decimal.NewFromInt(9))
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountMatchingLineItems(ctx, order.ID, nil, decimal.NewFromInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryListOrdersPreloadsItems(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := createTestOrder(t, repo, nil, "older", time.Now().UTC().Add(-time.Hour))
	newer := createTestOrder(t, repo, nil, "newer", time.Now().UTC())
	require.NoError(t, repo.CreateLineItem(ctx, &models.DeliveryItem{
		OrderID:  newer.ID,
		Quantity: decimal.NewFromInt(1),
	}))

	orders, err := repo.ListOrders(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Len(t, orders[0].Items, 1)
	assert.Equal(t, older.ID, orders[1].ID)
	assert.Empty(t, orders[1].Items)
}

func TestRepositorySaveOrderLeavesItemsAlone(t *testing.T) {
	db := setupDeliveriesTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	order := createTestOrder(t, repo, nil, "ref", time.Now().UTC())
	require.NoError(t, repo.CreateLineItem(ctx, &models.DeliveryItem{
		OrderID:  order.ID,
		Quantity: decimal.NewFromInt(2),
	}))

	now := time.Now().UTC()
	order.Status = enums.DeliveryOrderStatusVoided
	order.ReceivedAt = &now
	require.NoError(t, repo.SaveOrder(ctx, order))

	reloaded, err := repo.FindOrderByID(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.Equal(t, enums.DeliveryOrderStatusVoided, reloaded.Status)
	require.Len(t, reloaded.Items, 1)
}
