package orders

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db"
	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/pagination"
)

const sqliteUUID = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))))`

func setupOrderDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY DEFAULT %s,
  user_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  total_amount NUMERIC NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`, sqliteUUID),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY DEFAULT %s,
  order_id TEXT NOT NULL,
  product_id TEXT NOT NULL,
  product_name TEXT NOT NULL,
  product_image TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  price NUMERIC NOT NULL,
  created_at DATETIME
);`, sqliteUUID),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY DEFAULT %s,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`, sqliteUUID),
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func newOrderService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(
		NewRepository(conn),
		db.FromGorm(conn),
		outbox.NewService(outbox.NewRepository(conn), nil),
	)
	require.NoError(t, err)
	return svc
}

func seedOrder(t *testing.T, conn *gorm.DB, userID uuid.UUID, status enums.OrderStatus, createdAt time.Time) *models.Order {
	t.Helper()
	order := &models.Order{
		ID:          uuid.New(),
		UserID:      userID,
		Status:      status,
		TotalAmount: decimal.RequireFromString("25.98"),
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}
	require.NoError(t, conn.Create(order).Error)

	item := &models.OrderItem{
		ID:           uuid.New(),
		OrderID:      order.ID,
		ProductID:    uuid.New(),
		ProductName:  "Graphic Tee",
		ProductImage: "https://cdn.example.com/tee.jpg",
		Quantity:     2,
		Price:        decimal.RequireFromString("12.99"),
	}
	require.NoError(t, conn.Create(item).Error)
	return order
}

func TestGetOrderScopedToOwner(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()
	order := seedOrder(t, conn, owner, enums.OrderStatusPending, time.Now().UTC())

	dto, err := svc.GetOrder(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, dto.ID)
	require.Len(t, dto.Items, 1)
	assert.Equal(t, "Graphic Tee", dto.Items[0].ProductName)
	assert.True(t, dto.Items[0].Subtotal.Equal(decimal.RequireFromString("25.98")),
		"line subtotal is price times quantity")

	// Another user's order id reads as not found, never forbidden.
	_, err = svc.GetOrder(ctx, stranger, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	_, err = svc.GetOrder(ctx, uuid.Nil, order.ID)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())

	_, err = svc.GetOrder(ctx, owner, uuid.Nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestListOrdersPaginatesWithCursor(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	oldest := seedOrder(t, conn, userID, enums.OrderStatusDelivered, base)
	middle := seedOrder(t, conn, userID, enums.OrderStatusShipped, base.Add(time.Hour))
	newest := seedOrder(t, conn, userID, enums.OrderStatusPending, base.Add(2*time.Hour))
	seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, base.Add(3*time.Hour))

	page, err := svc.ListOrders(ctx, userID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Orders, 2)
	assert.Equal(t, newest.ID, page.Orders[0].ID)
	assert.Equal(t, middle.ID, page.Orders[1].ID)
	require.NotEmpty(t, page.NextCursor)

	rest, err := svc.ListOrders(ctx, userID, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Orders, 1)
	assert.Equal(t, oldest.ID, rest.Orders[0].ID)
	assert.Empty(t, rest.NextCursor)

	_, err = svc.ListOrders(ctx, uuid.Nil, pagination.Params{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}

func TestListOrdersRejectsMalformedCursor(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	userID := uuid.New()
	seedOrder(t, conn, userID, enums.OrderStatusPending, time.Now().UTC())

	// A bad cursor is the caller's mistake, not a store failure.
	for _, cursor := range []string{"not-base64!!!", "bm8tcGlwZQ"} {
		_, err := svc.ListOrders(ctx, userID, pagination.Params{Cursor: cursor})
		require.Error(t, err)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code(), "cursor %q", cursor)
	}
}

func TestUpdateStatusFollowsLifecycle(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusPending, time.Now().UTC())

	dto, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID:     order.ID,
		Status:      enums.OrderStatusProcessing,
		ActorUserID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusProcessing, stored.Status)

	var eventCount int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).
		Where("aggregate_id = ? AND event_type = ?", order.ID, enums.OutboxEventOrderStatusChanged).
		Count(&eventCount).Error)
	assert.Equal(t, int64(1), eventCount, "a status change must record an event in the same transaction")
}

func TestUpdateStatusSameStatusIsNoOp(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	order := seedOrder(t, conn, uuid.New(), enums.OrderStatusProcessing, time.Now().UTC())

	dto, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: order.ID,
		Status:  enums.OrderStatusProcessing,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusProcessing, dto.Status)

	var eventCount int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&eventCount).Error)
	assert.Zero(t, eventCount, "a no-op update must not emit an event")
}

func TestUpdateStatusRejectsBadTransitions(t *testing.T) {
	conn := setupOrderDB(t)
	svc := newOrderService(t, conn)
	ctx := context.Background()

	shipped := seedOrder(t, conn, uuid.New(), enums.OrderStatusShipped, time.Now().UTC())

	_, err := svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: shipped.ID,
		Status:  enums.OrderStatusPending,
	})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeStateConflict, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, enums.OrderStatusShipped, details["from"])
	assert.Equal(t, enums.OrderStatusPending, details["to"])

	delivered := seedOrder(t, conn, uuid.New(), enums.OrderStatusDelivered, time.Now().UTC())
	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: delivered.ID,
		Status:  enums.OrderStatusCancelled,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code(), "delivered is terminal")

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: shipped.ID,
		Status:  enums.OrderStatus("teleported"),
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	_, err = svc.UpdateStatus(ctx, UpdateStatusInput{
		OrderID: uuid.New(),
		Status:  enums.OrderStatusProcessing,
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	var stored models.Order
	require.NoError(t, conn.First(&stored, "id = ?", shipped.ID).Error)
	assert.Equal(t, enums.OrderStatusShipped, stored.Status, "failed updates must not change the row")
}
