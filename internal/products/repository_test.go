package product

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
)

const sqliteUUID = `(lower(hex(randomblob(4)) || '-' || hex(randomblob(2)) || '-4' || substr(hex(randomblob(2)),2) || '-' || substr('89ab', abs(random()) % 4 + 1, 1) || substr(hex(randomblob(2)),2) || '-' || hex(randomblob(6))))`

func setupProductDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	statements := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY DEFAULT %s,
  name TEXT NOT NULL,
  description TEXT NOT NULL,
  price NUMERIC NOT NULL,
  image TEXT NOT NULL,
  type TEXT NOT NULL,
  print_type TEXT NOT NULL,
  category TEXT NOT NULL,
  stock INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
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
	}
	for _, stmt := range statements {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func insertProduct(t *testing.T, conn *gorm.DB, name, category, price string, stock int, active bool) *models.Product {
	t.Helper()
	p := &models.Product{
		ID:          uuid.New(),
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Image:       "https://cdn.example.com/img.jpg",
		Type:        "tshirt",
		PrintType:   "screen",
		Category:    category,
		Stock:       stock,
		IsActive:    active,
	}
	require.NoError(t, conn.Create(p).Error)
	return p
}

func TestDecrementStock(t *testing.T) {
	conn := setupProductDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	p := insertProduct(t, conn, "Tee", "apparel", "10.00", 3, true)

	ok, err := repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.True(t, ok)

	var stored models.Product
	require.NoError(t, conn.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 1, stored.Stock)

	// Requesting more than remains must leave the row untouched.
	ok, err = repo.DecrementStock(ctx, p.ID, 2)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, conn.First(&stored, "id = ?", p.ID).Error)
	assert.Equal(t, 1, stored.Stock)

	ok, err = repo.DecrementStock(ctx, uuid.New(), 1)
	require.NoError(t, err)
	assert.False(t, ok, "unknown product must report a failed decrement")
}

func TestListFiltersHiddenProducts(t *testing.T) {
	conn := setupProductDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	insertProduct(t, conn, "Visible", "apparel", "10.00", 5, true)
	insertProduct(t, conn, "Hidden", "apparel", "12.00", 5, false)

	rows, total, err := repo.List(ctx, ListInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Visible", rows[0].Name)

	rows, total, err = repo.List(ctx, ListInput{IncludeHidden: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, rows, 2)
}

func TestListFiltersAndSort(t *testing.T) {
	conn := setupProductDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	insertProduct(t, conn, "Cheap Tee", "apparel", "8.00", 5, true)
	insertProduct(t, conn, "Fancy Tee", "apparel", "30.00", 5, true)
	insertProduct(t, conn, "Mug", "drinkware", "12.00", 5, true)

	rows, total, err := repo.List(ctx, ListInput{
		Filters: ListFilters{Category: "apparel", PriceMin: "10", PriceMax: "50"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rows, 1)
	assert.Equal(t, "Fancy Tee", rows[0].Name)

	rows, _, err = repo.List(ctx, ListInput{SortBy: "price", SortDir: "asc"})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Cheap Tee", rows[0].Name)
	assert.Equal(t, "Fancy Tee", rows[2].Name)

	// Unknown sort keys fall back to created_at instead of erroring.
	_, _, err = repo.List(ctx, ListInput{SortBy: "evil; DROP TABLE products"})
	require.NoError(t, err)
}

func TestSearchMatchesDescriptiveColumns(t *testing.T) {
	conn := setupProductDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	insertProduct(t, conn, "Galaxy Hoodie", "apparel", "25.00", 5, true)
	insertProduct(t, conn, "Plain Tee", "apparel", "10.00", 5, true)
	insertProduct(t, conn, "Galaxy Mug", "drinkware", "12.00", 5, false)

	rows, err := repo.Search(ctx, "gAlAxY", 25)
	require.NoError(t, err)
	require.Len(t, rows, 1, "inactive products must not appear in search")
	assert.Equal(t, "Galaxy Hoodie", rows[0].Name)

	rows, err = repo.Search(ctx, "drinkware", 25)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCountOrderReferences(t *testing.T) {
	conn := setupProductDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	p := insertProduct(t, conn, "Referenced", "apparel", "10.00", 5, true)

	count, err := repo.CountOrderReferences(ctx, p.ID)
	require.NoError(t, err)
	assert.Zero(t, count)

	item := &models.OrderItem{
		ID:           uuid.New(),
		OrderID:      uuid.New(),
		ProductID:    p.ID,
		ProductName:  p.Name,
		ProductImage: p.Image,
		Quantity:     1,
		Price:        p.Price,
	}
	require.NoError(t, conn.Create(item).Error)

	count, err = repo.CountOrderReferences(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
