package product

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/pagination"
)

// sortColumns whitelists the catalog sort keys clients may request.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"price":     "price",
	"name":      "name",
}

// Repository exposes product persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a product repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx rebinds the repository to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// FindByID loads a product regardless of visibility.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveByID loads a product visible to the storefront.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads the products matching the given ids, keyed by id.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	byID := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// List returns a filtered, sorted page of products plus the total row count.
func (r *Repository) List(ctx context.Context, input ListInput) ([]models.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Product{})
	query = applyFilters(query, input.Filters)
	if !input.IncludeHidden {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := pagination.NormalizeLimit(input.Limit)
	page := input.Page
	if page <= 0 {
		page = 1
	}

	var rows []models.Product
	err := query.
		Order(orderClause(input.SortBy, input.SortDir)).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

// Search matches the query against the product's descriptive columns.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]models.Product, error) {
	pattern := "%" + strings.TrimSpace(term) + "%"
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where(
			r.db.Where("LOWER(name) LIKE LOWER(?)", pattern).
				Or("LOWER(description) LIKE LOWER(?)", pattern).
				Or("LOWER(category) LIKE LOWER(?)", pattern).
				Or("LOWER(type) LIKE LOWER(?)", pattern).
				Or("LOWER(print_type) LIKE LOWER(?)", pattern),
		).
		Order("created_at DESC").
		Limit(pagination.NormalizeLimit(limit)).
		Find(&rows).Error
	return rows, err
}

// Update applies the provided column updates to a product.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// Delete removes a product row outright.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id).Error
}

// Deactivate hides a product from the storefront without deleting it.
func (r *Repository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.Update(ctx, id, map[string]any{"is_active": false})
}

// CountOrderReferences reports how many order items reference the product.
func (r *Repository) CountOrderReferences(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("product_id = ?", id).
		Count(&count).Error
	return count, err
}

// DecrementStock subtracts qty only when enough stock remains. The caller
// must treat zero affected rows as a lost race.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func applyFilters(query *gorm.DB, filters ListFilters) *gorm.DB {
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	if filters.Type != "" {
		query = query.Where("type = ?", filters.Type)
	}
	if filters.PrintType != "" {
		query = query.Where("print_type = ?", filters.PrintType)
	}
	if filters.PriceMin != "" {
		if min, err := decimal.NewFromString(filters.PriceMin); err == nil {
			query = query.Where("price >= ?", min)
		}
	}
	if filters.PriceMax != "" {
		if max, err := decimal.NewFromString(filters.PriceMax); err == nil {
			query = query.Where("price <= ?", max)
		}
	}
	return query
}

func orderClause(sortBy, sortDir string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = "created_at"
	}
	dir := "DESC"
	if strings.EqualFold(sortDir, "asc") {
		dir = "ASC"
	}
	return column + " " + dir
}
