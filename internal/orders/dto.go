package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
)

// ItemDTO is a frozen order line; every field was snapshotted at checkout.
type ItemDTO struct {
	ID           uuid.UUID       `json:"id"`
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	ProductImage string          `json:"product_image"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

// OrderDTO is the immutable order summary returned to clients.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	Items       []ItemDTO         `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList is a cursor-paginated page of orders, newest first.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

// ToDTO maps an order row with preloaded items to its public shape.
func ToDTO(m *models.Order) *OrderDTO {
	if m == nil {
		return nil
	}
	dto := &OrderDTO{
		ID:          m.ID,
		Status:      m.Status,
		TotalAmount: m.TotalAmount,
		Items:       make([]ItemDTO, 0, len(m.Items)),
		CreatedAt:   m.CreatedAt,
	}
	for _, item := range m.Items {
		dto.Items = append(dto.Items, ItemDTO{
			ID:           item.ID,
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			ProductImage: item.ProductImage,
			Quantity:     item.Quantity,
			Price:        item.Price,
			Subtotal:     item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return dto
}
