package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	cartpkg "github.com/swayaa-dev/storefront-backend/internal/cart"
	"github.com/swayaa-dev/storefront-backend/internal/orders"
	product "github.com/swayaa-dev/storefront-backend/internal/products"
	"github.com/swayaa-dev/storefront-backend/pkg/db/models"
	"github.com/swayaa-dev/storefront-backend/pkg/enums"
	pkgerrors "github.com/swayaa-dev/storefront-backend/pkg/errors"
	"github.com/swayaa-dev/storefront-backend/pkg/logger"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox"
	"github.com/swayaa-dev/storefront-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type userReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Service converts a mutable cart into an immutable order.
type Service interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error)
}

type service struct {
	tx       txRunner
	carts    *cartpkg.Repository
	products *product.Repository
	orders   orders.Repository
	users    userReader
	outbox   outboxPublisher
	logg     *logger.Logger
}

// NewService wires the checkout workflow dependencies.
func NewService(
	tx txRunner,
	carts *cartpkg.Repository,
	products *product.Repository,
	orderRepo orders.Repository,
	users userReader,
	outboxSvc outboxPublisher,
	logg *logger.Logger,
) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if orderRepo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if users == nil {
		return nil, fmt.Errorf("user reader required")
	}
	if outboxSvc == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{
		tx:       tx,
		carts:    carts,
		products: products,
		orders:   orderRepo,
		users:    users,
		outbox:   outboxSvc,
		logg:     logg,
	}, nil
}

// lineProblem is one validation failure attributed to a cart line.
type lineProblem struct {
	ProductID uuid.UUID `json:"product_id"`
	Reason    string    `json:"reason"`
}

// PlaceOrder runs the whole checkout inside one transaction: load and
// validate every cart line, snapshot prices into an order, decrement stock
// conditionally, then empty the cart and queue the confirmation event.
// Any failure rolls the entire attempt back; the cart survives untouched.
func (s *service) PlaceOrder(ctx context.Context, userID uuid.UUID) (*orders.OrderDTO, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	var placed *orders.OrderDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		products := s.products.WithTx(tx)
		orderRepo := s.orders.WithTx(tx)

		cart, err := carts.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if len(cart.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
		}

		productIDs := make([]uuid.UUID, 0, len(cart.Items))
		for _, item := range cart.Items {
			productIDs = append(productIDs, item.ProductID)
		}
		productsByID, err := products.FindByIDs(ctx, productIDs)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart products")
		}

		// Validation is exhaustive: every line is checked and every problem
		// reported before anything is written.
		problems := validateLines(cart.Items, productsByID)
		if len(problems) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "cart validation failed").
				WithDetails(problems)
		}

		total := decimal.Zero
		for _, item := range cart.Items {
			p := productsByID[item.ProductID]
			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}

		order, err := orderRepo.Create(ctx, &models.Order{
			UserID:      userID,
			Status:      enums.OrderStatusPending,
			TotalAmount: total,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		orderItems := make([]models.OrderItem, 0, len(cart.Items))
		for _, item := range cart.Items {
			p := productsByID[item.ProductID]
			orderItems = append(orderItems, models.OrderItem{
				OrderID:      order.ID,
				ProductID:    p.ID,
				ProductName:  p.Name,
				ProductImage: p.Image,
				Quantity:     item.Quantity,
				Price:        p.Price,
			})
		}
		if err := orderRepo.CreateItems(ctx, orderItems); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}

		// The conditional decrement is the sole concurrency guard: when two
		// checkouts race for the last unit, exactly one update matches.
		for _, item := range cart.Items {
			ok, err := products.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			}
			if !ok {
				return pkgerrors.New(pkgerrors.CodeConflict, "stock changed during checkout, please retry").
					WithDetails([]lineProblem{{ProductID: item.ProductID, Reason: "insufficient stock"}})
			}
		}

		if err := carts.DeleteItemsByCart(ctx, cart.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "empty cart")
		}

		eventItems := make([]payloads.OrderPlacedItem, 0, len(orderItems))
		for _, item := range orderItems {
			eventItems = append(eventItems, payloads.OrderPlacedItem{
				ProductID:   item.ProductID,
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
			})
		}
		event := outbox.DomainEvent{
			EventType:     enums.OutboxEventOrderPlaced,
			AggregateType: enums.OutboxAggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.RoleCustomer)},
			Data: payloads.OrderPlacedEvent{
				OrderID:     order.ID,
				UserID:      userID,
				UserEmail:   user.Email,
				UserName:    user.Name,
				TotalAmount: order.TotalAmount,
				Items:       eventItems,
				PlacedAt:    order.CreatedAt,
			},
		}
		if err := s.outbox.Emit(ctx, tx, event); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "emit order event")
		}

		order.Items = orderItems
		placed = orders.ToDTO(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id": placed.ID.String(),
			"total":    placed.TotalAmount.String(),
		})
		s.logg.Info(logCtx, "order placed")
	}
	return placed, nil
}

func validateLines(items []models.CartItem, productsByID map[uuid.UUID]models.Product) []lineProblem {
	var problems []lineProblem
	for _, item := range items {
		p, ok := productsByID[item.ProductID]
		if !ok {
			problems = append(problems, lineProblem{ProductID: item.ProductID, Reason: "product no longer exists"})
			continue
		}
		if !p.IsActive {
			problems = append(problems, lineProblem{ProductID: item.ProductID, Reason: "product is unavailable"})
			continue
		}
		if item.Quantity <= 0 {
			problems = append(problems, lineProblem{ProductID: item.ProductID, Reason: "quantity must be positive"})
			continue
		}
		if p.Stock < item.Quantity {
			problems = append(problems, lineProblem{
				ProductID: item.ProductID,
				Reason:    fmt.Sprintf("insufficient stock: requested %d, available %d", item.Quantity, p.Stock),
			})
			continue
		}
		if !p.Price.IsPositive() {
			problems = append(problems, lineProblem{ProductID: item.ProductID, Reason: "product price is invalid"})
		}
	}
	return problems
}
