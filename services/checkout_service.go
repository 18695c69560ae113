package services

import (
	"context"
	"encoding/json"
	"time"

	"bookstore-backend/apperrors"
	"bookstore-backend/models"
	"bookstore-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CheckoutForm struct {
	CustomerName    string `json:"customer_name" binding:"required"`
	CustomerEmail   string `json:"customer_email" binding:"required"`
	CustomerPhone   string `json:"customer_phone"`
	ShippingAddress string `json:"shipping_address"`
	Notes           string `json:"notes"`
}

type OrderSummary struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	TotalAmount float64   `json:"total_amount"`
}

// orderPlacedEvent is the outbox payload for the operator alert.
type orderPlacedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
}

type CheckoutService struct {
	cart   *CartService
	orders repository.OrderRepository
	carts  repository.CartRepository
	outbox repository.OutboxRepository
	logger *zap.Logger
}

func NewCheckoutService(
	cart *CartService,
	orders repository.OrderRepository,
	carts repository.CartRepository,
	outbox repository.OutboxRepository,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		cart:   cart,
		orders: orders,
		carts:  carts,
		outbox: outbox,
		logger: logger,
	}
}

// Checkout turns the user's cart into a persisted order. The order and its
// items either all land or none do: a failed item insert deletes the order
// just created. Cart cleanup and the operator alert are best-effort and never
// fail a committed checkout.
func (s *CheckoutService) Checkout(ctx context.Context, userID uuid.UUID, form *CheckoutForm) (*OrderSummary, error) {
	if form.CustomerName == "" {
		return nil, apperrors.Validation("customer_name is required")
	}
	if form.CustomerEmail == "" {
		return nil, apperrors.Validation("customer_email is required")
	}

	drafts, total, err := s.cart.ComputeCheckoutSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(drafts) == 0 {
		return nil, apperrors.Validation("cart is empty")
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		Status:          models.OrderStatusPending,
		TotalAmount:     total,
		CustomerName:    form.CustomerName,
		CustomerEmail:   form.CustomerEmail,
		CustomerPhone:   form.CustomerPhone,
		ShippingAddress: form.ShippingAddress,
		Notes:           form.Notes,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.Internal("failed to create order", err)
	}

	items := make([]models.OrderItem, 0, len(drafts))
	for _, d := range drafts {
		items = append(items, models.OrderItem{
			ID:        uuid.New(),
			OrderID:   order.ID,
			BookID:    d.BookID,
			Quantity:  d.Quantity,
			UnitPrice: d.UnitPrice,
			Subtotal:  d.Subtotal,
		})
	}
	if err := s.orders.CreateItems(ctx, items); err != nil {
		// Compensation: no order may exist without all of its items.
		if delErr := s.orders.Delete(ctx, order.ID); delErr != nil {
			s.logger.Error("compensation failed, orphan order left behind",
				zap.String("order_id", order.ID.String()),
				zap.Error(delErr),
			)
		}
		return nil, apperrors.Internal("failed to create order items", err)
	}

	if err := s.carts.DeleteAllForUser(ctx, userID); err != nil {
		// The order is committed; a dirty cart is not worth rolling it back.
		s.logger.Warn("cart cleanup failed after checkout",
			zap.String("user_id", userID.String()),
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}

	s.enqueueOperatorAlert(ctx, order)

	return &OrderSummary{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		TotalAmount: order.TotalAmount,
	}, nil
}

func (s *CheckoutService) enqueueOperatorAlert(ctx context.Context, order *models.Order) {
	payload, err := json.Marshal(orderPlacedEvent{OrderID: order.ID})
	if err != nil {
		s.logger.Error("failed to marshal order placed event", zap.Error(err))
		return
	}
	entry := &models.NotificationOutbox{
		Kind:    models.OutboxKindOrderPlaced,
		Payload: string(payload),
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		s.logger.Error("failed to enqueue operator alert",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

func newOrderNumber() string {
	return "ORD-" + time.Now().Format("20060102-150405") + "-" + uuid.New().String()[:8]
}
