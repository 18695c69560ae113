package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"bookstore-backend/apperrors"
	"bookstore-backend/models"
	"bookstore-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// statusTransitions lists the allowed targets per current status. Re-setting
// the same status is always allowed (and must stay idempotent). Cancelled and
// refunded orders are not terminal: re-entry into any status is permitted.
var statusTransitions = map[string][]string{
	models.OrderStatusPending:    {models.OrderStatusProcessing, models.OrderStatusCompleted, models.OrderStatusCancelled},
	models.OrderStatusProcessing: {models.OrderStatusCompleted, models.OrderStatusCancelled, models.OrderStatusRefunded},
	models.OrderStatusCompleted:  {models.OrderStatusCancelled, models.OrderStatusRefunded},
}

func canTransition(from, to string) bool {
	if from == to {
		return true
	}
	targets, ok := statusTransitions[from]
	if !ok {
		// cancelled / refunded: re-entry allowed
		return true
	}
	for _, t := range targets {
		if t == to {
			return true
		}
	}
	return false
}

// orderCompletedEvent is the outbox payload for the customer completion
// message.
type orderCompletedEvent struct {
	OrderID uuid.UUID `json:"order_id"`
}

type OrderResponse struct {
	Orders []models.Order `json:"orders"`
	Meta   MetaData       `json:"meta"`
}

type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

type OrderService struct {
	orders repository.OrderRepository
	outbox repository.OutboxRepository
	logger *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, outbox repository.OutboxRepository, logger *zap.Logger) *OrderService {
	return &OrderService{orders: orders, outbox: outbox, logger: logger}
}

// SetStatus moves an order through the status state machine and applies the
// side effects bound to the entered state. The completion message is enqueued
// at most once per entry into completed; failures on that path are logged and
// never surfaced to the caller.
func (s *OrderService) SetStatus(ctx context.Context, orderID uuid.UUID, newStatus, adminNotes string) (*models.Order, error) {
	if !models.ValidOrderStatus(newStatus) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status: %s", newStatus))
	}

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, apperrors.Internal("failed to fetch order", err)
	}

	prev := order.Status
	if !canTransition(prev, newStatus) {
		return nil, apperrors.Validation(fmt.Sprintf("cannot transition from %s to %s", prev, newStatus))
	}

	order.Status = newStatus
	if adminNotes != "" {
		order.AdminNotes = adminNotes
	}

	now := time.Now()
	switch newStatus {
	case models.OrderStatusCompleted:
		if order.CompletedAt == nil {
			order.CompletedAt = &now
		}
	case models.OrderStatusCancelled:
		if order.CancelledAt == nil {
			order.CancelledAt = &now
		}
	}

	if err := s.orders.Update(ctx, order); err != nil {
		return nil, apperrors.Internal("failed to update order", err)
	}

	if newStatus == models.OrderStatusCompleted && prev != models.OrderStatusCompleted {
		s.enqueueCompletionMessage(ctx, order)
	}

	return order, nil
}

func (s *OrderService) enqueueCompletionMessage(ctx context.Context, order *models.Order) {
	payload, err := json.Marshal(orderCompletedEvent{OrderID: order.ID})
	if err != nil {
		s.logger.Error("failed to marshal order completed event", zap.Error(err))
		return
	}
	entry := &models.NotificationOutbox{
		Kind:    models.OutboxKindOrderCompleted,
		Payload: string(payload),
	}
	if err := s.outbox.Enqueue(ctx, entry); err != nil {
		s.logger.Error("failed to enqueue completion message",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

// GetUserOrders retrieves paginated orders for a specific user.
func (s *OrderService) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*OrderResponse, error) {
	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch orders", err)
	}
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetOrderByID retrieves a specific order owned by the user.
func (s *OrderService) GetOrderByID(ctx context.Context, userID, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.FindByIDAndUserID(ctx, orderID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("order not found")
		}
		return nil, apperrors.Internal("failed to fetch order", err)
	}
	return order, nil
}

// GetAllOrders retrieves paginated orders across all users, optionally
// filtered by status. Admin only; authorization happens in middleware.
func (s *OrderService) GetAllOrders(ctx context.Context, status string, page, limit int) (*OrderResponse, error) {
	if status != "" && !models.ValidOrderStatus(status) {
		return nil, apperrors.Validation(fmt.Sprintf("invalid status: %s", status))
	}
	orders, total, err := s.orders.FindAll(ctx, status, page, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch orders", err)
	}
	return &OrderResponse{
		Orders: orders,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}
