package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookstore-backend/models"
	"bookstore-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	maxOutboxAttempts = 5
	outboxBatchSize   = 10
)

// MessageSink receives a composed order message and its deep link. The
// default sink only logs; a real transport can be plugged in without touching
// the worker.
type MessageSink interface {
	Deliver(ctx context.Context, message, deepLink string) error
}

type LogSink struct {
	logger *zap.Logger
}

func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Deliver(ctx context.Context, message, deepLink string) error {
	s.logger.Info("order message composed",
		zap.String("message", message),
		zap.String("deep_link", deepLink),
	)
	return nil
}

// OutboxWorker drains the notification outbox: it owns every fire-and-forget
// side effect so the triggering request never waits on (or fails because of)
// notification delivery.
type OutboxWorker struct {
	outbox     repository.OutboxRepository
	orders     repository.OrderRepository
	books      repository.BookRepository
	registry   *PushRegistry
	dispatcher *PushDispatcher
	composer   *MessageComposer
	sink       MessageSink
	operatorID uuid.UUID
	baseURL    string
	interval   time.Duration
	logger     *zap.Logger
}

func NewOutboxWorker(
	outbox repository.OutboxRepository,
	orders repository.OrderRepository,
	books repository.BookRepository,
	registry *PushRegistry,
	dispatcher *PushDispatcher,
	composer *MessageComposer,
	sink MessageSink,
	operatorID uuid.UUID,
	baseURL string,
	interval time.Duration,
	logger *zap.Logger,
) *OutboxWorker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &OutboxWorker{
		outbox:     outbox,
		orders:     orders,
		books:      books,
		registry:   registry,
		dispatcher: dispatcher,
		composer:   composer,
		sink:       sink,
		operatorID: operatorID,
		baseURL:    baseURL,
		interval:   interval,
		logger:     logger,
	}
}

// Start blocks until ctx is cancelled, draining due entries every interval.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.logger.Info("outbox worker started", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("outbox worker shutting down")
			return
		case <-ticker.C:
			w.Drain(ctx)
		}
	}
}

// Drain processes one batch of due entries.
func (w *OutboxWorker) Drain(ctx context.Context) {
	entries, err := w.outbox.ClaimDue(ctx, outboxBatchSize)
	if err != nil {
		w.logger.Error("failed to claim outbox entries", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if err := w.process(ctx, &entry); err != nil {
			attempts := entry.Attempts + 1
			terminal := attempts >= maxOutboxAttempts
			next := time.Now().Add(time.Duration(attempts) * 30 * time.Second)
			w.logger.Warn("outbox entry failed",
				zap.Int64("id", entry.ID),
				zap.String("kind", entry.Kind),
				zap.Int("attempt", attempts),
				zap.Bool("terminal", terminal),
				zap.Error(err),
			)
			if markErr := w.outbox.MarkFailed(ctx, entry.ID, attempts, err.Error(), next, terminal); markErr != nil {
				w.logger.Error("failed to mark outbox entry failed", zap.Int64("id", entry.ID), zap.Error(markErr))
			}
			continue
		}
		if err := w.outbox.MarkSent(ctx, entry.ID); err != nil {
			w.logger.Error("failed to mark outbox entry sent", zap.Int64("id", entry.ID), zap.Error(err))
		}
	}
}

func (w *OutboxWorker) process(ctx context.Context, entry *models.NotificationOutbox) error {
	switch entry.Kind {
	case models.OutboxKindOrderPlaced:
		return w.processOrderPlaced(ctx, entry)
	case models.OutboxKindOrderCompleted:
		return w.processOrderCompleted(ctx, entry)
	default:
		return fmt.Errorf("unknown outbox kind: %s", entry.Kind)
	}
}

func (w *OutboxWorker) processOrderPlaced(ctx context.Context, entry *models.NotificationOutbox) error {
	var evt orderPlacedEvent
	if err := json.Unmarshal([]byte(entry.Payload), &evt); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	order, err := w.orders.FindByID(ctx, evt.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	items := w.itemDetails(ctx, order.OrderItems)
	message := w.composer.ComposeOrderPlacedMessage(order, items)
	deepLink := w.composer.BuildDeepLink(message)
	if err := w.sink.Deliver(ctx, message, deepLink); err != nil {
		return fmt.Errorf("deliver operator message: %w", err)
	}

	if w.operatorID == uuid.Nil {
		w.logger.Warn("operator user id not configured, skipping operator push")
		return nil
	}
	recipients, err := w.registry.ListForUser(ctx, w.operatorID)
	if err != nil {
		return fmt.Errorf("list operator subscriptions: %w", err)
	}

	payload := &models.NotificationPayload{
		Title: "New order placed",
		Body:  fmt.Sprintf("Order %s — total %.2f", order.OrderNumber, order.TotalAmount),
		Tag:   fmt.Sprintf("notification-%d", time.Now().UnixNano()),
		Data: map[string]interface{}{
			"url":     w.baseURL + "/admin/orders/" + order.ID.String(),
			"orderId": order.ID.String(),
		},
	}
	result := w.dispatcher.Dispatch(ctx, payload, recipients)
	w.logger.Info("operator alert dispatched",
		zap.String("order_id", order.ID.String()),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("total", result.Total),
	)
	return nil
}

func (w *OutboxWorker) processOrderCompleted(ctx context.Context, entry *models.NotificationOutbox) error {
	var evt orderCompletedEvent
	if err := json.Unmarshal([]byte(entry.Payload), &evt); err != nil {
		return fmt.Errorf("invalid payload: %w", err)
	}

	order, err := w.orders.FindByID(ctx, evt.OrderID)
	if err != nil {
		return fmt.Errorf("load order: %w", err)
	}

	items := w.itemDetails(ctx, order.OrderItems)
	message := w.composer.ComposeOrderCompletedMessage(order, items)
	deepLink := w.composer.BuildDeepLink(message)
	if err := w.sink.Deliver(ctx, message, deepLink); err != nil {
		return fmt.Errorf("deliver completion message: %w", err)
	}
	return nil
}

// itemDetails resolves order items to titled lines. A book deleted since
// checkout falls back to its id; the snapshot price still holds.
func (w *OutboxWorker) itemDetails(ctx context.Context, items []models.OrderItem) []ItemDetail {
	details := make([]ItemDetail, 0, len(items))
	for _, item := range items {
		title := item.BookID.String()
		if book, err := w.books.FindByID(ctx, item.BookID); err == nil && book != nil {
			title = book.Title
		}
		details = append(details, ItemDetail{
			Title:     title,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.Subtotal,
		})
	}
	return details
}
