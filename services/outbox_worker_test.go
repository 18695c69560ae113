package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"bookstore-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type captureSink struct {
	mu        sync.Mutex
	messages  []string
	deepLinks []string
	err       error
}

func (s *captureSink) Deliver(_ context.Context, message, deepLink string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, message)
	s.deepLinks = append(s.deepLinks, deepLink)
	return nil
}

type workerFixture struct {
	outbox     *memOutboxRepo
	orders     *memOrderRepo
	books      *memBookRepo
	subs       *memSubRepo
	sender     *stubSender
	sink       *captureSink
	operatorID uuid.UUID
	worker     *OutboxWorker
}

func newWorkerFixture() *workerFixture {
	f := &workerFixture{
		outbox:     &memOutboxRepo{},
		orders:     newMemOrderRepo(),
		books:      newMemBookRepo(),
		subs:       &memSubRepo{},
		sender:     &stubSender{},
		sink:       &captureSink{},
		operatorID: uuid.New(),
	}
	logger := zap.NewNop()
	registry := NewPushRegistry(f.subs, logger)
	dispatcher := NewPushDispatcher(f.sender, registry, logger)
	composer := NewMessageComposer("15551234567")
	f.worker = NewOutboxWorker(
		f.outbox, f.orders, f.books,
		registry, dispatcher, composer,
		f.sink, f.operatorID, "https://books.example",
		time.Second, logger,
	)
	return f
}

func (f *workerFixture) seedPlacedOrder(t *testing.T) *models.Order {
	t.Helper()
	ctx := context.Background()
	book := models.Book{ID: uuid.New(), Title: "Book A", Price: 10.00, Status: models.BookStatusAvailable}
	require.NoError(t, f.books.Create(ctx, &book))

	order := &models.Order{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		OrderNumber:   "ORD-TEST-0001",
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
		Status:        models.OrderStatusPending,
		TotalAmount:   20.00,
	}
	require.NoError(t, f.orders.Create(ctx, order))
	require.NoError(t, f.orders.CreateItems(ctx, []models.OrderItem{{
		ID: uuid.New(), OrderID: order.ID, BookID: book.ID,
		Quantity: 2, UnitPrice: 10.00, Subtotal: 20.00,
	}}))
	return order
}

func (f *workerFixture) enqueue(t *testing.T, kind string, orderID uuid.UUID) *models.NotificationOutbox {
	t.Helper()
	payload, err := json.Marshal(orderPlacedEvent{OrderID: orderID})
	require.NoError(t, err)
	entry := &models.NotificationOutbox{Kind: kind, Payload: string(payload)}
	require.NoError(t, f.outbox.Enqueue(context.Background(), entry))
	return entry
}

func TestDrain_OrderPlacedDeliversAndMarksSent(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)

	operatorSub := fanoutSub("https://push.example/operator", "ua-op", models.DeviceTypeMobile, time.Now())
	operatorSub.UserID = f.operatorID
	require.NoError(t, f.subs.Upsert(ctx, &operatorSub))

	f.enqueue(t, models.OutboxKindOrderPlaced, order.ID)
	f.worker.Drain(ctx)

	require.Len(t, f.sink.messages, 1)
	assert.Contains(t, f.sink.messages[0], "New order placed: ORD-TEST-0001")
	assert.Contains(t, f.sink.messages[0], "- Book A x2 @ 10.00 = 20.00")
	assert.Contains(t, f.sink.deepLinks[0], "https://wa.me/15551234567?text=")

	// Operator push went out.
	assert.Equal(t, []string{"https://push.example/operator"}, f.sender.sent)

	entries := f.outbox.byKind(models.OutboxKindOrderPlaced)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutboxStatusSent, entries[0].Status)
}

func TestDrain_OrderCompletedDeliversCustomerMessage(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)

	f.enqueue(t, models.OutboxKindOrderCompleted, order.ID)
	f.worker.Drain(ctx)

	require.Len(t, f.sink.messages, 1)
	assert.Contains(t, f.sink.messages[0], "Hi Jane Doe, your order ORD-TEST-0001 is complete!")
	assert.Contains(t, f.sink.messages[0], "Thank you for shopping with us.")

	entries := f.outbox.byKind(models.OutboxKindOrderCompleted)
	require.Len(t, entries, 1)
	assert.Equal(t, models.OutboxStatusSent, entries[0].Status)
}

func TestDrain_FailureSchedulesRetryWithBackoff(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)
	f.sink.err = errors.New("sink unavailable")

	f.enqueue(t, models.OutboxKindOrderCompleted, order.ID)
	before := time.Now()
	f.worker.Drain(ctx)

	entries := f.outbox.byKind(models.OutboxKindOrderCompleted)
	require.Len(t, entries, 1)
	entry := entries[0]
	assert.Equal(t, models.OutboxStatusPending, entry.Status)
	assert.Equal(t, 1, entry.Attempts)
	assert.Contains(t, entry.LastError, "sink unavailable")
	// First retry is 30s out.
	assert.True(t, entry.NextAttemptAt.After(before.Add(29*time.Second)))
	assert.True(t, entry.NextAttemptAt.Before(before.Add(31*time.Second)))

	// Not due yet: a second drain must not pick it up.
	f.worker.Drain(ctx)
	assert.Equal(t, 1, f.outbox.byKind(models.OutboxKindOrderCompleted)[0].Attempts)
}

func TestDrain_TerminalAfterMaxAttempts(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)
	f.sink.err = errors.New("sink unavailable")

	entry := f.enqueue(t, models.OutboxKindOrderCompleted, order.ID)
	for i := 0; i < maxOutboxAttempts; i++ {
		// Force the entry due again between attempts.
		require.NoError(t, f.outbox.MarkFailed(ctx, entry.ID,
			f.outbox.byKind(models.OutboxKindOrderCompleted)[0].Attempts,
			"", time.Now().Add(-time.Second), false))
		f.worker.Drain(ctx)
	}

	final := f.outbox.byKind(models.OutboxKindOrderCompleted)[0]
	assert.Equal(t, models.OutboxStatusFailed, final.Status)
	assert.Equal(t, maxOutboxAttempts, final.Attempts)

	// Terminal entries are never claimed again.
	f.worker.Drain(ctx)
	assert.Equal(t, maxOutboxAttempts, f.outbox.byKind(models.OutboxKindOrderCompleted)[0].Attempts)
}

func TestDrain_UnknownKindFails(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()

	entry := &models.NotificationOutbox{Kind: "order_shipped", Payload: "{}"}
	require.NoError(t, f.outbox.Enqueue(ctx, entry))
	f.worker.Drain(ctx)

	got := f.outbox.byKind("order_shipped")[0]
	assert.Equal(t, 1, got.Attempts)
	assert.Contains(t, got.LastError, "unknown outbox kind")
}

func TestDrain_MissingOperatorSubscriptionsStillSucceeds(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)

	f.enqueue(t, models.OutboxKindOrderPlaced, order.ID)
	f.worker.Drain(ctx)

	// Composed message still delivered, zero pushes attempted.
	require.Len(t, f.sink.messages, 1)
	assert.Empty(t, f.sender.sent)
	assert.Equal(t, models.OutboxStatusSent, f.outbox.byKind(models.OutboxKindOrderPlaced)[0].Status)
}

func TestDrain_DeletedBookFallsBackToID(t *testing.T) {
	f := newWorkerFixture()
	ctx := context.Background()
	order := f.seedPlacedOrder(t)

	// Drop the catalog entry; the snapshot price must still be used.
	f.books.books = map[uuid.UUID]models.Book{}

	f.enqueue(t, models.OutboxKindOrderCompleted, order.ID)
	f.worker.Drain(ctx)

	require.Len(t, f.sink.messages, 1)
	assert.Contains(t, f.sink.messages[0], "x2 @ 10.00 = 20.00")
	assert.NotContains(t, f.sink.messages[0], "Book A")
}
