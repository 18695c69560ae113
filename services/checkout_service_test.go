package services

import (
	"context"
	"errors"
	"testing"

	"bookstore-backend/apperrors"
	"bookstore-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type checkoutFixture struct {
	userID uuid.UUID
	bookA  models.Book
	bookB  models.Book
	carts  *memCartRepo
	books  *memBookRepo
	orders *memOrderRepo
	outbox *memOutboxRepo
	svc    *CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		userID: uuid.New(),
		bookA:  models.Book{ID: uuid.New(), Title: "Book A", Price: 10.00, Status: models.BookStatusAvailable},
		bookB:  models.Book{ID: uuid.New(), Title: "Book B", Price: 5.00, Status: models.BookStatusAvailable},
		orders: newMemOrderRepo(),
		outbox: &memOutboxRepo{},
	}
	f.books = newMemBookRepo(f.bookA, f.bookB)
	f.carts = &memCartRepo{lines: []models.CartLine{
		{UserID: f.userID, BookID: f.bookA.ID, Quantity: 2},
		{UserID: f.userID, BookID: f.bookB.ID, Quantity: 1},
	}}

	logger := zap.NewNop()
	cartSvc := NewCartService(f.carts, f.books, logger)
	f.svc = NewCheckoutService(cartSvc, f.orders, f.carts, f.outbox, logger)
	return f
}

func validForm() *CheckoutForm {
	return &CheckoutForm{
		CustomerName:  "Jane Doe",
		CustomerEmail: "jane@example.com",
	}
}

func TestCheckout_Success(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	summary, err := f.svc.Checkout(ctx, f.userID, validForm())
	require.NoError(t, err)
	assert.Equal(t, 25.00, summary.TotalAmount)
	assert.NotEmpty(t, summary.OrderNumber)

	order, err := f.orders.FindByID(ctx, summary.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "Jane Doe", order.CustomerName)
	require.Len(t, order.OrderItems, 2)

	var sum float64
	for _, item := range order.OrderItems {
		assert.Equal(t, float64(item.Quantity)*item.UnitPrice, item.Subtotal)
		sum += item.Subtotal
	}
	assert.Equal(t, order.TotalAmount, sum)

	// Cart cleared after commit.
	lines, err := f.carts.FindByUser(ctx, f.userID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Operator alert enqueued.
	assert.Len(t, f.outbox.byKind(models.OutboxKindOrderPlaced), 1)
}

func TestCheckout_EmptyCartRejected(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.lines = nil

	_, err := f.svc.Checkout(context.Background(), f.userID, validForm())
	require.Error(t, err)

	appErr, ok := err.(*apperrors.Error)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.Code)
	assert.Equal(t, "cart is empty", appErr.Message)
	assert.Empty(t, f.orders.orders)
}

func TestCheckout_MissingContactRejected(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.userID, &CheckoutForm{CustomerEmail: "jane@example.com"})
	require.Error(t, err)
	assert.Equal(t, "customer_name is required", err.(*apperrors.Error).Message)

	_, err = f.svc.Checkout(ctx, f.userID, &CheckoutForm{CustomerName: "Jane Doe"})
	require.Error(t, err)
	assert.Equal(t, "customer_email is required", err.(*apperrors.Error).Message)

	assert.Empty(t, f.orders.orders)
}

func TestCheckout_UnavailableBookRejected(t *testing.T) {
	f := newCheckoutFixture()
	f.books.books[f.bookB.ID] = models.Book{
		ID: f.bookB.ID, Title: "Book B", Price: 5.00, Status: models.BookStatusOutOfStock,
	}

	_, err := f.svc.Checkout(context.Background(), f.userID, validForm())
	require.Error(t, err)
	assert.Equal(t, "Book B is not available", err.(*apperrors.Error).Message)

	assert.Empty(t, f.orders.orders)
	assert.Empty(t, f.outbox.entries)
}

func TestCheckout_CompensationDeletesOrderOnItemFailure(t *testing.T) {
	f := newCheckoutFixture()
	f.orders.itemsErr = errors.New("gateway write failed")
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, f.userID, validForm())
	require.Error(t, err)

	// No orphan order remains.
	assert.Empty(t, f.orders.orders)
	require.Len(t, f.orders.deleted, 1)

	// Cart untouched, no alert enqueued.
	lines, findErr := f.carts.FindByUser(ctx, f.userID)
	require.NoError(t, findErr)
	assert.Len(t, lines, 2)
	assert.Empty(t, f.outbox.entries)
}

func TestCheckout_CartCleanupFailureDoesNotFailCheckout(t *testing.T) {
	f := newCheckoutFixture()
	f.carts.deleteAllErr = errors.New("gateway delete failed")

	summary, err := f.svc.Checkout(context.Background(), f.userID, validForm())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, summary.OrderID)
	assert.Len(t, f.outbox.byKind(models.OutboxKindOrderPlaced), 1)
}

func TestCheckout_OutboxFailureDoesNotFailCheckout(t *testing.T) {
	f := newCheckoutFixture()
	f.outbox.enqueueErr = errors.New("outbox unavailable")

	summary, err := f.svc.Checkout(context.Background(), f.userID, validForm())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, summary.OrderID)
}
