package services

import (
	"context"
	"fmt"

	"bookstore-backend/apperrors"
	"bookstore-backend/models"
	"bookstore-backend/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CartEntry pairs a cart line with its resolved catalog book.
type CartEntry struct {
	Line models.CartLine `json:"line"`
	Book models.Book     `json:"book"`
}

// OrderItemDraft is one validated, priced line of a checkout set.
type OrderItemDraft struct {
	BookID    uuid.UUID
	Title     string
	Quantity  int
	UnitPrice float64
	Subtotal  float64
}

type CartService struct {
	carts  repository.CartRepository
	books  repository.BookRepository
	logger *zap.Logger
}

func NewCartService(carts repository.CartRepository, books repository.BookRepository, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, books: books, logger: logger}
}

// LoadCart resolves each cart line to its book. Lines whose book no longer
// exists are dropped silently: the catalog is eventually consistent with the
// cart, so a vanished book is not an error here.
func (s *CartService) LoadCart(ctx context.Context, userID uuid.UUID) ([]CartEntry, error) {
	lines, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal("failed to load cart", err)
	}

	entries := make([]CartEntry, 0, len(lines))
	for _, line := range lines {
		book, err := s.books.FindByID(ctx, line.BookID)
		if err != nil {
			return nil, apperrors.Internal("failed to resolve cart line", err)
		}
		if book == nil {
			s.logger.Warn("dropping cart line for missing book",
				zap.String("user_id", userID.String()),
				zap.String("book_id", line.BookID.String()),
			)
			continue
		}
		entries = append(entries, CartEntry{Line: line, Book: *book})
	}
	return entries, nil
}

// ComputeCheckoutSet validates every cart line and prices it against the
// current catalog. The first missing or unavailable book rejects the whole
// checkout; there is no partial checkout.
func (s *CartService) ComputeCheckoutSet(ctx context.Context, userID uuid.UUID) ([]OrderItemDraft, float64, error) {
	lines, err := s.carts.FindByUser(ctx, userID)
	if err != nil {
		return nil, 0, apperrors.Internal("failed to load cart", err)
	}

	drafts := make([]OrderItemDraft, 0, len(lines))
	var total float64
	for _, line := range lines {
		book, err := s.books.FindByID(ctx, line.BookID)
		if err != nil {
			return nil, 0, apperrors.Internal("failed to resolve cart line", err)
		}
		if book == nil {
			return nil, 0, apperrors.NotFound(fmt.Sprintf("book %s not found", line.BookID))
		}
		if !book.Available() {
			return nil, 0, apperrors.Validation(fmt.Sprintf("%s is not available", book.Title))
		}

		subtotal := float64(line.Quantity) * book.Price
		drafts = append(drafts, OrderItemDraft{
			BookID:    book.ID,
			Title:     book.Title,
			Quantity:  line.Quantity,
			UnitPrice: book.Price,
			Subtotal:  subtotal,
		})
		total += subtotal
	}
	return drafts, total, nil
}

// AddItem adds a book to the cart or bumps the quantity of an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.CartLine, error) {
	if quantity <= 0 {
		return nil, apperrors.Validation("quantity must be positive")
	}

	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		return nil, apperrors.Internal("failed to look up book", err)
	}
	if book == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("book %s not found", bookID))
	}

	line, err := s.carts.FindByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return nil, apperrors.Internal("failed to read cart", err)
	}
	if line == nil {
		line = &models.CartLine{UserID: userID, BookID: bookID, Quantity: quantity}
	} else {
		line.Quantity += quantity
	}

	if err := s.carts.Save(ctx, line); err != nil {
		return nil, apperrors.Internal("failed to save cart", err)
	}
	return line, nil
}

// UpdateQuantity sets the quantity of an existing line. Quantity zero deletes
// the line.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, bookID uuid.UUID, quantity int) (*models.CartLine, error) {
	if quantity < 0 {
		return nil, apperrors.Validation("quantity must not be negative")
	}

	line, err := s.carts.FindByUserAndBook(ctx, userID, bookID)
	if err != nil {
		return nil, apperrors.Internal("failed to read cart", err)
	}
	if line == nil {
		return nil, apperrors.NotFound(fmt.Sprintf("book %s not in cart", bookID))
	}

	if quantity == 0 {
		if err := s.carts.Delete(ctx, userID, bookID); err != nil {
			return nil, apperrors.Internal("failed to update cart", err)
		}
		return nil, nil
	}

	line.Quantity = quantity
	if err := s.carts.Save(ctx, line); err != nil {
		return nil, apperrors.Internal("failed to update cart", err)
	}
	return line, nil
}

// RemoveItem deletes a single line from the cart.
func (s *CartService) RemoveItem(ctx context.Context, userID, bookID uuid.UUID) error {
	if err := s.carts.Delete(ctx, userID, bookID); err != nil {
		return apperrors.Internal("failed to update cart", err)
	}
	return nil
}

// ClearCart deletes every line for the user.
func (s *CartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	if err := s.carts.DeleteAllForUser(ctx, userID); err != nil {
		return apperrors.Internal("failed to clear cart", err)
	}
	return nil
}
