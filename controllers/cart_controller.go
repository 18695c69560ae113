package controllers

import (
	"net/http"

	"bookstore-backend/apperrors"
	"bookstore-backend/middleware"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CartController struct {
	svc    *services.CartService
	logger *zap.Logger
}

func NewCartController(svc *services.CartService, logger *zap.Logger) *CartController {
	return &CartController{svc: svc, logger: logger}
}

type cartItemRequest struct {
	BookID   uuid.UUID `json:"book_id" binding:"required"`
	Quantity int       `json:"quantity"`
}

// GetCart returns the resolved cart with per-line subtotals and a grand
// total.
func (cc *CartController) GetCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	entries, err := cc.svc.LoadCart(c.Request.Context(), userID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	type lineView struct {
		BookID   uuid.UUID `json:"book_id"`
		Title    string    `json:"title"`
		Price    float64   `json:"price"`
		Quantity int       `json:"quantity"`
		Subtotal float64   `json:"subtotal"`
	}
	items := make([]lineView, 0, len(entries))
	var total float64
	for _, e := range entries {
		subtotal := float64(e.Line.Quantity) * e.Book.Price
		items = append(items, lineView{
			BookID:   e.Book.ID,
			Title:    e.Book.Title,
			Price:    e.Book.Price,
			Quantity: e.Line.Quantity,
			Subtotal: subtotal,
		})
		total += subtotal
	}

	c.JSON(http.StatusOK, gin.H{"items": items, "total": total})
}

// AddItem adds a book to the cart or bumps its quantity.
func (cc *CartController) AddItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid payload"))
		return
	}

	line, err := cc.svc.AddItem(c.Request.Context(), userID, req.BookID, req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, line)
}

// UpdateItem sets the quantity of a line; zero removes it.
func (cc *CartController) UpdateItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	var req cartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid payload"))
		return
	}

	line, err := cc.svc.UpdateQuantity(c.Request.Context(), userID, req.BookID, req.Quantity)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	if line == nil {
		c.JSON(http.StatusOK, gin.H{"message": "item removed"})
		return
	}
	c.JSON(http.StatusOK, line)
}

// RemoveItem deletes one line from the cart.
func (cc *CartController) RemoveItem(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	bookID, err := uuid.Parse(c.Param("book_id"))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid book id"))
		return
	}

	if err := cc.svc.RemoveItem(c.Request.Context(), userID, bookID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "item removed"})
}

// ClearCart removes every line from the cart.
func (cc *CartController) ClearCart(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	if err := cc.svc.ClearCart(c.Request.Context(), userID); err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "cart cleared"})
}
