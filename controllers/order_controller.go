package controllers

import (
	"net/http"
	"strconv"

	"bookstore-backend/apperrors"
	"bookstore-backend/middleware"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderController struct {
	svc    *services.OrderService
	logger *zap.Logger
}

func NewOrderController(svc *services.OrderService, logger *zap.Logger) *OrderController {
	return &OrderController{svc: svc, logger: logger}
}

func pagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit < 1 || limit > 100 {
		limit = 10
	}
	return page, limit
}

// GetOrders lists the authenticated user's orders with item detail.
func (oc *OrderController) GetOrders(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	page, limit := pagination(c)
	resp, err := oc.svc.GetUserOrders(c.Request.Context(), userID, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetOrderByID returns one of the user's own orders.
func (oc *OrderController) GetOrderByID(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid order id"))
		return
	}

	order, err := oc.svc.GetOrderByID(c.Request.Context(), userID, orderID)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
