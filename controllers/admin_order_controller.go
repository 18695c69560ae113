package controllers

import (
	"net/http"

	"bookstore-backend/apperrors"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type AdminOrderController struct {
	svc    *services.OrderService
	logger *zap.Logger
}

func NewAdminOrderController(svc *services.OrderService, logger *zap.Logger) *AdminOrderController {
	return &AdminOrderController{svc: svc, logger: logger}
}

// GetAllOrders lists orders across all users, optionally filtered by status.
func (ac *AdminOrderController) GetAllOrders(c *gin.Context) {
	page, limit := pagination(c)
	status := c.Query("status")

	resp, err := ac.svc.GetAllOrders(c.Request.Context(), status, page, limit)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type setStatusRequest struct {
	Status     string `json:"status" binding:"required"`
	AdminNotes string `json:"admin_notes"`
}

// SetStatus transitions an order through the status state machine.
func (ac *AdminOrderController) SetStatus(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid order id"))
		return
	}

	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.Respond(c, apperrors.Validation("status is required"))
		return
	}

	order, err := ac.svc.SetStatus(c.Request.Context(), orderID, req.Status, req.AdminNotes)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	ac.logger.Info("order status updated",
		zap.String("order_id", orderID.String()),
		zap.String("status", order.Status),
	)
	c.JSON(http.StatusOK, order)
}
