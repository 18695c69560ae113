package controllers

import (
	"net/http"

	"bookstore-backend/apperrors"
	"bookstore-backend/middleware"
	"bookstore-backend/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CheckoutController struct {
	svc    *services.CheckoutService
	logger *zap.Logger
}

func NewCheckoutController(svc *services.CheckoutService, logger *zap.Logger) *CheckoutController {
	return &CheckoutController{svc: svc, logger: logger}
}

// Checkout runs the checkout pipeline and returns the committed order
// summary.
func (cc *CheckoutController) Checkout(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		apperrors.Respond(c, apperrors.Unauthorized("unauthorized"))
		return
	}

	var form services.CheckoutForm
	if err := c.ShouldBindJSON(&form); err != nil {
		apperrors.Respond(c, apperrors.Validation("invalid payload"))
		return
	}

	summary, err := cc.svc.Checkout(c.Request.Context(), userID, &form)
	if err != nil {
		apperrors.Respond(c, err)
		return
	}

	cc.logger.Info("checkout completed",
		zap.String("user_id", userID.String()),
		zap.String("order_number", summary.OrderNumber),
	)
	c.JSON(http.StatusCreated, summary)
}
