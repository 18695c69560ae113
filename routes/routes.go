package routes

import (
	"bookstore-backend/controllers"
	"bookstore-backend/middleware"

	"github.com/gin-gonic/gin"
)

type Controllers struct {
	Cart         *controllers.CartController
	Checkout     *controllers.CheckoutController
	Order        *controllers.OrderController
	AdminOrder   *controllers.AdminOrderController
	Notification *controllers.NotificationController
}

// Register wires every HTTP route. All routes require a bearer token; admin
// routes and the push trigger additionally require the operator identity.
func Register(r *gin.Engine, jwtSecret, adminEmail string, ctl Controllers) {
	auth := middleware.AuthMiddleware(jwtSecret)

	cart := r.Group("/cart", auth)
	cart.GET("", ctl.Cart.GetCart)
	cart.POST("", ctl.Cart.AddItem)
	cart.PUT("", ctl.Cart.UpdateItem)
	cart.DELETE("", ctl.Cart.ClearCart)
	cart.DELETE("/:book_id", ctl.Cart.RemoveItem)

	r.POST("/checkout", auth, ctl.Checkout.Checkout)

	orders := r.Group("/orders", auth)
	orders.GET("", ctl.Order.GetOrders)
	orders.GET("/:id", ctl.Order.GetOrderByID)

	admin := r.Group("/admin", auth, middleware.AdminOnly(adminEmail))
	admin.GET("/orders", ctl.AdminOrder.GetAllOrders)
	admin.PUT("/orders/:id/status", ctl.AdminOrder.SetStatus)

	notifications := r.Group("/notifications", auth)
	notifications.POST("/subscribe", ctl.Notification.Subscribe)
	notifications.DELETE("/unsubscribe", ctl.Notification.Unsubscribe)
	notifications.POST("/send-push",
		middleware.AdminOnly(adminEmail),
		middleware.RateLimitMiddleware(),
		ctl.Notification.SendPush,
	)
}
