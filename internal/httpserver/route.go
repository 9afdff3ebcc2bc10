package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type Deps struct {
	OrderHandler   *OrderHTTP
	PaymentHandler *PaymentHTTP
	UserHandler    *UserHTTP
	ItemHandler    *ItemHTTP
	CartHandler    *CartHTTP
	HealthHandler  *HealthHTTP

	// Optional.
	Idempotency echo.MiddlewareFunc
	Metrics     http.Handler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/", d.HealthHandler.Info)
	e.GET("/health", d.HealthHandler.Health)
	e.GET("/health/live", d.HealthHandler.Live)
	e.GET("/health/ready", d.HealthHandler.Ready)
	if d.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(d.Metrics))
	}

	api := e.Group("/api")

	orders := api.Group("/orders")
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.GetOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.GET("/user/:userId", d.OrderHandler.GetUserOrders)
	orders.PUT("/:id/status", d.OrderHandler.UpdateStatus)
	orders.DELETE("/:id", d.OrderHandler.DeleteOrder)

	var payMW []echo.MiddlewareFunc
	if d.Idempotency != nil {
		payMW = append(payMW, d.Idempotency)
	}
	payments := api.Group("/payments")
	payments.POST("/process", d.PaymentHandler.ProcessPayment, payMW...)
	payments.GET("/order/:orderId", d.PaymentHandler.GetByOrder)
	payments.GET("", d.PaymentHandler.GetPayments)

	users := api.Group("/users")
	users.POST("", d.UserHandler.Register)
	users.GET("/:id", d.UserHandler.GetUser)

	items := api.Group("/items")
	items.GET("", d.ItemHandler.GetItems)
	items.GET("/search", d.ItemHandler.Search)
	items.GET("/:id", d.ItemHandler.GetItem)

	api.POST("/cart/quote", d.CartHandler.Quote)
}
