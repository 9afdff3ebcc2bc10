package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/Skotchmaster/canteen/internal/logging"
)

const Version = "1.0.0"

type HealthHTTP struct {
	DB          *gorm.DB
	ServiceName string
}

func (h *HealthHTTP) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "OK",
		"message":   "Server is running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHTTP) Live(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Ready reports whether the database answers a ping.
func (h *HealthHTTP) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	sqlDB, err := h.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		logging.FromContext(ctx).Error("ready_error", "status", http.StatusServiceUnavailable, "reason", "database unavailable", "error", err)
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}

func (h *HealthHTTP) Info(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "Canteen API Server",
		"service": h.ServiceName,
		"version": Version,
		"endpoints": echo.Map{
			"orders":   "/api/orders",
			"payments": "/api/payments",
			"users":    "/api/users",
			"items":    "/api/items",
			"cart":     "/api/cart/quote",
			"health":   "/health",
			"metrics":  "/metrics",
		},
	})
}
