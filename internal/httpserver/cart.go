package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/canteen/internal/cart"
	"github.com/Skotchmaster/canteen/internal/catalog"
	"github.com/Skotchmaster/canteen/internal/logging"
	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/transport"
)

type CartHTTP struct {
	Catalog *catalog.Catalog
}

// Quote prices a cart without storing it.
func (h *CartHTTP) Quote(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.quote")

	var req transport.CartQuoteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "cart_quote", "invalid body", err)
	}

	if len(req.Items) > models.MaxOrderLines {
		return badRequest(l, "cart_quote", fmt.Sprintf("at most %d lines", models.MaxOrderLines), nil)
	}

	ct := cart.New()
	for i, line := range req.Items {
		item, ok := h.Catalog.Lookup(line.ItemID)
		if !ok {
			return badRequest(l, "cart_quote", fmt.Sprintf("items[%d]: unknown item %d", i, line.ItemID), nil)
		}
		if line.Quantity < 1 || line.Quantity > models.MaxLineQuantity {
			return badRequest(l, "cart_quote", fmt.Sprintf("items[%d]: quantity must be between 1 and %d", i, models.MaxLineQuantity), nil)
		}
		ct.AddItems(item, line.Quantity)
	}

	return c.JSON(http.StatusOK, transport.NewCartQuote(ct))
}
