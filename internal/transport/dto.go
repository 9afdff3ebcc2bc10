package transport

import (
	"github.com/Skotchmaster/canteen/internal/cart"
	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/util"
)

type OrderLine struct {
	ItemID   uint `json:"item_id"`
	Quantity int  `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID string      `json:"user_id"`
	Items  []OrderLine `json:"items"`
}

func (r CreateOrderRequest) Lines() []models.LineItem {
	out := make([]models.LineItem, len(r.Items))
	for i, it := range r.Items {
		out[i] = models.LineItem{ItemID: it.ItemID, Quantity: it.Quantity}
	}
	return out
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

type ProcessPaymentRequest struct {
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Method  string `json:"method"`
}

type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type CartQuoteRequest struct {
	Items []OrderLine `json:"items"`
}

type CartQuoteLine struct {
	ItemID    uint   `json:"item_id"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

type CartQuoteResponse struct {
	Lines   []CartQuoteLine `json:"lines"`
	Count   int             `json:"count"`
	Summary cart.Summary    `json:"summary"`
}

func NewCartQuote(c *cart.Cart) CartQuoteResponse {
	lines := c.Lines()
	out := CartQuoteResponse{
		Lines:   make([]CartQuoteLine, 0, len(lines)),
		Count:   c.Count(),
		Summary: c.Summary(),
	}
	for _, l := range lines {
		out.Lines = append(out.Lines, CartQuoteLine{
			ItemID:    l.Item.ID,
			Name:      l.Item.Name,
			UnitPrice: l.Item.Price,
			Quantity:  l.Quantity,
			LineTotal: l.Total(),
		})
	}
	return out
}

type Page[T any] struct {
	Data []T           `json:"data"`
	Meta util.PageMeta `json:"meta"`
}

type SearchResponse struct {
	Total int64         `json:"total"`
	Items []models.Item `json:"items"`
}
