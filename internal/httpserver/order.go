package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/canteen/internal/logging"
	"github.com/Skotchmaster/canteen/internal/models"
	"github.com/Skotchmaster/canteen/internal/service"
	"github.com/Skotchmaster/canteen/internal/transport"
	"github.com/Skotchmaster/canteen/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) CreateOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_order")

	var req transport.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order", "invalid body", err)
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return badRequest(l, "create_order", "invalid user_id", err)
	}

	order, err := h.Svc.CreateOrder(ctx, userID, req.Lines())
	if err != nil {
		return fail(l, "create_order", err)
	}

	l.Info("create_order_success", "order_id", order.ID, "total", order.Total)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) GetOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_orders")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_orders", err)
	}

	return c.JSON(http.StatusOK, transport.Page[models.Order]{
		Data: orders,
		Meta: util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "get_order", "id is not a uuid", err)
	}

	order, err := h.Svc.GetOrder(ctx, id)
	if err != nil {
		return fail(l, "get_order", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) GetUserOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_user_orders")

	userID, err := uuidParam(c, "userId")
	if err != nil {
		return badRequest(l, "get_user_orders", "userId is not a uuid", err)
	}

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrdersByUser(ctx, userID, offset, limit)
	if err != nil {
		return fail(l, "get_user_orders", err)
	}

	return c.JSON(http.StatusOK, transport.Page[models.Order]{
		Data: orders,
		Meta: util.Meta(page, offset, limit, total),
	})
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.update_status")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "update_status", "id is not a uuid", err)
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status", "invalid body", err)
	}

	order, err := h.Svc.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "update_status", err)
	}

	l.Info("update_status_success", "order_id", order.ID, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.delete_order")

	id, err := uuidParam(c, "id")
	if err != nil {
		return badRequest(l, "delete_order", "id is not a uuid", err)
	}

	if err := h.Svc.DeleteOrder(ctx, id); err != nil {
		return fail(l, "delete_order", err)
	}

	l.Info("delete_order_success", "order_id", id)
	return c.NoContent(http.StatusNoContent)
}
