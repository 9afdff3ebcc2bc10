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

type PaymentHTTP struct {
	Svc *service.PaymentService
}

func (h *PaymentHTTP) ProcessPayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.process_payment")

	var req transport.ProcessPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "process_payment", "invalid body", err)
	}
	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		return badRequest(l, "process_payment", "invalid order_id", err)
	}

	payment, err := h.Svc.ProcessPayment(ctx, orderID, req.Amount, req.Method)
	if err != nil {
		return fail(l, "process_payment", err)
	}

	l.Info("process_payment_success", "order_id", orderID, "payment_id", payment.ID)
	return c.JSON(http.StatusCreated, payment)
}

func (h *PaymentHTTP) GetByOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_by_order")

	orderID, err := uuidParam(c, "orderId")
	if err != nil {
		return badRequest(l, "get_payment", "orderId is not a uuid", err)
	}

	payment, err := h.Svc.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		return fail(l, "get_payment", err)
	}
	return c.JSON(http.StatusOK, payment)
}

func (h *PaymentHTTP) GetPayments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "payment.get_payments")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, payments, err := h.Svc.ListPayments(ctx, offset, limit)
	if err != nil {
		return fail(l, "get_payments", err)
	}

	return c.JSON(http.StatusOK, transport.Page[models.Payment]{
		Data: payments,
		Meta: util.Meta(page, offset, limit, total),
	})
}
