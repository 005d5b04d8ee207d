package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

type CreateOrderRequest struct {
	Amount         int64  `json:"amount"`
	PaymentMethod  string `json:"payment_method"`
	PaymentDetails string `json:"payment_details"`
}

// CreateOrder opens a sell order, locking the amount from the caller's
// available balance into escrow.
func (h *Handler) CreateOrder(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(CreateOrderRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	order, err := h.svc.CreateOrder(c.Request().Context(), p.ID, req.Amount, req.PaymentMethod, req.PaymentDetails)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// ListOpenOrders is the public order book.
func (h *Handler) ListOpenOrders(c echo.Context) error {
	orders, err := h.store.ListOpenOrders(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"orders": orders})
}

func (h *Handler) GetOrder(c echo.Context) error {
	order, err := h.store.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// CancelOrder refunds the escrowed amount back to the owner. Only open
// orders can be cancelled; a matched order must finish its trade first.
func (h *Handler) CancelOrder(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	order, err := h.svc.CancelOrder(c.Request().Context(), p.ID, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, order)
}
