package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/escrow"
	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

type AdminWalletRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason"`
}

// CreditWallet is the manual admin top-up: it adds to a user's available
// balance through the same atomic ledger primitive every trade uses.
func (h *Handler) CreditWallet(c echo.Context) error {
	return h.adjustWallet(c, 1, domain.LedgerAdminCredit)
}

// DebitWallet removes funds from a user's available balance. It fails like
// any other movement when the balance would go negative.
func (h *Handler) DebitWallet(c echo.Context) error {
	return h.adjustWallet(c, -1, domain.LedgerAdminDebit)
}

func (h *Handler) adjustWallet(c echo.Context, sign int64, entryType string) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(AdminWalletRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.UserID == "" || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and a positive amount are required"})
	}
	reason := req.Reason
	if reason == "" {
		reason = "manual adjustment by admin " + p.ID
	}

	err := h.svc.Transfer(c.Request().Context(), []escrow.Move{{
		AccountID: req.UserID,
		Field:     domain.FieldAvailable,
		Delta:     sign * req.Amount,
		EntryType: entryType,
		Desc:      reason,
	}})
	if err != nil {
		return fail(c, err)
	}

	acct, err := h.store.GetAccount(c.Request().Context(), req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, acct)
}

// Stats is the admin overview: open order book depth and dispute backlog.
func (h *Handler) Stats(c echo.Context) error {
	ctx := c.Request().Context()

	orders, err := h.store.ListOpenOrders(ctx)
	if err != nil {
		return fail(c, err)
	}
	disputes, err := h.store.ListDisputedTrades(ctx)
	if err != nil {
		return fail(c, err)
	}

	var escrowed int64
	for _, o := range orders {
		escrowed += o.Amount
	}
	return c.JSON(http.StatusOK, echo.Map{
		"open_orders":   len(orders),
		"open_disputes": len(disputes),
		"open_escrowed": escrowed,
	})
}

// ListDisputes is the admin arbitration queue.
func (h *Handler) ListDisputes(c echo.Context) error {
	trades, err := h.store.ListDisputedTrades(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"disputes": trades})
}

// AdminRelease releases a paid trade on the seller's behalf, crediting the
// platform fee to the acting admin's commission balance.
func (h *Handler) AdminRelease(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	trade, err := h.svc.AdminRelease(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}

type ResolveRequest struct {
	Resolution domain.DisputeResolution `json:"resolution"`
}

// ResolveDispute arbitrates a disputed trade to either side.
func (h *Handler) ResolveDispute(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(ResolveRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	trade, err := h.svc.ResolveDispute(c.Request().Context(), p, c.Param("id"), req.Resolution)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}
