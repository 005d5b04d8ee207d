package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

// Balance returns the caller's three balances.
func (h *Handler) Balance(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	acct, err := h.store.GetAccount(c.Request().Context(), p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, acct)
}

// Ledger returns the caller's ledger entries, newest first. The limit query
// parameter caps the page; it defaults to 50.
func (h *Handler) Ledger(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > 500 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "limit must be between 1 and 500"})
		}
		limit = n
	}

	entries, err := h.store.ListLedger(c.Request().Context(), p.ID, limit)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"entries": entries})
}
