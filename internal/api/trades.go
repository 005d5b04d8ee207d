package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

// InitiateTrade matches the caller as buyer against an open order.
func (h *Handler) InitiateTrade(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	trade, err := h.svc.InitiateTrade(c.Request().Context(), p.ID, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, trade)
}

func (h *Handler) ListMyTrades(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	trades, err := h.store.ListUserTrades(c.Request().Context(), p.ID)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"trades": trades})
}

func (h *Handler) GetTrade(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	trade, err := h.store.GetTrade(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	if p.ID != trade.BuyerID && p.ID != trade.SellerID && !p.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this trade"})
	}
	return c.JSON(http.StatusOK, trade)
}

type MarkPaidRequest struct {
	Proof domain.PaymentProof `json:"proof"`
}

// MarkPaid records the buyer's off-platform payment proof.
func (h *Handler) MarkPaid(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(MarkPaidRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	trade, err := h.svc.MarkPaid(c.Request().Context(), p.ID, c.Param("id"), req.Proof)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}

type ConfirmReleaseRequest struct {
	Pin string `json:"pin"`
}

// ConfirmRelease is the seller's PIN-gated release of escrowed funds.
func (h *Handler) ConfirmRelease(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(ConfirmReleaseRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	trade, err := h.svc.ConfirmRelease(c.Request().Context(), p.ID, c.Param("id"), req.Pin)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}

// RequestAdminRelease hands a paid trade to admins when the seller stalls.
func (h *Handler) RequestAdminRelease(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	trade, err := h.svc.RequestAdminRelease(c.Request().Context(), p.ID, c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}

type DisputeRequest struct {
	Reason string `json:"reason"`
}

// HoldTrade freezes a trade pending admin arbitration.
func (h *Handler) HoldTrade(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(DisputeRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	trade, err := h.svc.HoldTrade(c.Request().Context(), p, c.Param("id"), req.Reason)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, trade)
}

type RateRequest struct {
	Rating int `json:"rating"`
}

// RateTrade records a 1-5 rating of the counterparty on a completed trade.
func (h *Handler) RateTrade(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(RateRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	rated, err := h.svc.RateTrade(c.Request().Context(), p.ID, c.Param("id"), req.Rating)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"user_id":      rated.ID,
		"trust_score":  rated.TrustScore,
		"rating_count": rated.RatingCount,
	})
}
