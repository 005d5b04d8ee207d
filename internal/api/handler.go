package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/escrow"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// Handler exposes the escrow engine over HTTP.
type Handler struct {
	svc   *escrow.Service
	store store.Store
}

func NewHandler(svc *escrow.Service, st store.Store) *Handler {
	return &Handler{svc: svc, store: st}
}

// fail translates engine sentinels into HTTP status codes. Unrecognized
// errors are reported as opaque 500s so store internals never leak.
func fail(c echo.Context, err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInvalidState):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
