package alerts

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// Handler serves the in-app notification endpoints.
type Handler struct {
	store store.Store
}

func NewHandler(st store.Store) *Handler {
	return &Handler{store: st}
}

// ListNotifications returns the current user's notifications, newest first.
func (h *Handler) ListNotifications(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	items, err := h.store.ListNotifications(c.Request().Context(), p.ID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load notifications"})
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkRead marks one notification as read.
func (h *Handler) MarkRead(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing notification id"})
	}

	if err := h.store.MarkNotificationRead(c.Request().Context(), p.ID, id); err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found or already read"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "ok"})
}
