package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

// Me returns the currently authenticated user's profile.
func (h *Handler) Me(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	user, err := h.store.GetUser(c.Request().Context(), p.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":           user.ID,
		"name":         user.Name,
		"email":        user.Email,
		"role":         user.Role,
		"trust_score":  user.TrustScore,
		"rating_count": user.RatingCount,
		"pin_set":      user.PinHash != "",
	})
}
