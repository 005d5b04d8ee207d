package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PublicProfile is the counterparty check a buyer runs before trading:
// name, trust score, and how many ratings back it.
func (h *Handler) PublicProfile(c echo.Context) error {
	user, err := h.store.GetUser(c.Request().Context(), c.Param("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":           user.ID,
		"name":         user.Name,
		"trust_score":  user.TrustScore,
		"rating_count": user.RatingCount,
		"created_at":   user.CreatedAt,
	})
}
