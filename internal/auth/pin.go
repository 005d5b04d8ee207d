package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

type SetPinRequest struct {
	Password string `json:"password"`
	Pin      string `json:"pin"`
}

// SetPin sets or replaces the caller's fund-release PIN. The account password
// must be re-entered so a hijacked session cannot rotate the PIN silently.
func (h *Handler) SetPin(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	req := new(SetPinRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if !validPin(req.Pin) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "pin must be 4 to 8 digits"})
	}

	ctx := c.Request().Context()
	user, err := h.store.GetUser(ctx, p.ID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Pin), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	err = h.store.WithTx(ctx, func(tx store.Tx) error {
		u, err := tx.GetUser(ctx, p.ID)
		if err != nil {
			return err
		}
		u.PinHash = string(hashed)
		return tx.PutUser(ctx, u)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save pin"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "release pin updated"})
}

func validPin(pin string) bool {
	if len(pin) < 4 || len(pin) > 8 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
