package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
)

// JWT validates the bearer token and resolves the caller into one canonical
// Principal stored in the request context. Downstream code reads the
// principal, never the raw claims.
func JWT(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, err := parseToken(c.Request().Header.Get("Authorization"), secret)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
			}
			c.Set("user_id", p.ID)
			c.Set("role", p.Role)
			c.Set("principal", p)
			return next(c)
		}
	}
}

func parseToken(header, secret string) (domain.Principal, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return domain.Principal{}, errors.New("missing bearer token")
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return domain.Principal{}, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Principal{}, errors.New("invalid token claims")
	}
	id, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if id == "" || role == "" {
		return domain.Principal{}, errors.New("incomplete token claims")
	}
	return domain.Principal{ID: id, Role: role}, nil
}

// Caller returns the Principal resolved by JWT.
func Caller(c echo.Context) (domain.Principal, bool) {
	p, ok := c.Get("principal").(domain.Principal)
	return p, ok && p.ID != ""
}
