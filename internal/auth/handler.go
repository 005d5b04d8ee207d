package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

const tokenTTL = 72 * time.Hour

// Handler serves signup, login, profile, and release-PIN endpoints.
type Handler struct {
	store  store.Store
	secret string
}

func NewHandler(st store.Store, secret string) *Handler {
	return &Handler{store: st, secret: secret}
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Token string `json:"token"`
}

// Signup registers a user and opens their zero-balance account in one
// transaction. Every new user starts as a regular user; promotion to admin
// happens out of band.
func (h *Handler) Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, email, and a password of at least 6 characters are required"})
	}

	ctx := c.Request().Context()
	if existing, err := h.store.GetUserByEmail(ctx, req.Email); err == nil && existing != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	user := &domain.User{
		ID:           uuid.New().String(),
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hashed),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	err = h.store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.PutUser(ctx, user); err != nil {
			return err
		}
		return tx.PutAccount(ctx, &domain.Account{UserID: user.ID})
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create account"})
	}

	signed, err := h.issueToken(user)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}
	return c.JSON(http.StatusCreated, SignupResponse{Token: signed})
}

func (h *Handler) issueToken(u *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"user_id": u.ID,
		"role":    u.Role,
		"exp":     time.Now().Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.secret))
}
