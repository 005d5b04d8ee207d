package messaging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// Handler serves the per-trade chat thread: user messages, payment proof
// screenshots, and the system messages the engine appends on transitions.
type Handler struct {
	store store.Store
	hub   *Hub
}

func NewHandler(st store.Store, hub *Hub) *Handler {
	if hub == nil {
		hub = NewHub()
	}
	return &Handler{store: st, hub: hub}
}

// SendMessage appends a chat message to a trade thread. Only the two trade
// parties may write; text, an image URL, or both must be present.
func (h *Handler) SendMessage(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tradeID := c.Param("id")
	var body struct {
		Text     string `json:"text"`
		ImageURL string `json:"image_url"`
	}
	if err := c.Bind(&body); err != nil || (body.Text == "" && body.ImageURL == "") {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message text or image required"})
	}

	ctx := c.Request().Context()
	trade, err := h.store.GetTrade(ctx, tradeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trade not found"})
	}
	var recipientID string
	switch p.ID {
	case trade.BuyerID:
		recipientID = trade.SellerID
	case trade.SellerID:
		recipientID = trade.BuyerID
	default:
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this trade"})
	}

	msg := &domain.Message{
		ID:        uuid.New().String(),
		TradeID:   tradeID,
		SenderID:  p.ID,
		Text:      body.Text,
		ImageURL:  body.ImageURL,
		Kind:      domain.MessageText,
		CreatedAt: time.Now().UTC(),
	}
	err = h.store.WithTx(ctx, func(tx store.Tx) error {
		return tx.AppendMessage(ctx, msg)
	})
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	h.hub.Broadcast(tradeID, Event{Type: "message_new", Data: msg})

	_ = h.store.AddNotification(ctx, &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    recipientID,
		Type:      "message:new",
		Title:     "New message on your trade",
		Body:      body.Text,
		Reference: tradeID,
		CreatedAt: time.Now().UTC(),
	})

	return c.JSON(http.StatusCreated, msg)
}

// ListMessages returns the conversation for a trade, oldest first. Trade
// parties and admins may read; admins need the thread for dispute review.
func (h *Handler) ListMessages(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tradeID := c.Param("id")
	ctx := c.Request().Context()
	trade, err := h.store.GetTrade(ctx, tradeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trade not found"})
	}
	if p.ID != trade.BuyerID && p.ID != trade.SellerID && !p.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this trade"})
	}

	msgs, err := h.store.ListMessages(ctx, tradeID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
}
