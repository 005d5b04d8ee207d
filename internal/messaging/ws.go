package messaging

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/smmonirhasan92/man2man-sub003/internal/middleware"
)

type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type room struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// Hub routes realtime events to websocket subscribers, one room per trade.
// A room is dropped as soon as its last client disconnects, so idle trades
// hold no memory.
type Hub struct {
	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]*room)}
}

func (h *Hub) join(tradeID string, c *websocket.Conn) *room {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[tradeID]
	if !ok {
		r = &room{clients: make(map[*websocket.Conn]bool)}
		h.rooms[tradeID] = r
	}
	r.mu.Lock()
	r.clients[c] = true
	r.mu.Unlock()
	return r
}

func (h *Hub) leave(tradeID string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	r, ok := h.rooms[tradeID]
	if !ok {
		return
	}
	r.mu.Lock()
	delete(r.clients, c)
	empty := len(r.clients) == 0
	r.mu.Unlock()
	if empty {
		delete(h.rooms, tradeID)
	}
}

// Broadcast publishes an event to every subscriber of a trade. A trade with
// no open sockets is a no-op.
func (h *Hub) Broadcast(tradeID string, evt Event) {
	h.mu.Lock()
	r, ok := h.rooms[tradeID]
	h.mu.Unlock()
	if !ok {
		return
	}
	payload, _ := json.Marshal(evt)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for c := range r.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// TradeWS upgrades to a websocket for realtime updates on a trade thread.
func (h *Handler) TradeWS(c echo.Context) error {
	p, ok := middleware.Caller(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	tradeID := c.Param("id")
	trade, err := h.store.GetTrade(c.Request().Context(), tradeID)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "trade not found"})
	}
	if p.ID != trade.BuyerID && p.ID != trade.SellerID && !p.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this trade"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h.hub.join(tradeID, ws)
	h.hub.Broadcast(tradeID, Event{Type: "presence_join", Data: echo.Map{"user_id": p.ID}})

	// Read loop; the protocol is server push, client frames are discarded.
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.hub.leave(tradeID, ws)
			_ = ws.Close()
			h.hub.Broadcast(tradeID, Event{Type: "presence_leave", Data: echo.Map{"user_id": p.ID}})
			break
		}
	}
	return nil
}
