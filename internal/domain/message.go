package domain

import "time"

// MessageKind distinguishes user chat from engine commentary.
type MessageKind string

const (
	MessageText   MessageKind = "text"
	MessageSystem MessageKind = "system"
)

// Message is one entry in a trade's chat thread. System messages are
// appended on every state transition inside the owning transaction.
type Message struct {
	ID        string      `json:"id"`
	TradeID   string      `json:"trade_id"`
	SenderID  string      `json:"sender_id"`
	Text      string      `json:"text,omitempty"`
	ImageURL  string      `json:"image_url,omitempty"`
	Kind      MessageKind `json:"kind"`
	CreatedAt time.Time   `json:"created_at"`
}

// Notification is an in-app alert item written best-effort after commits.
type Notification struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Type      string     `json:"type"`
	Title     string     `json:"title"`
	Body      string     `json:"body"`
	Reference string     `json:"reference,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
}
