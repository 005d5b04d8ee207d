package alerts

import "time"

// Task type constants
const (
	TaskTradeStarted    = "email:trade_started"
	TaskTradePaid       = "email:trade_paid"
	TaskTradeCompleted  = "email:trade_completed"
	TaskDisputeOpened   = "email:dispute_opened"
	TaskDisputeResolved = "email:dispute_resolved"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// EmailPayload is the queued form of every trade lifecycle email.
type EmailPayload struct {
	UserID   string        `json:"user_id"`
	TradeID  string        `json:"trade_id"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}
