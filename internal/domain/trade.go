package domain

import "time"

// TradeStatus represents the state machine of a matched trade.
type TradeStatus string

const (
	TradeCreated        TradeStatus = "created"
	TradePaid           TradeStatus = "paid"
	TradeAwaitingAdmin  TradeStatus = "awaiting_admin"
	TradeCompleted      TradeStatus = "completed"
	TradeCancelled      TradeStatus = "cancelled"
	TradeDispute        TradeStatus = "dispute"
	TradeResolvedBuyer  TradeStatus = "resolved_buyer"
	TradeResolvedSeller TradeStatus = "resolved_seller"
)

// Terminal reports whether the trade is finalized.
func (s TradeStatus) Terminal() bool {
	switch s {
	case TradeCompleted, TradeCancelled, TradeResolvedBuyer, TradeResolvedSeller:
		return true
	}
	return false
}

// DisputeResolution is an admin arbitration outcome.
type DisputeResolution string

const (
	ReleaseToBuyer DisputeResolution = "release_to_buyer"
	RefundToSeller DisputeResolution = "refund_to_seller"
)

// PaymentProof is the buyer's evidence of the off-platform payment. Either
// URL is set, or both ExternalRef and SenderID are.
type PaymentProof struct {
	URL         string `json:"url,omitempty"`
	ExternalRef string `json:"external_ref,omitempty"`
	SenderID    string `json:"sender_id,omitempty"`
}

// Complete reports whether the proof satisfies the mark-paid requirement.
func (p PaymentProof) Complete() bool {
	return p.URL != "" || (p.ExternalRef != "" && p.SenderID != "")
}

// Trade is a buyer matched against an order. Amount is copied from the order
// at match time and never changes, regardless of outcome.
type Trade struct {
	ID            string       `json:"id"`
	OrderID       string       `json:"order_id"`
	SellerID      string       `json:"seller_id"`
	BuyerID       string       `json:"buyer_id"`
	Amount        int64        `json:"amount"`
	Status        TradeStatus  `json:"status"`
	Proof         PaymentProof `json:"proof"`
	Fee           int64        `json:"fee"`
	RatedByBuyer  bool         `json:"rated_by_buyer"`
	RatedBySeller bool         `json:"rated_by_seller"`
	CreatedAt     time.Time    `json:"created_at"`
	PaidAt        *time.Time   `json:"paid_at,omitempty"`
	CompletedAt   *time.Time   `json:"completed_at,omitempty"`
	DisputedAt    *time.Time   `json:"disputed_at,omitempty"`
}
