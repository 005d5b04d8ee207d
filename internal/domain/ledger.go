package domain

import "time"

// Ledger entry types written by the engine.
const (
	LedgerEscrowLock    = "escrow_lock"
	LedgerEscrowRefund  = "escrow_refund"
	LedgerEscrowRelease = "escrow_release"
	LedgerTradeCredit   = "trade_credit"
	LedgerFeeCommission = "fee_commission"
	LedgerAdminCredit   = "admin_credit"
	LedgerAdminDebit    = "admin_debit"
)

// LedgerEntry is one immutable audit record of a balance-affecting movement.
// Entries are append-only and are the system of record for auditing.
type LedgerEntry struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	Amount      int64     `json:"amount"` // signed
	Type        string    `json:"type"`
	Description string    `json:"description"`
	// BalanceAfter is the value of the mutated balance field after this
	// movement was applied.
	BalanceAfter int64     `json:"balance_after"`
	CreatedAt    time.Time `json:"created_at"`
}
