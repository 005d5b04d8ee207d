package domain

import "time"

// BalanceField names one of the three balances carried by an Account.
type BalanceField string

const (
	FieldAvailable    BalanceField = "available"
	FieldEscrowLocked BalanceField = "escrow_locked"
	FieldCommission   BalanceField = "commission"
)

// Account holds a user's money in minor units. All three balances are
// non-negative at all times; escrow_locked only moves through order and
// trade transitions, never by direct transfer.
type Account struct {
	UserID       string    `json:"user_id"`
	Available    int64     `json:"available"`
	EscrowLocked int64     `json:"escrow_locked"`
	Commission   int64     `json:"commission"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Balance returns the value of the named field.
func (a *Account) Balance(f BalanceField) int64 {
	switch f {
	case FieldAvailable:
		return a.Available
	case FieldEscrowLocked:
		return a.EscrowLocked
	case FieldCommission:
		return a.Commission
	}
	return 0
}

// Add applies a signed delta to the named field and reports the resulting
// value. The caller checks the result for negativity.
func (a *Account) Add(f BalanceField, delta int64) int64 {
	switch f {
	case FieldAvailable:
		a.Available += delta
		return a.Available
	case FieldEscrowLocked:
		a.EscrowLocked += delta
		return a.EscrowLocked
	case FieldCommission:
		a.Commission += delta
		return a.Commission
	}
	return 0
}
