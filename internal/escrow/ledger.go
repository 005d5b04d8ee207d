package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// Move is one balance delta applied by the atomic transfer primitive. A
// non-empty EntryType writes the paired audit record; the secondary leg of
// an intra-account movement leaves it empty.
type Move struct {
	AccountID string
	Field     domain.BalanceField
	Delta     int64
	EntryType string
	Desc      string
}

// applyMoves mutates balances and appends ledger entries inside an open
// transaction. All deltas commit together or not at all; any leg that would
// drive a balance negative aborts the whole set.
func applyMoves(ctx context.Context, tx store.Tx, moves []Move) error {
	now := time.Now()
	for _, mv := range moves {
		acct, err := tx.GetAccount(ctx, mv.AccountID)
		if err != nil {
			return err
		}
		after := acct.Add(mv.Field, mv.Delta)
		if after < 0 {
			return fmt.Errorf("%w: account %s %s short by %d",
				domain.ErrInsufficientFunds, mv.AccountID, mv.Field, -after)
		}
		acct.UpdatedAt = now
		if err := tx.PutAccount(ctx, acct); err != nil {
			return err
		}
		if mv.EntryType == "" {
			continue
		}
		entry := &domain.LedgerEntry{
			ID:           uuid.New().String(),
			AccountID:    mv.AccountID,
			Amount:       mv.Delta,
			Type:         mv.EntryType,
			Description:  mv.Desc,
			BalanceAfter: after,
			CreatedAt:    now,
		}
		if err := tx.AppendLedger(ctx, entry); err != nil {
			return err
		}
	}
	return nil
}

// Transfer runs a standalone atomic balance mutation with its audit records.
// This is the primitive behind every fund movement; it is also exposed
// directly for administrative credits and debits.
func (s *Service) Transfer(ctx context.Context, moves []Move) error {
	if err := s.store.WithTx(ctx, func(tx store.Tx) error {
		return applyMoves(ctx, tx, moves)
	}); err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, mv := range moves {
		if !seen[mv.AccountID] {
			seen[mv.AccountID] = true
			s.notify.BalanceUpdated(mv.AccountID)
		}
	}
	return nil
}
