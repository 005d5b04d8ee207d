package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// AdminRelease completes a paid or escalated trade on behalf of the
// platform. The approving admin's account accrues the fee.
func (s *Service) AdminRelease(ctx context.Context, admin domain.Principal, tradeID string) (*domain.Trade, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrUnauthorized)
	}
	return s.release(ctx, tradeID, admin.ID)
}

// release is the shared escrow release procedure: one atomic transaction
// moves the escrowed amount off the seller, credits the buyer net of fee,
// credits the fee to a genuine admin approver, flips trade and order to
// completed, and writes the paired ledger entries. The status precondition
// is re-checked inside the transaction, so a concurrent duplicate release
// fails cleanly instead of double-crediting.
func (s *Service) release(ctx context.Context, tradeID, approverID string) (*domain.Trade, error) {
	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		trade, err = tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.Status != domain.TradePaid && trade.Status != domain.TradeAwaitingAdmin {
			return fmt.Errorf("%w: trade is %s, not releasable", domain.ErrInvalidState, trade.Status)
		}

		fee := s.Fee(trade.Amount)
		net := trade.Amount - fee

		moves := []Move{
			{AccountID: trade.SellerID, Field: domain.FieldEscrowLocked, Delta: -trade.Amount,
				EntryType: domain.LedgerEscrowRelease, Desc: "escrow release for trade " + trade.ID},
			{AccountID: trade.BuyerID, Field: domain.FieldAvailable, Delta: net,
				EntryType: domain.LedgerTradeCredit, Desc: "credit for trade " + trade.ID},
		}
		if approverID != domain.SystemAuto {
			moves = append(moves, Move{AccountID: approverID, Field: domain.FieldCommission, Delta: fee,
				EntryType: domain.LedgerFeeCommission, Desc: "fee for trade " + trade.ID})
		}
		if err := applyMoves(ctx, tx, moves); err != nil {
			return err
		}

		now := time.Now()
		trade.Status = domain.TradeCompleted
		trade.CompletedAt = &now
		trade.Fee = fee
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}

		order, err := tx.GetOrder(ctx, trade.OrderID)
		if err != nil {
			return err
		}
		order.Status = domain.OrderCompleted
		order.UpdatedAt = now
		if err := tx.PutOrder(ctx, order); err != nil {
			return err
		}

		return systemMessage(ctx, tx, trade.ID,
			fmt.Sprintf("Escrow released. Buyer received %d (fee %d). Trade completed.", net, fee))
	})
	if err != nil {
		return nil, err
	}

	s.stats.TradeCompleted(trade.Amount, trade.Fee)
	s.notify.TradeCompleted(trade)
	s.notify.BalanceUpdated(trade.SellerID)
	s.notify.BalanceUpdated(trade.BuyerID)
	return trade, nil
}
