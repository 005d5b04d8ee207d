package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// HoldTrade freezes an in-flight trade for arbitration. Either participant
// or an admin can open the dispute; the order mirrors the dispute status so
// the listing cannot move while arbitration is pending.
func (s *Service) HoldTrade(ctx context.Context, caller domain.Principal, tradeID, reason string) (*domain.Trade, error) {
	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		trade, err = tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if caller.ID != trade.BuyerID && caller.ID != trade.SellerID && !caller.IsAdmin() {
			return fmt.Errorf("%w: not a participant in this trade", domain.ErrUnauthorized)
		}
		if trade.Status.Terminal() {
			return fmt.Errorf("%w: trade is already %s", domain.ErrInvalidState, trade.Status)
		}
		if trade.Status == domain.TradeDispute {
			return fmt.Errorf("%w: trade is already under dispute", domain.ErrInvalidState)
		}

		now := time.Now()
		trade.Status = domain.TradeDispute
		trade.DisputedAt = &now
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}

		order, err := tx.GetOrder(ctx, trade.OrderID)
		if err != nil {
			return err
		}
		order.Status = domain.OrderDispute
		order.UpdatedAt = now
		if err := tx.PutOrder(ctx, order); err != nil {
			return err
		}

		text := "Trade placed under dispute. An administrator will arbitrate."
		if reason != "" {
			text += " Reason: " + reason
		}
		return systemMessage(ctx, tx, trade.ID, text)
	})
	if err != nil {
		return nil, err
	}

	s.stats.DisputeOpened()
	s.notify.DisputeOpened(trade)
	return trade, nil
}

// ResolveDispute arbitrates a held trade. Release-to-buyer moves the full
// escrowed amount to the buyer with no fee; refund-to-seller returns the
// escrow to the seller's available balance. Fee handling deliberately
// differs from the normal release path.
func (s *Service) ResolveDispute(ctx context.Context, admin domain.Principal, tradeID string, res domain.DisputeResolution) (*domain.Trade, error) {
	if !admin.IsAdmin() {
		return nil, fmt.Errorf("%w: admin role required", domain.ErrUnauthorized)
	}
	if res != domain.ReleaseToBuyer && res != domain.RefundToSeller {
		return nil, fmt.Errorf("%w: unknown resolution %q", domain.ErrValidation, res)
	}

	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		trade, err = tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.Status.Terminal() {
			return fmt.Errorf("%w: trade is already %s", domain.ErrInvalidState, trade.Status)
		}
		if trade.Status != domain.TradeDispute {
			return fmt.Errorf("%w: trade is %s, not under dispute", domain.ErrInvalidState, trade.Status)
		}

		order, err := tx.GetOrder(ctx, trade.OrderID)
		if err != nil {
			return err
		}
		now := time.Now()

		var moves []Move
		var text string
		switch res {
		case domain.ReleaseToBuyer:
			moves = []Move{
				{AccountID: trade.SellerID, Field: domain.FieldEscrowLocked, Delta: -trade.Amount,
					EntryType: domain.LedgerEscrowRelease, Desc: "dispute release for trade " + trade.ID},
				{AccountID: trade.BuyerID, Field: domain.FieldAvailable, Delta: trade.Amount,
					EntryType: domain.LedgerTradeCredit, Desc: "dispute credit for trade " + trade.ID},
			}
			trade.Status = domain.TradeResolvedBuyer
			order.Status = domain.OrderCompleted
			text = "Dispute resolved in favor of the buyer. Escrow released in full."
		case domain.RefundToSeller:
			moves = []Move{
				{AccountID: trade.SellerID, Field: domain.FieldEscrowLocked, Delta: -trade.Amount},
				{AccountID: trade.SellerID, Field: domain.FieldAvailable, Delta: trade.Amount,
					EntryType: domain.LedgerEscrowRefund, Desc: "dispute refund for trade " + trade.ID},
			}
			trade.Status = domain.TradeResolvedSeller
			order.Status = domain.OrderCancelled
			text = "Dispute resolved in favor of the seller. Escrow refunded."
		}
		if err := applyMoves(ctx, tx, moves); err != nil {
			return err
		}
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}
		order.UpdatedAt = now
		if err := tx.PutOrder(ctx, order); err != nil {
			return err
		}
		return systemMessage(ctx, tx, trade.ID, text)
	})
	if err != nil {
		return nil, err
	}

	s.stats.DisputeResolved()
	s.notify.DisputeResolved(trade, res)
	s.notify.BalanceUpdated(trade.SellerID)
	s.notify.BalanceUpdated(trade.BuyerID)
	return trade, nil
}
