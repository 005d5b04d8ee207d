package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// InitiateTrade matches a buyer against an open order. The order locks and
// the trade starts in created status, waiting for the off-platform payment.
func (s *Service) InitiateTrade(ctx context.Context, buyerID, orderID string) (*domain.Trade, error) {
	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.Status != domain.OrderOpen {
			return fmt.Errorf("%w: order is %s, not open for trading", domain.ErrInvalidState, order.Status)
		}
		if order.OwnerID == buyerID {
			return fmt.Errorf("%w: cannot trade against your own order", domain.ErrValidation)
		}

		trade = &domain.Trade{
			ID:        uuid.New().String(),
			OrderID:   order.ID,
			SellerID:  order.OwnerID,
			BuyerID:   buyerID,
			Amount:    order.Amount,
			Status:    domain.TradeCreated,
			CreatedAt: time.Now(),
		}
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}

		order.Status = domain.OrderLocked
		order.ActiveTradeID = trade.ID
		order.UpdatedAt = time.Now()
		if err := tx.PutOrder(ctx, order); err != nil {
			return err
		}
		return systemMessage(ctx, tx, trade.ID,
			fmt.Sprintf("Trade started. Buyer should pay %d via %s and mark the trade as paid.", trade.Amount, order.PaymentMethod))
	})
	if err != nil {
		return nil, err
	}

	s.stats.TradeStarted()
	s.notify.TradeStarted(trade)
	return trade, nil
}

// MarkPaid records the buyer's off-platform payment proof. Either a proof
// URL or an external reference plus sender id is required.
func (s *Service) MarkPaid(ctx context.Context, buyerID, tradeID string, proof domain.PaymentProof) (*domain.Trade, error) {
	if !proof.Complete() {
		return nil, fmt.Errorf("%w: provide a proof url, or an external reference and sender id", domain.ErrValidation)
	}

	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		trade, err = tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.BuyerID != buyerID {
			return fmt.Errorf("%w: only the buyer can mark a trade paid", domain.ErrUnauthorized)
		}
		if trade.Status != domain.TradeCreated {
			return fmt.Errorf("%w: trade is %s, expected created", domain.ErrInvalidState, trade.Status)
		}

		now := time.Now()
		trade.Status = domain.TradePaid
		trade.PaidAt = &now
		trade.Proof = proof
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}
		return systemMessage(ctx, tx, trade.ID,
			"Buyer marked the trade as paid. Seller should verify the payment and release escrow.")
	})
	if err != nil {
		return nil, err
	}

	s.notify.TradePaid(trade)
	return trade, nil
}

// ConfirmRelease is the seller's self-service release, guarded by the
// release PIN. The PIN comparison is bcrypt's constant-time check. An
// account that never set a PIN must do so first; there is no fallback
// default.
func (s *Service) ConfirmRelease(ctx context.Context, sellerID, tradeID, pin string) (*domain.Trade, error) {
	trade, err := s.store.GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.SellerID != sellerID {
		return nil, fmt.Errorf("%w: only the seller can release this trade", domain.ErrUnauthorized)
	}
	// Self-release works on paid trades only; once the buyer escalates, the
	// release belongs to an admin. The release procedure re-checks inside
	// its transaction.
	if trade.Status != domain.TradePaid {
		return nil, fmt.Errorf("%w: trade is %s, seller release requires paid", domain.ErrInvalidState, trade.Status)
	}

	seller, err := s.store.GetUser(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller.PinHash == "" {
		return nil, fmt.Errorf("%w: release pin not set, set a pin before releasing", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(seller.PinHash), []byte(pin)); err != nil {
		return nil, fmt.Errorf("%w: wrong release pin", domain.ErrUnauthorized)
	}

	return s.release(ctx, tradeID, domain.SystemAuto)
}

// RequestAdminRelease lets the buyer escalate a paid trade for admin
// approval when the seller does not release.
func (s *Service) RequestAdminRelease(ctx context.Context, buyerID, tradeID string) (*domain.Trade, error) {
	var trade *domain.Trade
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		trade, err = tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.BuyerID != buyerID {
			return fmt.Errorf("%w: only the buyer can request an admin release", domain.ErrUnauthorized)
		}
		if trade.Status != domain.TradePaid {
			return fmt.Errorf("%w: trade is %s, expected paid", domain.ErrInvalidState, trade.Status)
		}
		trade.Status = domain.TradeAwaitingAdmin
		if err := tx.PutTrade(ctx, trade); err != nil {
			return err
		}
		return systemMessage(ctx, tx, trade.ID, "Buyer requested an admin release. An administrator will review the payment proof.")
	})
	if err != nil {
		return nil, err
	}
	return trade, nil
}
