package escrow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// CreateOrder lists funds for sale. The amount moves from the seller's
// available balance into escrow in the same transaction that creates the
// listing.
func (s *Service) CreateOrder(ctx context.Context, sellerID string, amount int64, method, details string) (*domain.Order, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", domain.ErrValidation)
	}
	if method == "" {
		return nil, fmt.Errorf("%w: payment method required", domain.ErrValidation)
	}

	order := &domain.Order{
		ID:             uuid.New().String(),
		OwnerID:        sellerID,
		Amount:         amount,
		PaymentMethod:  method,
		PaymentDetails: details,
		Status:         domain.OrderOpen,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		moves := []Move{
			{AccountID: sellerID, Field: domain.FieldAvailable, Delta: -amount,
				EntryType: domain.LedgerEscrowLock, Desc: "escrow lock for order " + order.ID},
			{AccountID: sellerID, Field: domain.FieldEscrowLocked, Delta: amount},
		}
		if err := applyMoves(ctx, tx, moves); err != nil {
			return err
		}
		return tx.PutOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.stats.OrderCreated()
	s.notify.BalanceUpdated(sellerID)
	return order, nil
}

// CancelOrder reverses the escrow lock of a still-open listing.
func (s *Service) CancelOrder(ctx context.Context, sellerID, orderID string) (*domain.Order, error) {
	var order *domain.Order
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		var err error
		order, err = tx.GetOrder(ctx, orderID)
		if err != nil {
			return err
		}
		if order.OwnerID != sellerID {
			return fmt.Errorf("%w: order belongs to another seller", domain.ErrUnauthorized)
		}
		if order.Status != domain.OrderOpen {
			return fmt.Errorf("%w: order is %s, only open orders can be cancelled", domain.ErrInvalidState, order.Status)
		}

		moves := []Move{
			{AccountID: sellerID, Field: domain.FieldEscrowLocked, Delta: -order.Amount},
			{AccountID: sellerID, Field: domain.FieldAvailable, Delta: order.Amount,
				EntryType: domain.LedgerEscrowRefund, Desc: "escrow refund for cancelled order " + order.ID},
		}
		if err := applyMoves(ctx, tx, moves); err != nil {
			return err
		}
		order.Status = domain.OrderCancelled
		order.UpdatedAt = time.Now()
		return tx.PutOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.stats.OrderCancelled()
	s.notify.BalanceUpdated(sellerID)
	return order, nil
}
