package escrow

import (
	"context"
	"fmt"
	"math"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// RateTrade records a post-completion reputation rating. Each party rates
// the counterparty at most once; the counterparty's trust score is a running
// weighted average rounded to one decimal.
func (s *Service) RateTrade(ctx context.Context, raterID, tradeID string, rating int) (*domain.User, error) {
	if rating < 1 || rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", domain.ErrValidation)
	}

	var rated *domain.User
	err := s.store.WithTx(ctx, func(tx store.Tx) error {
		trade, err := tx.GetTrade(ctx, tradeID)
		if err != nil {
			return err
		}
		if trade.Status != domain.TradeCompleted {
			return fmt.Errorf("%w: trade is %s, only completed trades can be rated", domain.ErrInvalidState, trade.Status)
		}

		var counterpartyID string
		switch raterID {
		case trade.BuyerID:
			if trade.RatedByBuyer {
				return fmt.Errorf("%w: buyer already rated this trade", domain.ErrInvalidState)
			}
			trade.RatedByBuyer = true
			counterpartyID = trade.SellerID
		case trade.SellerID:
			if trade.RatedBySeller {
				return fmt.Errorf("%w: seller already rated this trade", domain.ErrInvalidState)
			}
			trade.RatedBySeller = true
			counterpartyID = trade.BuyerID
		default:
			return fmt.Errorf("%w: not a participant in this trade", domain.ErrUnauthorized)
		}

		rated, err = tx.GetUser(ctx, counterpartyID)
		if err != nil {
			return err
		}
		total := rated.TrustScore*float64(rated.RatingCount) + float64(rating)
		rated.RatingCount++
		rated.TrustScore = math.Round(total/float64(rated.RatingCount)*10) / 10
		if err := tx.PutUser(ctx, rated); err != nil {
			return err
		}
		return tx.PutTrade(ctx, trade)
	})
	if err != nil {
		return nil, err
	}
	return rated, nil
}
