package escrow

import (
	"context"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
	"github.com/smmonirhasan92/man2man-sub003/pkg/metrics"
)

// DefaultFeeRate is the platform cut taken on a released trade.
const DefaultFeeRate = 0.02

// Notifier receives post-commit events. Delivery is best-effort and must
// never affect a committed fund movement; implementations swallow their own
// errors.
type Notifier interface {
	TradeStarted(t *domain.Trade)
	TradePaid(t *domain.Trade)
	TradeCompleted(t *domain.Trade)
	DisputeOpened(t *domain.Trade)
	DisputeResolved(t *domain.Trade, res domain.DisputeResolution)
	BalanceUpdated(userID string)
}

type nopNotifier struct{}

func (nopNotifier) TradeStarted(*domain.Trade)                            {}
func (nopNotifier) TradePaid(*domain.Trade)                               {}
func (nopNotifier) TradeCompleted(*domain.Trade)                          {}
func (nopNotifier) DisputeOpened(*domain.Trade)                           {}
func (nopNotifier) DisputeResolved(*domain.Trade, domain.DisputeResolution) {}
func (nopNotifier) BalanceUpdated(string)                                 {}

// Service is the escrow trading engine: order book, trade state machine,
// dispute arbitration, and trust ratings, all running against one
// transactionally-consistent store.
type Service struct {
	store   store.Store
	notify  Notifier
	stats   *metrics.Collector
	feeRate float64
}

func NewService(st store.Store, n Notifier, stats *metrics.Collector, feeRate float64) *Service {
	if n == nil {
		n = nopNotifier{}
	}
	if stats == nil {
		stats = metrics.NewCollector()
	}
	if feeRate <= 0 {
		feeRate = DefaultFeeRate
	}
	return &Service{store: st, notify: n, stats: stats, feeRate: feeRate}
}

// Fee returns the platform cut for a trade of the given amount.
func (s *Service) Fee(amount int64) int64 {
	return int64(math.Round(float64(amount) * s.feeRate))
}

// systemMessage appends engine commentary to a trade thread inside the
// owning transaction.
func systemMessage(ctx context.Context, tx store.Tx, tradeID, text string) error {
	return tx.AppendMessage(ctx, &domain.Message{
		ID:        uuid.New().String(),
		TradeID:   tradeID,
		SenderID:  "system",
		Text:      text,
		Kind:      domain.MessageSystem,
		CreatedAt: time.Now(),
	})
}
