package escrow

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

func TestInitiateTradeLocksOrder(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)

	trade, err := svc.InitiateTrade(ctx, buyerID, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TradeCreated, trade.Status)
	require.Equal(t, int64(500), trade.Amount)
	require.Equal(t, sellerID, trade.SellerID)
	require.Equal(t, buyerID, trade.BuyerID)

	got, err := st.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderLocked, got.Status)
	require.Equal(t, trade.ID, got.ActiveTradeID)

	// A system message opens the trade thread.
	msgs, err := st.ListMessages(ctx, trade.ID)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, domain.MessageSystem, msgs[0].Kind)
}

func TestInitiateTradeSelfTrade(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID := seedUser(t, st, domain.RoleUser, 1000)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)

	_, err = svc.InitiateTrade(ctx, sellerID, order.ID)
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestInitiateTradeOrderNotOpen(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	otherID := seedUser(t, st, domain.RoleUser, 0)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)
	_, err = svc.InitiateTrade(ctx, buyerID, order.ID)
	require.NoError(t, err)

	_, err = svc.InitiateTrade(ctx, otherID, order.ID)
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMarkPaidRequiresProof(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)
	trade, err := svc.InitiateTrade(ctx, buyerID, order.ID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{ExternalRef: "TX1"})
	require.ErrorIs(t, err, domain.ErrValidation)
	_, err = svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{SenderID: "01712345678"})
	require.ErrorIs(t, err, domain.ErrValidation)

	paid, err := svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{ExternalRef: "TX1", SenderID: "01712345678"})
	require.NoError(t, err)
	require.Equal(t, domain.TradePaid, paid.Status)
	require.NotNil(t, paid.PaidAt)

	// Already paid; marking again is a state error.
	_, err = svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{URL: "https://proof.example/1"})
	require.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestMarkPaidOnlyBuyer(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)
	trade, err := svc.InitiateTrade(ctx, buyerID, order.ID)
	require.NoError(t, err)

	_, err = svc.MarkPaid(ctx, sellerID, trade.ID, domain.PaymentProof{URL: "https://proof.example/1"})
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestConfirmReleaseHappyPath(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)

	before := totalFunds(t, st, sellerID, buyerID)

	released, err := svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.NoError(t, err)
	require.Equal(t, domain.TradeCompleted, released.Status)
	require.Equal(t, int64(10), released.Fee)
	require.NotNil(t, released.CompletedAt)

	seller := account(t, st, sellerID)
	buyer := account(t, st, buyerID)
	require.Equal(t, int64(0), seller.EscrowLocked)
	require.Equal(t, int64(500), seller.Available)
	require.Equal(t, int64(490), buyer.Available)

	// Self-release burns the fee: total funds drop by exactly the fee.
	require.Equal(t, before-10, totalFunds(t, st, sellerID, buyerID))

	got, err := st.GetOrder(ctx, released.OrderID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderCompleted, got.Status)
}

func TestConfirmReleaseWrongPin(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)

	_, err := svc.ConfirmRelease(ctx, sellerID, trade.ID, "0000")
	require.ErrorIs(t, err, domain.ErrUnauthorized)

	// Nothing moved.
	require.Equal(t, int64(500), account(t, st, sellerID).EscrowLocked)
	require.Equal(t, int64(0), account(t, st, buyerID).Available)
}

func TestConfirmReleaseUnsetPin(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, _, trade := paidTrade(t, svc, st)

	// Clear the seller's PIN to simulate a pre-migration account.
	u, err := st.GetUser(ctx, sellerID)
	require.NoError(t, err)
	u.PinHash = ""
	require.NoError(t, st.WithTx(ctx, func(tx store.Tx) error { return tx.PutUser(ctx, u) }))

	_, err = svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
	require.Contains(t, err.Error(), "pin not set")
}

func TestConfirmReleaseOnlySeller(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	_, buyerID, trade := paidTrade(t, svc, st)

	_, err := svc.ConfirmRelease(ctx, buyerID, trade.ID, testPin)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestAdminReleaseCreditsCommission(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)
	adminID := seedUser(t, st, domain.RoleAdmin, 0)

	_, err := svc.RequestAdminRelease(ctx, buyerID, trade.ID)
	require.NoError(t, err)
	got, err := st.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TradeAwaitingAdmin, got.Status)

	before := totalFunds(t, st, sellerID, buyerID, adminID)

	released, err := svc.AdminRelease(ctx, domain.Principal{ID: adminID, Role: domain.RoleAdmin}, trade.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TradeCompleted, released.Status)

	seller := account(t, st, sellerID)
	buyer := account(t, st, buyerID)
	admin := account(t, st, adminID)
	require.Equal(t, int64(0), seller.EscrowLocked)
	require.Equal(t, int64(490), buyer.Available)
	require.Equal(t, int64(10), admin.Commission)

	// Admin-approved release conserves total funds: the three deltas sum to zero.
	require.Equal(t, before, totalFunds(t, st, sellerID, buyerID, adminID))
}

func TestAdminReleaseRequiresAdminRole(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	_, buyerID, trade := paidTrade(t, svc, st)

	_, err := svc.AdminRelease(ctx, domain.Principal{ID: buyerID, Role: domain.RoleUser}, trade.ID)
	require.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestConfirmReleaseRejectedAfterEscalation(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)
	adminID := seedUser(t, st, domain.RoleAdmin, 0)

	_, err := svc.RequestAdminRelease(ctx, buyerID, trade.ID)
	require.NoError(t, err)

	// An escalated trade is out of the seller's hands, even with the right pin.
	_, err = svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.ErrorIs(t, err, domain.ErrInvalidState)

	_, err = svc.AdminRelease(ctx, domain.Principal{ID: adminID, Role: domain.RoleAdmin}, trade.ID)
	require.NoError(t, err)
}

func TestReleaseIdempotence(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)

	_, err := svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.NoError(t, err)

	buyerAfter := account(t, st, buyerID).Available

	// Second attempt observes the advanced status and fails cleanly.
	_, err = svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.ErrorIs(t, err, domain.ErrInvalidState)
	require.Equal(t, buyerAfter, account(t, st, buyerID).Available)
}

func TestConcurrentReleaseExactlyOneWins(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, buyerID, trade := paidTrade(t, svc, st)

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			require.ErrorIs(t, err, domain.ErrInvalidState)
		}
	}
	require.Equal(t, 1, ok)
	require.Equal(t, int64(490), account(t, st, buyerID).Available)
	require.Equal(t, int64(0), account(t, st, sellerID).EscrowLocked)
}

func TestTradeAmountImmutable(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	sellerID, _, trade := paidTrade(t, svc, st)

	_, err := svc.ConfirmRelease(ctx, sellerID, trade.ID, testPin)
	require.NoError(t, err)

	got, err := st.GetTrade(ctx, trade.ID)
	require.NoError(t, err)
	require.Equal(t, int64(500), got.Amount)

	order, err := st.GetOrder(ctx, trade.OrderID)
	require.NoError(t, err)
	require.Equal(t, int64(500), order.Amount)
}
