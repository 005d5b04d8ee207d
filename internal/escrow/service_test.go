package escrow

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
	"github.com/smmonirhasan92/man2man-sub003/internal/store/memory"
)

const testPin = "4321"

func newTestEngine(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	return NewService(st, nil, nil, DefaultFeeRate), st
}

func seedUser(t *testing.T, st *memory.Store, role string, available int64) string {
	t.Helper()
	id := uuid.New().String()
	pinHash, err := bcrypt.GenerateFromPassword([]byte(testPin), bcrypt.MinCost)
	require.NoError(t, err)

	err = st.WithTx(context.Background(), func(tx store.Tx) error {
		if err := tx.PutUser(context.Background(), &domain.User{
			ID:      id,
			Name:    "user-" + id[:8],
			Email:   id[:8] + "@example.com",
			Role:    role,
			PinHash: string(pinHash),
		}); err != nil {
			return err
		}
		return tx.PutAccount(context.Background(), &domain.Account{
			UserID:    id,
			Available: available,
		})
	})
	require.NoError(t, err)
	return id
}

func account(t *testing.T, st *memory.Store, id string) *domain.Account {
	t.Helper()
	a, err := st.GetAccount(context.Background(), id)
	require.NoError(t, err)
	return a
}

// totalFunds sums every balance of the given accounts.
func totalFunds(t *testing.T, st *memory.Store, ids ...string) int64 {
	t.Helper()
	var sum int64
	for _, id := range ids {
		a := account(t, st, id)
		sum += a.Available + a.EscrowLocked + a.Commission
	}
	return sum
}

// paidTrade drives seller+buyer through create/initiate/markPaid and
// returns the ids.
func paidTrade(t *testing.T, svc *Service, st *memory.Store) (sellerID, buyerID string, trade *domain.Trade) {
	t.Helper()
	ctx := context.Background()
	sellerID = seedUser(t, st, domain.RoleUser, 1000)
	buyerID = seedUser(t, st, domain.RoleUser, 0)

	order, err := svc.CreateOrder(ctx, sellerID, 500, "bkash", "01700000000")
	require.NoError(t, err)
	trade, err = svc.InitiateTrade(ctx, buyerID, order.ID)
	require.NoError(t, err)
	trade, err = svc.MarkPaid(ctx, buyerID, trade.ID, domain.PaymentProof{ExternalRef: "TX1", SenderID: "01712345678"})
	require.NoError(t, err)
	return sellerID, buyerID, trade
}
