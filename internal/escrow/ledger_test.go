package escrow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
)

func TestTransferMovesAllLegsTogether(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	a := seedUser(t, st, domain.RoleUser, 300)
	b := seedUser(t, st, domain.RoleUser, 0)

	err := svc.Transfer(ctx, []Move{
		{AccountID: a, Field: domain.FieldAvailable, Delta: -200,
			EntryType: domain.LedgerAdminDebit, Desc: "manual adjustment"},
		{AccountID: b, Field: domain.FieldAvailable, Delta: 200,
			EntryType: domain.LedgerAdminCredit, Desc: "manual adjustment"},
	})
	require.NoError(t, err)
	require.Equal(t, int64(100), account(t, st, a).Available)
	require.Equal(t, int64(200), account(t, st, b).Available)

	entries, err := st.ListLedger(ctx, b, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, int64(200), entries[0].Amount)
	require.Equal(t, int64(200), entries[0].BalanceAfter)
}

func TestTransferAbortsWholeSetOnShortfall(t *testing.T) {
	svc, st := newTestEngine(t)
	ctx := context.Background()
	a := seedUser(t, st, domain.RoleUser, 300)
	b := seedUser(t, st, domain.RoleUser, 50)

	// The second leg fails, so the first must not stick.
	err := svc.Transfer(ctx, []Move{
		{AccountID: a, Field: domain.FieldAvailable, Delta: 100,
			EntryType: domain.LedgerAdminCredit, Desc: "half of a swap"},
		{AccountID: b, Field: domain.FieldAvailable, Delta: -100,
			EntryType: domain.LedgerAdminDebit, Desc: "other half"},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	require.Equal(t, int64(300), account(t, st, a).Available)
	require.Equal(t, int64(50), account(t, st, b).Available)
	entries, err := st.ListLedger(ctx, a, 10)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTransferUnknownAccount(t *testing.T) {
	svc, _ := newTestEngine(t)

	err := svc.Transfer(context.Background(), []Move{
		{AccountID: "00000000-0000-0000-0000-000000000000", Field: domain.FieldAvailable, Delta: 10},
	})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestFeeRounding(t *testing.T) {
	svc, _ := newTestEngine(t)

	require.Equal(t, int64(10), svc.Fee(500))
	require.Equal(t, int64(2), svc.Fee(100))
	require.Equal(t, int64(0), svc.Fee(10)) // 0.2 rounds down
	require.Equal(t, int64(1), svc.Fee(30)) // 0.6 rounds up
}
