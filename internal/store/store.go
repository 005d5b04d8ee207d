package store

import (
	"context"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
)

// Tx exposes the records reachable inside one atomic unit. Reads inside a
// transaction lock the row (or its in-memory equivalent) so conflicting
// operations on the same account, order, or trade serialize.
type Tx interface {
	GetUser(ctx context.Context, id string) (*domain.User, error)
	PutUser(ctx context.Context, u *domain.User) error

	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	PutAccount(ctx context.Context, a *domain.Account) error

	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	PutOrder(ctx context.Context, o *domain.Order) error

	GetTrade(ctx context.Context, id string) (*domain.Trade, error)
	PutTrade(ctx context.Context, t *domain.Trade) error

	AppendLedger(ctx context.Context, e *domain.LedgerEntry) error
	AppendMessage(ctx context.Context, m *domain.Message) error
}

// Store is the transactionally-consistent backing store every component runs
// against. WithTx commits all mutations made through the Tx together or not
// at all; a returned error from fn aborts the transaction.
type Store interface {
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Plain reads outside any transaction.
	GetUser(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetAccount(ctx context.Context, userID string) (*domain.Account, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	GetTrade(ctx context.Context, id string) (*domain.Trade, error)
	ListOpenOrders(ctx context.Context) ([]*domain.Order, error)
	ListUserTrades(ctx context.Context, userID string) ([]*domain.Trade, error)
	ListLedger(ctx context.Context, accountID string, limit int) ([]*domain.LedgerEntry, error)
	ListMessages(ctx context.Context, tradeID string) ([]*domain.Message, error)
	ListDisputedTrades(ctx context.Context) ([]*domain.Trade, error)

	// Notifications are best-effort, written outside fund transactions.
	AddNotification(ctx context.Context, n *domain.Notification) error
	ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, id string) error
}
