package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store is an in-memory implementation of store.Store. A single mutex
// serializes transactions, which gives the same ordering guarantees as the
// Postgres store's row locks: conflicting operations on one trade, order, or
// account observe each other's committed state.
type Store struct {
	mu sync.Mutex

	users         map[string]*domain.User
	emailIndex    map[string]string
	accounts      map[string]*domain.Account
	orders        map[string]*domain.Order
	trades        map[string]*domain.Trade
	ledger        []*domain.LedgerEntry
	messages      map[string][]*domain.Message
	notifications map[string][]*domain.Notification
}

func New() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		emailIndex:    make(map[string]string),
		accounts:      make(map[string]*domain.Account),
		orders:        make(map[string]*domain.Order),
		trades:        make(map[string]*domain.Trade),
		messages:      make(map[string][]*domain.Message),
		notifications: make(map[string][]*domain.Notification),
	}
}

// tx stages mutations against copies; nothing touches the base maps until
// the closure returns nil.
type tx struct {
	s        *Store
	users    map[string]*domain.User
	accounts map[string]*domain.Account
	orders   map[string]*domain.Order
	trades   map[string]*domain.Trade
	ledger   []*domain.LedgerEntry
	messages []*domain.Message
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := &tx{
		s:        s,
		users:    make(map[string]*domain.User),
		accounts: make(map[string]*domain.Account),
		orders:   make(map[string]*domain.Order),
		trades:   make(map[string]*domain.Trade),
	}
	if err := fn(t); err != nil {
		return err
	}

	for id, u := range t.users {
		s.users[id] = u
		s.emailIndex[u.Email] = id
	}
	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	for id, o := range t.orders {
		s.orders[id] = o
	}
	for id, tr := range t.trades {
		s.trades[id] = tr
	}
	s.ledger = append(s.ledger, t.ledger...)
	for _, m := range t.messages {
		s.messages[m.TradeID] = append(s.messages[m.TradeID], m)
	}
	return nil
}

func (t *tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := t.users[id]; ok {
		return u, nil
	}
	u, ok := t.s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (t *tx) PutUser(ctx context.Context, u *domain.User) error {
	cp := *u
	t.users[u.ID] = &cp
	return nil
}

func (t *tx) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	if a, ok := t.accounts[userID]; ok {
		return a, nil
	}
	a, ok := t.s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, userID)
	}
	cp := *a
	return &cp, nil
}

func (t *tx) PutAccount(ctx context.Context, a *domain.Account) error {
	cp := *a
	t.accounts[a.UserID] = &cp
	return nil
}

func (t *tx) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if o, ok := t.orders[id]; ok {
		return o, nil
	}
	o, ok := t.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (t *tx) PutOrder(ctx context.Context, o *domain.Order) error {
	cp := *o
	t.orders[o.ID] = &cp
	return nil
}

func (t *tx) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	if tr, ok := t.trades[id]; ok {
		return tr, nil
	}
	tr, ok := t.s.trades[id]
	if !ok {
		return nil, fmt.Errorf("%w: trade %s", domain.ErrNotFound, id)
	}
	cp := *tr
	return &cp, nil
}

func (t *tx) PutTrade(ctx context.Context, tr *domain.Trade) error {
	cp := *tr
	t.trades[tr.ID] = &cp
	return nil
}

func (t *tx) AppendLedger(ctx context.Context, e *domain.LedgerEntry) error {
	cp := *e
	t.ledger = append(t.ledger, &cp)
	return nil
}

func (t *tx) AppendMessage(ctx context.Context, m *domain.Message) error {
	cp := *m
	t.messages = append(t.messages, &cp)
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, id)
	}
	cp := *u
	return &cp, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emailIndex[email]
	if !ok {
		return nil, fmt.Errorf("%w: user %s", domain.ErrNotFound, email)
	}
	cp := *s.users[id]
	return &cp, nil
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("%w: account %s", domain.ErrNotFound, userID)
	}
	cp := *a
	return &cp, nil
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %s", domain.ErrNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (s *Store) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.trades[id]
	if !ok {
		return nil, fmt.Errorf("%w: trade %s", domain.ErrNotFound, id)
	}
	cp := *t
	return &cp, nil
}

func (s *Store) ListOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Order
	for _, o := range s.orders {
		if o.Status == domain.OrderOpen {
			cp := *o
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListUserTrades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Trade
	for _, t := range s.trades {
		if t.BuyerID == userID || t.SellerID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListDisputedTrades(ctx context.Context) ([]*domain.Trade, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Trade
	for _, t := range s.trades {
		if t.Status == domain.TradeDispute {
			cp := *t
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) ListLedger(ctx context.Context, accountID string, limit int) ([]*domain.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.LedgerEntry
	for i := len(s.ledger) - 1; i >= 0; i-- {
		if s.ledger[i].AccountID == accountID {
			cp := *s.ledger[i]
			out = append(out, &cp)
			if limit > 0 && len(out) >= limit {
				break
			}
		}
	}
	return out, nil
}

func (s *Store) ListMessages(ctx context.Context, tradeID string) ([]*domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[tradeID]
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) AddNotification(ctx context.Context, n *domain.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *n
	s.notifications[n.UserID] = append(s.notifications[n.UserID], &cp)
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.notifications[userID]
	out := make([]*domain.Notification, 0, len(items))
	for i := len(items) - 1; i >= 0; i-- {
		cp := *items[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.notifications[userID] {
		if n.ID == id && n.ReadAt == nil {
			now := time.Now().UTC()
			n.ReadAt = &now
			return nil
		}
	}
	return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
}
