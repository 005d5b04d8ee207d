package postgres

import (
	"context"
	"fmt"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
)

// Plain reads outside any transaction.

func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE email = $1`, email))
}

func (s *Store) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	return scanAccount(s.pool.QueryRow(ctx,
		`SELECT user_id::text, available, escrow_locked, commission, updated_at
         FROM accounts WHERE user_id = $1`, userID))
}

func (s *Store) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(s.pool.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1`, id))
}

func (s *Store) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	return scanTrade(s.pool.QueryRow(ctx,
		`SELECT `+tradeCols+` FROM trades WHERE id = $1`, id))
}

func (s *Store) ListOpenOrders(ctx context.Context) ([]*domain.Order, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+orderCols+` FROM orders WHERE status = 'open' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch orders: %w", err)
	}
	defer rows.Close()

	var out []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *Store) ListUserTrades(ctx context.Context, userID string) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeCols+` FROM trades
         WHERE buyer_id = $1 OR seller_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	defer rows.Close()

	var out []*domain.Trade
	for rows.Next() {
		tr, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) ListDisputedTrades(ctx context.Context) ([]*domain.Trade, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+tradeCols+` FROM trades WHERE status = 'dispute' ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch disputed trades: %w", err)
	}
	defer rows.Close()

	var out []*domain.Trade
	for rows.Next() {
		tr, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, rows.Err()
}

func (s *Store) ListLedger(ctx context.Context, accountID string, limit int) ([]*domain.LedgerEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, account_id::text, amount, type, description, balance_after, created_at
         FROM ledger WHERE account_id = $1 ORDER BY created_at DESC LIMIT $2`, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch ledger: %w", err)
	}
	defer rows.Close()

	var out []*domain.LedgerEntry
	for rows.Next() {
		e := &domain.LedgerEntry{}
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Type, &e.Description, &e.BalanceAfter, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to read ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) ListMessages(ctx context.Context, tradeID string) ([]*domain.Message, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, trade_id::text, sender_id, text, image_url, kind, created_at
         FROM messages WHERE trade_id = $1 ORDER BY created_at ASC`, tradeID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch messages: %w", err)
	}
	defer rows.Close()

	var out []*domain.Message
	for rows.Next() {
		m := &domain.Message{}
		if err := rows.Scan(&m.ID, &m.TradeID, &m.SenderID, &m.Text, &m.ImageURL, &m.Kind, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to read message: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *Store) AddNotification(ctx context.Context, n *domain.Notification) error {
	_, err := s.pool.Exec(ctx, `
        INSERT INTO notifications (id, user_id, type, title, body, reference, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		n.ID, n.UserID, n.Type, n.Title, n.Body, n.Reference, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*domain.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id::text, user_id::text, type, title, body, reference, created_at, read_at
         FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notifications: %w", err)
	}
	defer rows.Close()

	var out []*domain.Notification
	for rows.Next() {
		n := &domain.Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Body, &n.Reference, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("failed to read notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) MarkNotificationRead(ctx context.Context, userID, id string) error {
	res, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read_at = NOW()
         WHERE id = $1 AND user_id = $2 AND read_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to update notification: %w", err)
	}
	if res.RowsAffected() == 0 {
		return fmt.Errorf("%w: notification %s", domain.ErrNotFound, id)
	}
	return nil
}
