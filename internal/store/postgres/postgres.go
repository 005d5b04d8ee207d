package postgres

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store is the Postgres-backed implementation of store.Store. Row locks
// (SELECT ... FOR UPDATE) inside one pgx transaction serialize conflicting
// operations on the same account, order, or trade.
type Store struct {
	pool *pgxpool.Pool
}

// New connects and bootstraps the schema.
func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	s := &Store{pool: pool}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	log.Println("Connected to Postgres successfully")
	return s, nil
}

func (s *Store) Close() { s.pool.Close() }

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
        CREATE TABLE IF NOT EXISTS users (
            id UUID PRIMARY KEY,
            name TEXT NOT NULL,
            email TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL,
            role TEXT NOT NULL DEFAULT 'user',
            pin_hash TEXT NOT NULL DEFAULT '',
            trust_score DOUBLE PRECISION NOT NULL DEFAULT 0,
            rating_count INTEGER NOT NULL DEFAULT 0,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS accounts (
            user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
            available BIGINT NOT NULL DEFAULT 0 CHECK (available >= 0),
            escrow_locked BIGINT NOT NULL DEFAULT 0 CHECK (escrow_locked >= 0),
            commission BIGINT NOT NULL DEFAULT 0 CHECK (commission >= 0),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE TABLE IF NOT EXISTS orders (
            id UUID PRIMARY KEY,
            owner_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            payment_method TEXT NOT NULL,
            payment_details TEXT NOT NULL DEFAULT '',
            status TEXT NOT NULL CHECK (status IN ('open','locked','dispute','completed','cancelled')),
            active_trade_id UUID NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
        CREATE TABLE IF NOT EXISTS trades (
            id UUID PRIMARY KEY,
            order_id UUID NOT NULL REFERENCES orders(id),
            seller_id UUID NOT NULL REFERENCES users(id),
            buyer_id UUID NOT NULL REFERENCES users(id),
            amount BIGINT NOT NULL CHECK (amount > 0),
            status TEXT NOT NULL CHECK (status IN ('created','paid','awaiting_admin','completed','cancelled','dispute','resolved_buyer','resolved_seller')),
            proof_url TEXT NOT NULL DEFAULT '',
            proof_ref TEXT NOT NULL DEFAULT '',
            proof_sender TEXT NOT NULL DEFAULT '',
            fee BIGINT NOT NULL DEFAULT 0,
            rated_by_buyer BOOLEAN NOT NULL DEFAULT FALSE,
            rated_by_seller BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            paid_at TIMESTAMPTZ NULL,
            completed_at TIMESTAMPTZ NULL,
            disputed_at TIMESTAMPTZ NULL
        );
        CREATE INDEX IF NOT EXISTS idx_trades_buyer ON trades(buyer_id);
        CREATE INDEX IF NOT EXISTS idx_trades_seller ON trades(seller_id);
        CREATE TABLE IF NOT EXISTS ledger (
            id UUID PRIMARY KEY,
            account_id UUID NOT NULL,
            amount BIGINT NOT NULL,
            type TEXT NOT NULL,
            description TEXT NOT NULL DEFAULT '',
            balance_after BIGINT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_ledger_account ON ledger(account_id, created_at);
        CREATE TABLE IF NOT EXISTS messages (
            id UUID PRIMARY KEY,
            trade_id UUID NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
            sender_id TEXT NOT NULL,
            text TEXT NOT NULL DEFAULT '',
            image_url TEXT NOT NULL DEFAULT '',
            kind TEXT NOT NULL CHECK (kind IN ('text','system')),
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );
        CREATE INDEX IF NOT EXISTS idx_messages_trade ON messages(trade_id, created_at);
        CREATE TABLE IF NOT EXISTS notifications (
            id UUID PRIMARY KEY,
            user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
            type TEXT NOT NULL,
            title TEXT NOT NULL,
            body TEXT NOT NULL DEFAULT '',
            reference TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ NULL
        );
        CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, created_at);
    `)
	if err != nil {
		return fmt.Errorf("schema bootstrap failed: %w", err)
	}
	return nil
}

// WithTx runs fn inside one database transaction and commits on success.
func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	pgtx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrStore, err)
	}
	defer pgtx.Rollback(ctx)

	if err := fn(&tx{q: pgtx}); err != nil {
		return err
	}
	if err := pgtx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrStore, err)
	}
	return nil
}

type tx struct {
	q pgx.Tx
}

const userCols = `id::text, name, email, password, role, pin_hash, trust_score, rating_count, created_at`

func scanUser(row pgx.Row) (*domain.User, error) {
	u := &domain.User{}
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role, &u.PinHash, &u.TrustScore, &u.RatingCount, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: user", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}
	return u, nil
}

func (t *tx) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return scanUser(t.q.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) PutUser(ctx context.Context, u *domain.User) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO users (id, name, email, password, role, pin_hash, trust_score, rating_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name, email = EXCLUDED.email, password = EXCLUDED.password,
            role = EXCLUDED.role, pin_hash = EXCLUDED.pin_hash,
            trust_score = EXCLUDED.trust_score, rating_count = EXCLUDED.rating_count`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role, u.PinHash, u.TrustScore, u.RatingCount, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	a := &domain.Account{}
	err := row.Scan(&a.UserID, &a.Available, &a.EscrowLocked, &a.Commission, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: account", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch account: %w", err)
	}
	return a, nil
}

func (t *tx) GetAccount(ctx context.Context, userID string) (*domain.Account, error) {
	return scanAccount(t.q.QueryRow(ctx,
		`SELECT user_id::text, available, escrow_locked, commission, updated_at
         FROM accounts WHERE user_id = $1 FOR UPDATE`, userID))
}

func (t *tx) PutAccount(ctx context.Context, a *domain.Account) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO accounts (user_id, available, escrow_locked, commission, updated_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (user_id) DO UPDATE SET
            available = EXCLUDED.available, escrow_locked = EXCLUDED.escrow_locked,
            commission = EXCLUDED.commission, updated_at = NOW()`,
		a.UserID, a.Available, a.EscrowLocked, a.Commission)
	if err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

const orderCols = `id::text, owner_id::text, amount, payment_method, payment_details, status, COALESCE(active_trade_id::text, ''), created_at, updated_at`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	o := &domain.Order{}
	err := row.Scan(&o.ID, &o.OwnerID, &o.Amount, &o.PaymentMethod, &o.PaymentDetails, &o.Status, &o.ActiveTradeID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: order", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch order: %w", err)
	}
	return o, nil
}

func (t *tx) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return scanOrder(t.q.QueryRow(ctx,
		`SELECT `+orderCols+` FROM orders WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) PutOrder(ctx context.Context, o *domain.Order) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO orders (id, owner_id, amount, payment_method, payment_details, status, active_trade_id, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid, $8, NOW())
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status, active_trade_id = EXCLUDED.active_trade_id, updated_at = NOW()`,
		o.ID, o.OwnerID, o.Amount, o.PaymentMethod, o.PaymentDetails, o.Status, o.ActiveTradeID, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

const tradeCols = `id::text, order_id::text, seller_id::text, buyer_id::text, amount, status,
    proof_url, proof_ref, proof_sender, fee, rated_by_buyer, rated_by_seller,
    created_at, paid_at, completed_at, disputed_at`

func scanTrade(row pgx.Row) (*domain.Trade, error) {
	tr := &domain.Trade{}
	err := row.Scan(&tr.ID, &tr.OrderID, &tr.SellerID, &tr.BuyerID, &tr.Amount, &tr.Status,
		&tr.Proof.URL, &tr.Proof.ExternalRef, &tr.Proof.SenderID, &tr.Fee,
		&tr.RatedByBuyer, &tr.RatedBySeller,
		&tr.CreatedAt, &tr.PaidAt, &tr.CompletedAt, &tr.DisputedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: trade", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch trade: %w", err)
	}
	return tr, nil
}

func (t *tx) GetTrade(ctx context.Context, id string) (*domain.Trade, error) {
	return scanTrade(t.q.QueryRow(ctx,
		`SELECT `+tradeCols+` FROM trades WHERE id = $1 FOR UPDATE`, id))
}

func (t *tx) PutTrade(ctx context.Context, tr *domain.Trade) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO trades (id, order_id, seller_id, buyer_id, amount, status,
            proof_url, proof_ref, proof_sender, fee, rated_by_buyer, rated_by_seller,
            created_at, paid_at, completed_at, disputed_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        ON CONFLICT (id) DO UPDATE SET
            status = EXCLUDED.status, proof_url = EXCLUDED.proof_url,
            proof_ref = EXCLUDED.proof_ref, proof_sender = EXCLUDED.proof_sender,
            fee = EXCLUDED.fee, rated_by_buyer = EXCLUDED.rated_by_buyer,
            rated_by_seller = EXCLUDED.rated_by_seller, paid_at = EXCLUDED.paid_at,
            completed_at = EXCLUDED.completed_at, disputed_at = EXCLUDED.disputed_at`,
		tr.ID, tr.OrderID, tr.SellerID, tr.BuyerID, tr.Amount, tr.Status,
		tr.Proof.URL, tr.Proof.ExternalRef, tr.Proof.SenderID, tr.Fee,
		tr.RatedByBuyer, tr.RatedBySeller, tr.CreatedAt, tr.PaidAt, tr.CompletedAt, tr.DisputedAt)
	if err != nil {
		return fmt.Errorf("failed to save trade: %w", err)
	}
	return nil
}

func (t *tx) AppendLedger(ctx context.Context, e *domain.LedgerEntry) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO ledger (id, account_id, amount, type, description, balance_after, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AccountID, e.Amount, e.Type, e.Description, e.BalanceAfter, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

func (t *tx) AppendMessage(ctx context.Context, m *domain.Message) error {
	_, err := t.q.Exec(ctx, `
        INSERT INTO messages (id, trade_id, sender_id, text, image_url, kind, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.TradeID, m.SenderID, m.Text, m.ImageURL, m.Kind, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	return nil
}
