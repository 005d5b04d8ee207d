package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/smmonirhasan92/man2man-sub003/internal/alerts"
	"github.com/smmonirhasan92/man2man-sub003/internal/auth"
	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/escrow"
	"github.com/smmonirhasan92/man2man-sub003/internal/messaging"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
	"github.com/smmonirhasan92/man2man-sub003/internal/store/memory"
)

const (
	testSecret = "test-secret"
	testPin    = "4321"
)

func newTestServer(t *testing.T) (*echo.Echo, *memory.Store) {
	t.Helper()
	st := memory.New()
	svc := escrow.NewService(st, nil, nil, escrow.DefaultFeeRate)

	e := echo.New()
	Register(e, Deps{
		Secret:   testSecret,
		Engine:   NewHandler(svc, st),
		Auth:     auth.NewHandler(st, testSecret),
		Messages: messaging.NewHandler(st, nil),
		Alerts:   alerts.NewHandler(st),
	})
	return e, st
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

func token(t *testing.T, userID, role string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func do(t *testing.T, e *echo.Echo, method, path, bearer string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestSignupLoginMe(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(t, e, http.MethodPost, "/signup", "", echo.Map{
		"name": "Rahim", "email": "rahim@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var signup auth.SignupResponse
	decode(t, rec, &signup)
	require.NotEmpty(t, signup.Token)

	rec = do(t, e, http.MethodPost, "/login", "", echo.Map{
		"email": "rahim@example.com", "password": "secret1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var login auth.LoginResponse
	decode(t, rec, &login)

	rec = do(t, e, http.MethodGet, "/me", login.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me map[string]interface{}
	decode(t, rec, &me)
	require.Equal(t, "rahim@example.com", me["email"])
	require.Equal(t, false, me["pin_set"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	e, _ := newTestServer(t)

	body := echo.Map{"name": "A", "email": "dup@example.com", "password": "secret1"}
	require.Equal(t, http.StatusCreated, do(t, e, http.MethodPost, "/signup", "", body).Code)
	require.Equal(t, http.StatusConflict, do(t, e, http.MethodPost, "/signup", "", body).Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	e, _ := newTestServer(t)

	do(t, e, http.MethodPost, "/signup", "", echo.Map{"name": "A", "email": "a@example.com", "password": "secret1"})
	rec := do(t, e, http.MethodPost, "/login", "", echo.Map{"email": "a@example.com", "password": "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	e, _ := newTestServer(t)

	rec := do(t, e, http.MethodGet, "/wallet/balance", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, e, http.MethodGet, "/wallet/balance", "not-a-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFullTradeFlowOverHTTP(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	seller := token(t, sellerID, domain.RoleUser)
	buyer := token(t, buyerID, domain.RoleUser)

	rec := do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 500, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	var order domain.Order
	decode(t, rec, &order)
	require.Equal(t, domain.OrderOpen, order.Status)

	rec = do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", buyer, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var trade domain.Trade
	decode(t, rec, &trade)
	require.Equal(t, domain.TradeCreated, trade.Status)

	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/paid", buyer, MarkPaidRequest{
		Proof: domain.PaymentProof{ExternalRef: "TX9", SenderID: "01712345678"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/release", seller, ConfirmReleaseRequest{Pin: testPin})
	require.Equal(t, http.StatusOK, rec.Code)
	var done domain.Trade
	decode(t, rec, &done)
	require.Equal(t, domain.TradeCompleted, done.Status)
	require.Equal(t, int64(10), done.Fee)

	rec = do(t, e, http.MethodGet, "/wallet/balance", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var acct domain.Account
	decode(t, rec, &acct)
	require.Equal(t, int64(490), acct.Available)

	rec = do(t, e, http.MethodGet, "/wallet/ledger", buyer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Entries []*domain.LedgerEntry `json:"entries"`
	}
	decode(t, rec, &page)
	require.NotEmpty(t, page.Entries)
}

func TestCreateOrderInsufficientFunds(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 100)

	rec := do(t, e, http.MethodPost, "/orders", token(t, sellerID, domain.RoleUser), CreateOrderRequest{
		Amount: 500, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReleaseWrongPinForbidden(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	seller := token(t, sellerID, domain.RoleUser)
	buyer := token(t, buyerID, domain.RoleUser)

	var order domain.Order
	decode(t, do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 500, PaymentMethod: "nagad", PaymentDetails: "01800000000",
	}), &order)
	var trade domain.Trade
	decode(t, do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", buyer, nil), &trade)
	do(t, e, http.MethodPost, "/trades/"+trade.ID+"/paid", buyer, MarkPaidRequest{
		Proof: domain.PaymentProof{URL: "https://img.example/proof.png"},
	})

	rec := do(t, e, http.MethodPost, "/trades/"+trade.ID+"/release", seller, ConfirmReleaseRequest{Pin: "0000"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	e, st := newTestServer(t)
	userID := seedUser(t, st, domain.RoleUser, 0)
	bearer := token(t, userID, domain.RoleUser)

	// Unknown order is 404.
	rec := do(t, e, http.MethodPost, "/orders/"+uuid.New().String()+"/cancel", bearer, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)

	// Releasing an unpaid trade is a state conflict.
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	seller := token(t, sellerID, domain.RoleUser)
	var order domain.Order
	decode(t, do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 200, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	}), &order)
	var trade domain.Trade
	decode(t, do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", bearer, nil), &trade)
	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/release", seller, ConfirmReleaseRequest{Pin: testPin})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	e, st := newTestServer(t)
	userID := seedUser(t, st, domain.RoleUser, 0)
	adminID := seedUser(t, st, domain.RoleAdmin, 0)

	rec := do(t, e, http.MethodGet, "/admin/disputes", token(t, userID, domain.RoleUser), nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, e, http.MethodGet, "/admin/disputes", token(t, adminID, domain.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminWalletCreditDebit(t *testing.T) {
	e, st := newTestServer(t)
	userID := seedUser(t, st, domain.RoleUser, 0)
	adminID := seedUser(t, st, domain.RoleAdmin, 0)
	admin := token(t, adminID, domain.RoleAdmin)

	rec := do(t, e, http.MethodPost, "/admin/wallet/credit", admin, AdminWalletRequest{
		UserID: userID, Amount: 500, Reason: "signup bonus",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var acct domain.Account
	decode(t, rec, &acct)
	require.Equal(t, int64(500), acct.Available)

	rec = do(t, e, http.MethodPost, "/admin/wallet/debit", admin, AdminWalletRequest{
		UserID: userID, Amount: 200,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &acct)
	require.Equal(t, int64(300), acct.Available)

	// Both movements hit the audit trail with their admin entry types.
	entries, err := st.ListLedger(context.Background(), userID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	types := []string{entries[0].Type, entries[1].Type}
	require.Contains(t, types, domain.LedgerAdminCredit)
	require.Contains(t, types, domain.LedgerAdminDebit)

	// Debits cannot drive the balance negative.
	rec = do(t, e, http.MethodPost, "/admin/wallet/debit", admin, AdminWalletRequest{
		UserID: userID, Amount: 1000,
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	// Validation and role gating.
	rec = do(t, e, http.MethodPost, "/admin/wallet/credit", admin, AdminWalletRequest{UserID: userID, Amount: 0})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, e, http.MethodPost, "/admin/wallet/credit", token(t, userID, domain.RoleUser), AdminWalletRequest{
		UserID: userID, Amount: 500,
	})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDisputeFlowOverHTTP(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	adminID := seedUser(t, st, domain.RoleAdmin, 0)
	seller := token(t, sellerID, domain.RoleUser)
	buyer := token(t, buyerID, domain.RoleUser)
	admin := token(t, adminID, domain.RoleAdmin)

	var order domain.Order
	decode(t, do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 500, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	}), &order)
	var trade domain.Trade
	decode(t, do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", buyer, nil), &trade)
	do(t, e, http.MethodPost, "/trades/"+trade.ID+"/paid", buyer, MarkPaidRequest{
		Proof: domain.PaymentProof{URL: "https://img.example/proof.png"},
	})

	rec := do(t, e, http.MethodPost, "/trades/"+trade.ID+"/dispute", buyer, DisputeRequest{Reason: "seller unreachable"})
	require.Equal(t, http.StatusOK, rec.Code)

	var queue struct {
		Disputes []*domain.Trade `json:"disputes"`
	}
	decode(t, do(t, e, http.MethodGet, "/admin/disputes", admin, nil), &queue)
	require.Len(t, queue.Disputes, 1)

	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/resolve", admin, ResolveRequest{Resolution: domain.ReleaseToBuyer})
	require.Equal(t, http.StatusNotFound, rec.Code) // resolve lives under /admin

	rec = do(t, e, http.MethodPost, "/admin/trades/"+trade.ID+"/resolve", admin, ResolveRequest{Resolution: domain.ReleaseToBuyer})
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved domain.Trade
	decode(t, rec, &resolved)
	require.Equal(t, domain.TradeResolvedBuyer, resolved.Status)

	var acct domain.Account
	decode(t, do(t, e, http.MethodGet, "/wallet/balance", buyer, nil), &acct)
	require.Equal(t, int64(500), acct.Available)
}

func TestTradeChatOverHTTP(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	strangerID := seedUser(t, st, domain.RoleUser, 0)
	seller := token(t, sellerID, domain.RoleUser)
	buyer := token(t, buyerID, domain.RoleUser)

	var order domain.Order
	decode(t, do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 500, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	}), &order)
	var trade domain.Trade
	decode(t, do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", buyer, nil), &trade)

	rec := do(t, e, http.MethodPost, "/trades/"+trade.ID+"/messages", buyer, echo.Map{"text": "payment on the way"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/messages", token(t, strangerID, domain.RoleUser), echo.Map{"text": "hi"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	var thread struct {
		Messages []*domain.Message `json:"messages"`
	}
	decode(t, do(t, e, http.MethodGet, "/trades/"+trade.ID+"/messages", seller, nil), &thread)
	// Trade initiation appends a system line, the buyer added one more.
	require.Len(t, thread.Messages, 2)
}

func TestRatingOverHTTP(t *testing.T) {
	e, st := newTestServer(t)
	sellerID := seedUser(t, st, domain.RoleUser, 1000)
	buyerID := seedUser(t, st, domain.RoleUser, 0)
	seller := token(t, sellerID, domain.RoleUser)
	buyer := token(t, buyerID, domain.RoleUser)

	var order domain.Order
	decode(t, do(t, e, http.MethodPost, "/orders", seller, CreateOrderRequest{
		Amount: 500, PaymentMethod: "bkash", PaymentDetails: "01700000000",
	}), &order)
	var trade domain.Trade
	decode(t, do(t, e, http.MethodPost, "/orders/"+order.ID+"/trade", buyer, nil), &trade)
	do(t, e, http.MethodPost, "/trades/"+trade.ID+"/paid", buyer, MarkPaidRequest{
		Proof: domain.PaymentProof{URL: "https://img.example/proof.png"},
	})
	do(t, e, http.MethodPost, "/trades/"+trade.ID+"/release", seller, ConfirmReleaseRequest{Pin: testPin})

	rec := do(t, e, http.MethodPost, "/trades/"+trade.ID+"/rate", buyer, RateRequest{Rating: 5})
	require.Equal(t, http.StatusOK, rec.Code)
	var result map[string]interface{}
	decode(t, rec, &result)
	require.Equal(t, float64(5), result["trust_score"])

	// Ratings are once per side.
	rec = do(t, e, http.MethodPost, "/trades/"+trade.ID+"/rate", buyer, RateRequest{Rating: 1})
	require.Equal(t, http.StatusConflict, rec.Code)
}

func TestNotificationsOverHTTP(t *testing.T) {
	e, st := newTestServer(t)
	userID := seedUser(t, st, domain.RoleUser, 0)
	bearer := token(t, userID, domain.RoleUser)

	require.NoError(t, st.AddNotification(context.Background(), &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      "email:trade_paid",
		Title:     "Buyer marked trade as paid",
		CreatedAt: time.Now().UTC(),
	}))

	var page struct {
		Notifications []*domain.Notification `json:"notifications"`
	}
	rec := do(t, e, http.MethodGet, "/notifications", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &page)
	require.Len(t, page.Notifications, 1)

	rec = do(t, e, http.MethodPost, "/notifications/"+page.Notifications[0].ID+"/read", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Marking twice reports not found.
	rec = do(t, e, http.MethodPost, "/notifications/"+page.Notifications[0].ID+"/read", bearer, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
