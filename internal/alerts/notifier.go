package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/smmonirhasan92/man2man-sub003/internal/domain"
	"github.com/smmonirhasan92/man2man-sub003/internal/store"
)

// Notifier fans trade lifecycle events out as in-app notifications and
// queued emails. Everything here is best-effort: a committed fund movement
// is never rolled back because a notification failed, so errors are logged
// and swallowed.
type Notifier struct {
	client *asynq.Client
	store  store.Store
}

// NewNotifier connects an asynq client to the given redis address. An empty
// address disables the email queue; in-app notifications still work.
func NewNotifier(redisAddr string, st store.Store) *Notifier {
	n := &Notifier{store: st}
	if redisAddr != "" {
		n.client = asynq.NewClient(asynq.RedisClientOpt{Addr: redisAddr})
	}
	return n
}

func (n *Notifier) Close() {
	if n.client != nil {
		_ = n.client.Close()
	}
}

func (n *Notifier) TradeStarted(t *domain.Trade) {
	n.emit(TaskTradeStarted, t.SellerID, t.ID, "Buyer matched your order",
		fmt.Sprintf("Trade %s opened for %d. Wait for the buyer's payment, then release.", t.ID, t.Amount))
	n.emit(TaskTradeStarted, t.BuyerID, t.ID, "Trade started",
		fmt.Sprintf("Trade %s opened for %d. Pay the seller off-platform and mark the trade paid.", t.ID, t.Amount))
}

func (n *Notifier) TradePaid(t *domain.Trade) {
	n.emit(TaskTradePaid, t.SellerID, t.ID, "Buyer marked trade as paid",
		fmt.Sprintf("Trade %s: the buyer submitted payment proof. Verify the payment and confirm release.", t.ID))
}

func (n *Notifier) TradeCompleted(t *domain.Trade) {
	n.emit(TaskTradeCompleted, t.BuyerID, t.ID, "Funds released",
		fmt.Sprintf("Trade %s completed. %d credited to your balance.", t.ID, t.Amount-t.Fee))
	n.emit(TaskTradeCompleted, t.SellerID, t.ID, "Trade completed",
		fmt.Sprintf("Trade %s completed. Escrowed funds were released to the buyer.", t.ID))
}

func (n *Notifier) DisputeOpened(t *domain.Trade) {
	n.emit(TaskDisputeOpened, t.BuyerID, t.ID, "Trade under dispute",
		fmt.Sprintf("Trade %s is frozen pending admin review.", t.ID))
	n.emit(TaskDisputeOpened, t.SellerID, t.ID, "Trade under dispute",
		fmt.Sprintf("Trade %s is frozen pending admin review.", t.ID))
}

func (n *Notifier) DisputeResolved(t *domain.Trade, res domain.DisputeResolution) {
	outcome := "escrowed funds were returned to the seller"
	if res == domain.ReleaseToBuyer {
		outcome = "escrowed funds were released to the buyer"
	}
	body := fmt.Sprintf("Trade %s dispute resolved: %s.", t.ID, outcome)
	n.emit(TaskDisputeResolved, t.BuyerID, t.ID, "Dispute resolved", body)
	n.emit(TaskDisputeResolved, t.SellerID, t.ID, "Dispute resolved", body)
}

// BalanceUpdated writes an in-app notification only. Balance changes are too
// frequent to email.
func (n *Notifier) BalanceUpdated(userID string) {
	ctx := context.Background()
	err := n.store.AddNotification(ctx, &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      "balance",
		Title:     "Balance updated",
		Body:      "Your account balance changed.",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[notify][ERROR] balance notification failed: user=%s err=%v", userID, err)
	}
}

func (n *Notifier) emit(taskType, userID, tradeID, title, body string) {
	ctx := context.Background()
	err := n.store.AddNotification(ctx, &domain.Notification{
		ID:        uuid.New().String(),
		UserID:    userID,
		Type:      taskType,
		Title:     title,
		Body:      body,
		Reference: tradeID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[notify][ERROR] store notification failed: user=%s err=%v", userID, err)
	}

	if n.client == nil {
		return
	}
	user, err := n.store.GetUser(ctx, userID)
	if err != nil {
		log.Printf("[notify][ERROR] recipient lookup failed: user=%s err=%v", userID, err)
		return
	}
	payload := EmailPayload{
		UserID:  userID,
		TradeID: tradeID,
		Envelope: EmailEnvelope{
			To:      user.Email,
			Subject: title,
			Body:    body,
		},
		SentAt: time.Now().UTC(),
	}
	b, _ := json.Marshal(payload)
	if _, err := n.client.Enqueue(asynq.NewTask(taskType, b), asynq.Queue("emails")); err != nil {
		log.Printf("[notify][ERROR] enqueue failed: type=%s user=%s err=%v", taskType, userID, err)
	}
}
