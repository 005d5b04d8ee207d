package alerts

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// Processor drains the email queue. It runs inside the API process; queue
// depth is expected to stay small.
type Processor struct {
	server *asynq.Server
	mailer *Mailer
}

func NewProcessor(redisAddr string, mailer *Mailer) *Processor {
	opts := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"emails": 10,
		},
	})
	return &Processor{server: server, mailer: mailer}
}

// Start runs the worker loop in the background.
func (p *Processor) Start() {
	mux := asynq.NewServeMux()
	for _, taskType := range []string{
		TaskTradeStarted,
		TaskTradePaid,
		TaskTradeCompleted,
		TaskDisputeOpened,
		TaskDisputeResolved,
	} {
		mux.HandleFunc(taskType, p.handleEmail)
	}
	go func() {
		if err := p.server.Run(mux); err != nil {
			log.Printf("asynq server stopped: %v", err)
		}
	}()
}

func (p *Processor) Shutdown() {
	p.server.Shutdown()
}

func (p *Processor) handleEmail(_ context.Context, t *asynq.Task) error {
	var payload EmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}
	if err := p.mailer.Send(payload.Envelope.To, payload.Envelope.Subject, payload.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] %s send failed: to=%s err=%v", t.Type(), payload.Envelope.To, err)
		return err
	}
	log.Printf("[notify] %s sent -> to=%s trade=%s", t.Type(), payload.Envelope.To, payload.TradeID)
	return nil
}
