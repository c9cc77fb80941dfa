package nats

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/nats-io/nats.go"

	"voice/internal/asset"
	"voice/internal/model"
	"voice/internal/service"
)

// Command topics. Issue and transfer are the high-volume operations worth a
// fire-and-forget path; everything else goes through HTTP.
const (
	IssueTopic    = "voice.cmd.issue"
	TransferTopic = "voice.cmd.transfer"

	queueGroup = "voice_ledger"
)

// Handler subscribes to NATS command topics and delegates to the ledger.
type Handler struct {
	svc  service.Voice
	nc   *nats.Conn
	subs []*nats.Subscription
}

func NewHandler(svc service.Voice, nc *nats.Conn) *Handler {
	return &Handler{svc: svc, nc: nc}
}

// Start subscribes to command topics and blocks until ctx is cancelled.
func (h *Handler) Start(ctx context.Context) error {
	s1, err := h.nc.QueueSubscribe(IssueTopic, queueGroup, func(m *nats.Msg) {
		var req model.IssueRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			slog.Error("nats: failed to unmarshal issue command", "error", err)
			return
		}
		quantity, err := asset.Parse(req.Quantity)
		if err != nil {
			slog.Error("nats: bad quantity in issue command", "quantity", req.Quantity, "error", err)
			return
		}
		if err := h.svc.Issue(ctx, req.Caller, req.Tenant, req.To, quantity, req.Memo); err != nil {
			slog.Error("nats: issue failed", "tenant", req.Tenant, "to", req.To, "error", err)
		}
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s1)

	s2, err := h.nc.QueueSubscribe(TransferTopic, queueGroup, func(m *nats.Msg) {
		var req model.TransferRequest
		if err := json.Unmarshal(m.Data, &req); err != nil {
			slog.Error("nats: failed to unmarshal transfer command", "error", err)
			return
		}
		quantity, err := asset.Parse(req.Quantity)
		if err != nil {
			slog.Error("nats: bad quantity in transfer command", "quantity", req.Quantity, "error", err)
			return
		}
		if err := h.svc.Transfer(ctx, req.Caller, req.Tenant, req.From, req.To, quantity, req.Memo); err != nil {
			slog.Error("nats: transfer failed", "tenant", req.Tenant, "from", req.From, "error", err)
		}
	})
	if err != nil {
		return err
	}
	h.subs = append(h.subs, s2)

	slog.Info("NATS command handler is running")

	<-ctx.Done()
	slog.Info("NATS command handler shutting down, draining subscriptions...")
	for _, s := range h.subs {
		_ = s.Drain()
	}
	return nil
}

func (h *Handler) Stop(ctx context.Context) error {
	for _, s := range h.subs {
		_ = s.Unsubscribe()
	}
	return nil
}
