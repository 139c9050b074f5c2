package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/events"
)

// NotificationService fans domain events out to notification channels. Email
// and webhook delivery are stubs that log what would be sent; the routing
// (which event reaches which channel) is the part that matters here.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

type notifyChannel int

const (
	viaEmail notifyChannel = iota
	viaWebhook
)

// RegisterHandlers wires the routing table. Ticket creation, new messages,
// expiring contracts, and appointments reach the requester by email; state
// changes go to the webhook for external integrations.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.forward(viaEmail, viaWebhook))
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.forward(viaWebhook))
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.forward(viaWebhook))
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.forward(viaEmail))
	n.dispatcher.Subscribe(events.EventContractCreated, n.forward(viaWebhook))
	n.dispatcher.Subscribe(events.EventContractUpdated, n.forward(viaWebhook))
	n.dispatcher.Subscribe(events.EventContractRenewed, n.forward(viaWebhook))
	n.dispatcher.Subscribe(events.EventContractExpiring, n.forward(viaEmail, viaWebhook))
	n.dispatcher.Subscribe(events.EventAppointmentScheduled, n.forward(viaEmail))
	n.dispatcher.Subscribe(events.EventAppointmentCompleted, n.forward(viaEmail))
}

func (n *NotificationService) forward(channels ...notifyChannel) events.EventHandler {
	return func(ctx context.Context, event events.Event) error {
		n.logger.Info(string(event.Type), eventFields(event)...)
		for _, ch := range channels {
			switch ch {
			case viaEmail:
				n.sendEmailStub(ctx, event)
			case viaWebhook:
				n.sendWebhookStub(ctx, event)
			}
		}
		return nil
	}
}

func eventFields(event events.Event) []zap.Field {
	fields := make([]zap.Field, 0, 3)
	if event.TicketID != "" {
		fields = append(fields, zap.String("ticket_id", event.TicketID))
	}
	if event.ContractID != "" {
		fields = append(fields, zap.String("contract_id", event.ContractID))
	}
	return append(fields, zap.Any("payload", event.Payload))
}

func (n *NotificationService) sendEmailStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("email notification",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(_ context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("webhook notification",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("event_type", string(event.Type)))
}
