package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/tecnochamados/internal/events"
	"github.com/spec-kit/tecnochamados/internal/observability"
)

// NotificationService turns domain events into audit log lines and
// counters.
type NotificationService struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("audit"),
	}
}

var auditedEvents = []events.EventType{
	events.EventUserInvited,
	events.EventUserActivated,
	events.EventTicketCreated,
	events.EventTicketUpdated,
	events.EventTicketDeleted,
}

type wildcardSubscriber interface {
	SubscribeAll(handler events.EventHandler)
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, t := range auditedEvents {
		n.dispatcher.Subscribe(t, n.handleAudit)
	}
	n.dispatcher.Subscribe(events.EventActivationIncomplete, n.handleActivationIncomplete)

	if all, ok := n.dispatcher.(wildcardSubscriber); ok {
		all.SubscribeAll(n.count)
		return
	}
	for _, t := range append(auditedEvents, events.EventActivationIncomplete) {
		n.dispatcher.Subscribe(t, n.count)
	}
}

func (n *NotificationService) count(_ context.Context, event events.Event) error {
	n.metrics.ObserveEvent(string(event.Type))
	return nil
}

func (n *NotificationService) handleAudit(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("subject_id", event.SubjectID),
		zap.String("actor_id", event.Actor.UserID),
		zap.Any("payload", event.Payload))
	return nil
}

// handleActivationIncomplete is logged at error level: an operator has to
// reconcile the account by hand.
func (n *NotificationService) handleActivationIncomplete(_ context.Context, event events.Event) error {
	n.logger.Error("account needs reconciliation",
		zap.String("event_id", event.ID),
		zap.String("account_id", event.SubjectID),
		zap.Any("payload", event.Payload))
	return nil
}
