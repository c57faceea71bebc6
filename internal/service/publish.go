package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/tecnochamados/internal/events"
)

func publish(ctx context.Context, d events.Dispatcher, t events.EventType, subjectID string, actor events.Actor, payload any) {
	if d == nil {
		return
	}
	_ = d.Publish(ctx, events.Event{
		ID:        uuid.NewString(),
		Type:      t,
		SubjectID: subjectID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
}
