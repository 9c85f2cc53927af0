package services

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

// publish emits an activity event. Publishing is best effort: a failure is
// logged and never fails the user's operation.
func publish(ctx context.Context, p ports.ActivityPublisher, evt ports.ActivityEvent) {
	if p == nil {
		return
	}
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if err := p.PublishActivity(ctx, evt); err != nil {
		log.Printf("activity %s not published: %v", evt.Type, err)
	}
}

func activity(sess *Session, typ ports.ActivityType, action string, resourceID int64) ports.ActivityEvent {
	evt := actorOf(sess)
	evt.Type = typ
	evt.Action = action
	evt.ResourceID = resourceID
	return evt
}
