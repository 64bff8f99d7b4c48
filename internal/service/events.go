// Package service implements the use cases behind the HTTP API: input
// validation, authorization and the facade calls that follow.
package service

import (
	"context"

	"hbnb/internal/middleware"
	"hbnb/internal/models"
	"hbnb/internal/notifications"
	"hbnb/internal/policy"
)

// Publisher receives change events after successful writes.
type Publisher interface {
	Publish(ctx context.Context, ev notifications.Event) error
}

type emitter struct {
	events Publisher
}

// emit publishes best-effort: a failed publish never fails the write.
func (e emitter) emit(ctx context.Context, kind models.Kind, op notifications.Op, id string, actor policy.Principal) {
	if e.events == nil {
		return
	}
	ev := notifications.Event{Kind: string(kind), Op: op, ID: id, ActorID: actor.UserID}
	if err := e.events.Publish(ctx, ev); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish event",
			"kind", kind, "op", op, "id", id, "error", err)
	}
}

func notFound(kind models.Kind) error {
	return models.NewNotFoundError(kind.Label())
}
