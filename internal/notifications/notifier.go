// Package notifications publishes entity change events over Redis pub/sub.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"hbnb/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// EventsChannel carries every change event.
const EventsChannel = "hbnb:events"

// Op is the kind of change an Event reports.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event describes one successful write.
type Event struct {
	Kind    string    `json:"kind"`
	Op      Op        `json:"op"`
	ID      string    `json:"id"`
	ActorID string    `json:"actor_id,omitempty"`
	At      time.Time `json:"at"`
}

// Notifier publishes events to Redis. A Notifier without a client drops
// events silently.
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a Notifier over rdb, which may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// KindChannel is the per-kind channel, e.g. hbnb:events:place.
func KindChannel(kind string) string {
	return fmt.Sprintf("%s:%s", EventsChannel, kind)
}

// Publish sends ev to the shared channel and to its kind channel.
func (n *Notifier) Publish(ctx context.Context, ev Event) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	pipe := n.rdb.Pipeline()
	pipe.Publish(ctx, EventsChannel, payload)
	pipe.Publish(ctx, KindChannel(ev.Kind), payload)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe calls onEvent for every event until ctx is done. It returns
// once the subscription is confirmed.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.Subscribe(ctx, EventsChannel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe: %w", err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					middleware.Logger.Warn("dropping malformed event", "error", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					onEvent(ev)
				}()
			}
		}
	}()
	return nil
}
