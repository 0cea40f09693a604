// Package notifications publishes domain events to Redis pub/sub channels.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"strider/internal/observability"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Event types.
const (
	PostCreated           = "post.created"
	PostDeleted           = "post.deleted"
	CommentCreated        = "comment.created"
	FriendRequestSent     = "friend.request_sent"
	FriendRequestAccepted = "friend.request_accepted"
	CaptionGenerated      = "caption.generated"
)

// Event is the payload published for every domain change. Subject is the document the
// event is about; Recipient, when set, is the user the event is addressed to.
type Event struct {
	Type      string     `json:"type"`
	Actor     uuid.UUID  `json:"actor,omitzero"`
	Subject   uuid.UUID  `json:"subject,omitzero"`
	Recipient *uuid.UUID `json:"recipient,omitempty"`
	At        time.Time  `json:"at"`
}

// EventChannel is the channel every event of the given type goes to.
func EventChannel(eventType string) string {
	return "events:" + eventType
}

// UserChannel carries events addressed to one user.
func UserChannel(userID uuid.UUID) string {
	return fmt.Sprintf("notifications:user:%s", userID)
}

// Notifier provides helpers to publish notifications into Redis channels
type Notifier struct {
	rdb *redis.Client
}

// NewNotifier creates a new Notifier instance using the provided Redis client.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb}
}

// Publish sends ev to its type channel and, when addressed, to the recipient's channel.
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

	channels := []string{EventChannel(ev.Type)}
	if ev.Recipient != nil {
		channels = append(channels, UserChannel(*ev.Recipient))
	}

	pipe := n.rdb.Pipeline()
	for _, ch := range channels {
		pipe.Publish(ctx, ch, payload)
	}
	_, err = pipe.Exec(ctx)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	observability.DomainEventsPublished.WithLabelValues(ev.Type, outcome).Inc()
	if err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}
	return nil
}

// Subscribe delivers every event until ctx is cancelled. onEvent runs on a single
// goroutine; a panic in it is logged and does not stop delivery.
func (n *Notifier) Subscribe(ctx context.Context, onEvent func(channel string, ev Event)) error {
	if n == nil || n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "events:*", "notifications:user:*")
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
					slog.Warn("dropping malformed event", slog.String("channel", msg.Channel), slog.String("error", err.Error()))
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in event subscriber", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
						}
					}()
					onEvent(msg.Channel, ev)
				}()
			}
		}
	}()

	return nil
}
