// Command events tails the domain events the API publishes to Redis, one JSON line each.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"strider/internal/cache"
	"strider/internal/config"
	"strider/internal/notifications"

	"github.com/google/uuid"
)

// filter narrows the tail to some event types and to events addressed to one user.
type filter struct {
	types map[string]bool
	user  uuid.UUID
}

func newFilter(types, user string) (filter, error) {
	f := filter{}
	for _, t := range strings.Split(types, ",") {
		if t = strings.TrimSpace(t); t != "" {
			if f.types == nil {
				f.types = make(map[string]bool)
			}
			f.types[t] = true
		}
	}
	if user != "" {
		id, err := uuid.Parse(user)
		if err != nil {
			return filter{}, fmt.Errorf("invalid -user %q: %w", user, err)
		}
		f.user = id
	}
	return f, nil
}

// match reports whether the event received on channel passes the filter. Each event is
// published once per channel, so without -user only the type channel is shown.
func (f filter) match(channel string, ev notifications.Event) bool {
	if f.types != nil && !f.types[ev.Type] {
		return false
	}
	if f.user != uuid.Nil {
		return channel == notifications.UserChannel(f.user)
	}
	return channel == notifications.EventChannel(ev.Type)
}

type line struct {
	Channel string              `json:"channel"`
	Event   notifications.Event `json:"event"`
}

// tail writes every matching event to w until ctx is done.
func tail(ctx context.Context, n *notifications.Notifier, f filter, w io.Writer) error {
	enc := json.NewEncoder(w)
	if err := n.Subscribe(ctx, func(channel string, ev notifications.Event) {
		if !f.match(channel, ev) {
			return
		}
		if err := enc.Encode(line{Channel: channel, Event: ev}); err != nil {
			log.Printf("write event: %v", err)
		}
	}); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func main() {
	types := flag.String("type", "", "Comma-separated event types to show, e.g. post.created,comment.created")
	user := flag.String("user", "", "Only show events addressed to this user id")
	flag.Parse()

	f, err := newFilter(*types, *user)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	rdb, err := cache.InitRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() { _ = rdb.Close() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tail(ctx, notifications.NewNotifier(rdb), f, os.Stdout); err != nil {
		log.Fatalf("Tail failed: %v", err)
	}
}
