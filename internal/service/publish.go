package service

import (
	"context"

	"github.com/Skotchmaster/bus_pass/internal/events"
	"github.com/Skotchmaster/bus_pass/pkg/logging"
)

// publish never fails the caller; a lost event is logged and dropped.
func publish(ctx context.Context, p events.Publisher, key string, ev events.Event) {
	if p == nil {
		return
	}
	if err := p.PublishEvent(ctx, key, ev); err != nil {
		logging.FromContext(ctx).Warn("publish_event_failed", "type", ev.Type, "key", key, "error", err)
	}
}
