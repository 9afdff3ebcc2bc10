package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/canteen/internal/logging"
)

const (
	TopicOrderEvents   = "order_events"
	TopicPaymentEvents = "payment_events"
	TopicUserEvents    = "user_events"
)

const publishTimeout = 5 * time.Second

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish is fire-and-forget: a failed publish is logged and never undoes
// the committed write.
func publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("event_publish_error", "topic", topic, "type", event["type"], "error", err)
	}
}
