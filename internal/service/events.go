package service

import (
	"context"
	"time"

	"github.com/Skotchmaster/minishop/pkg/logging"
)

const (
	TopicItemEvents = "item_events"
	TopicCartEvents = "cart_events"

	publishTimeout = 5 * time.Second
)

// Publisher delivers domain events. *mykafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// publish never fails the caller: the store mutation already happened.
func publish(ctx context.Context, p Publisher, topic, key string, event map[string]any) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.PublishEvent(ctx, topic, key, event); err != nil {
		logging.FromContext(ctx).Error("publish_event_failed", "topic", topic, "type", event["type"], "error", err)
	}
}
