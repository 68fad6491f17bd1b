package pipeline

import (
	"context"

	"github.com/streamingfast/algebra-analytics/entity"
	"github.com/streamingfast/algebra-analytics/state"
	"github.com/streamingfast/algebra-analytics/subscription"
	"go.uber.org/zap"
)

// NewSubscriptionHub returns a hub with a topic per entity table.
func NewSubscriptionHub() (*subscription.Hub, error) {
	return subscription.NewHub(entity.Tables...)
}

// PrintDeltas prints every delta published on topic until ctx is done.
func PrintDeltas(ctx context.Context, hub *subscription.Hub, topic string, builder *state.Builder) error {
	subscriber := subscription.NewSubscriber()
	if err := hub.Subscribe(subscriber, topic); err != nil {
		return err
	}

	go func() {
		defer hub.Unsubscribe(subscriber)
		for {
			delta, err := subscriber.Next(ctx)
			if err != nil {
				zlog.Debug("delta printer stopped", zap.String("topic", topic), zap.Error(err))
				return
			}
			builder.PrintDelta(delta)
		}
	}()
	return nil
}
