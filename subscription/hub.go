package subscription

import (
	"context"
	"fmt"
	"sync"

	"github.com/streamingfast/algebra-analytics/state"
	"go.uber.org/zap"
)

// AllTopics receives the deltas of every table.
const AllTopics = "*"

type topicSubscriptions map[string][]*Subscriber

// Hub fans committed deltas out to in process subscribers. A delta is
// delivered on the topic of its entity table and on AllTopics.
type Hub struct {
	topicSubscriptions topicSubscriptions
	subscribersMutex   sync.Mutex // Locks `topicSubscriptions` reads and writes
}

func NewHub(topics ...string) (*Hub, error) {
	h := &Hub{
		topicSubscriptions: topicSubscriptions{AllTopics: {}},
	}
	for _, topic := range topics {
		if err := h.RegisterTopic(topic); err != nil {
			return nil, err
		}
	}
	return h, nil
}

func (h *Hub) RegisterTopic(topic string) error {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	if _, found := h.topicSubscriptions[topic]; found {
		return fmt.Errorf("topic [%s] already registered", topic)
	}

	h.topicSubscriptions[topic] = []*Subscriber{}
	return nil
}

// Publish lets the hub act as a pipeline sink.
func (h *Hub) Publish(ctx context.Context, deltas []state.StateDelta) error {
	return h.BroadcastDeltas(ctx, deltas)
}

// BroadcastDeltas blocks on full subscriber buffers until ctx is done.
// Deltas of unregistered tables only reach AllTopics subscribers.
func (h *Hub) BroadcastDeltas(ctx context.Context, deltas []state.StateDelta) error {
	if len(deltas) == 0 {
		return nil
	}
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	for _, delta := range deltas {
		if err := h.broadcast(ctx, h.topicSubscriptions[delta.Table()], delta); err != nil {
			return err
		}
		if err := h.broadcast(ctx, h.topicSubscriptions[AllTopics], delta); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) BroadcastDelta(ctx context.Context, delta state.StateDelta) error {
	return h.BroadcastDeltas(ctx, []state.StateDelta{delta})
}

func (h *Hub) broadcast(ctx context.Context, subscriptions []*Subscriber, delta state.StateDelta) error {
	for _, subscription := range subscriptions {
		select {
		case subscription.input <- delta:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (h *Hub) Subscribe(subscriber *Subscriber, topic string) error {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	if subscriptions, found := h.topicSubscriptions[topic]; found {
		h.topicSubscriptions[topic] = append(subscriptions, subscriber)
		zlog.Debug("subscribed", zap.String("topic", topic), zap.Int("subscribers", len(subscriptions)+1))
		return nil
	}

	return fmt.Errorf("topic [%s] not found", topic)
}

func (h *Hub) Unsubscribe(removeSub *Subscriber) {
	h.subscribersMutex.Lock()
	defer h.subscribersMutex.Unlock()

	for topic, subscriptions := range h.topicSubscriptions {
		var kept []*Subscriber
		for _, sub := range subscriptions {
			if sub != removeSub {
				kept = append(kept, sub)
			}
		}
		h.topicSubscriptions[topic] = kept
	}
}
