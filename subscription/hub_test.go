package subscription

import (
	"context"
	"testing"
	"time"

	"github.com/streamingfast/algebra-analytics/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHub_RoutesByTable(t *testing.T) {
	ctx := context.Background()
	hub, err := NewHub("Pool", "Token")
	require.NoError(t, err)

	pools := NewSubscriber()
	all := NewSubscriber()
	require.NoError(t, hub.Subscribe(pools, "Pool"))
	require.NoError(t, hub.Subscribe(all, AllTopics))

	deltas := []state.StateDelta{
		{Op: "c", Ordinal: 1, Key: "Pool:0x01", NewValue: []byte(`{}`)},
		{Op: "u", Ordinal: 2, Key: "Token:0x02", OldValue: []byte(`{}`), NewValue: []byte(`{"a":1}`)},
		{Op: "c", Ordinal: 3, Key: "Swap:0xaa#1", NewValue: []byte(`{}`)},
	}
	require.NoError(t, hub.Publish(ctx, deltas))

	assert.Equal(t, 1, pools.Pending())
	delta, err := pools.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Pool:0x01", delta.Key)

	assert.Equal(t, 3, all.Pending())
	for _, expected := range deltas {
		delta, err := all.Next(ctx)
		require.NoError(t, err)
		assert.Equal(t, expected, *delta)
	}
}

func TestHub_Topics(t *testing.T) {
	hub, err := NewHub("Pool")
	require.NoError(t, err)

	assert.Error(t, hub.RegisterTopic("Pool"))
	assert.Error(t, hub.RegisterTopic(AllTopics))
	assert.Error(t, hub.Subscribe(NewSubscriber(), "Unknown"))

	_, err = NewHub("Pool", "Pool")
	assert.Error(t, err)
}

func TestHub_Unsubscribe(t *testing.T) {
	ctx := context.Background()
	hub, err := NewHub("Pool")
	require.NoError(t, err)

	sub := NewSubscriber()
	require.NoError(t, hub.Subscribe(sub, "Pool"))
	require.NoError(t, hub.Subscribe(sub, AllTopics))
	hub.Unsubscribe(sub)

	require.NoError(t, hub.BroadcastDelta(ctx, state.StateDelta{Op: "c", Key: "Pool:0x01"}))
	assert.Equal(t, 0, sub.Pending())
}

func TestHub_FullSubscriberHonorsContext(t *testing.T) {
	hub, err := NewHub("Pool")
	require.NoError(t, err)

	sub := NewBufferedSubscriber(1)
	require.NoError(t, hub.Subscribe(sub, "Pool"))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err = hub.BroadcastDeltas(ctx, []state.StateDelta{{Key: "Pool:1"}, {Key: "Pool:2"}})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSubscriber_NextHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewSubscriber().Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
